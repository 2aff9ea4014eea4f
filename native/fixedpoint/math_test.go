package fixedpoint

import (
	"errors"
	"math/big"
	"testing"
)

func maxU256() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 256)
	return limit.Sub(limit, big.NewInt(1))
}

func TestAddOverflow(t *testing.T) {
	if _, err := Add(maxU256(), big.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	sum, err := Add(big.NewInt(2), big.NewInt(3))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected sum %s", sum)
	}
}

func TestSubUnderflowAndFloor(t *testing.T) {
	if _, err := Sub(big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	floored, err := SubFloor(big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("sub floor: %v", err)
	}
	if floored.Sign() != 0 {
		t.Fatalf("expected zero, got %s", floored)
	}
	floored, err = SubFloor(big.NewInt(7), big.NewInt(2))
	if err != nil {
		t.Fatalf("sub floor: %v", err)
	}
	if floored.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected 5, got %s", floored)
	}
}

func TestMulDivTruncates(t *testing.T) {
	cases := []struct {
		a, b, d int64
		want    int64
	}{
		{1000, 1, 3, 333},
		{10, 10, 3, 33},
		{7, 0, 5, 0},
		{1_000_000, 1_000_000_000_000, 500, 2_000_000_000_000_000},
	}
	for _, tc := range cases {
		got, err := MulDiv(big.NewInt(tc.a), big.NewInt(tc.b), big.NewInt(tc.d))
		if err != nil {
			t.Fatalf("muldiv(%d,%d,%d): %v", tc.a, tc.b, tc.d, err)
		}
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("muldiv(%d,%d,%d) = %s want %d", tc.a, tc.b, tc.d, got, tc.want)
		}
	}
}

func TestMulDivWideIntermediate(t *testing.T) {
	// max*max/max fits even though the product does not.
	got, err := MulDiv(maxU256(), maxU256(), maxU256())
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got.Cmp(maxU256()) != 0 {
		t.Fatalf("unexpected result %s", got)
	}
	if _, err := MulDiv(maxU256(), big.NewInt(2), big.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestRejectsNegativeAndZeroDivisor(t *testing.T) {
	if _, err := Mul(big.NewInt(-1), big.NewInt(2)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected negative operand rejection, got %v", err)
	}
	if _, err := Quo(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected division by zero rejection, got %v", err)
	}
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), nil); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected nil divisor rejection, got %v", err)
	}
}

func TestBpsOf(t *testing.T) {
	got, err := BpsOf(big.NewInt(1000), 1000)
	if err != nil {
		t.Fatalf("bps: %v", err)
	}
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100, got %s", got)
	}
	zero, err := BpsOf(big.NewInt(1000), 0)
	if err != nil || zero.Sign() != 0 {
		t.Fatalf("expected zero share, got %v %v", zero, err)
	}
}

func TestMulDivUpRoundsAwayFromZero(t *testing.T) {
	got, err := MulDivUp(big.NewInt(10), big.NewInt(1), big.NewInt(3))
	if err != nil {
		t.Fatalf("muldivup: %v", err)
	}
	if got.Int64() != 4 {
		t.Fatalf("expected 4, got %s", got)
	}
	exact, err := MulDivUp(big.NewInt(9), big.NewInt(1), big.NewInt(3))
	if err != nil {
		t.Fatalf("muldivup: %v", err)
	}
	if exact.Int64() != 3 {
		t.Fatalf("expected 3, got %s", exact)
	}
	if _, err := MulDivUp(big.NewInt(1), big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for zero divisor, got %v", err)
	}
}
