// Package fixedpoint provides the checked integer arithmetic shared by the
// generator and voting escrow engines. Operands are carried as *big.Int for
// storage compatibility but every operation is evaluated in 256-bit space so
// overflow aborts the caller instead of silently growing or wrapping.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrArithmeticOverflow is returned when an operation leaves the unsigned
// 256-bit domain (overflow, underflow, negative operand or division by zero).
var ErrArithmeticOverflow = errors.New("fixedpoint: arithmetic overflow")

// BasisPoints is the denominator for bps-denominated shares.
const BasisPoints = 10_000

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrArithmeticOverflow
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return out, nil
}

func operands(values ...*big.Int) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		converted, err := toU256(v)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// Add returns a+b.
func Add(a, b *big.Int) (*big.Int, error) {
	ops, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(ops[0], ops[1])
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return sum.ToBig(), nil
}

// Sub returns a-b and fails on underflow.
func Sub(a, b *big.Int) (*big.Int, error) {
	ops, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	diff, underflow := new(uint256.Int).SubOverflow(ops[0], ops[1])
	if underflow {
		return nil, ErrArithmeticOverflow
	}
	return diff.ToBig(), nil
}

// SubFloor returns max(0, a-b). It is reserved for quantities whose policy is
// clamp-to-zero (voting power, pending reward floor).
func SubFloor(a, b *big.Int) (*big.Int, error) {
	ops, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	if ops[0].Cmp(ops[1]) <= 0 {
		return big.NewInt(0), nil
	}
	return new(uint256.Int).Sub(ops[0], ops[1]).ToBig(), nil
}

// Mul returns a*b.
func Mul(a, b *big.Int) (*big.Int, error) {
	ops, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	product, overflow := new(uint256.Int).MulOverflow(ops[0], ops[1])
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return product.ToBig(), nil
}

// MulUint64 returns a*n.
func MulUint64(a *big.Int, n uint64) (*big.Int, error) {
	return Mul(a, new(big.Int).SetUint64(n))
}

// Quo returns a/d truncated toward zero.
func Quo(a, d *big.Int) (*big.Int, error) {
	ops, err := operands(a, d)
	if err != nil {
		return nil, err
	}
	if ops[1].IsZero() {
		return nil, ErrArithmeticOverflow
	}
	return new(uint256.Int).Div(ops[0], ops[1]).ToBig(), nil
}

// MulDiv returns a*b/d truncated toward zero. The intermediate product may use
// up to 512 bits; only the final quotient must fit in 256 bits.
func MulDiv(a, b, d *big.Int) (*big.Int, error) {
	ops, err := operands(a, b, d)
	if err != nil {
		return nil, err
	}
	if ops[2].IsZero() {
		return nil, ErrArithmeticOverflow
	}
	result, overflow := new(uint256.Int).MulDivOverflow(ops[0], ops[1], ops[2])
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return result.ToBig(), nil
}

// MulDivUp returns a*b/d rounded up. It is used where rounding must favour
// the ledger over the account holder.
func MulDivUp(a, b, d *big.Int) (*big.Int, error) {
	ops, err := operands(a, b, d)
	if err != nil {
		return nil, err
	}
	if ops[2].IsZero() {
		return nil, ErrArithmeticOverflow
	}
	product := new(big.Int).Mul(ops[0].ToBig(), ops[1].ToBig())
	quo, rem := new(big.Int).QuoRem(product, ops[2].ToBig(), new(big.Int))
	if rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if _, overflow := uint256.FromBig(quo); overflow {
		return nil, ErrArithmeticOverflow
	}
	return quo, nil
}

// BpsOf returns amount*bps/10000 truncated.
func BpsOf(amount *big.Int, bps uint64) (*big.Int, error) {
	if bps == 0 {
		return big.NewInt(0), nil
	}
	return MulDiv(amount, new(big.Int).SetUint64(bps), big.NewInt(BasisPoints))
}

// Copy returns a detached copy of v, mapping nil to zero.
func Copy(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// IsZero reports whether v is nil or zero.
func IsZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
