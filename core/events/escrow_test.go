package events

import (
	"math/big"
	"testing"

	"github.com/exfury/gridiron-core/crypto"
)

func TestEscrowLockEventOmitsSelfFunder(t *testing.T) {
	account := [20]byte{19: 1}
	evt := EscrowLock{
		Kind:      TypeEscrowLockCreated,
		Account:   account,
		Funder:    account,
		Amount:    big.NewInt(10),
		Locked:    big.NewInt(10),
		EndPeriod: 52,
	}.Event()
	if evt.Type != TypeEscrowLockCreated {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if _, ok := evt.Attributes["funder"]; ok {
		t.Fatalf("funder must be omitted for self funded locks")
	}
	if evt.Attr("addr") != crypto.FromRaw(account).String() {
		t.Fatalf("unexpected addr attribute %s", evt.Attr("addr"))
	}
	if evt.Attr("endPeriod") != "52" {
		t.Fatalf("unexpected end period %s", evt.Attr("endPeriod"))
	}
}

func TestCollectorDrain(t *testing.T) {
	var c Collector
	c.Emit(GeneratorRewardPaid{Amount: big.NewInt(5)})
	c.Emit(EscrowBlacklistUpdated{Appended: [][20]byte{{1}}})
	drained := c.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 events, got %d", len(drained))
	}
	if drained[0].Attr("amount") != "5" {
		t.Fatalf("unexpected amount %s", drained[0].Attr("amount"))
	}
	if len(c.Drain()) != 0 {
		t.Fatalf("collector not reset")
	}
}
