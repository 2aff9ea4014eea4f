package events

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/types"
)

const (
	// TypeTransfer is emitted for every balance movement between accounts.
	TypeTransfer = "bank.transfer"
	// TypeMint is emitted when new supply is credited to an account.
	TypeMint = "bank.mint"
)

type Transfer struct {
	Token  [20]byte
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"token":  formatAddr(e.Token),
		"from":   formatAddr(e.From),
		"to":     formatAddr(e.To),
		"amount": formatAmount(e.Amount),
	}}
}

type Mint struct {
	Token  [20]byte
	To     [20]byte
	Amount *big.Int
}

func (Mint) EventType() string { return TypeMint }

func (e Mint) Event() *types.Event {
	return &types.Event{Type: TypeMint, Attributes: map[string]string{
		"token":  formatAddr(e.Token),
		"to":     formatAddr(e.To),
		"amount": formatAmount(e.Amount),
	}}
}
