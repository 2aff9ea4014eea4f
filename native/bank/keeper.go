// Package bank keeps fungible token balances in state. It is the token
// collaborator the generator and voting escrow move deposits and rewards
// through.
package bank

import (
	"errors"
	"math/big"

	"github.com/exfury/gridiron-core/core/events"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

var (
	// ErrInsufficientFunds is returned when a transfer exceeds the sender's
	// balance.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("bank: amount must not be negative")
	// ErrInvalidAddress is returned when the zero address is used as a token
	// or account.
	ErrInvalidAddress = errors.New("bank: invalid address")

	errNilState = errors.New("bank: state not configured")
)

type keeperState interface {
	BankBalance(token, addr [20]byte) (*big.Int, error)
	PutBankBalance(token, addr [20]byte, amount *big.Int) error
	BankSupply(token [20]byte) (*big.Int, error)
	PutBankSupply(token [20]byte, amount *big.Int) error
}

// Keeper moves balances held in state.
type Keeper struct {
	state   keeperState
	emitter events.Emitter
}

// NewKeeper constructs a keeper over state.
func NewKeeper(state keeperState) *Keeper {
	return &Keeper{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event sink. Nil resets to a no-op emitter.
func (k *Keeper) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		k.emitter = events.NoopEmitter{}
		return
	}
	k.emitter = emitter
}

func validate(token [20]byte, amount *big.Int, accounts ...[20]byte) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if token == ([20]byte{}) {
		return ErrInvalidAddress
	}
	for _, account := range accounts {
		if account == ([20]byte{}) {
			return ErrInvalidAddress
		}
	}
	return nil
}

// Transfer moves amount of token from one account to another.
func (k *Keeper) Transfer(token, from, to [20]byte, amount *big.Int) error {
	if k == nil || k.state == nil {
		return errNilState
	}
	if err := validate(token, amount, from, to); err != nil {
		return err
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := k.state.BankBalance(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := k.state.BankBalance(token, to)
	if err != nil {
		return err
	}
	credited, err := fixedpoint.Add(toBalance, amount)
	if err != nil {
		return err
	}
	if err := k.state.PutBankBalance(token, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := k.state.PutBankBalance(token, to, credited); err != nil {
		return err
	}
	k.emitter.Emit(events.Transfer{Token: token, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// Mint credits amount of newly issued token to an account.
func (k *Keeper) Mint(token, to [20]byte, amount *big.Int) error {
	if k == nil || k.state == nil {
		return errNilState
	}
	if err := validate(token, amount, to); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	supply, err := k.state.BankSupply(token)
	if err != nil {
		return err
	}
	newSupply, err := fixedpoint.Add(supply, amount)
	if err != nil {
		return err
	}
	balance, err := k.state.BankBalance(token, to)
	if err != nil {
		return err
	}
	credited, err := fixedpoint.Add(balance, amount)
	if err != nil {
		return err
	}
	if err := k.state.PutBankSupply(token, newSupply); err != nil {
		return err
	}
	if err := k.state.PutBankBalance(token, to, credited); err != nil {
		return err
	}
	k.emitter.Emit(events.Mint{Token: token, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// BalanceOf returns the balance of addr in token.
func (k *Keeper) BalanceOf(token, addr [20]byte) (*big.Int, error) {
	if k == nil || k.state == nil {
		return nil, errNilState
	}
	return k.state.BankBalance(token, addr)
}

// Supply returns the total minted supply of token.
func (k *Keeper) Supply(token [20]byte) (*big.Int, error) {
	if k == nil || k.state == nil {
		return nil, errNilState
	}
	return k.state.BankSupply(token)
}
