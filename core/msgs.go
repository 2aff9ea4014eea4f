package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/exfury/gridiron-core/crypto"
	nativecommon "github.com/exfury/gridiron-core/native/common"
)

// Message types accepted by Execute.
const (
	MsgDeposit           = "deposit"
	MsgWithdraw          = "withdraw"
	MsgClaim             = "claim"
	MsgEmergencyWithdraw = "emergency_withdraw"
	MsgAddPool           = "add_pool"
	MsgSetAllocPoint     = "set_alloc_point"
	MsgSetTokensPerBlock = "set_tokens_per_block"
	MsgSetDevAddr        = "set_dev_addr"
	MsgMassUpdatePools   = "mass_update_pools"
	MsgCreateLock        = "create_lock"
	MsgExtendLockAmount  = "extend_lock_amount"
	MsgExtendLockTime    = "extend_lock_time"
	MsgDepositFor        = "deposit_for"
	MsgWithdrawLock      = "withdraw_lock"
	MsgUpdateBlacklist   = "update_blacklist"
	MsgSetGuardian       = "set_guardian"
	MsgTransferOwnership = "transfer_ownership"
	MsgCheckpoint        = "checkpoint"
	MsgTransfer          = "transfer"
)

var (
	ErrInvalidMsg = errors.New("core: invalid message")
	ErrUnknownMsg = errors.New("core: unknown message type")
)

// Msg is the JSON envelope of every state changing call. Fields that a
// message type does not use must be left empty.
type Msg struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	// Token is the pool token for generator messages and the token moved by
	// transfer.
	Token string `json:"token,omitempty"`
	// To is the beneficiary of deposit_for, the recipient of transfer and
	// the new address of set_dev_addr, set_guardian and transfer_ownership.
	To         string   `json:"to,omitempty"`
	Amount     string   `json:"amount,omitempty"`
	AllocPoint uint64   `json:"allocPoint,omitempty"`
	WithUpdate bool     `json:"withUpdate,omitempty"`
	Periods    uint64   `json:"periods,omitempty"`
	Append     []string `json:"append,omitempty"`
	Remove     []string `json:"remove,omitempty"`
	// Module selects the engine of transfer_ownership.
	Module string `json:"module,omitempty"`
}

// DecodeMsg parses a JSON message rejecting unknown fields.
func DecodeMsg(raw []byte) (*Msg, error) {
	var msg Msg
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMsg, err)
	}
	msg.Type = strings.ToLower(strings.TrimSpace(msg.Type))
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: type required", ErrInvalidMsg)
	}
	return &msg, nil
}

func parseMsgAddress(field, value string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %s: %v", ErrInvalidMsg, field, err)
	}
	return addr.Raw(), nil
}

func parseMsgAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: amount required", ErrInvalidMsg)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount %q", ErrInvalidMsg, value)
	}
	return amount, nil
}

func parseMsgAddresses(field string, values []string) ([][20]byte, error) {
	out := make([][20]byte, 0, len(values))
	for i, value := range values {
		addr, err := parseMsgAddress(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// dispatch routes msg to its engine. The returned amount is the payout or
// refund of the call when it has one.
func (a *Application) dispatch(msg *Msg) (*big.Int, error) {
	if msg.Type == MsgCheckpoint {
		_, err := a.escrow.Checkpoint()
		return nil, err
	}
	sender, err := parseMsgAddress("sender", msg.Sender)
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgDeposit, MsgWithdraw:
		token, err := parseMsgAddress("token", msg.Token)
		if err != nil {
			return nil, err
		}
		amount, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		if msg.Type == MsgDeposit {
			return a.generator.Deposit(sender, token, amount)
		}
		return a.generator.Withdraw(sender, token, amount)
	case MsgClaim, MsgEmergencyWithdraw:
		token, err := parseMsgAddress("token", msg.Token)
		if err != nil {
			return nil, err
		}
		if msg.Type == MsgClaim {
			return a.generator.Claim(sender, token)
		}
		return a.generator.EmergencyWithdraw(sender, token)
	case MsgAddPool, MsgSetAllocPoint:
		token, err := parseMsgAddress("token", msg.Token)
		if err != nil {
			return nil, err
		}
		if msg.Type == MsgAddPool {
			return nil, a.generator.AddPool(sender, token, msg.AllocPoint, msg.WithUpdate)
		}
		return nil, a.generator.SetAllocPoint(sender, token, msg.AllocPoint)
	case MsgSetTokensPerBlock:
		rate, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		return nil, a.generator.SetTokensPerBlock(sender, rate)
	case MsgSetDevAddr:
		dev, err := parseMsgAddress("to", msg.To)
		if err != nil {
			return nil, err
		}
		return nil, a.generator.SetDevAddr(sender, dev)
	case MsgMassUpdatePools:
		return nil, a.generator.MassUpdatePools()
	case MsgCreateLock:
		amount, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		_, err = a.escrow.CreateLock(sender, amount, msg.Periods)
		return nil, err
	case MsgExtendLockAmount:
		amount, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		_, err = a.escrow.ExtendLockAmount(sender, amount)
		return nil, err
	case MsgExtendLockTime:
		_, err := a.escrow.ExtendLockTime(sender, msg.Periods)
		return nil, err
	case MsgDepositFor:
		beneficiary, err := parseMsgAddress("to", msg.To)
		if err != nil {
			return nil, err
		}
		amount, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		_, err = a.escrow.DepositFor(sender, beneficiary, amount)
		return nil, err
	case MsgWithdrawLock:
		return a.escrow.Withdraw(sender)
	case MsgUpdateBlacklist:
		appendAddrs, err := parseMsgAddresses("append", msg.Append)
		if err != nil {
			return nil, err
		}
		removeAddrs, err := parseMsgAddresses("remove", msg.Remove)
		if err != nil {
			return nil, err
		}
		return nil, a.escrow.UpdateBlacklist(sender, appendAddrs, removeAddrs)
	case MsgSetGuardian:
		guardian, err := parseMsgAddress("to", msg.To)
		if err != nil {
			return nil, err
		}
		return nil, a.escrow.SetGuardian(sender, guardian)
	case MsgTransferOwnership:
		owner, err := parseMsgAddress("to", msg.To)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(strings.TrimSpace(msg.Module)) {
		case nativecommon.ModuleGenerator:
			return nil, a.generator.TransferOwnership(sender, owner)
		case nativecommon.ModuleVotingEscrow:
			return nil, a.escrow.TransferOwnership(sender, owner)
		default:
			return nil, fmt.Errorf("%w: unknown module %q", ErrInvalidMsg, msg.Module)
		}
	case MsgTransfer:
		token, err := parseMsgAddress("token", msg.Token)
		if err != nil {
			return nil, err
		}
		to, err := parseMsgAddress("to", msg.To)
		if err != nil {
			return nil, err
		}
		amount, err := parseMsgAmount(msg.Amount)
		if err != nil {
			return nil, err
		}
		return nil, a.bank.Transfer(token, sender, to, amount)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMsg, msg.Type)
	}
}
