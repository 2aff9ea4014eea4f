package events

import (
	"math/big"
	"strings"

	"github.com/exfury/gridiron-core/core/types"
)

const (
	// TypeEscrowLockCreated is emitted when a new lock is opened.
	TypeEscrowLockCreated = "escrow.lockCreated"
	// TypeEscrowLockAmountIncreased is emitted when principal is added to a lock.
	TypeEscrowLockAmountIncreased = "escrow.lockAmountIncreased"
	// TypeEscrowLockExtended is emitted when the expiry of a lock moves forward.
	TypeEscrowLockExtended = "escrow.lockExtended"
	// TypeEscrowWithdrawn is emitted when an expired lock is reclaimed.
	TypeEscrowWithdrawn = "escrow.withdrawn"
	// TypeEscrowBlacklistUpdated is emitted when the voter blacklist changes.
	TypeEscrowBlacklistUpdated = "escrow.blacklistUpdated"
)

// EscrowLock captures lock mutations. Funder differs from Account only for
// third-party top ups.
type EscrowLock struct {
	Kind        string
	Account     [20]byte
	Funder      [20]byte
	Amount      *big.Int
	Locked      *big.Int
	EndPeriod   uint64
	VotingPower *big.Int
}

// EventType satisfies the Event interface.
func (e EscrowLock) EventType() string { return e.Kind }

// Event converts the structured payload into a broadcastable event.
func (e EscrowLock) Event() *types.Event {
	attrs := map[string]string{
		"addr":      formatAddr(e.Account),
		"amount":    formatAmount(e.Amount),
		"locked":    formatAmount(e.Locked),
		"endPeriod": formatUint(e.EndPeriod),
	}
	if !zeroAddress(e.Funder) && e.Funder != e.Account {
		attrs["funder"] = formatAddr(e.Funder)
	}
	if e.VotingPower != nil {
		attrs["votingPower"] = e.VotingPower.String()
	}
	return &types.Event{Type: e.Kind, Attributes: attrs}
}

// EscrowBlacklistUpdated lists the effective additions and removals.
type EscrowBlacklistUpdated struct {
	Appended [][20]byte
	Removed  [][20]byte
}

// EventType satisfies the Event interface.
func (EscrowBlacklistUpdated) EventType() string { return TypeEscrowBlacklistUpdated }

// Event converts the structured payload into a broadcastable event.
func (e EscrowBlacklistUpdated) Event() *types.Event {
	return &types.Event{Type: TypeEscrowBlacklistUpdated, Attributes: map[string]string{
		"appended": joinAddrs(e.Appended),
		"removed":  joinAddrs(e.Removed),
	}}
}

func joinAddrs(list [][20]byte) string {
	parts := make([]string, 0, len(list))
	for _, addr := range list {
		parts = append(parts, formatAddr(addr))
	}
	return strings.Join(parts, ",")
}
