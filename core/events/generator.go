package events

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/types"
)

const (
	// TypeGeneratorPoolAdded is emitted when a deposit token is registered.
	TypeGeneratorPoolAdded = "generator.poolAdded"
	// TypeGeneratorAllocUpdated is emitted when a pool weight changes.
	TypeGeneratorAllocUpdated = "generator.allocUpdated"
	// TypeGeneratorPoolSettled is emitted when emission is folded into a pool accumulator.
	TypeGeneratorPoolSettled = "generator.poolSettled"
	// TypeGeneratorDeposit is emitted after principal is added to a pool.
	TypeGeneratorDeposit = "generator.deposit"
	// TypeGeneratorWithdraw is emitted after principal leaves a pool.
	TypeGeneratorWithdraw = "generator.withdraw"
	// TypeGeneratorEmergencyWithdraw is emitted when principal is returned without rewards.
	TypeGeneratorEmergencyWithdraw = "generator.emergencyWithdraw"
	// TypeGeneratorRewardPaid is emitted whenever pending rewards are transferred.
	TypeGeneratorRewardPaid = "generator.rewardPaid"
	// TypeGeneratorConfigUpdated is emitted on owner-level configuration changes.
	TypeGeneratorConfigUpdated = "generator.configUpdated"
)

// GeneratorPoolAdded records a newly registered pool.
type GeneratorPoolAdded struct {
	Token           [20]byte
	AllocPoint      uint64
	TotalAllocPoint uint64
	LastRewardBlock uint64
}

// EventType satisfies the Event interface.
func (GeneratorPoolAdded) EventType() string { return TypeGeneratorPoolAdded }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorPoolAdded) Event() *types.Event {
	return &types.Event{Type: TypeGeneratorPoolAdded, Attributes: map[string]string{
		"pool":            formatAddr(e.Token),
		"allocPoint":      formatUint(e.AllocPoint),
		"totalAllocPoint": formatUint(e.TotalAllocPoint),
		"lastRewardBlock": formatUint(e.LastRewardBlock),
	}}
}

// GeneratorAllocUpdated records a weight change for a pool.
type GeneratorAllocUpdated struct {
	Token           [20]byte
	Previous        uint64
	AllocPoint      uint64
	TotalAllocPoint uint64
}

// EventType satisfies the Event interface.
func (GeneratorAllocUpdated) EventType() string { return TypeGeneratorAllocUpdated }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorAllocUpdated) Event() *types.Event {
	return &types.Event{Type: TypeGeneratorAllocUpdated, Attributes: map[string]string{
		"pool":            formatAddr(e.Token),
		"previous":        formatUint(e.Previous),
		"allocPoint":      formatUint(e.AllocPoint),
		"totalAllocPoint": formatUint(e.TotalAllocPoint),
	}}
}

// GeneratorPoolSettled records an accumulator advance.
type GeneratorPoolSettled struct {
	Token       [20]byte
	FromBlock   uint64
	ToBlock     uint64
	Reward      *big.Int
	DevReward   *big.Int
	AccPerShare *big.Int
}

// EventType satisfies the Event interface.
func (GeneratorPoolSettled) EventType() string { return TypeGeneratorPoolSettled }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorPoolSettled) Event() *types.Event {
	return &types.Event{Type: TypeGeneratorPoolSettled, Attributes: map[string]string{
		"pool":        formatAddr(e.Token),
		"fromBlock":   formatUint(e.FromBlock),
		"toBlock":     formatUint(e.ToBlock),
		"reward":      formatAmount(e.Reward),
		"devReward":   formatAmount(e.DevReward),
		"accPerShare": formatAmount(e.AccPerShare),
	}}
}

// GeneratorPosition captures a principal movement for deposit/withdraw events.
type GeneratorPosition struct {
	Kind    string
	Token   [20]byte
	Account [20]byte
	Amount  *big.Int
	Balance *big.Int
}

// EventType satisfies the Event interface.
func (e GeneratorPosition) EventType() string { return e.Kind }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorPosition) Event() *types.Event {
	return &types.Event{Type: e.Kind, Attributes: map[string]string{
		"pool":    formatAddr(e.Token),
		"addr":    formatAddr(e.Account),
		"amount":  formatAmount(e.Amount),
		"balance": formatAmount(e.Balance),
	}}
}

// GeneratorRewardPaid records a reward transfer to a depositor.
type GeneratorRewardPaid struct {
	Token   [20]byte
	Account [20]byte
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (GeneratorRewardPaid) EventType() string { return TypeGeneratorRewardPaid }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorRewardPaid) Event() *types.Event {
	return &types.Event{Type: TypeGeneratorRewardPaid, Attributes: map[string]string{
		"pool":   formatAddr(e.Token),
		"addr":   formatAddr(e.Account),
		"amount": formatAmount(e.Amount),
	}}
}

// GeneratorConfigUpdated records an owner-level configuration change.
type GeneratorConfigUpdated struct {
	Field string
	Value string
}

// EventType satisfies the Event interface.
func (GeneratorConfigUpdated) EventType() string { return TypeGeneratorConfigUpdated }

// Event converts the structured payload into a broadcastable event.
func (e GeneratorConfigUpdated) Event() *types.Event {
	return &types.Event{Type: TypeGeneratorConfigUpdated, Attributes: map[string]string{
		"field": e.Field,
		"value": e.Value,
	}}
}
