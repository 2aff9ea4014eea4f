package generator

import (
	"errors"
	"math/big"

	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// AccPrecision scales AccPerShare so per-unit rewards keep twelve decimal
// places of precision before truncation.
var AccPrecision = big.NewInt(1_000_000_000_000)

// Config captures the emission schedule and ownership of the generator. It is
// owned by the module and only mutated through owner-gated calls.
type Config struct {
	// Owner may register pools, change weights and the emission rate.
	Owner [20]byte
	// RewardToken is minted on settlement and paid to depositors.
	RewardToken [20]byte
	// DevAddr receives DevFeeBps of every minted reward on top of emission.
	DevAddr   [20]byte
	DevFeeBps uint64
	// TokensPerBlock is the base emission rate shared by all pools.
	TokensPerBlock *big.Int
	// TotalAllocPoint must equal the sum of all pool allocation points.
	TotalAllocPoint uint64
	// StartBlock is the first block that accrues emission.
	StartBlock uint64
	// BonusEndBlock ends the boosted emission window.
	BonusEndBlock   uint64
	BonusMultiplier uint64
	// RewardBalance is the reward token minted to the generator and not yet
	// paid out to depositors.
	RewardBalance *big.Int
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("generator: config required")
	}
	if c.Owner == ([20]byte{}) {
		return errors.New("generator: owner required")
	}
	if c.RewardToken == ([20]byte{}) {
		return errors.New("generator: reward token required")
	}
	if c.TokensPerBlock == nil || c.TokensPerBlock.Sign() < 0 {
		return errors.New("generator: tokens per block must be non-negative")
	}
	if c.DevFeeBps > fixedpoint.BasisPoints {
		return errors.New("generator: dev fee exceeds 100%")
	}
	if c.DevFeeBps > 0 && c.DevAddr == ([20]byte{}) {
		return errors.New("generator: dev address required when dev fee is set")
	}
	if c.BonusMultiplier == 0 && c.BonusEndBlock > c.StartBlock {
		return errors.New("generator: bonus multiplier required for bonus window")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.TokensPerBlock = fixedpoint.Copy(c.TokensPerBlock)
	clone.RewardBalance = fixedpoint.Copy(c.RewardBalance)
	return &clone
}

// PoolInfo tracks the reward accrual state for one deposit token.
type PoolInfo struct {
	Token           [20]byte
	AllocPoint      uint64
	LastRewardBlock uint64
	// AccPerShare is the cumulative reward per deposited unit scaled by
	// AccPrecision. It never decreases.
	AccPerShare *big.Int
	// TotalDeposited is the principal held for the pool and the divisor of
	// every accumulator increment.
	TotalDeposited *big.Int
}

// Clone returns a deep copy of the pool.
func (p *PoolInfo) Clone() *PoolInfo {
	if p == nil {
		return nil
	}
	clone := *p
	clone.AccPerShare = fixedpoint.Copy(p.AccPerShare)
	clone.TotalDeposited = fixedpoint.Copy(p.TotalDeposited)
	return &clone
}

func (p *PoolInfo) ensureDefaults() {
	if p.AccPerShare == nil {
		p.AccPerShare = big.NewInt(0)
	}
	if p.TotalDeposited == nil {
		p.TotalDeposited = big.NewInt(0)
	}
}

// UserInfo is keyed by pool and depositor.
type UserInfo struct {
	Amount *big.Int
	// RewardDebt is the share of Amount*AccPerShare already accounted for.
	RewardDebt *big.Int
}

// Clone returns a deep copy of the user position.
func (u *UserInfo) Clone() *UserInfo {
	if u == nil {
		return &UserInfo{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
	}
	return &UserInfo{Amount: fixedpoint.Copy(u.Amount), RewardDebt: fixedpoint.Copy(u.RewardDebt)}
}

// PoolView is the query representation of a pool.
type PoolView struct {
	Token           string   `json:"token"`
	AllocPoint      uint64   `json:"allocPoint"`
	LastRewardBlock uint64   `json:"lastRewardBlock"`
	AccPerShare     *big.Int `json:"accPerShare"`
	TotalDeposited  *big.Int `json:"totalDeposited"`
}

// PositionView is the query representation of a depositor position.
type PositionView struct {
	Amount        *big.Int `json:"amount"`
	RewardDebt    *big.Int `json:"rewardDebt"`
	PendingReward *big.Int `json:"pendingReward"`
}
