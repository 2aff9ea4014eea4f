package votingescrow

import (
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// Config holds the lock bounds, clock mapping and roles of the escrow.
type Config struct {
	Owner [20]byte
	// Guardian may update the blacklist alongside the owner.
	Guardian     [20]byte
	DepositToken [20]byte
	// MinLockPeriods and MaxLockPeriods bound the lock duration. Voting
	// power is reported with MaxLockPeriods as its fixed-point scale: a lock
	// of MaxLockPeriods starts at amount*MaxLockPeriods.
	MinLockPeriods uint64
	MaxLockPeriods uint64
	// PeriodSeconds is the length of one period. Period zero starts at
	// EpochStart (unix seconds).
	PeriodSeconds uint64
	EpochStart    uint64
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("votingescrow: config required")
	}
	if c.Owner == ([20]byte{}) {
		return errors.New("votingescrow: owner required")
	}
	if c.DepositToken == ([20]byte{}) {
		return errors.New("votingescrow: deposit token required")
	}
	if c.MaxLockPeriods == 0 {
		return errors.New("votingescrow: max lock periods must be positive")
	}
	if c.MinLockPeriods == 0 || c.MinLockPeriods > c.MaxLockPeriods {
		return errors.New("votingescrow: min lock periods must be within [1, max]")
	}
	if c.PeriodSeconds == 0 {
		return errors.New("votingescrow: period length must be positive")
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// PeriodFromTime maps a unix timestamp to its period index. Timestamps before
// EpochStart map to period zero.
func (c *Config) PeriodFromTime(ts uint64) uint64 {
	if c.PeriodSeconds == 0 || ts <= c.EpochStart {
		return 0
	}
	return (ts - c.EpochStart) / c.PeriodSeconds
}

// LockInfo is the single lock an address may hold.
type LockInfo struct {
	Amount           *big.Int
	StartPeriod      uint64
	EndPeriod        uint64
	LastExtendPeriod uint64
}

// Clone returns a deep copy of the lock.
func (l *LockInfo) Clone() *LockInfo {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Amount = fixedpoint.Copy(l.Amount)
	return &clone
}

// Active reports whether the lock still decays at period.
func (l *LockInfo) Active(period uint64) bool {
	return l != nil && l.EndPeriod > period
}

// Point is one checkpoint of a voting power line, exact in integers:
// power(t) = max(0, Bias - Slope*(t-Period)). Slope is the locked amount.
type Point struct {
	Period uint64
	Bias   *big.Int
	Slope  *big.Int
}

// Clone returns a deep copy of the point.
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	return &Point{Period: p.Period, Bias: fixedpoint.Copy(p.Bias), Slope: fixedpoint.Copy(p.Slope)}
}

func zeroPoint(period uint64) *Point {
	return &Point{Period: period, Bias: big.NewInt(0), Slope: big.NewInt(0)}
}

// HistoryID names a point history: the global curve or one address.
type HistoryID string

// TotalHistory is the history of the global voting power curve.
const TotalHistory HistoryID = "total"

// AccountHistory returns the history identifier of addr.
func AccountHistory(addr [20]byte) HistoryID {
	return HistoryID(hex.EncodeToString(addr[:]))
}

// LockView is the query representation of a lock.
type LockView struct {
	Amount           *big.Int `json:"amount"`
	StartPeriod      uint64   `json:"startPeriod"`
	EndPeriod        uint64   `json:"endPeriod"`
	LastExtendPeriod uint64   `json:"lastExtendPeriod"`
	VotingPower      *big.Int `json:"votingPower"`
	Blacklisted      bool     `json:"blacklisted"`
}
