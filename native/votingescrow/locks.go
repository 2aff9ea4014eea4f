package votingescrow

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/events"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// CreateLock escrows amount from user for periods periods starting at the
// current period.
func (e *Engine) CreateLock(user [20]byte, amount *big.Int, periods uint64) (*LockInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if periods < cfg.MinLockPeriods {
		return nil, ErrLockTooShort
	}
	if periods > cfg.MaxLockPeriods {
		return nil, ErrLockTooLong
	}
	if err := e.ensureNotBlacklisted(user); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.EscrowLock(user); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrLockAlreadyExists
	}
	if err := e.bank.Transfer(cfg.DepositToken, user, e.moduleAddress, amount); err != nil {
		return nil, err
	}
	lock := &LockInfo{
		Amount:           new(big.Int).Set(amount),
		StartPeriod:      current,
		EndPeriod:        current + periods,
		LastExtendPeriod: current,
	}
	if err := e.commitLock(user, current, nil, lock); err != nil {
		return nil, err
	}
	if err := e.emitLock(events.TypeEscrowLockCreated, user, user, amount, lock, current); err != nil {
		return nil, err
	}
	return lock.Clone(), nil
}

// ExtendLockAmount adds amount to the caller's active lock. The end period is
// unchanged.
func (e *Engine) ExtendLockAmount(user [20]byte, amount *big.Int) (*LockInfo, error) {
	return e.topUp(user, user, amount)
}

// DepositFor adds amount funded by from to the active lock of beneficiary.
func (e *Engine) DepositFor(from, beneficiary [20]byte, amount *big.Int) (*LockInfo, error) {
	return e.topUp(from, beneficiary, amount)
}

func (e *Engine) topUp(funder, beneficiary [20]byte, amount *big.Int) (*LockInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if err := e.ensureNotBlacklisted(funder, beneficiary); err != nil {
		return nil, err
	}
	old, err := e.loadLock(beneficiary)
	if err != nil {
		return nil, err
	}
	if !old.Active(current) {
		return nil, ErrLockExpired
	}
	if err := e.bank.Transfer(cfg.DepositToken, funder, e.moduleAddress, amount); err != nil {
		return nil, err
	}
	next := old.Clone()
	if next.Amount, err = fixedpoint.Add(old.Amount, amount); err != nil {
		return nil, err
	}
	if err := e.commitLock(beneficiary, current, old, next); err != nil {
		return nil, err
	}
	if err := e.emitLock(events.TypeEscrowLockAmountIncreased, beneficiary, funder, amount, next, current); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// ExtendLockTime pushes the end of the caller's active lock out by periods.
// The remaining duration may not exceed MaxLockPeriods.
func (e *Engine) ExtendLockTime(user [20]byte, periods uint64) (*LockInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if periods == 0 {
		return nil, ErrInvalidPeriods
	}
	cfg, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	if err := e.ensureNotBlacklisted(user); err != nil {
		return nil, err
	}
	old, err := e.loadLock(user)
	if err != nil {
		return nil, err
	}
	if !old.Active(current) {
		return nil, ErrLockExpired
	}
	end := old.EndPeriod + periods
	if end < old.EndPeriod || end-current > cfg.MaxLockPeriods {
		return nil, ErrLockTooLong
	}
	next := old.Clone()
	next.EndPeriod = end
	next.LastExtendPeriod = current
	if err := e.commitLock(user, current, old, next); err != nil {
		return nil, err
	}
	if err := e.emitLock(events.TypeEscrowLockExtended, user, user, big.NewInt(0), next, current); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// Withdraw returns the principal of an expired lock and removes the record.
// Blacklisted addresses may still reclaim their deposit.
func (e *Engine) Withdraw(user [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, current, err := e.queryClock()
	if err != nil {
		return nil, err
	}
	old, err := e.loadLock(user)
	if err != nil {
		return nil, err
	}
	if old.Active(current) {
		return nil, ErrLockNotExpired
	}
	if err := e.bank.Transfer(cfg.DepositToken, e.moduleAddress, user, old.Amount); err != nil {
		return nil, err
	}
	if err := e.checkpoint(user, current, lineOf(old), nil, false); err != nil {
		return nil, err
	}
	if err := e.state.DeleteEscrowLock(user); err != nil {
		return nil, err
	}
	e.emit(events.EscrowLock{
		Kind:        events.TypeEscrowWithdrawn,
		Account:     user,
		Amount:      fixedpoint.Copy(old.Amount),
		Locked:      big.NewInt(0),
		EndPeriod:   old.EndPeriod,
		VotingPower: big.NewInt(0),
	})
	return fixedpoint.Copy(old.Amount), nil
}

func (e *Engine) commitLock(user [20]byte, period uint64, old, next *LockInfo) error {
	if err := e.checkpoint(user, period, lineOf(old), lineOf(next), true); err != nil {
		return err
	}
	return e.state.PutEscrowLock(user, next)
}

func (e *Engine) emitLock(kind string, account, funder [20]byte, amount *big.Int, lock *LockInfo, period uint64) error {
	point, err := lineOf(lock).pointAt(period)
	if err != nil {
		return err
	}
	e.emit(events.EscrowLock{
		Kind:        kind,
		Account:     account,
		Funder:      funder,
		Amount:      fixedpoint.Copy(amount),
		Locked:      fixedpoint.Copy(lock.Amount),
		EndPeriod:   lock.EndPeriod,
		VotingPower: point.Bias,
	})
	return nil
}

// Lock returns the lock held by addr.
func (e *Engine) Lock(addr [20]byte) (*LockInfo, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadLock(addr)
}

// LockView returns the query representation of the lock held by addr.
func (e *Engine) LockView(addr [20]byte) (*LockView, error) {
	lock, err := e.Lock(addr)
	if err != nil {
		return nil, err
	}
	power, err := e.VotingPower(addr)
	if err != nil {
		return nil, err
	}
	listed, err := e.state.EscrowBlacklisted(addr)
	if err != nil {
		return nil, err
	}
	return &LockView{
		Amount:           lock.Amount,
		StartPeriod:      lock.StartPeriod,
		EndPeriod:        lock.EndPeriod,
		LastExtendPeriod: lock.LastExtendPeriod,
		VotingPower:      power,
		Blacklisted:      listed,
	}, nil
}

// Config returns the stored escrow configuration.
func (e *Engine) Config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadConfig()
}
