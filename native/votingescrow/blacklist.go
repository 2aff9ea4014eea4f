package votingescrow

import (
	"github.com/exfury/gridiron-core/core/events"
	nativecommon "github.com/exfury/gridiron-core/native/common"
)

// UpdateBlacklist appends and removes voters. Listed addresses keep their
// lock but report zero voting power, and their active line is taken out of
// the global curve until they are removed again. Appending a member or
// removing a non-member is a no-op.
func (e *Engine) UpdateBlacklist(caller [20]byte, appendAddrs, removeAddrs [][20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, current, err := e.queryClock()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner, cfg.Guardian); err != nil {
		return err
	}
	var appended, removed [][20]byte
	for _, addr := range appendAddrs {
		changed, err := e.setListed(addr, true, current)
		if err != nil {
			return err
		}
		if changed {
			appended = append(appended, addr)
		}
	}
	for _, addr := range removeAddrs {
		changed, err := e.setListed(addr, false, current)
		if err != nil {
			return err
		}
		if changed {
			removed = append(removed, addr)
		}
	}
	if len(appended) > 0 || len(removed) > 0 {
		e.emit(events.EscrowBlacklistUpdated{Appended: appended, Removed: removed})
	}
	return nil
}

func (e *Engine) setListed(addr [20]byte, listed bool, period uint64) (bool, error) {
	if addr == ([20]byte{}) {
		return false, ErrInvalidAddress
	}
	current, err := e.state.EscrowBlacklisted(addr)
	if err != nil {
		return false, err
	}
	if current == listed {
		return false, nil
	}
	lock, ok, err := e.state.EscrowLock(addr)
	if err != nil {
		return false, err
	}
	if ok && lock.Active(period) {
		periods, err := e.state.EscrowSlopePeriods()
		if err != nil {
			return false, err
		}
		total, err := e.foldTotal(period, periods)
		if err != nil {
			return false, err
		}
		if listed {
			periods, err = e.moveLine(total, period, lineOf(lock), nil, periods)
		} else {
			periods, err = e.moveLine(total, period, nil, lineOf(lock), periods)
		}
		if err != nil {
			return false, err
		}
		if err := e.state.PutEscrowSlopePeriods(periods); err != nil {
			return false, err
		}
		if err := e.writePoint(TotalHistory, total); err != nil {
			return false, err
		}
	}
	if err := e.state.SetEscrowBlacklisted(addr, listed); err != nil {
		return false, err
	}
	return true, nil
}

// IsBlacklisted reports whether addr is on the voter blacklist.
func (e *Engine) IsBlacklisted(addr [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.EscrowBlacklisted(addr)
}

// Blacklist lists the blacklisted addresses in insertion order.
func (e *Engine) Blacklist() ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.EscrowBlacklist()
}

// SetGuardian replaces the guardian. Only the owner may call it; the zero
// address clears the role.
func (e *Engine) SetGuardian(caller, guardian [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner); err != nil {
		return err
	}
	cfg.Guardian = guardian
	return e.state.PutEscrowConfig(cfg)
}

// TransferOwnership hands the owner role to newOwner.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner); err != nil {
		return err
	}
	if newOwner == ([20]byte{}) {
		return ErrInvalidAddress
	}
	cfg.Owner = newOwner
	return e.state.PutEscrowConfig(cfg)
}
