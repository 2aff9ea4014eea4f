package state

import (
	"encoding/binary"
	"math/big"

	"github.com/exfury/gridiron-core/native/fixedpoint"
	"github.com/exfury/gridiron-core/native/votingescrow"
)

const (
	escrowConfigKey       = "escrow/config"
	escrowLockKey         = "escrow/lock/"
	escrowHistoryKey      = "escrow/history/"
	escrowSlopeKey        = "escrow/slope/"
	escrowSlopePeriodsKey = "escrow/slope-periods"
	escrowBlacklistKey    = "escrow/blacklist"
	escrowListedKey       = "escrow/blacklisted/"
)

func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func escrowLockStateKey(addr [20]byte) []byte {
	return composeKey(escrowLockKey, addr[:])
}

func escrowHistoryLenKey(id votingescrow.HistoryID) []byte {
	return composeKey(escrowHistoryKey, []byte(id), []byte("/len"))
}

func escrowHistoryPointKey(id votingescrow.HistoryID, index uint64) []byte {
	return composeKey(escrowHistoryKey, []byte(id), []byte("/"), uint64Bytes(index))
}

func escrowSlopeStateKey(period uint64) []byte {
	return composeKey(escrowSlopeKey, uint64Bytes(period))
}

func escrowListedStateKey(addr [20]byte) []byte {
	return composeKey(escrowListedKey, addr[:])
}

// EscrowConfig returns the stored escrow configuration or nil.
func (m *Manager) EscrowConfig() (*votingescrow.Config, error) {
	cfg := new(votingescrow.Config)
	ok, err := m.KVGet([]byte(escrowConfigKey), cfg)
	if err != nil || !ok {
		return nil, err
	}
	return cfg, nil
}

// PutEscrowConfig persists the escrow configuration.
func (m *Manager) PutEscrowConfig(cfg *votingescrow.Config) error {
	return m.KVPut([]byte(escrowConfigKey), cfg)
}

// EscrowLock loads the lock held by addr.
func (m *Manager) EscrowLock(addr [20]byte) (*votingescrow.LockInfo, bool, error) {
	lock := new(votingescrow.LockInfo)
	ok, err := m.KVGet(escrowLockStateKey(addr), lock)
	if err != nil || !ok {
		return nil, false, err
	}
	return lock, true, nil
}

// PutEscrowLock persists the lock held by addr.
func (m *Manager) PutEscrowLock(addr [20]byte, lock *votingescrow.LockInfo) error {
	return m.KVPut(escrowLockStateKey(addr), lock)
}

// DeleteEscrowLock removes the lock record of addr.
func (m *Manager) DeleteEscrowLock(addr [20]byte) error {
	return m.KVDelete(escrowLockStateKey(addr))
}

// EscrowHistoryLen returns the number of points recorded for id.
func (m *Manager) EscrowHistoryLen(id votingescrow.HistoryID) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(escrowHistoryLenKey(id), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// EscrowHistoryPoint loads the point at index of history id.
func (m *Manager) EscrowHistoryPoint(id votingescrow.HistoryID, index uint64) (*votingescrow.Point, error) {
	point := new(votingescrow.Point)
	ok, err := m.KVGet(escrowHistoryPointKey(id, index), point)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHistoryGap
	}
	return point, nil
}

// PutEscrowHistoryPoint overwrites the point at index, or appends it when
// index equals the current length.
func (m *Manager) PutEscrowHistoryPoint(id votingescrow.HistoryID, index uint64, point *votingescrow.Point) error {
	count, err := m.EscrowHistoryLen(id)
	if err != nil {
		return err
	}
	if index > count {
		return ErrHistoryGap
	}
	if err := m.KVPut(escrowHistoryPointKey(id, index), point); err != nil {
		return err
	}
	if index == count {
		return m.KVPut(escrowHistoryLenKey(id), count+1)
	}
	return nil
}

// EscrowSlopeChange returns the slope scheduled to expire at period.
func (m *Manager) EscrowSlopeChange(period uint64) (*big.Int, error) {
	amount := new(big.Int)
	if _, err := m.KVGet(escrowSlopeStateKey(period), amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// PutEscrowSlopeChange stores the slope expiring at period. Zero deletes the
// entry.
func (m *Manager) PutEscrowSlopeChange(period uint64, amount *big.Int) error {
	if fixedpoint.IsZero(amount) {
		return m.KVDelete(escrowSlopeStateKey(period))
	}
	return m.KVPut(escrowSlopeStateKey(period), amount)
}

// EscrowSlopePeriods returns the sorted index of periods with a scheduled
// slope change.
func (m *Manager) EscrowSlopePeriods() ([]uint64, error) {
	var periods []uint64
	if err := m.KVGetList([]byte(escrowSlopePeriodsKey), &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// PutEscrowSlopePeriods overwrites the slope change index.
func (m *Manager) PutEscrowSlopePeriods(periods []uint64) error {
	return m.KVPut([]byte(escrowSlopePeriodsKey), periods)
}

// EscrowBlacklisted reports whether addr is blacklisted.
func (m *Manager) EscrowBlacklisted(addr [20]byte) (bool, error) {
	var listed bool
	ok, err := m.KVGet(escrowListedStateKey(addr), &listed)
	if err != nil || !ok {
		return false, err
	}
	return listed, nil
}

// SetEscrowBlacklisted toggles membership of addr and keeps the ordered
// listing in step.
func (m *Manager) SetEscrowBlacklisted(addr [20]byte, listed bool) error {
	list, err := m.EscrowBlacklist()
	if err != nil {
		return err
	}
	filtered := list[:0]
	for _, entry := range list {
		if entry != addr {
			filtered = append(filtered, entry)
		}
	}
	if listed {
		filtered = append(filtered, addr)
		if err := m.KVPut(escrowListedStateKey(addr), true); err != nil {
			return err
		}
	} else if err := m.KVDelete(escrowListedStateKey(addr)); err != nil {
		return err
	}
	return m.KVPut([]byte(escrowBlacklistKey), filtered)
}

// EscrowBlacklist lists blacklisted addresses in insertion order.
func (m *Manager) EscrowBlacklist() ([][20]byte, error) {
	var list [][20]byte
	if err := m.KVGetList([]byte(escrowBlacklistKey), &list); err != nil {
		return nil, err
	}
	return list, nil
}
