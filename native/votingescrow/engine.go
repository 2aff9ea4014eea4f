package votingescrow

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/events"
	nativecommon "github.com/exfury/gridiron-core/native/common"
)

const moduleName = nativecommon.ModuleVotingEscrow

type engineState interface {
	EscrowConfig() (*Config, error)
	PutEscrowConfig(cfg *Config) error
	EscrowLock(addr [20]byte) (*LockInfo, bool, error)
	PutEscrowLock(addr [20]byte, lock *LockInfo) error
	DeleteEscrowLock(addr [20]byte) error
	// EscrowHistoryLen and EscrowHistoryPoint expose an append-only point
	// history. Writing index == len extends the history by one.
	EscrowHistoryLen(id HistoryID) (uint64, error)
	EscrowHistoryPoint(id HistoryID, index uint64) (*Point, error)
	PutEscrowHistoryPoint(id HistoryID, index uint64, point *Point) error
	EscrowSlopeChange(period uint64) (*big.Int, error)
	PutEscrowSlopeChange(period uint64, amount *big.Int) error
	EscrowSlopePeriods() ([]uint64, error)
	PutEscrowSlopePeriods(periods []uint64) error
	EscrowBlacklisted(addr [20]byte) (bool, error)
	SetEscrowBlacklisted(addr [20]byte, listed bool) error
	EscrowBlacklist() ([][20]byte, error)
}

// Bank moves the deposit token in and out of escrow custody.
type Bank interface {
	Transfer(token, from, to [20]byte, amount *big.Int) error
}

// Engine implements the lock registry, the decaying voting power ledger and
// the voter blacklist.
type Engine struct {
	state         engineState
	bank          Bank
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	moduleAddress [20]byte
	blockTime     uint64
}

// NewEngine constructs an escrow engine custodying deposits at moduleAddr.
func NewEngine(moduleAddr [20]byte) *Engine {
	return &Engine{moduleAddress: moduleAddr, emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetBank(bank Bank) { e.bank = bank }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event sink. Nil resets to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetBlockTime records the block timestamp the current period is derived from.
func (e *Engine) SetBlockTime(ts uint64) {
	if e == nil {
		return
	}
	e.blockTime = ts
}

// BlockTime returns the timestamp of the current invocation.
func (e *Engine) BlockTime() uint64 { return e.blockTime }

// ModuleAddress returns the custody address of the escrow.
func (e *Engine) ModuleAddress() [20]byte { return e.moduleAddress }

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.bank == nil {
		return errNilBank
	}
	return nil
}

// InitGenesis stores the escrow configuration.
func (e *Engine) InitGenesis(cfg *Config) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return e.state.PutEscrowConfig(cfg.Clone())
}

func (e *Engine) loadConfig() (*Config, error) {
	cfg, err := e.state.EscrowConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errNotConfigured
	}
	return cfg, nil
}

// CurrentPeriod returns the period of the current block time.
func (e *Engine) CurrentPeriod() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.PeriodFromTime(e.blockTime), nil
}

func (e *Engine) loadLock(addr [20]byte) (*LockInfo, error) {
	lock, ok, err := e.state.EscrowLock(addr)
	if err != nil {
		return nil, err
	}
	if !ok || lock == nil {
		return nil, ErrNoLockFound
	}
	return lock.Clone(), nil
}

func (e *Engine) ensureNotBlacklisted(addrs ...[20]byte) error {
	for _, addr := range addrs {
		listed, err := e.state.EscrowBlacklisted(addr)
		if err != nil {
			return err
		}
		if listed {
			return ErrAddressBlacklisted
		}
	}
	return nil
}
