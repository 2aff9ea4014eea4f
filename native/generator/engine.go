package generator

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/events"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

const moduleName = nativecommon.ModuleGenerator

type engineState interface {
	GeneratorConfig() (*Config, error)
	PutGeneratorConfig(cfg *Config) error
	GeneratorPool(token [20]byte) (*PoolInfo, bool, error)
	PutGeneratorPool(pool *PoolInfo) error
	GeneratorPoolTokens() ([][20]byte, error)
	PutGeneratorPoolTokens(tokens [][20]byte) error
	GeneratorUser(token, addr [20]byte) (*UserInfo, error)
	PutGeneratorUser(token, addr [20]byte, info *UserInfo) error
}

// Bank is the token collaborator used for custody, payouts and emission.
type Bank interface {
	Transfer(token, from, to [20]byte, amount *big.Int) error
	Mint(token, to [20]byte, amount *big.Int) error
	BalanceOf(token, addr [20]byte) (*big.Int, error)
}

// Engine implements the per-pool reward accumulator and the allocation
// registry. It holds no state of its own between calls besides wiring and the
// block height of the current invocation.
type Engine struct {
	state         engineState
	bank          Bank
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	moduleAddress [20]byte
	blockHeight   uint64
}

// NewEngine constructs a generator engine custodying funds at moduleAddr.
func NewEngine(moduleAddr [20]byte) *Engine {
	return &Engine{moduleAddress: moduleAddr, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank wires the token collaborator.
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

// SetBlockHeight records the block height used when computing accrual deltas.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// BlockHeight returns the height of the current invocation.
func (e *Engine) BlockHeight() uint64 { return e.blockHeight }

// ModuleAddress returns the custody address of the generator.
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

// InitGenesis stores the initial configuration. RewardBalance and
// TotalAllocPoint always start at zero; pools are added afterwards.
func (e *Engine) InitGenesis(cfg *Config) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	stored := cfg.Clone()
	stored.TotalAllocPoint = 0
	stored.RewardBalance = big.NewInt(0)
	return e.state.PutGeneratorConfig(stored)
}

func (e *Engine) loadConfig() (*Config, error) {
	cfg, err := e.state.GeneratorConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errNotConfigured
	}
	if cfg.TokensPerBlock == nil {
		cfg.TokensPerBlock = big.NewInt(0)
	}
	if cfg.RewardBalance == nil {
		cfg.RewardBalance = big.NewInt(0)
	}
	return cfg, nil
}

func (e *Engine) loadPool(token [20]byte) (*PoolInfo, error) {
	pool, ok, err := e.state.GeneratorPool(token)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	pool.ensureDefaults()
	return pool, nil
}

func (e *Engine) loadUser(token, addr [20]byte) (*UserInfo, error) {
	info, err := e.state.GeneratorUser(token, addr)
	if err != nil {
		return nil, err
	}
	return info.Clone(), nil
}

// Deposit settles the pool, pays the caller's pending reward and adds amount
// to their principal. A zero amount only claims. The paid reward is returned.
func (e *Engine) Deposit(user, token [20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	pool, err := e.loadPool(token)
	if err != nil {
		return nil, err
	}
	if err := e.settlePool(cfg, pool); err != nil {
		return nil, err
	}
	position, err := e.loadUser(token, user)
	if err != nil {
		return nil, err
	}
	paid, err := e.payPending(cfg, pool, user, position)
	if err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		if err := e.bank.Transfer(token, user, e.moduleAddress, amount); err != nil {
			return nil, err
		}
		if position.Amount, err = fixedpoint.Add(position.Amount, amount); err != nil {
			return nil, err
		}
		if pool.TotalDeposited, err = fixedpoint.Add(pool.TotalDeposited, amount); err != nil {
			return nil, err
		}
	}
	if position.RewardDebt, err = rewardDebt(position.Amount, pool.AccPerShare); err != nil {
		return nil, err
	}
	if err := e.persist(cfg, pool, user, position); err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		e.emit(events.GeneratorPosition{
			Kind:    events.TypeGeneratorDeposit,
			Token:   token,
			Account: user,
			Amount:  amount,
			Balance: fixedpoint.Copy(position.Amount),
		})
	}
	return paid, nil
}

// Claim pays the pending reward without moving principal.
func (e *Engine) Claim(user, token [20]byte) (*big.Int, error) {
	return e.Deposit(user, token, big.NewInt(0))
}

// Withdraw settles the pool, pays the pending reward and returns amount of
// principal to the caller.
func (e *Engine) Withdraw(user, token [20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	pool, err := e.loadPool(token)
	if err != nil {
		return nil, err
	}
	position, err := e.loadUser(token, user)
	if err != nil {
		return nil, err
	}
	if position.Amount.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	if err := e.settlePool(cfg, pool); err != nil {
		return nil, err
	}
	paid, err := e.payPending(cfg, pool, user, position)
	if err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		if position.Amount, err = fixedpoint.Sub(position.Amount, amount); err != nil {
			return nil, err
		}
		if pool.TotalDeposited, err = fixedpoint.Sub(pool.TotalDeposited, amount); err != nil {
			return nil, err
		}
		if err := e.bank.Transfer(token, e.moduleAddress, user, amount); err != nil {
			return nil, err
		}
	}
	if position.RewardDebt, err = rewardDebt(position.Amount, pool.AccPerShare); err != nil {
		return nil, err
	}
	if err := e.persist(cfg, pool, user, position); err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		e.emit(events.GeneratorPosition{
			Kind:    events.TypeGeneratorWithdraw,
			Token:   token,
			Account: user,
			Amount:  amount,
			Balance: fixedpoint.Copy(position.Amount),
		})
	}
	return paid, nil
}

// EmergencyWithdraw returns the full principal without settling or paying
// rewards. Any unpaid reward remains in the generator balance.
func (e *Engine) EmergencyWithdraw(user, token [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.loadPool(token)
	if err != nil {
		return nil, err
	}
	position, err := e.loadUser(token, user)
	if err != nil {
		return nil, err
	}
	amount := fixedpoint.Copy(position.Amount)
	if amount.Sign() == 0 {
		return amount, nil
	}
	if pool.TotalDeposited, err = fixedpoint.Sub(pool.TotalDeposited, amount); err != nil {
		return nil, err
	}
	if err := e.bank.Transfer(token, e.moduleAddress, user, amount); err != nil {
		return nil, err
	}
	if err := e.state.PutGeneratorPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutGeneratorUser(token, user, &UserInfo{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}); err != nil {
		return nil, err
	}
	e.emit(events.GeneratorPosition{
		Kind:    events.TypeGeneratorEmergencyWithdraw,
		Token:   token,
		Account: user,
		Amount:  amount,
		Balance: big.NewInt(0),
	})
	return amount, nil
}

func (e *Engine) persist(cfg *Config, pool *PoolInfo, user [20]byte, position *UserInfo) error {
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	if err := e.state.PutGeneratorPool(pool); err != nil {
		return err
	}
	return e.state.PutGeneratorUser(pool.Token, user, position)
}

// payPending transfers the depositor's pending reward out of the generator
// balance. RewardBalance underflow means the accumulator overpaid and aborts.
func (e *Engine) payPending(cfg *Config, pool *PoolInfo, user [20]byte, position *UserInfo) (*big.Int, error) {
	pending, err := pendingFor(position, pool.AccPerShare)
	if err != nil {
		return nil, err
	}
	if pending.Sign() == 0 {
		return pending, nil
	}
	if cfg.RewardBalance, err = fixedpoint.Sub(cfg.RewardBalance, pending); err != nil {
		return nil, err
	}
	if err := e.bank.Transfer(cfg.RewardToken, e.moduleAddress, user, pending); err != nil {
		return nil, err
	}
	e.emit(events.GeneratorRewardPaid{Token: pool.Token, Account: user, Amount: pending})
	return pending, nil
}

// rewardDebt rounds up so that the sum of pending rewards across depositors
// can never exceed what the accumulator minted.
func rewardDebt(amount, accPerShare *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivUp(amount, accPerShare, AccPrecision)
}

func pendingFor(position *UserInfo, accPerShare *big.Int) (*big.Int, error) {
	if position == nil || fixedpoint.IsZero(position.Amount) {
		return big.NewInt(0), nil
	}
	accrued, err := fixedpoint.MulDiv(position.Amount, accPerShare, AccPrecision)
	if err != nil {
		return nil, err
	}
	return fixedpoint.SubFloor(accrued, position.RewardDebt)
}
