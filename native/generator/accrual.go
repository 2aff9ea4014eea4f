package generator

import (
	"math/big"

	"github.com/exfury/gridiron-core/core/events"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// accrual is the outcome of folding emission into a pool accumulator.
type accrual struct {
	fromBlock uint64
	reward    *big.Int
	devReward *big.Int
}

// accrue advances pool to height in memory. Empty pools, zero weight and
// pre-start blocks only move LastRewardBlock forward. Every division truncates
// so the accumulator can never promise more than was minted.
func accrue(cfg *Config, pool *PoolInfo, height uint64) (*accrual, error) {
	if height <= pool.LastRewardBlock {
		return nil, nil
	}
	out := &accrual{fromBlock: pool.LastRewardBlock, reward: big.NewInt(0), devReward: big.NewInt(0)}
	if fixedpoint.IsZero(pool.TotalDeposited) || cfg.TotalAllocPoint == 0 || pool.AllocPoint == 0 {
		pool.LastRewardBlock = height
		return out, nil
	}
	multiplier, err := cfg.Multiplier(pool.LastRewardBlock, height)
	if err != nil {
		return nil, err
	}
	emission, err := fixedpoint.MulUint64(cfg.TokensPerBlock, multiplier)
	if err != nil {
		return nil, err
	}
	reward, err := fixedpoint.MulDiv(emission, new(big.Int).SetUint64(pool.AllocPoint), new(big.Int).SetUint64(cfg.TotalAllocPoint))
	if err != nil {
		return nil, err
	}
	devReward, err := fixedpoint.BpsOf(reward, cfg.DevFeeBps)
	if err != nil {
		return nil, err
	}
	increment, err := fixedpoint.MulDiv(reward, AccPrecision, pool.TotalDeposited)
	if err != nil {
		return nil, err
	}
	if pool.AccPerShare, err = fixedpoint.Add(pool.AccPerShare, increment); err != nil {
		return nil, err
	}
	pool.LastRewardBlock = height
	out.reward = reward
	out.devReward = devReward
	return out, nil
}

// settlePool accrues the pool and mints the emission it earned. The caller
// persists pool and cfg.
func (e *Engine) settlePool(cfg *Config, pool *PoolInfo) error {
	result, err := accrue(cfg, pool, e.blockHeight)
	if err != nil || result == nil {
		return err
	}
	if result.reward.Sign() > 0 {
		if err := e.bank.Mint(cfg.RewardToken, e.moduleAddress, result.reward); err != nil {
			return err
		}
		if cfg.RewardBalance, err = fixedpoint.Add(cfg.RewardBalance, result.reward); err != nil {
			return err
		}
	}
	if result.devReward.Sign() > 0 {
		if err := e.bank.Mint(cfg.RewardToken, cfg.DevAddr, result.devReward); err != nil {
			return err
		}
	}
	if result.reward.Sign() > 0 {
		e.emit(events.GeneratorPoolSettled{
			Token:       pool.Token,
			FromBlock:   result.fromBlock,
			ToBlock:     pool.LastRewardBlock,
			Reward:      result.reward,
			DevReward:   result.devReward,
			AccPerShare: fixedpoint.Copy(pool.AccPerShare),
		})
	}
	return nil
}

// SettlePool folds emission up to the current block into the pool.
func (e *Engine) SettlePool(token [20]byte) (*PoolInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
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
	if err := e.state.PutGeneratorPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// MassUpdatePools settles every registered pool.
func (e *Engine) MassUpdatePools() error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := e.massUpdate(cfg); err != nil {
		return err
	}
	return e.state.PutGeneratorConfig(cfg)
}

func (e *Engine) massUpdate(cfg *Config) error {
	tokens, err := e.state.GeneratorPoolTokens()
	if err != nil {
		return err
	}
	for _, token := range tokens {
		pool, err := e.loadPool(token)
		if err != nil {
			return err
		}
		if err := e.settlePool(cfg, pool); err != nil {
			return err
		}
		if err := e.state.PutGeneratorPool(pool); err != nil {
			return err
		}
	}
	return nil
}
