package generator

import (
	"math/big"

	"github.com/exfury/gridiron-core/crypto"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// Config returns a copy of the stored configuration.
func (e *Engine) Config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadConfig()
}

// Pool returns the stored pool without settling it.
func (e *Engine) Pool(token [20]byte) (*PoolInfo, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadPool(token)
}

// Pools lists every registered pool in registration order.
func (e *Engine) Pools() ([]PoolView, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tokens, err := e.state.GeneratorPoolTokens()
	if err != nil {
		return nil, err
	}
	views := make([]PoolView, 0, len(tokens))
	for _, token := range tokens {
		pool, err := e.loadPool(token)
		if err != nil {
			return nil, err
		}
		views = append(views, poolView(pool))
	}
	return views, nil
}

func poolView(pool *PoolInfo) PoolView {
	return PoolView{
		Token:           crypto.FromRaw(pool.Token).String(),
		AllocPoint:      pool.AllocPoint,
		LastRewardBlock: pool.LastRewardBlock,
		AccPerShare:     fixedpoint.Copy(pool.AccPerShare),
		TotalDeposited:  fixedpoint.Copy(pool.TotalDeposited),
	}
}

// PoolView returns the query representation of one pool.
func (e *Engine) PoolView(token [20]byte) (PoolView, error) {
	pool, err := e.Pool(token)
	if err != nil {
		return PoolView{}, err
	}
	return poolView(pool), nil
}

// PendingReward simulates settlement at the current block and returns the
// reward the depositor would receive now. Nothing is written.
func (e *Engine) PendingReward(token, addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	pool, err := e.loadPool(token)
	if err != nil {
		return nil, err
	}
	if _, err := accrue(cfg, pool, e.blockHeight); err != nil {
		return nil, err
	}
	position, err := e.loadUser(token, addr)
	if err != nil {
		return nil, err
	}
	return pendingFor(position, pool.AccPerShare)
}

// Position returns the depositor's stored position alongside the pending
// reward at the current block.
func (e *Engine) Position(token, addr [20]byte) (*PositionView, error) {
	pending, err := e.PendingReward(token, addr)
	if err != nil {
		return nil, err
	}
	position, err := e.loadUser(token, addr)
	if err != nil {
		return nil, err
	}
	return &PositionView{
		Amount:        position.Amount,
		RewardDebt:    position.RewardDebt,
		PendingReward: pending,
	}, nil
}
