package generator

import (
	"math/big"
	"math/bits"

	"github.com/exfury/gridiron-core/core/events"
	"github.com/exfury/gridiron-core/crypto"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/fixedpoint"
)

// AddPool registers a deposit token with the supplied weight. When
// withUpdate is set every existing pool is settled first so the dilution of
// their share applies only to future blocks.
func (e *Engine) AddPool(caller, token [20]byte, allocPoint uint64, withUpdate bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner); err != nil {
		return err
	}
	if token == ([20]byte{}) {
		return ErrInvalidAddress
	}
	if _, ok, err := e.state.GeneratorPool(token); err != nil {
		return err
	} else if ok {
		return ErrDuplicatePool
	}
	if withUpdate {
		if err := e.massUpdate(cfg); err != nil {
			return err
		}
	}
	total, carry := bits.Add64(cfg.TotalAllocPoint, allocPoint, 0)
	if carry != 0 {
		return fixedpoint.ErrArithmeticOverflow
	}
	lastReward := e.blockHeight
	if lastReward < cfg.StartBlock {
		lastReward = cfg.StartBlock
	}
	pool := &PoolInfo{
		Token:           token,
		AllocPoint:      allocPoint,
		LastRewardBlock: lastReward,
		AccPerShare:     big.NewInt(0),
		TotalDeposited:  big.NewInt(0),
	}
	tokens, err := e.state.GeneratorPoolTokens()
	if err != nil {
		return err
	}
	cfg.TotalAllocPoint = total
	if err := e.state.PutGeneratorPool(pool); err != nil {
		return err
	}
	if err := e.state.PutGeneratorPoolTokens(append(tokens, token)); err != nil {
		return err
	}
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	if err := e.CheckAllocInvariant(); err != nil {
		return err
	}
	e.emit(events.GeneratorPoolAdded{
		Token:           token,
		AllocPoint:      allocPoint,
		TotalAllocPoint: total,
		LastRewardBlock: lastReward,
	})
	return nil
}

// SetAllocPoint changes a pool weight. All pools are settled under the old
// weights first because the total changes every pool's share.
func (e *Engine) SetAllocPoint(caller, token [20]byte, allocPoint uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner); err != nil {
		return err
	}
	if _, err := e.loadPool(token); err != nil {
		return err
	}
	if err := e.massUpdate(cfg); err != nil {
		return err
	}
	pool, err := e.loadPool(token)
	if err != nil {
		return err
	}
	previous := pool.AllocPoint
	if cfg.TotalAllocPoint < previous {
		return ErrAllocInvariant
	}
	total, carry := bits.Add64(cfg.TotalAllocPoint-previous, allocPoint, 0)
	if carry != 0 {
		return fixedpoint.ErrArithmeticOverflow
	}
	cfg.TotalAllocPoint = total
	pool.AllocPoint = allocPoint
	if err := e.state.PutGeneratorPool(pool); err != nil {
		return err
	}
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	if err := e.CheckAllocInvariant(); err != nil {
		return err
	}
	e.emit(events.GeneratorAllocUpdated{
		Token:           token,
		Previous:        previous,
		AllocPoint:      allocPoint,
		TotalAllocPoint: total,
	})
	return nil
}

// CheckAllocInvariant verifies TotalAllocPoint equals the sum of pool weights.
func (e *Engine) CheckAllocInvariant() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	tokens, err := e.state.GeneratorPoolTokens()
	if err != nil {
		return err
	}
	var sum uint64
	for _, token := range tokens {
		pool, err := e.loadPool(token)
		if err != nil {
			return err
		}
		var carry uint64
		sum, carry = bits.Add64(sum, pool.AllocPoint, 0)
		if carry != 0 {
			return fixedpoint.ErrArithmeticOverflow
		}
	}
	if sum != cfg.TotalAllocPoint {
		return ErrAllocInvariant
	}
	return nil
}

// SetTokensPerBlock changes the emission rate after settling every pool at
// the old rate.
func (e *Engine) SetTokensPerBlock(caller [20]byte, rate *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if rate == nil || rate.Sign() < 0 {
		return ErrInvalidAmount
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.Owner); err != nil {
		return err
	}
	if err := e.massUpdate(cfg); err != nil {
		return err
	}
	cfg.TokensPerBlock = new(big.Int).Set(rate)
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	e.emit(events.GeneratorConfigUpdated{Field: "tokensPerBlock", Value: rate.String()})
	return nil
}

// SetDevAddr moves the dev fee recipient. Either the current dev address or
// the owner may call it.
func (e *Engine) SetDevAddr(caller, devAddr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := nativecommon.Authorize(caller, cfg.DevAddr, cfg.Owner); err != nil {
		return err
	}
	if devAddr == ([20]byte{}) && cfg.DevFeeBps > 0 {
		return ErrInvalidAddress
	}
	cfg.DevAddr = devAddr
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	e.emit(events.GeneratorConfigUpdated{Field: "devAddr", Value: crypto.FromRaw(devAddr).String()})
	return nil
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
	if err := e.state.PutGeneratorConfig(cfg); err != nil {
		return err
	}
	e.emit(events.GeneratorConfigUpdated{Field: "owner", Value: crypto.FromRaw(newOwner).String()})
	return nil
}
