package state

import (
	"github.com/exfury/gridiron-core/native/fixedpoint"
	"github.com/exfury/gridiron-core/native/generator"
)

const (
	generatorConfigKey = "generator/config"
	generatorPoolsKey  = "generator/pools"
	generatorPoolKey   = "generator/pool/"
	generatorUserKey   = "generator/user/"
)

func generatorPoolStateKey(token [20]byte) []byte {
	return composeKey(generatorPoolKey, token[:])
}

func generatorUserStateKey(token, addr [20]byte) []byte {
	return composeKey(generatorUserKey, token[:], []byte("/"), addr[:])
}

// GeneratorConfig returns the stored generator configuration or nil.
func (m *Manager) GeneratorConfig() (*generator.Config, error) {
	cfg := new(generator.Config)
	ok, err := m.KVGet([]byte(generatorConfigKey), cfg)
	if err != nil || !ok {
		return nil, err
	}
	return cfg, nil
}

// PutGeneratorConfig persists the generator configuration.
func (m *Manager) PutGeneratorConfig(cfg *generator.Config) error {
	return m.KVPut([]byte(generatorConfigKey), cfg)
}

// GeneratorPool loads the pool registered for token.
func (m *Manager) GeneratorPool(token [20]byte) (*generator.PoolInfo, bool, error) {
	pool := new(generator.PoolInfo)
	ok, err := m.KVGet(generatorPoolStateKey(token), pool)
	if err != nil || !ok {
		return nil, false, err
	}
	return pool, true, nil
}

// PutGeneratorPool persists a pool record.
func (m *Manager) PutGeneratorPool(pool *generator.PoolInfo) error {
	return m.KVPut(generatorPoolStateKey(pool.Token), pool)
}

// GeneratorPoolTokens lists registered pool tokens in registration order.
func (m *Manager) GeneratorPoolTokens() ([][20]byte, error) {
	var tokens [][20]byte
	if err := m.KVGetList([]byte(generatorPoolsKey), &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// PutGeneratorPoolTokens overwrites the pool index.
func (m *Manager) PutGeneratorPoolTokens(tokens [][20]byte) error {
	return m.KVPut([]byte(generatorPoolsKey), tokens)
}

// GeneratorUser loads the position of addr in the pool for token. Missing
// positions return nil.
func (m *Manager) GeneratorUser(token, addr [20]byte) (*generator.UserInfo, error) {
	info := new(generator.UserInfo)
	ok, err := m.KVGet(generatorUserStateKey(token, addr), info)
	if err != nil || !ok {
		return nil, err
	}
	return info, nil
}

// PutGeneratorUser persists a position. Empty positions are deleted.
func (m *Manager) PutGeneratorUser(token, addr [20]byte, info *generator.UserInfo) error {
	key := generatorUserStateKey(token, addr)
	if info == nil || (fixedpoint.IsZero(info.Amount) && fixedpoint.IsZero(info.RewardDebt)) {
		return m.KVDelete(key)
	}
	return m.KVPut(key, info)
}
