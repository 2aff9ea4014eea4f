package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/exfury/gridiron-core/crypto"
	"github.com/exfury/gridiron-core/native/generator"
	"github.com/exfury/gridiron-core/native/votingescrow"
)

// GenesisSpec is the JSON document describing the initial chain state.
type GenesisSpec struct {
	GenesisTime string                       `json:"genesisTime"`
	Alloc       map[string]map[string]string `json:"alloc"` // token -> addr -> amount
	Generator   GeneratorSpec                `json:"generator"`
	Escrow      EscrowSpec                   `json:"escrow"`

	genesisTimestamp time.Time
}

type GeneratorSpec struct {
	Owner           string     `json:"owner"`
	RewardToken     string     `json:"rewardToken"`
	DevAddr         string     `json:"devAddr,omitempty"`
	DevFeeBps       uint64     `json:"devFeeBps,omitempty"`
	TokensPerBlock  string     `json:"tokensPerBlock"`
	StartBlock      uint64     `json:"startBlock,omitempty"`
	BonusEndBlock   uint64     `json:"bonusEndBlock,omitempty"`
	BonusMultiplier uint64     `json:"bonusMultiplier,omitempty"`
	Pools           []PoolSpec `json:"pools,omitempty"`
}

type PoolSpec struct {
	Token      string `json:"token"`
	AllocPoint uint64 `json:"allocPoint"`
}

type EscrowSpec struct {
	Owner          string `json:"owner"`
	Guardian       string `json:"guardian,omitempty"`
	DepositToken   string `json:"depositToken"`
	MinLockPeriods uint64 `json:"minLockPeriods"`
	MaxLockPeriods uint64 `json:"maxLockPeriods"`
	PeriodSeconds  uint64 `json:"periodSeconds"`
	// EpochStart defaults to the genesis time when omitted.
	EpochStart *uint64  `json:"epochStart,omitempty"`
	Blacklist  []string `json:"blacklist,omitempty"`
}

// LoadGenesisSpec reads and validates the genesis document at path.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a genesis document.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func (s *GenesisSpec) validate() error {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(s.GenesisTime))
	if err != nil {
		return fmt.Errorf("genesisTime: %w", err)
	}
	if parsed.Unix() < 0 {
		return fmt.Errorf("genesisTime must not precede the unix epoch")
	}
	s.genesisTimestamp = parsed.UTC()
	for token, holders := range s.Alloc {
		if _, err := parseAccount(token); err != nil {
			return fmt.Errorf("alloc token %q: %w", token, err)
		}
		for addr, amount := range holders {
			if _, err := parseAccount(addr); err != nil {
				return fmt.Errorf("alloc %q holder %q: %w", token, addr, err)
			}
			if _, err := parseAmount(amount); err != nil {
				return fmt.Errorf("alloc %q holder %q: %w", token, addr, err)
			}
		}
	}
	if _, err := s.Generator.config(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if _, err := s.Escrow.config(uint64(s.genesisTimestamp.Unix())); err != nil {
		return fmt.Errorf("escrow: %w", err)
	}
	return nil
}

func (g GeneratorSpec) config() (*generator.Config, error) {
	owner, err := parseAccount(g.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	rewardToken, err := parseAccount(g.RewardToken)
	if err != nil {
		return nil, fmt.Errorf("rewardToken: %w", err)
	}
	var devAddr [20]byte
	if strings.TrimSpace(g.DevAddr) != "" {
		if devAddr, err = parseAccount(g.DevAddr); err != nil {
			return nil, fmt.Errorf("devAddr: %w", err)
		}
	}
	rate, err := parseAmount(g.TokensPerBlock)
	if err != nil {
		return nil, fmt.Errorf("tokensPerBlock: %w", err)
	}
	cfg := &generator.Config{
		Owner:           owner,
		RewardToken:     rewardToken,
		DevAddr:         devAddr,
		DevFeeBps:       g.DevFeeBps,
		TokensPerBlock:  rate,
		StartBlock:      g.StartBlock,
		BonusEndBlock:   g.BonusEndBlock,
		BonusMultiplier: g.BonusMultiplier,
		RewardBalance:   big.NewInt(0),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, pool := range g.Pools {
		if _, err := parseAccount(pool.Token); err != nil {
			return nil, fmt.Errorf("pools[%d].token: %w", i, err)
		}
	}
	return cfg, nil
}

func (e EscrowSpec) config(genesisTime uint64) (*votingescrow.Config, error) {
	owner, err := parseAccount(e.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	var guardian [20]byte
	if strings.TrimSpace(e.Guardian) != "" {
		if guardian, err = parseAccount(e.Guardian); err != nil {
			return nil, fmt.Errorf("guardian: %w", err)
		}
	}
	token, err := parseAccount(e.DepositToken)
	if err != nil {
		return nil, fmt.Errorf("depositToken: %w", err)
	}
	epochStart := genesisTime
	if e.EpochStart != nil {
		epochStart = *e.EpochStart
	}
	cfg := &votingescrow.Config{
		Owner:          owner,
		Guardian:       guardian,
		DepositToken:   token,
		MinLockPeriods: e.MinLockPeriods,
		MaxLockPeriods: e.MaxLockPeriods,
		PeriodSeconds:  e.PeriodSeconds,
		EpochStart:     epochStart,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, addr := range e.Blacklist {
		if _, err := parseAccount(addr); err != nil {
			return nil, fmt.Errorf("blacklist[%d]: %w", i, err)
		}
	}
	return cfg, nil
}

func parseAccount(value string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
