package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/exfury/gridiron-core/crypto"
	"github.com/exfury/gridiron-core/native/generator"
)

// ErrQueryNotSupported indicates the requested namespace/path is not handled by the state router.
var ErrQueryNotSupported = errors.New("query: not supported")

// ErrInvalidQuery reports a malformed query argument.
var ErrInvalidQuery = errors.New("query: invalid argument")

// QueryResult carries the JSON encoded answer of a state query.
type QueryResult struct {
	Value json.RawMessage `json:"value"`
}

type amountResult struct {
	Amount *big.Int `json:"amount"`
}

type generatorConfigView struct {
	Owner           string   `json:"owner"`
	RewardToken     string   `json:"rewardToken"`
	DevAddr         string   `json:"devAddr,omitempty"`
	DevFeeBps       uint64   `json:"devFeeBps"`
	TokensPerBlock  *big.Int `json:"tokensPerBlock"`
	TotalAllocPoint uint64   `json:"totalAllocPoint"`
	StartBlock      uint64   `json:"startBlock"`
	BonusEndBlock   uint64   `json:"bonusEndBlock"`
	BonusMultiplier uint64   `json:"bonusMultiplier"`
	RewardBalance   *big.Int `json:"rewardBalance"`
}

type escrowConfigView struct {
	Owner          string `json:"owner"`
	Guardian       string `json:"guardian,omitempty"`
	DepositToken   string `json:"depositToken"`
	MinLockPeriods uint64 `json:"minLockPeriods"`
	MaxLockPeriods uint64 `json:"maxLockPeriods"`
	PeriodSeconds  uint64 `json:"periodSeconds"`
	EpochStart     uint64 `json:"epochStart"`
	CurrentPeriod  uint64 `json:"currentPeriod"`
}

func formatAddress(raw [20]byte) string {
	if raw == ([20]byte{}) {
		return ""
	}
	return crypto.FromRaw(raw).String()
}

func encodeResult(value interface{}) (*QueryResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Value: payload}, nil
}

func decodeQueryAddress(input string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(input)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return addr.Raw(), nil
}

func decodeQueryUint(input string) (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return value, nil
}

// QueryState answers read-only queries against the committed state. Paths are
// slash separated; see the per-namespace routers for the accepted forms.
func (a *Application) QueryState(namespace, path string) (*QueryResult, error) {
	if a == nil {
		return nil, ErrNilApplication
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ns := strings.TrimSpace(strings.ToLower(namespace))
	parts := splitPath(path)
	switch ns {
	case "generator":
		return a.queryGenerator(parts)
	case "escrow":
		return a.queryEscrow(parts)
	case "bank":
		return a.queryBank(parts)
	default:
		return nil, ErrQueryNotSupported
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// queryGenerator serves config, pools, pools/<token>,
// pending/<token>/<addr> and users/<token>/<addr>.
func (a *Application) queryGenerator(parts []string) (*QueryResult, error) {
	if len(parts) == 0 {
		return nil, ErrQueryNotSupported
	}
	switch {
	case parts[0] == "config" && len(parts) == 1:
		cfg, err := a.generator.Config()
		if err != nil {
			return nil, err
		}
		return encodeResult(generatorConfigView{
			Owner:           formatAddress(cfg.Owner),
			RewardToken:     formatAddress(cfg.RewardToken),
			DevAddr:         formatAddress(cfg.DevAddr),
			DevFeeBps:       cfg.DevFeeBps,
			TokensPerBlock:  cfg.TokensPerBlock,
			TotalAllocPoint: cfg.TotalAllocPoint,
			StartBlock:      cfg.StartBlock,
			BonusEndBlock:   cfg.BonusEndBlock,
			BonusMultiplier: cfg.BonusMultiplier,
			RewardBalance:   cfg.RewardBalance,
		})
	case parts[0] == "pools" && len(parts) == 1:
		pools, err := a.generator.Pools()
		if err != nil {
			return nil, err
		}
		if pools == nil {
			pools = []generator.PoolView{}
		}
		return encodeResult(pools)
	case parts[0] == "pools" && len(parts) == 2:
		token, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		view, err := a.generator.PoolView(token)
		if err != nil {
			return nil, err
		}
		return encodeResult(view)
	case (parts[0] == "pending" || parts[0] == "users") && len(parts) == 3:
		token, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		addr, err := decodeQueryAddress(parts[2])
		if err != nil {
			return nil, err
		}
		if parts[0] == "pending" {
			pending, err := a.generator.PendingReward(token, addr)
			if err != nil {
				return nil, err
			}
			return encodeResult(amountResult{Amount: pending})
		}
		position, err := a.generator.Position(token, addr)
		if err != nil {
			return nil, err
		}
		return encodeResult(position)
	default:
		return nil, ErrQueryNotSupported
	}
}

// queryEscrow serves config, blacklist, locks/<addr>,
// power/<addr>[/period/<n>|/time/<ts>] and total[/period/<n>|/time/<ts>].
func (a *Application) queryEscrow(parts []string) (*QueryResult, error) {
	if len(parts) == 0 {
		return nil, ErrQueryNotSupported
	}
	switch parts[0] {
	case "config":
		if len(parts) != 1 {
			return nil, ErrQueryNotSupported
		}
		cfg, err := a.escrow.Config()
		if err != nil {
			return nil, err
		}
		period, err := a.escrow.CurrentPeriod()
		if err != nil {
			return nil, err
		}
		return encodeResult(escrowConfigView{
			Owner:          formatAddress(cfg.Owner),
			Guardian:       formatAddress(cfg.Guardian),
			DepositToken:   formatAddress(cfg.DepositToken),
			MinLockPeriods: cfg.MinLockPeriods,
			MaxLockPeriods: cfg.MaxLockPeriods,
			PeriodSeconds:  cfg.PeriodSeconds,
			EpochStart:     cfg.EpochStart,
			CurrentPeriod:  period,
		})
	case "blacklist":
		if len(parts) != 1 {
			return nil, ErrQueryNotSupported
		}
		listed, err := a.escrow.Blacklist()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(listed))
		for _, addr := range listed {
			out = append(out, crypto.FromRaw(addr).String())
		}
		return encodeResult(out)
	case "locks":
		if len(parts) != 2 {
			return nil, ErrQueryNotSupported
		}
		addr, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		view, err := a.escrow.LockView(addr)
		if err != nil {
			return nil, err
		}
		return encodeResult(view)
	case "power":
		if len(parts) != 2 && len(parts) != 4 {
			return nil, ErrQueryNotSupported
		}
		addr, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		power, err := a.escrowPower(parts[2:],
			func() (*big.Int, error) { return a.escrow.VotingPower(addr) },
			func(period uint64) (*big.Int, error) { return a.escrow.VotingPowerAt(addr, period) },
			func(ts uint64) (*big.Int, error) { return a.escrow.VotingPowerAtTime(addr, ts) },
		)
		if err != nil {
			return nil, err
		}
		return encodeResult(amountResult{Amount: power})
	case "total":
		if len(parts) != 1 && len(parts) != 3 {
			return nil, ErrQueryNotSupported
		}
		power, err := a.escrowPower(parts[1:],
			a.escrow.TotalVotingPower,
			a.escrow.TotalVotingPowerAt,
			a.escrow.TotalVotingPowerAtTime,
		)
		if err != nil {
			return nil, err
		}
		return encodeResult(amountResult{Amount: power})
	default:
		return nil, ErrQueryNotSupported
	}
}

func (a *Application) escrowPower(selector []string, now func() (*big.Int, error),
	atPeriod, atTime func(uint64) (*big.Int, error)) (*big.Int, error) {
	if len(selector) == 0 {
		return now()
	}
	value, err := decodeQueryUint(selector[1])
	if err != nil {
		return nil, err
	}
	switch selector[0] {
	case "period":
		return atPeriod(value)
	case "time":
		return atTime(value)
	default:
		return nil, ErrQueryNotSupported
	}
}

// queryBank serves balances/<token>/<addr> and supply/<token>.
func (a *Application) queryBank(parts []string) (*QueryResult, error) {
	switch {
	case len(parts) == 3 && parts[0] == "balances":
		token, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		addr, err := decodeQueryAddress(parts[2])
		if err != nil {
			return nil, err
		}
		balance, err := a.bank.BalanceOf(token, addr)
		if err != nil {
			return nil, err
		}
		return encodeResult(amountResult{Amount: balance})
	case len(parts) == 2 && parts[0] == "supply":
		token, err := decodeQueryAddress(parts[1])
		if err != nil {
			return nil, err
		}
		supply, err := a.bank.Supply(token)
		if err != nil {
			return nil, err
		}
		return encodeResult(amountResult{Amount: supply})
	default:
		return nil, ErrQueryNotSupported
	}
}
