package generator

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	nativecommon "github.com/exfury/gridiron-core/native/common"
)

var errMockInsufficientFunds = errors.New("mock bank: insufficient funds")

type userKey struct {
	token [20]byte
	addr  [20]byte
}

type mockState struct {
	cfg    *Config
	pools  map[[20]byte]*PoolInfo
	tokens [][20]byte
	users  map[userKey]*UserInfo
}

func newMockState() *mockState {
	return &mockState{
		pools: make(map[[20]byte]*PoolInfo),
		users: make(map[userKey]*UserInfo),
	}
}

func (m *mockState) GeneratorConfig() (*Config, error) { return m.cfg.Clone(), nil }

func (m *mockState) PutGeneratorConfig(cfg *Config) error {
	m.cfg = cfg.Clone()
	return nil
}

func (m *mockState) GeneratorPool(token [20]byte) (*PoolInfo, bool, error) {
	pool, ok := m.pools[token]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockState) PutGeneratorPool(pool *PoolInfo) error {
	m.pools[pool.Token] = pool.Clone()
	return nil
}

func (m *mockState) GeneratorPoolTokens() ([][20]byte, error) {
	return append([][20]byte(nil), m.tokens...), nil
}

func (m *mockState) PutGeneratorPoolTokens(tokens [][20]byte) error {
	m.tokens = append([][20]byte(nil), tokens...)
	return nil
}

func (m *mockState) GeneratorUser(token, addr [20]byte) (*UserInfo, error) {
	info, ok := m.users[userKey{token, addr}]
	if !ok {
		return nil, nil
	}
	return info.Clone(), nil
}

func (m *mockState) PutGeneratorUser(token, addr [20]byte, info *UserInfo) error {
	m.users[userKey{token, addr}] = info.Clone()
	return nil
}

type mockBank struct {
	balances map[userKey]*big.Int
	minted   map[[20]byte]*big.Int
}

func newMockBank() *mockBank {
	return &mockBank{balances: make(map[userKey]*big.Int), minted: make(map[[20]byte]*big.Int)}
}

func (b *mockBank) balance(token, addr [20]byte) *big.Int {
	if bal, ok := b.balances[userKey{token, addr}]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (b *mockBank) Transfer(token, from, to [20]byte, amount *big.Int) error {
	if b.balance(token, from).Cmp(amount) < 0 {
		return errMockInsufficientFunds
	}
	b.balances[userKey{token, from}] = new(big.Int).Sub(b.balance(token, from), amount)
	b.balances[userKey{token, to}] = new(big.Int).Add(b.balance(token, to), amount)
	return nil
}

func (b *mockBank) Mint(token, to [20]byte, amount *big.Int) error {
	b.balances[userKey{token, to}] = new(big.Int).Add(b.balance(token, to), amount)
	supply, ok := b.minted[token]
	if !ok {
		supply = big.NewInt(0)
	}
	b.minted[token] = new(big.Int).Add(supply, amount)
	return nil
}

func (b *mockBank) BalanceOf(token, addr [20]byte) (*big.Int, error) {
	return new(big.Int).Set(b.balance(token, addr)), nil
}

func addr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

var (
	owner       = addr(0xf0)
	module      = addr(0xf1)
	rewardToken = addr(0xf2)
	devAddr     = addr(0xf3)
	lpA         = addr(0xa1)
	lpB         = addr(0xa2)
)

type fixture struct {
	engine *Engine
	state  *mockState
	bank   *mockBank
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	if cfg.Owner == ([20]byte{}) {
		cfg.Owner = owner
	}
	if cfg.RewardToken == ([20]byte{}) {
		cfg.RewardToken = rewardToken
	}
	if cfg.TokensPerBlock == nil {
		cfg.TokensPerBlock = big.NewInt(100)
	}
	f := &fixture{engine: NewEngine(module), state: newMockState(), bank: newMockBank()}
	f.engine.SetState(f.state)
	f.engine.SetBank(f.bank)
	require.NoError(t, f.engine.InitGenesis(&cfg))
	return f
}

func (f *fixture) fund(token, account [20]byte, amount int64) {
	f.bank.balances[userKey{token, account}] = big.NewInt(amount)
}

func (f *fixture) at(height uint64) *Engine {
	f.engine.SetBlockHeight(height)
	return f.engine
}

func TestSingleDepositorTenBlocks(t *testing.T) {
	f := newFixture(t, Config{})
	user := addr(1)
	f.fund(lpA, user, 500)

	require.NoError(t, f.at(100).AddPool(owner, lpA, 10, false))
	paid, err := f.at(100).Deposit(user, lpA, big.NewInt(500))
	require.NoError(t, err)
	require.Zero(t, paid.Sign())

	pending, err := f.at(110).PendingReward(lpA, user)
	require.NoError(t, err)
	require.Equal(t, int64(1000), pending.Int64())

	paid, err = f.at(110).Withdraw(user, lpA, big.NewInt(500))
	require.NoError(t, err)
	require.Equal(t, int64(1000), paid.Int64())

	position, err := f.state.GeneratorUser(lpA, user)
	require.NoError(t, err)
	require.Zero(t, position.Amount.Sign())
	require.Zero(t, position.RewardDebt.Sign())
	require.Equal(t, int64(1000), f.bank.balance(rewardToken, user).Int64())
	require.Equal(t, int64(500), f.bank.balance(lpA, user).Int64())

	cfg, err := f.engine.Config()
	require.NoError(t, err)
	require.Zero(t, cfg.RewardBalance.Sign())
}

func TestTwoDepositorsTimeWeighted(t *testing.T) {
	f := newFixture(t, Config{})
	f.fund(lpA, addr(1), 100)
	f.fund(lpA, addr(2), 300)

	require.NoError(t, f.at(10).AddPool(owner, lpA, 1, false))
	_, err := f.at(10).Deposit(addr(1), lpA, big.NewInt(100))
	require.NoError(t, err)
	_, err = f.at(20).Deposit(addr(2), lpA, big.NewInt(300))
	require.NoError(t, err)

	first, err := f.at(30).PendingReward(lpA, addr(1))
	require.NoError(t, err)
	second, err := f.at(30).PendingReward(lpA, addr(2))
	require.NoError(t, err)

	// blocks 10-20 belong to the first depositor, 20-30 split 1:3.
	require.Equal(t, int64(1250), first.Int64())
	require.Equal(t, int64(750), second.Int64())
}

func TestEmptyPoolAccruesNothing(t *testing.T) {
	f := newFixture(t, Config{})
	f.fund(lpA, addr(1), 10)
	require.NoError(t, f.at(0).AddPool(owner, lpA, 5, false))

	pool, err := f.at(50).SettlePool(lpA)
	require.NoError(t, err)
	require.Equal(t, uint64(50), pool.LastRewardBlock)
	require.Zero(t, pool.AccPerShare.Sign())
	require.Nil(t, f.bank.minted[rewardToken])

	_, err = f.at(50).Deposit(addr(1), lpA, big.NewInt(10))
	require.NoError(t, err)
	pending, err := f.at(51).PendingReward(lpA, addr(1))
	require.NoError(t, err)
	require.Equal(t, int64(100), pending.Int64())
}

func TestSetAllocPointSettlesUnderOldWeights(t *testing.T) {
	f := newFixture(t, Config{})
	f.fund(lpA, addr(1), 10)
	f.fund(lpB, addr(2), 10)
	require.NoError(t, f.at(0).AddPool(owner, lpA, 10, false))
	require.NoError(t, f.at(0).AddPool(owner, lpB, 10, false))
	_, err := f.at(0).Deposit(addr(1), lpA, big.NewInt(10))
	require.NoError(t, err)
	_, err = f.at(0).Deposit(addr(2), lpB, big.NewInt(10))
	require.NoError(t, err)

	require.ErrorIs(t, f.at(10).SetAllocPoint(addr(9), lpA, 30), nativecommon.ErrUnauthorized)
	require.NoError(t, f.at(10).SetAllocPoint(owner, lpA, 30))
	require.NoError(t, f.engine.CheckAllocInvariant())
	untouched, err := f.engine.Pool(lpB)
	require.NoError(t, err)
	require.Equal(t, uint64(10), untouched.LastRewardBlock)

	pendingA, err := f.at(20).PendingReward(lpA, addr(1))
	require.NoError(t, err)
	pendingB, err := f.at(20).PendingReward(lpB, addr(2))
	require.NoError(t, err)
	require.Equal(t, int64(1250), pendingA.Int64())
	require.Equal(t, int64(750), pendingB.Int64())

	cfg, err := f.engine.Config()
	require.NoError(t, err)
	require.Equal(t, uint64(40), cfg.TotalAllocPoint)
}

func TestAdminSettersSettleFirst(t *testing.T) {
	f := newFixture(t, Config{})
	user := addr(1)
	f.fund(lpA, user, 10)
	require.NoError(t, f.at(0).AddPool(owner, lpA, 10, false))
	_, err := f.at(0).Deposit(user, lpA, big.NewInt(10))
	require.NoError(t, err)

	require.ErrorIs(t, f.at(10).SetTokensPerBlock(user, big.NewInt(50)), nativecommon.ErrUnauthorized)
	require.NoError(t, f.at(10).SetTokensPerBlock(owner, big.NewInt(50)))
	pending, err := f.at(20).PendingReward(lpA, user)
	require.NoError(t, err)
	require.Equal(t, int64(1500), pending.Int64())

	require.ErrorIs(t, f.engine.SetDevAddr(user, devAddr), nativecommon.ErrUnauthorized)
	require.NoError(t, f.engine.SetDevAddr(owner, devAddr))
	require.NoError(t, f.engine.SetDevAddr(devAddr, addr(7)))

	require.ErrorIs(t, f.engine.TransferOwnership(owner, [20]byte{}), ErrInvalidAddress)
	require.NoError(t, f.engine.TransferOwnership(owner, addr(8)))
	require.ErrorIs(t, f.at(20).AddPool(owner, lpB, 1, false), nativecommon.ErrUnauthorized)

	cfg, err := f.engine.Config()
	require.NoError(t, err)
	require.Equal(t, addr(7), cfg.DevAddr)
	require.Equal(t, addr(8), cfg.Owner)
	require.Equal(t, int64(50), cfg.TokensPerBlock.Int64())
}

func TestBonusWindowAndDevFee(t *testing.T) {
	f := newFixture(t, Config{
		StartBlock:      10,
		BonusEndBlock:   20,
		BonusMultiplier: 10,
		DevAddr:         devAddr,
		DevFeeBps:       1000,
		TokensPerBlock:  big.NewInt(1),
	})
	f.fund(lpA, addr(1), 1)
	require.NoError(t, f.at(0).AddPool(owner, lpA, 1, false))
	_, err := f.at(0).Deposit(addr(1), lpA, big.NewInt(1))
	require.NoError(t, err)

	// 10 bonus blocks at 10x plus 5 regular blocks.
	paid, err := f.at(25).Claim(addr(1), lpA)
	require.NoError(t, err)
	require.Equal(t, int64(105), paid.Int64())
	require.Equal(t, int64(10), f.bank.balance(rewardToken, devAddr).Int64())
}

func TestMultiplier(t *testing.T) {
	cfg := &Config{StartBlock: 100, BonusEndBlock: 200, BonusMultiplier: 10}
	cases := []struct {
		from, to uint64
		want     uint64
	}{
		{0, 50, 0},
		{0, 150, 500},
		{150, 250, 550},
		{200, 300, 100},
		{300, 300, 0},
		{310, 300, 0},
	}
	for _, tc := range cases {
		got, err := cfg.Multiplier(tc.from, tc.to)
		require.NoError(t, err)
		require.Equalf(t, tc.want, got, "multiplier(%d,%d)", tc.from, tc.to)
	}
	overflow := &Config{BonusEndBlock: ^uint64(0), BonusMultiplier: 1 << 40}
	_, err := overflow.Multiplier(0, 1<<40)
	require.Error(t, err)
}

func TestReferentialErrors(t *testing.T) {
	f := newFixture(t, Config{})
	f.fund(lpA, addr(1), 10)

	_, err := f.at(1).Deposit(addr(1), lpA, big.NewInt(1))
	require.ErrorIs(t, err, ErrPoolNotFound)
	_, err = f.at(1).Withdraw(addr(1), lpA, big.NewInt(1))
	require.ErrorIs(t, err, ErrPoolNotFound)

	require.ErrorIs(t, f.at(1).AddPool(addr(9), lpA, 1, false), nativecommon.ErrUnauthorized)
	require.NoError(t, f.at(1).AddPool(owner, lpA, 1, false))
	require.ErrorIs(t, f.at(1).AddPool(owner, lpA, 1, false), ErrDuplicatePool)
	require.ErrorIs(t, f.at(1).AddPool(owner, [20]byte{}, 1, false), ErrInvalidAddress)

	_, err = f.at(2).Deposit(addr(1), lpA, big.NewInt(10))
	require.NoError(t, err)
	_, err = f.at(3).Withdraw(addr(1), lpA, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	_, err = f.at(3).Deposit(addr(1), lpA, big.NewInt(-1))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDepositFailsWhenTransferFails(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.at(1).AddPool(owner, lpA, 1, false))
	_, err := f.at(2).Deposit(addr(1), lpA, big.NewInt(10))
	require.ErrorIs(t, err, errMockInsufficientFunds)
	position, err := f.state.GeneratorUser(lpA, addr(1))
	require.NoError(t, err)
	require.Nil(t, position)
}

func TestEmergencyWithdrawForfeitsRewards(t *testing.T) {
	f := newFixture(t, Config{})
	f.fund(lpA, addr(1), 40)
	require.NoError(t, f.at(0).AddPool(owner, lpA, 1, false))
	_, err := f.at(0).Deposit(addr(1), lpA, big.NewInt(40))
	require.NoError(t, err)

	returned, err := f.at(10).EmergencyWithdraw(addr(1), lpA)
	require.NoError(t, err)
	require.Equal(t, int64(40), returned.Int64())
	require.Zero(t, f.bank.balance(rewardToken, addr(1)).Sign())

	pool, err := f.engine.Pool(lpA)
	require.NoError(t, err)
	require.Zero(t, pool.TotalDeposited.Sign())
}

func TestPausedGeneratorRejectsDeposits(t *testing.T) {
	f := newFixture(t, Config{})
	f.engine.SetPauses(nativecommon.NewPauseSet([]string{nativecommon.ModuleGenerator}))
	require.NoError(t, f.at(0).AddPool(owner, lpA, 1, false))
	_, err := f.at(1).Deposit(addr(1), lpA, big.NewInt(1))
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}

func TestRandomSequenceNeverOverpays(t *testing.T) {
	f := newFixture(t, Config{TokensPerBlock: big.NewInt(7)})
	users := [][20]byte{addr(1), addr(2), addr(3)}
	for _, u := range users {
		f.fund(lpA, u, 1_000_000)
	}
	require.NoError(t, f.at(0).AddPool(owner, lpA, 3, false))

	rng := rand.New(rand.NewSource(42))
	height := uint64(0)
	lastAcc := big.NewInt(0)
	paidTotal := big.NewInt(0)
	for step := 0; step < 400; step++ {
		height += uint64(rng.Intn(5))
		u := users[rng.Intn(len(users))]
		engine := f.at(height)
		var paid *big.Int
		var err error
		if rng.Intn(2) == 0 {
			paid, err = engine.Deposit(u, lpA, big.NewInt(int64(rng.Intn(997))))
		} else {
			position, _ := f.state.GeneratorUser(lpA, u)
			amount := int64(0)
			if position != nil && position.Amount.Sign() > 0 {
				amount = rng.Int63n(position.Amount.Int64() + 1)
			}
			paid, err = engine.Withdraw(u, lpA, big.NewInt(amount))
		}
		require.NoError(t, err)
		paidTotal.Add(paidTotal, paid)

		pool, err := f.engine.Pool(lpA)
		require.NoError(t, err)
		require.True(t, pool.AccPerShare.Cmp(lastAcc) >= 0, "accumulator decreased at step %d", step)
		lastAcc = pool.AccPerShare

		pendingSum := big.NewInt(0)
		for _, holder := range users {
			pending, err := engine.PendingReward(lpA, holder)
			require.NoError(t, err)
			pendingSum.Add(pendingSum, pending)
		}
		cfg, err := f.engine.Config()
		require.NoError(t, err)
		require.True(t, pendingSum.Cmp(cfg.RewardBalance) <= 0, "pending %s exceeds balance %s", pendingSum, cfg.RewardBalance)
	}

	cfg, err := f.engine.Config()
	require.NoError(t, err)
	minted := f.bank.minted[rewardToken]
	if minted == nil {
		minted = big.NewInt(0)
	}
	require.Zero(t, new(big.Int).Add(paidTotal, cfg.RewardBalance).Cmp(minted))
}
