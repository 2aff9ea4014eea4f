package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exfury/gridiron-core/native/generator"
	"github.com/exfury/gridiron-core/native/votingescrow"
	"github.com/exfury/gridiron-core/storage"
	"github.com/exfury/gridiron-core/storage/trie"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tr, err := trie.NewTrie(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return NewManager(tr)
}

func testAddr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestGeneratorRecordsRoundTrip(t *testing.T) {
	m := newTestManager(t)

	cfg, err := m.GeneratorConfig()
	require.NoError(t, err)
	require.Nil(t, cfg)

	stored := &generator.Config{
		Owner:          testAddr(1),
		RewardToken:    testAddr(2),
		TokensPerBlock: big.NewInt(100),
		RewardBalance:  big.NewInt(0),
		StartBlock:     5,
	}
	require.NoError(t, m.PutGeneratorConfig(stored))
	cfg, err = m.GeneratorConfig()
	require.NoError(t, err)
	require.Equal(t, stored.Owner, cfg.Owner)
	require.Equal(t, int64(100), cfg.TokensPerBlock.Int64())
	require.Equal(t, uint64(5), cfg.StartBlock)

	tokens, err := m.GeneratorPoolTokens()
	require.NoError(t, err)
	require.Empty(t, tokens)
	require.NoError(t, m.PutGeneratorPoolTokens([][20]byte{testAddr(3), testAddr(4)}))
	tokens, err = m.GeneratorPoolTokens()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{testAddr(3), testAddr(4)}, tokens)

	require.NoError(t, m.PutGeneratorUser(testAddr(3), testAddr(9), &generator.UserInfo{Amount: big.NewInt(7), RewardDebt: big.NewInt(1)}))
	user, err := m.GeneratorUser(testAddr(3), testAddr(9))
	require.NoError(t, err)
	require.Equal(t, int64(7), user.Amount.Int64())

	require.NoError(t, m.PutGeneratorUser(testAddr(3), testAddr(9), &generator.UserInfo{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}))
	user, err = m.GeneratorUser(testAddr(3), testAddr(9))
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestEscrowHistoryAppendAndOverwrite(t *testing.T) {
	m := newTestManager(t)
	id := votingescrow.AccountHistory(testAddr(1))

	require.NoError(t, m.PutEscrowHistoryPoint(id, 0, &votingescrow.Point{Period: 1, Bias: big.NewInt(10), Slope: big.NewInt(1)}))
	require.NoError(t, m.PutEscrowHistoryPoint(id, 1, &votingescrow.Point{Period: 2, Bias: big.NewInt(9), Slope: big.NewInt(1)}))
	require.NoError(t, m.PutEscrowHistoryPoint(id, 1, &votingescrow.Point{Period: 2, Bias: big.NewInt(20), Slope: big.NewInt(2)}))
	require.ErrorIs(t, m.PutEscrowHistoryPoint(id, 5, &votingescrow.Point{}), ErrHistoryGap)

	count, err := m.EscrowHistoryLen(id)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
	point, err := m.EscrowHistoryPoint(id, 1)
	require.NoError(t, err)
	require.Equal(t, int64(20), point.Bias.Int64())

	total, err := m.EscrowHistoryLen(votingescrow.TotalHistory)
	require.NoError(t, err)
	require.Zero(t, total)
	_, err = m.EscrowHistoryPoint(votingescrow.TotalHistory, 0)
	require.ErrorIs(t, err, ErrHistoryGap)
}

func TestEscrowSlopeChangesAndBlacklist(t *testing.T) {
	m := newTestManager(t)

	change, err := m.EscrowSlopeChange(10)
	require.NoError(t, err)
	require.Zero(t, change.Sign())
	require.NoError(t, m.PutEscrowSlopeChange(10, big.NewInt(4)))
	change, err = m.EscrowSlopeChange(10)
	require.NoError(t, err)
	require.Equal(t, int64(4), change.Int64())
	require.NoError(t, m.PutEscrowSlopeChange(10, big.NewInt(0)))
	change, err = m.EscrowSlopeChange(10)
	require.NoError(t, err)
	require.Zero(t, change.Sign())

	require.NoError(t, m.SetEscrowBlacklisted(testAddr(1), true))
	require.NoError(t, m.SetEscrowBlacklisted(testAddr(2), true))
	require.NoError(t, m.SetEscrowBlacklisted(testAddr(1), false))
	listed, err := m.EscrowBlacklisted(testAddr(2))
	require.NoError(t, err)
	require.True(t, listed)
	listed, err = m.EscrowBlacklisted(testAddr(1))
	require.NoError(t, err)
	require.False(t, listed)
	list, err := m.EscrowBlacklist()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{testAddr(2)}, list)
}

func TestBankBalancesDefaultToZero(t *testing.T) {
	m := newTestManager(t)
	balance, err := m.BankBalance(testAddr(1), testAddr(2))
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
	require.NoError(t, m.PutBankBalance(testAddr(1), testAddr(2), big.NewInt(33)))
	balance, err = m.BankBalance(testAddr(1), testAddr(2))
	require.NoError(t, err)
	require.Equal(t, int64(33), balance.Int64())
}
