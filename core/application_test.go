package core

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exfury/gridiron-core/core/genesis"
	"github.com/exfury/gridiron-core/core/types"
	"github.com/exfury/gridiron-core/crypto"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/votingescrow"
	"github.com/exfury/gridiron-core/storage"
)

const (
	genesisUnix = uint64(1704067200)
	weekSeconds = uint64(604800)
)

func bech(b byte) string {
	var raw [20]byte
	raw[19] = b
	return crypto.FromRaw(raw).String()
}

var (
	owner       = bech(0xf0)
	rewardToken = bech(0xf2)
	lpToken     = bech(0xa1)
	alice       = bech(1)
	bob         = bech(2)
	carol       = bech(3)
)

func genesisDoc(t *testing.T) []byte {
	t.Helper()
	doc := map[string]any{
		"genesisTime": "2024-01-01T00:00:00Z",
		"alloc": map[string]map[string]string{
			lpToken:     {alice: "1000", bob: "500"},
			rewardToken: {carol: "5000"},
		},
		"generator": map[string]any{
			"owner":          owner,
			"rewardToken":    rewardToken,
			"tokensPerBlock": "100",
			"pools":          []map[string]any{{"token": lpToken, "allocPoint": 10}},
		},
		"escrow": map[string]any{
			"owner":          owner,
			"depositToken":   rewardToken,
			"minLockPeriods": 1,
			"maxLockPeriods": 104,
			"periodSeconds":  weekSeconds,
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func newTestApplication(t *testing.T, pauses nativecommon.PauseView) (*Application, storage.Database) {
	t.Helper()
	spec, err := genesis.ParseGenesisSpec(genesisDoc(t))
	require.NoError(t, err)
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	result, err := genesis.Build(spec, db)
	require.NoError(t, err)
	head := types.Head{Timestamp: result.Time, StateRoot: result.Root}
	require.NoError(t, StoreHead(db, head))
	app, err := NewApplication(db, head, Options{Pauses: pauses})
	require.NoError(t, err)
	return app, db
}

func block(height uint64, period uint64) BlockContext {
	return BlockContext{Height: height, Time: genesisUnix + period*weekSeconds + 10}
}

func queryAmount(t *testing.T, app *Application, namespace, path string) int64 {
	t.Helper()
	res, err := app.QueryState(namespace, path)
	require.NoError(t, err)
	var out struct {
		Amount *big.Int `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(res.Value, &out))
	require.NotNil(t, out.Amount)
	return out.Amount.Int64()
}

func TestDepositAndClaimThroughApplication(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ctx := context.Background()

	res, err := app.Execute(ctx, block(1, 0), &Msg{Type: MsgDeposit, Sender: alice, Token: lpToken, Amount: "100"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Head.Sequence)
	require.NotEmpty(t, res.Events)

	_, err = app.Execute(ctx, block(11, 0), &Msg{Type: MsgMassUpdatePools, Sender: owner})
	require.NoError(t, err)
	require.Equal(t, int64(1000), queryAmount(t, app, "generator", "pending/"+lpToken+"/"+alice))

	res, err = app.Execute(ctx, block(11, 0), &Msg{Type: MsgClaim, Sender: alice, Token: lpToken})
	require.NoError(t, err)
	require.Equal(t, "1000", res.Amount)
	require.Equal(t, int64(1000), queryAmount(t, app, "bank", "balances/"+rewardToken+"/"+alice))
	require.Equal(t, int64(0), queryAmount(t, app, "generator", "pending/"+lpToken+"/"+alice))
}

func TestFailedMessageRollsBackEarlierWrites(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ctx := context.Background()

	_, err := app.Execute(ctx, block(1, 0), &Msg{Type: MsgDeposit, Sender: alice, Token: lpToken, Amount: "100"})
	require.NoError(t, err)
	root := app.Root()
	supplyBefore := queryAmount(t, app, "bank", "supply/"+rewardToken)

	// settlement mints rewards before the transfer fails
	_, err = app.Execute(ctx, block(5, 0), &Msg{Type: MsgDeposit, Sender: bob, Token: lpToken, Amount: "600"})
	require.Error(t, err)
	require.Equal(t, root, app.Root())
	require.Equal(t, supplyBefore, queryAmount(t, app, "bank", "supply/"+rewardToken))

	res, err := app.QueryState("generator", "pools/"+lpToken)
	require.NoError(t, err)
	var pool struct {
		LastRewardBlock uint64 `json:"lastRewardBlock"`
	}
	require.NoError(t, json.Unmarshal(res.Value, &pool))
	require.Equal(t, uint64(1), pool.LastRewardBlock)
	require.Equal(t, int64(500), queryAmount(t, app, "bank", "balances/"+lpToken+"/"+bob))
}

func TestClockRegressionRejected(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ctx := context.Background()

	_, err := app.Execute(ctx, block(10, 2), &Msg{Type: MsgCheckpoint})
	require.NoError(t, err)

	_, err = app.Execute(ctx, block(9, 2), &Msg{Type: MsgCheckpoint})
	require.True(t, errors.Is(err, ErrClockRegression), "unexpected error %v", err)
	_, err = app.Execute(ctx, block(10, 1), &Msg{Type: MsgCheckpoint})
	require.True(t, errors.Is(err, ErrClockRegression), "unexpected error %v", err)
}

func TestEscrowLockAndPowerQueries(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ctx := context.Background()

	_, err := app.Execute(ctx, block(1, 0), &Msg{Type: MsgCreateLock, Sender: carol, Amount: "1040", Periods: 104})
	require.NoError(t, err)
	require.Equal(t, int64(1040*104), queryAmount(t, app, "escrow", "power/"+carol))
	require.Equal(t, int64(1040*104), queryAmount(t, app, "escrow", "total"))

	_, err = app.QueryState("escrow", "power/"+carol+"/period/52")
	require.True(t, errors.Is(err, votingescrow.ErrFutureQuery), "unexpected error %v", err)

	_, err = app.Execute(ctx, block(2, 52), &Msg{Type: MsgCheckpoint})
	require.NoError(t, err)
	require.Equal(t, int64(1040*52), queryAmount(t, app, "escrow", "power/"+carol+"/period/52"))
	require.Equal(t, int64(1040*52), queryAmount(t, app, "escrow", "total/period/52"))
	require.Equal(t, int64(1040*104), queryAmount(t, app, "escrow", "total/time/"+uintText(genesisUnix)))

	_, err = app.Execute(ctx, block(3, 52), &Msg{Type: MsgUpdateBlacklist, Sender: owner, Append: []string{carol}})
	require.NoError(t, err)
	require.Equal(t, int64(0), queryAmount(t, app, "escrow", "power/"+carol))
	require.Equal(t, int64(0), queryAmount(t, app, "escrow", "total"))

	res, err := app.QueryState("escrow", "locks/"+carol)
	require.NoError(t, err)
	var view votingescrow.LockView
	require.NoError(t, json.Unmarshal(res.Value, &view))
	require.True(t, view.Blacklisted)
	require.Equal(t, int64(1040), view.Amount.Int64())

	res, err = app.QueryState("escrow", "blacklist")
	require.NoError(t, err)
	var listed []string
	require.NoError(t, json.Unmarshal(res.Value, &listed))
	require.Equal(t, []string{carol}, listed)
}

func TestApplicationReopensFromPersistedHead(t *testing.T) {
	app, db := newTestApplication(t, nil)
	_, err := app.Execute(context.Background(), block(4, 1), &Msg{Type: MsgTransfer, Sender: alice, To: bob, Token: lpToken, Amount: "250"})
	require.NoError(t, err)

	head, ok, err := LoadHead(db)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, app.Head(), head)

	reopened, err := NewApplication(db, head, Options{})
	require.NoError(t, err)
	require.Equal(t, int64(750), queryAmount(t, reopened, "bank", "balances/"+lpToken+"/"+bob))
}

func TestPausedModuleRejectsMessages(t *testing.T) {
	app, _ := newTestApplication(t, nativecommon.NewPauseSet([]string{nativecommon.ModuleGenerator}))
	_, err := app.Execute(context.Background(), block(1, 0), &Msg{Type: MsgDeposit, Sender: alice, Token: lpToken, Amount: "1"})
	require.True(t, errors.Is(err, nativecommon.ErrModulePaused), "unexpected error %v", err)

	_, err = app.Execute(context.Background(), block(1, 0), &Msg{Type: MsgCreateLock, Sender: carol, Amount: "10", Periods: 10})
	require.NoError(t, err)
}

func TestRoutingErrors(t *testing.T) {
	app, _ := newTestApplication(t, nil)

	_, err := app.Execute(context.Background(), block(1, 0), &Msg{Type: "mint", Sender: alice})
	require.True(t, errors.Is(err, ErrUnknownMsg))
	_, err = app.Execute(context.Background(), block(1, 0), &Msg{Type: MsgDeposit, Sender: "nope", Token: lpToken, Amount: "1"})
	require.True(t, errors.Is(err, ErrInvalidMsg))

	for _, tc := range []struct{ namespace, path string }{
		{"generator", ""},
		{"generator", "bogus"},
		{"escrow", "power/" + carol + "/block/1"},
		{"bank", "balances/" + lpToken},
		{"lending", "markets"},
	} {
		_, err := app.QueryState(tc.namespace, tc.path)
		require.True(t, errors.Is(err, ErrQueryNotSupported), "%s/%s: %v", tc.namespace, tc.path, err)
	}
	_, err = app.QueryState("escrow", "power/"+carol+"/period/x")
	require.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestDecodeMsgRejectsUnknownFields(t *testing.T) {
	msg, err := DecodeMsg([]byte(`{"type":" Deposit ","sender":"x","amount":"1"}`))
	require.NoError(t, err)
	require.Equal(t, MsgDeposit, msg.Type)

	_, err = DecodeMsg([]byte(`{"type":"deposit","gas":1}`))
	require.True(t, errors.Is(err, ErrInvalidMsg))
	_, err = DecodeMsg([]byte(`{}`))
	require.True(t, errors.Is(err, ErrInvalidMsg))
}

func uintText(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
