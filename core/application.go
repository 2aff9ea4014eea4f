package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/exfury/gridiron-core/core/events"
	"github.com/exfury/gridiron-core/core/state"
	"github.com/exfury/gridiron-core/core/types"
	"github.com/exfury/gridiron-core/native/bank"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/generator"
	"github.com/exfury/gridiron-core/native/votingescrow"
	"github.com/exfury/gridiron-core/observability"
	"github.com/exfury/gridiron-core/observability/metrics"
	telemetry "github.com/exfury/gridiron-core/observability/otel"
	"github.com/exfury/gridiron-core/storage"
	"github.com/exfury/gridiron-core/storage/trie"
)

var (
	// ErrClockRegression is returned when a block context precedes the last
	// committed height or timestamp.
	ErrClockRegression = errors.New("core: block context moved backwards")
	ErrNilApplication  = errors.New("core: application unavailable")
)

var headKey = []byte("gridiron/head")

// BlockContext supplies the clock of one invocation. Height drives reward
// accrual and Time drives the escrow period.
type BlockContext struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

// Result is returned for every committed message.
type Result struct {
	Head   types.Head     `json:"head"`
	Amount string         `json:"amount,omitempty"`
	Events []*types.Event `json:"events"`
}

// Options configures optional collaborators of the application.
type Options struct {
	Pauses nativecommon.PauseView
	Logger *slog.Logger
}

// Application executes messages against the state trie. Each message is
// atomic: it is committed as a whole or the trie is reset to the previous
// root. Invocations are serialised.
type Application struct {
	mu sync.Mutex

	db        storage.Database
	trie      *trie.Trie
	state     *state.Manager
	bank      *bank.Keeper
	generator *generator.Engine
	escrow    *votingescrow.Engine
	collector *events.Collector

	head    types.Head
	logger  *slog.Logger
	metrics *metrics.LedgerMetrics
	tracer  trace.Tracer
}

// NewApplication opens the state committed at head.
func NewApplication(db storage.Database, head types.Head, opts Options) (*Application, error) {
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	stateTrie, err := trie.NewTrie(db, head.StateRoot.Bytes())
	if err != nil {
		return nil, fmt.Errorf("open state at %s: %w", head.StateRoot, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manager := state.NewManager(stateTrie)
	collector := &events.Collector{}

	keeper := bank.NewKeeper(manager)
	keeper.SetEmitter(collector)

	gen := generator.NewEngine(nativecommon.ModuleAddress(nativecommon.ModuleGenerator))
	gen.SetState(manager)
	gen.SetBank(keeper)
	gen.SetEmitter(collector)
	gen.SetPauses(opts.Pauses)

	escrow := votingescrow.NewEngine(nativecommon.ModuleAddress(nativecommon.ModuleVotingEscrow))
	escrow.SetState(manager)
	escrow.SetBank(keeper)
	escrow.SetEmitter(collector)
	escrow.SetPauses(opts.Pauses)

	app := &Application{
		db:        db,
		trie:      stateTrie,
		state:     manager,
		bank:      keeper,
		generator: gen,
		escrow:    escrow,
		collector: collector,
		head:      head,
		logger:    logger.With("component", "application"),
		metrics:   metrics.Ledger(),
		tracer:    telemetry.Tracer("github.com/exfury/gridiron-core/core"),
	}
	app.syncClock()
	app.refreshGauges()
	return app, nil
}

// LoadHead reads the persisted head. The boolean is false when no head was
// ever stored.
func LoadHead(db storage.Database) (types.Head, bool, error) {
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Head{}, false, nil
	}
	if err != nil {
		return types.Head{}, false, err
	}
	var head types.Head
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return types.Head{}, false, fmt.Errorf("decode head: %w", err)
	}
	return head, true, nil
}

// StoreHead persists head as the latest committed state.
func StoreHead(db storage.Database, head types.Head) error {
	encoded, err := rlp.EncodeToBytes(&head)
	if err != nil {
		return err
	}
	return db.Put(headKey, encoded)
}

// Head returns the last committed head.
func (a *Application) Head() types.Head {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.head
}

func (a *Application) syncClock() {
	a.generator.SetBlockHeight(a.head.Height)
	a.escrow.SetBlockTime(a.head.Timestamp)
}

// Execute applies msg under the supplied block context.
func (a *Application) Execute(ctx context.Context, bctx BlockContext, msg *Msg) (*Result, error) {
	if a == nil {
		return nil, ErrNilApplication
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message required", ErrInvalidMsg)
	}
	_, span := a.tracer.Start(ctx, "core.Execute", trace.WithAttributes(
		attribute.String("msg.type", msg.Type),
		attribute.Int64("block.height", int64(bctx.Height)),
	))
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	result, err := a.execute(bctx, msg)
	a.metrics.ObserveMessage(msg.Type, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Debug("message rejected",
			slog.String("type", msg.Type),
			slog.String("sender", msg.Sender),
			slog.Uint64("height", bctx.Height),
			slog.Any("error", err))
		return nil, err
	}
	a.logger.Info("message applied",
		slog.String("type", msg.Type),
		slog.String("sender", msg.Sender),
		slog.Uint64("height", bctx.Height),
		slog.String("root", result.Head.StateRoot.Hex()),
		slog.Int("events", len(result.Events)))
	return result, nil
}

func (a *Application) execute(bctx BlockContext, msg *Msg) (*Result, error) {
	if bctx.Height < a.head.Height || bctx.Time < a.head.Timestamp {
		return nil, fmt.Errorf("%w: height %d time %d after height %d time %d",
			ErrClockRegression, bctx.Height, bctx.Time, a.head.Height, a.head.Timestamp)
	}
	a.generator.SetBlockHeight(bctx.Height)
	a.escrow.SetBlockTime(bctx.Time)

	amount, err := a.dispatch(msg)
	if err != nil {
		a.abort()
		return nil, err
	}

	parent := a.head.StateRoot
	root, err := a.trie.Commit(parent, bctx.Height)
	if err != nil {
		a.abort()
		return nil, fmt.Errorf("commit state: %w", err)
	}
	next := types.Head{
		Height:    bctx.Height,
		Timestamp: bctx.Time,
		StateRoot: root,
		PrevRoot:  parent,
		Sequence:  a.head.Sequence + 1,
	}
	if err := StoreHead(a.db, next); err != nil {
		return nil, fmt.Errorf("persist head: %w", err)
	}
	a.head = next

	emitted := a.collector.Drain()
	observability.Events().Record(emitted)
	a.refreshGauges()

	result := &Result{Head: next, Events: emitted}
	if amount != nil {
		result.Amount = amount.String()
	}
	if result.Events == nil {
		result.Events = []*types.Event{}
	}
	return result, nil
}

// abort discards every write of the current invocation.
func (a *Application) abort() {
	a.collector.Drain()
	if err := a.trie.Reset(a.head.StateRoot); err != nil {
		a.logger.Error("reset state trie", slog.String("root", a.head.StateRoot.Hex()), slog.Any("error", err))
	}
	a.syncClock()
}

func (a *Application) refreshGauges() {
	if cfg, err := a.generator.Config(); err == nil {
		a.metrics.SetRewardBalance(cfg.RewardBalance)
	}
	if pools, err := a.state.GeneratorPoolTokens(); err == nil {
		a.metrics.SetPools(len(pools))
	}
	if total, err := a.escrow.TotalVotingPower(); err == nil {
		a.metrics.SetTotalVotingPower(total)
	}
	a.metrics.SetHeight(a.head.Height)
}

// Root returns the committed state root.
func (a *Application) Root() common.Hash {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.head.StateRoot
}
