// Package engine runs the task lifecycle state machine.
//
// One goroutine owns the aggregate. Public methods post a closure to it and
// wait until the closure and the follow-up invariants have been applied, so
// observers never see a half-applied transition.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/clock"
	"github.com/verte-zerg/habitbattle/internal/generator"
	"github.com/verte-zerg/habitbattle/internal/model"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("engine closed")

// Persistence loads and saves the snapshot. Load returns nil, nil when
// nothing has been saved yet.
type Persistence interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// Journal records finished tasks.
type Journal interface {
	RecordOutcome(ctx context.Context, o model.Outcome) error
}

// Alerter delivers notifications. Implementations must not block.
type Alerter interface {
	Notify(title, body string, kind model.AlertKind)
	Haptic(pattern model.HapticPattern)
}

// Options configures an Engine. Zero-valued collaborators are replaced by
// no-op implementations.
type Options struct {
	Clock       clock.Clock
	Persistence Persistence
	Journal     Journal
	Alerter     Alerter
	Logger      *zap.Logger
	Rules       model.Rules

	// Categories and Windows seed the catalog on first run.
	Categories []model.TaskCategory
	Windows    []model.TimeWindow
}

// Engine is the lifecycle state machine.
type Engine struct {
	clock   clock.Clock
	persist Persistence
	journal Journal
	alerter Alerter
	logger  *zap.Logger
	rules   model.Rules
	gen     *generator.Generator

	seedCategories []model.TaskCategory
	seedWindows    []model.TimeWindow

	requests  chan *request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the loop goroutine.
	ctx        context.Context
	started    bool
	closed     bool
	dirty      bool
	state      model.State
	snap       model.Snapshot
	window     *model.TimeWindow
	bonus      model.Bonus
	activeID   string
	revealing  bool
	countdown  int
	counting   bool
	lastReward *model.Reward
	timerSeq   uint64
	timers     timerSet
	subs       map[int]chan View
	nextSubID  int
}

type request struct {
	fn   func()
	err  error
	done chan struct{}
}

// New returns an Engine with its loop running. Call Start before use.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Persistence == nil {
		opts.Persistence = nopPersistence{}
	}
	if opts.Journal == nil {
		opts.Journal = nopJournal{}
	}
	if opts.Alerter == nil {
		opts.Alerter = nopAlerter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rules == (model.Rules{}) {
		opts.Rules = model.DefaultRules()
	}
	if len(opts.Categories) == 0 {
		opts.Categories = model.DefaultCategories()
	}
	if len(opts.Windows) == 0 {
		opts.Windows = model.DefaultTimeWindows()
	}

	e := &Engine{
		clock:          opts.Clock,
		persist:        opts.Persistence,
		journal:        opts.Journal,
		alerter:        opts.Alerter,
		logger:         opts.Logger,
		rules:          opts.Rules,
		gen:            generator.New(opts.Rules.Seed).WithThresholds(opts.Rules.FatigueHigh, opts.Rules.FatigueModerate),
		seedCategories: model.CloneCategories(opts.Categories),
		seedWindows:    model.CloneWindows(opts.Windows),
		requests:       make(chan *request),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
		ctx:            context.Background(),
		state:          model.StateIdle,
		subs:           make(map[int]chan View),
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.stopped)
	for {
		select {
		case req := <-e.requests:
			if e.closed {
				req.err = ErrClosed
				close(req.done)
				continue
			}
			req.fn()
			if e.started && !e.closed {
				e.settle()
			}
			close(req.done)
		case <-e.done:
			return
		}
	}
}

// do runs fn on the loop and waits for it to be applied.
func (e *Engine) do(fn func()) error {
	req := &request{fn: fn, done: make(chan struct{})}
	select {
	case e.requests <- req:
	case <-e.done:
		return ErrClosed
	}
	select {
	case <-req.done:
		return req.err
	case <-e.done:
		return ErrClosed
	}
}

// settle enforces the post-event invariants, then persists and publishes.
func (e *Engine) settle() {
	e.ensureTask()
	if e.dirty {
		e.dirty = false
		e.save()
	}
	e.publish()
}

// Start loads the saved snapshot, applies the daily boundary, resolves the
// active window, makes sure a task is pending and arms the background timers.
func (e *Engine) Start(ctx context.Context) error {
	return e.do(func() {
		if e.started {
			return
		}
		e.ctx = ctx
		e.load(ctx)
		e.applyDailyBoundary()
		e.resolveWindow()
		e.started = true
		e.armPoll()
		e.armBonusCheck()
		e.dirty = true
	})
}

// Close cancels every timer and stops the loop. It is safe to call more than
// once.
func (e *Engine) Close() error {
	err := e.do(func() {
		e.timers.stopAll()
		if e.started {
			e.save()
		}
		e.closed = true
		for id, ch := range e.subs {
			close(ch)
			delete(e.subs, id)
		}
	})
	e.closeOnce.Do(func() {
		close(e.done)
	})
	<-e.stopped
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (e *Engine) load(ctx context.Context) {
	now := e.clock.Now()
	snap, err := e.persist.Load(ctx)
	if err != nil {
		e.logger.Warn("load snapshot failed, starting fresh", zap.Error(err))
		snap = nil
	}
	if snap == nil {
		e.snap = model.NewSnapshot(e.rules, model.CloneCategories(e.seedCategories), model.CloneWindows(e.seedWindows), now)
		e.logger.Info("first run", zap.Int("categories", len(e.snap.Categories)), zap.Int("windows", len(e.snap.TimeWindows)))
		return
	}
	e.snap = snap.Clone()
	e.repairSnapshot(now)
	e.logger.Info("snapshot loaded",
		zap.Int("level", e.snap.User.Level),
		zap.Int("currency", e.snap.User.Currency),
		zap.Int("tasks", len(e.snap.Tasks)),
	)
}

// repairSnapshot fills gaps left by older or hand-edited snapshots.
func (e *Engine) repairSnapshot(now time.Time) {
	if len(e.snap.Categories) == 0 {
		e.snap.Categories = model.CloneCategories(e.seedCategories)
	}
	if len(e.snap.TimeWindows) == 0 {
		e.snap.TimeWindows = model.CloneWindows(e.seedWindows)
	}
	if e.snap.User.Level < 1 {
		e.snap.User.Level = 1
	}
	if e.snap.User.MaxExp <= 0 {
		e.snap.User.MaxExp = model.LevelThreshold(e.snap.User.Level, e.rules)
	}
	if e.snap.BattlePass.ExpPerTier <= 0 {
		e.snap.BattlePass = model.DefaultBattlePass(now)
	}
	// In-flight tasks cannot survive a restart; they become pending again.
	// Only the first outstanding task is kept.
	kept := e.snap.Tasks[:0]
	outstanding := false
	for _, task := range e.snap.Tasks {
		if task.Status == model.StatusAccepted {
			task.Status = model.StatusPending
		}
		if task.Status == model.StatusPending {
			if outstanding {
				e.logger.Warn("dropping extra pending task", zap.String("task", task.ID))
				continue
			}
			outstanding = true
		}
		kept = append(kept, task)
	}
	e.snap.Tasks = kept
}

func (e *Engine) save() {
	snap := e.snap.Clone()
	snap.SavedAt = e.clock.Now()
	if err := e.persist.Save(e.ctx, snap); err != nil {
		e.logger.Warn("save snapshot failed", zap.Error(err))
	}
}

func (e *Engine) record(o model.Outcome) {
	if err := e.journal.RecordOutcome(e.ctx, o); err != nil {
		e.logger.Warn("record outcome failed", zap.String("task", o.TaskID), zap.Error(err))
	}
}

type nopPersistence struct{}

func (nopPersistence) Load(context.Context) (*model.Snapshot, error) { return nil, nil }
func (nopPersistence) Save(context.Context, model.Snapshot) error    { return nil }

type nopJournal struct{}

func (nopJournal) RecordOutcome(context.Context, model.Outcome) error { return nil }

type nopAlerter struct{}

func (nopAlerter) Notify(string, string, model.AlertKind) {}
func (nopAlerter) Haptic(model.HapticPattern)             {}
