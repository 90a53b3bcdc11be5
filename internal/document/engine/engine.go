// Package engine hosts the document lifecycle context: the stateful container
// that owns the in-memory document and notification collections, runs the
// workflow rules, and keeps the collections synchronized with the remote
// store through the change feed and the periodic recomputation tick.
//
// The engine is an explicit, constructible object with injected store and
// configuration — no ambient singleton — so multiple instances can coexist in
// tests without shared state. It is the only component exposed to UI
// collaborators; nothing else reaches the store or the feed directly.
package engine

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Store,ActivityPublisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"complyline/internal/activity"
	"complyline/internal/document/feed"
	"complyline/internal/document/metrics"
	"complyline/internal/document/models"
	"complyline/internal/document/notify"
	"complyline/internal/document/workflow"
	dErrors "complyline/pkg/domain-errors"
)

// Defaults for the engine configuration, overridable through options.
const (
	DefaultTickInterval     = 60 * time.Second
	DefaultOverdueThreshold = 72 * time.Hour
	DefaultExpiryLookahead  = 30 * 24 * time.Hour
)

// Engine is the document lifecycle context.
//
// All mutations of the document and notification collections are serialized
// through one mutex, so overlapping remote events, tick sweeps, and user
// operations cannot interleave into an inconsistent partial state. Store
// calls happen outside the lock; completions re-acquire it and re-validate
// before applying.
type Engine struct {
	store      Store
	subscriber feed.Subscriber
	generator  notify.Generator
	activity   ActivityPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	tickEvery  time.Duration
	now        func() time.Time

	mu            sync.Mutex
	docs          map[string]*models.Document
	notifications []models.Notification
	closed        bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSubscriber attaches the remote change feed. Without one the engine
// still recomputes on ticks but only sees its own mutations.
func WithSubscriber(sub feed.Subscriber) Option {
	return func(e *Engine) { e.subscriber = sub }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithActivityPublisher wires the activity trail.
func WithActivityPublisher(p ActivityPublisher) Option {
	return func(e *Engine) { e.activity = p }
}

// WithTickInterval overrides the recomputation sweep period.
func WithTickInterval(interval time.Duration) Option {
	return func(e *Engine) { e.tickEvery = interval }
}

// WithOverdueThreshold overrides how long pending approval may last before
// the approval_request notification escalates.
func WithOverdueThreshold(threshold time.Duration) Option {
	return func(e *Engine) { e.generator.OverdueAfter = threshold }
}

// WithExpiryLookahead overrides the expiry reminder window.
func WithExpiryLookahead(window time.Duration) Option {
	return func(e *Engine) { e.generator.ExpiryLookahead = window }
}

// WithClock injects the time source used by the tick loop. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs the engine and starts its synchronization loop. Call Close
// to tear it down; Fetch establishes the baseline collection.
func New(st Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "document store is required")
	}

	e := &Engine{
		store: st,
		generator: notify.Generator{
			OverdueAfter:    DefaultOverdueThreshold,
			ExpiryLookahead: DefaultExpiryLookahead,
		},
		activity:  activity.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("complyline/internal/document/engine"),
		tickEvery: DefaultTickInterval,
		now:       time.Now,
		docs:      make(map[string]*models.Document),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.run(ctx)

	return e, nil
}

// Close tears the engine down: the tick timer and the feed listener are
// unregistered synchronously, and no callback fires after Close returns.
// Operations in flight complete without applying further state.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	var err error
	if e.subscriber != nil {
		err = e.subscriber.Close()
	}
	<-e.done
	return err
}

// Documents returns a read-only snapshot of the collection, newest update
// first.
func (e *Engine) Documents() []*models.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Stats summarizes the collection for the dashboard.
func (e *Engine) Stats() models.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return workflow.Stats(e.snapshotLocked(), e.now(), e.generator.ExpiryLookahead)
}

func (e *Engine) snapshotLocked() []*models.Document {
	out := make([]*models.Document, 0, len(e.docs))
	for _, doc := range e.docs {
		out = append(out, doc.Clone())
	}
	sortByUpdatedAt(out)
	return out
}
