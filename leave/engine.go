package leave

import (
	"time"

	"go.uber.org/zap"
)

// HistoryLimit is how many recent applications a summary carries.
const HistoryLimit = 10

// Engine runs tenant-scoped leave operations over a Store.
// It holds no state between calls; every balance is recomputed.
type Engine struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger. Defaults to the global zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("leave.engine")
	return e
}

// Today is the engine clock's current calendar day in UTC.
func (e *Engine) Today() Date {
	return DateOf(e.now().UTC())
}
