package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/store"
)

// IDGenerator generates identifiers for new rows.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Engine applies roster and lineup operations against a Store.
//
// Thread-safety model:
//   - All methods are safe for concurrent use
//   - Writes touching a period hold that period's lock for the whole
//     read-validate-write sequence
//   - Multi-period writes acquire their locks in ascending id order
//
// The engine starts no goroutines.
type Engine struct {
	store *store.Store
	clock Clock
	ids   IDGenerator
	seq   *Sequence
	locks *PeriodLocker
	log   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the wall clock used for created_at/updated_at stamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the generator for new row ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Engine over s.
//
// Defaults: system clock, UUIDv7 ids, no-op logger. The assignment
// sequence resumes from the highest seq already stored.
func New(s *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store: s,
		clock: SystemClock{},
		ids:   UUIDv7Generator{},
		locks: NewPeriodLocker(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var last int64
	err := s.View(context.Background(), func(tx *store.Tx) error {
		var err error
		last, err = tx.MaxAssignmentSeq()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resume assignment sequence: %w", err)
	}
	e.seq = NewSequenceAt(last)

	return e, nil
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func (e *Engine) newID(given string) string {
	if given != "" {
		return given
	}
	return e.ids.Generate()
}

func (e *Engine) view(ctx context.Context, fn func(*store.Tx) error) error {
	return e.store.View(ctx, fn)
}

// update runs fn in a write transaction and logs the outcome under op.
func (e *Engine) update(ctx context.Context, op string, fields []zap.Field, fn func(*store.Tx) error) error {
	err := e.store.Update(ctx, fn)
	if err != nil {
		e.logRejected(op, err, fields...)
		return err
	}
	e.log.Debug(op, fields...)
	return nil
}

func (e *Engine) logRejected(op string, err error, fields ...zap.Field) {
	kind := model.Kind(err)
	if kind == "" {
		e.log.Warn(op+" failed", append(fields, zap.Error(err))...)
		return
	}
	fields = append(fields, zap.String("kind", kind), zap.Error(err))
	var ce *model.ConflictError
	if errors.As(err, &ce) {
		fields = append(fields, zap.String("code", string(ce.Code)))
	}
	e.log.Info(op+" rejected", fields...)
}
