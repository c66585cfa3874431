package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("store closed")

// Dispatcher is implemented by Store. Collaborators that only send actions
// depend on this instead of the concrete type.
type Dispatcher interface {
	Dispatch(ctx context.Context, a Action) (State, error)
}

type request struct {
	action Action
	reply  chan result
}

type result struct {
	state State
	err   error
}

// Store serializes actions through a single goroutine. Reads of the current
// snapshot never block on writers.
type Store struct {
	reducer *Reducer
	logger  *slog.Logger
	current atomic.Pointer[State]

	requests chan request
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

type config struct {
	capacity int64
	now      func() time.Time
	logger   *slog.Logger
	initial  *State
	buffer   int
}

// Option configures a Store.
type Option func(*config)

// WithCapacity sets the storage quota in bytes.
func WithCapacity(bytes int64) Option {
	return func(c *config) { c.capacity = bytes }
}

func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithInitialState starts the store from s instead of an empty state.
func WithInitialState(s State) Option {
	return func(c *config) { c.initial = &s }
}

// WithBuffer sets how many dispatches may queue before senders block.
func WithBuffer(n int) Option {
	return func(c *config) { c.buffer = n }
}

// New starts a store. Call Close when the session ends.
func New(opts ...Option) *Store {
	cfg := config{now: time.Now, logger: slog.Default(), buffer: 16}
	for _, opt := range opts {
		opt(&cfg)
	}

	initial := NewState(cfg.capacity)
	if cfg.initial != nil {
		initial = *cfg.initial
	}

	s := &Store{
		reducer:  NewReducer(cfg.now, cfg.logger),
		logger:   cfg.logger,
		requests: make(chan request, max(cfg.buffer, 0)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.current.Store(&initial)

	go s.loop()
	return s
}

// State returns the latest snapshot.
func (s *Store) State() State {
	return *s.current.Load()
}

// Dispatch applies a and returns the resulting snapshot. If the action is
// rejected the error is returned along with the unchanged snapshot. A
// cancelled ctx stops the wait but an action already queued is still
// applied.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	if err := ctx.Err(); err != nil {
		return s.State(), err
	}
	select {
	case <-s.quit:
		return s.State(), ErrClosed
	default:
	}
	req := request{action: a, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-s.quit:
		return s.State(), ErrClosed
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-s.done:
		// the loop may have answered just before exiting
		select {
		case res := <-req.reply:
			return res.state, res.err
		default:
			return s.State(), ErrClosed
		}
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Close stops the event loop. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
	<-s.done
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			req.reply <- s.apply(req.action)
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// drain answers requests that were queued before Close.
func (s *Store) drain() {
	for {
		select {
		case req := <-s.requests:
			req.reply <- result{state: s.State(), err: ErrClosed}
		default:
			return
		}
	}
}

func (s *Store) apply(a Action) result {
	if a == nil {
		s.logger.Warn("nil action ignored")
		return result{state: s.State()}
	}

	cur := s.State()
	next, err := s.reducer.Reduce(cur, a)
	if err != nil {
		s.logger.Info("action rejected", "action", Name(a), "error", err)
		return result{state: cur, err: err}
	}

	s.current.Store(&next)
	s.logger.Debug("action applied",
		"action", Name(a),
		"files", next.Len(),
		"used", next.analytics.Used,
	)
	return result{state: next}
}
