// Package session ties the annotation cache to the lifetime of the modules a
// compilation works on. A Session owns one cache; the module teardown path
// goes through Release or Replace so cached annotations never outlive the
// module they were read from.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
	"github.com/conduit-lang/ptxmeta/internal/ir"
)

// Options configures a Session
type Options struct {
	// Assertions makes annotation invariant violations fatal
	Assertions bool
	// LockMode selects the cache locking strategy
	LockMode annotations.LockMode
	// NegativeCache remembers entities that have no annotations
	NegativeCache bool
	// WarmWorkers bounds the concurrency of Warm. Zero means 1.
	WarmWorkers int
}

// DefaultOptions returns the options used when no configuration is given
func DefaultOptions() Options {
	return Options{
		Assertions:  true,
		LockMode:    annotations.LockGlobal,
		WarmWorkers: 4,
	}
}

// Session is a compilation session
type Session struct {
	id      uuid.UUID
	opts    Options
	logger  *zap.Logger
	cache   *annotations.Cache
	mu      sync.Mutex
	modules map[ir.Module]struct{}
}

// New creates a session with its own annotation cache
func New(opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WarmWorkers <= 0 {
		opts.WarmWorkers = 1
	}

	id := uuid.New()
	logger = logger.With(zap.String("session", id.String()))

	return &Session{
		id:     id,
		opts:   opts,
		logger: logger,
		cache: annotations.New(
			annotations.WithLogger(logger.Named("annotations")),
			annotations.WithAssertions(opts.Assertions),
			annotations.WithLockMode(opts.LockMode),
			annotations.WithNegativeCaching(opts.NegativeCache),
		),
		modules: make(map[ir.Module]struct{}),
	}
}

// ID returns the session id
func (s *Session) ID() uuid.UUID { return s.id }

// Annotations returns the session's annotation cache
func (s *Session) Annotations() *annotations.Cache { return s.cache }

// Register starts tracking m
func (s *Session) Register(m ir.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modules[m] = struct{}{}
	s.logger.Debug("registered module", moduleFields(m)...)
}

// Registered reports whether m is tracked by the session
func (s *Session) Registered(m ir.Module) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.modules[m]
	return ok
}

// Release is the module teardown hook. It invalidates every cached
// annotation for m before the session forgets it, so the caller may destroy
// m as soon as Release returns.
func (s *Session) Release(m ir.Module) {
	s.cache.Invalidate(m)

	s.mu.Lock()
	delete(s.modules, m)
	s.mu.Unlock()

	s.logger.Debug("released module", moduleFields(m)...)
}

// Replace releases old and registers replacement, in that order
func (s *Session) Replace(old, replacement ir.Module) {
	s.Release(old)
	s.Register(replacement)
}

// Modules returns the number of tracked modules
func (s *Session) Modules() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.modules)
}

// Warm populates the annotation cache for every value in gvs, using up to
// WarmWorkers goroutines. It stops early when ctx is cancelled. An invariant
// violation raised while populating is returned as the error.
func (s *Session) Warm(ctx context.Context, m ir.Module, gvs []ir.GlobalValue) error {
	if !s.Registered(m) {
		return fmt.Errorf("module %q is not registered with the session", m.Name())
	}

	for _, gv := range gvs {
		if gv.Parent() != m {
			return fmt.Errorf("%q does not belong to module %q", gv.Name(), m.Name())
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.WarmWorkers)

	for _, gv := range gvs {
		gv := gv
		g.Go(func() (err error) {
			// invariant violations surface as the group's error
			defer func() {
				if r := recover(); r != nil {
					ie, ok := r.(*annotations.InvariantError)
					if !ok {
						panic(r)
					}
					err = ie
				}
			}()

			if err := ctx.Err(); err != nil {
				return err
			}
			s.cache.Properties(m, gv)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to warm annotations for %q: %w", m.Name(), err)
	}

	s.logger.Debug("warmed annotation cache", moduleFields(m, zap.Int("entities", len(gvs)))...)
	return nil
}

// moduleFields names m in log entries, adding its id when it has one
func moduleFields(m ir.Module, fields ...zap.Field) []zap.Field {
	out := append([]zap.Field{zap.String("module", m.Name())}, fields...)
	if id, ok := m.(ir.Identified); ok {
		out = append(out, zap.Stringer("module_id", id.ID()))
	}
	return out
}

// Close invalidates every cached annotation and forgets all modules
func (s *Session) Close() {
	s.cache.InvalidateAll()

	s.mu.Lock()
	n := len(s.modules)
	s.modules = make(map[ir.Module]struct{})
	s.mu.Unlock()

	s.logger.Debug("closed session", zap.Int("modules", n))
}
