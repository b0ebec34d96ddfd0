package annotations

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LockMode selects how the cache serializes access
type LockMode int

const (
	// LockGlobal guards the whole cache with one mutex held for the full
	// duration of every operation, scans included.
	LockGlobal LockMode = iota
	// LockSharded gives every module its own mutex. Invalidation and
	// population of the same module still never interleave.
	LockSharded
)

// String returns the config name of the lock mode
func (m LockMode) String() string {
	switch m {
	case LockGlobal:
		return "global"
	case LockSharded:
		return "sharded"
	default:
		return fmt.Sprintf("LockMode(%d)", int(m))
	}
}

// ParseLockMode parses "global" or "sharded"
func ParseLockMode(s string) (LockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return LockGlobal, nil
	case "sharded":
		return LockSharded, nil
	}
	return 0, fmt.Errorf("unknown lock mode %q", s)
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}

// WithAssertions controls whether invariant violations panic. When disabled,
// malformed operands are skipped and the input is otherwise trusted.
func WithAssertions(enabled bool) Option {
	return func(c *Cache) {
		c.assertions = enabled
	}
}

// WithLockMode selects the locking strategy
func WithLockMode(mode LockMode) Option {
	return func(c *Cache) {
		c.lockMode = mode
	}
}

// WithNegativeCaching stores an empty property map for entities that have no
// annotations, so repeated queries on them do not rescan the module.
func WithNegativeCaching(enabled bool) Option {
	return func(c *Cache) {
		c.negative = enabled
	}
}
