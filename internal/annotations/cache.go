package annotations

import (
	"errors"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/conduit-lang/ptxmeta/internal/ir"
)

// Cache stores parsed annotation property maps per module and entity.
//
// Property maps are populated lazily: the first query on an entity scans the
// module's whole nvvm.annotations list once and keeps every property found
// for that entity. The cache holds non-owning references; callers must
// Invalidate a module before it is destroyed or its metadata changes.
//
// Modules and global values are used as map keys, so their dynamic types
// must be comparable.
type Cache struct {
	logger     *zap.Logger
	assertions bool
	negative   bool
	lockMode   LockMode

	mu      sync.Mutex
	modules map[ir.Module]*moduleEntry

	scans         atomic.Uint64
	hits          atomic.Uint64
	invalidations atomic.Uint64
	skipped       atomic.Uint64
}

type moduleEntry struct {
	// mu is only used in LockSharded mode
	mu       sync.Mutex
	entities map[ir.GlobalValue]PropertyMap
	// detached is set once the entry has been invalidated
	detached bool
}

// Stats is a snapshot of cache counters. Skipped counts the invariant
// violations tolerated because assertions are disabled.
type Stats struct {
	Scans         uint64
	Hits          uint64
	Invalidations uint64
	Skipped       uint64
	Modules       int
	Entities      int
}

// New creates an empty cache. Assertions are enabled by default.
func New(opts ...Option) *Cache {
	c := &Cache{
		logger:     zap.NewNop(),
		assertions: true,
		lockMode:   LockGlobal,
		modules:    make(map[ir.Module]*moduleEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assertions reports whether invariant violations are fatal
func (c *Cache) Assertions() bool { return c.assertions }

// Invalidate drops every cached property map for m. It is a no-op when
// nothing is cached for m.
func (c *Cache) Invalidate(m ir.Module) {
	c.mu.Lock()
	e, ok := c.modules[m]
	delete(c.modules, m)
	c.mu.Unlock()

	c.invalidations.Inc()
	if !ok {
		return
	}
	if c.lockMode == LockSharded {
		e.detach()
	}
	c.logger.Debug("invalidated annotation cache", moduleFields(m)...)
}

// InvalidateAll drops every cached module
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	old := c.modules
	c.modules = make(map[ir.Module]*moduleEntry)
	c.mu.Unlock()

	c.invalidations.Inc()
	if c.lockMode == LockSharded {
		for _, e := range old {
			e.detach()
		}
	}
	c.logger.Debug("invalidated annotation cache", zap.Int("modules", len(old)))
}

// Lookup returns the first value recorded for prop on gv in module m
func (c *Cache) Lookup(m ir.Module, gv ir.GlobalValue, prop string) (uint32, bool) {
	var (
		v     uint32
		found bool
	)
	c.properties(m, gv, func(props PropertyMap) {
		if vals := props[prop]; len(vals) > 0 {
			v, found = vals[0], true
		}
	})
	return v, found
}

// LookupAll returns every value recorded for prop on gv in module m, in
// record encounter order. The returned slice is a copy.
func (c *Cache) LookupAll(m ir.Module, gv ir.GlobalValue, prop string) ([]uint32, bool) {
	var vals []uint32
	c.properties(m, gv, func(props PropertyMap) {
		if v := props[prop]; len(v) > 0 {
			vals = append([]uint32(nil), v...)
		}
	})
	return vals, vals != nil
}

// Properties returns a copy of gv's whole property map, populating it if needed
func (c *Cache) Properties(m ir.Module, gv ir.GlobalValue) PropertyMap {
	var out PropertyMap
	c.properties(m, gv, func(props PropertyMap) {
		out = props.clone()
	})
	return out
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	s := Stats{
		Scans:         c.scans.Load(),
		Hits:          c.hits.Load(),
		Invalidations: c.invalidations.Load(),
		Skipped:       c.skipped.Load(),
	}

	c.mu.Lock()
	s.Modules = len(c.modules)
	var shards []*moduleEntry
	for _, e := range c.modules {
		if c.lockMode == LockSharded {
			shards = append(shards, e)
			continue
		}
		s.Entities += len(e.entities)
	}
	c.mu.Unlock()

	for _, e := range shards {
		s.Entities += e.size()
	}
	return s
}

// properties runs fn on gv's property map under the lock that guards it,
// scanning the module first on a miss. Empty results are only stored when
// negative caching is enabled.
func (c *Cache) properties(m ir.Module, gv ir.GlobalValue, fn func(PropertyMap)) {
	if m == nil || gv == nil {
		fn(nil)
		return
	}

	c.withEntry(m, func(e *moduleEntry) {
		props, ok := e.entities[gv]
		if ok {
			c.hits.Inc()
		} else {
			props = c.scan(m, gv)
			if len(props) > 0 || c.negative {
				e.entities[gv] = props
			}
		}
		fn(props)
	})
}

// withEntry runs fn with the module's entry locked according to the lock mode
func (c *Cache) withEntry(m ir.Module, fn func(*moduleEntry)) {
	if c.lockMode != LockSharded {
		c.mu.Lock()
		defer c.mu.Unlock()
		fn(c.entryLocked(m))
		return
	}

	for {
		c.mu.Lock()
		e := c.entryLocked(m)
		c.mu.Unlock()

		if e.run(fn) {
			return
		}
		// invalidated between lookup and lock, retry on a fresh entry
	}
}

// entryLocked returns the entry for m, creating it. c.mu must be held.
func (c *Cache) entryLocked(m ir.Module) *moduleEntry {
	e, ok := c.modules[m]
	if !ok {
		e = &moduleEntry{entities: make(map[ir.GlobalValue]PropertyMap)}
		c.modules[m] = e
	}
	return e
}

// scan walks the module's annotation list once and accumulates every record
// whose subject is gv. Records with a nil subject are skipped.
func (c *Cache) scan(m ir.Module, gv ir.GlobalValue) PropertyMap {
	c.scans.Inc()

	props := make(PropertyMap)
	nmd := m.NamedMetadata(ir.AnnotationsMetadataName)
	if nmd == nil {
		return props
	}

	records := 0
	for _, node := range nmd.Operands {
		if node == nil {
			c.violation(newInvariantError(ErrNilRecord, "invalid metadata node for annotation"))
			continue
		}

		// subject may be nil when the annotated value was deleted
		subject := ir.Subject(node)
		if subject == nil || subject != gv {
			continue
		}

		records++
		if err := ReadRecord(node, props); err != nil {
			var ie *InvariantError
			if errors.As(err, &ie) {
				c.violation(ie.withSubject(gv.Name()))
			}
		}
	}

	c.logger.Debug("scanned annotations", moduleFields(m,
		zap.String("entity", gv.Name()),
		zap.Int("records", records),
		zap.Int("properties", len(props)),
	)...)
	return props
}

// moduleFields names m in log entries, adding its id when it has one
func moduleFields(m ir.Module, fields ...zap.Field) []zap.Field {
	out := append([]zap.Field{zap.String("module", m.Name())}, fields...)
	if id, ok := m.(ir.Identified); ok {
		out = append(out, zap.Stringer("module_id", id.ID()))
	}
	return out
}

// violation reports a broken invariant. With assertions enabled it panics
// with err, otherwise the offending input is skipped.
func (c *Cache) violation(err *InvariantError) {
	if c.assertions {
		c.logger.Error("annotation invariant violated",
			zap.String("code", string(err.Code)),
			zap.Error(err),
		)
		panic(err)
	}
	c.skipped.Inc()
	c.logger.Debug("skipping malformed annotation", zap.Error(err))
}

// run executes fn with the entry locked. It returns false without calling fn
// if the entry was invalidated.
func (e *moduleEntry) run(fn func(*moduleEntry)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.detached {
		return false
	}
	fn(e)
	return true
}

// detach waits for any in-flight population of the entry and marks it dead
func (e *moduleEntry) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detached = true
	e.entities = nil
}

func (e *moduleEntry) size() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.entities)
}
