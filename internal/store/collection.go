package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
)

// Record is implemented by every stored model. Clone must return a copy that
// shares no mutable state with the receiver.
type Record[T any] interface {
	RecordID() string
	Clone() T
	Diverged() bool
	Touched(at time.Time) T
}

// MergePolicy decides which copy wins when a bundled default and a durable
// record share an id.
type MergePolicy int

const (
	// PreferDurable always keeps the durable record.
	PreferDurable MergePolicy = iota
	// PreferDefaults keeps the bundled record unless the durable one was edited.
	PreferDefaults
)

// Collection is an ordered, lazily loaded set of records mirrored to one blob.
// Readers always receive clones. A single RWMutex serializes writers.
type Collection[T Record[T]] struct {
	name     string
	blob     repositories.BlobStore
	defaults func() []T
	policy   MergePolicy
	clock    utils.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	loaded bool
	items  []T
}

func NewCollection[T Record[T]](
	name string,
	blob repositories.BlobStore,
	defaults func() []T,
	policy MergePolicy,
	clock utils.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Collection[T] {
	if defaults == nil {
		defaults = func() []T { return nil }
	}
	return &Collection[T]{
		name:     name,
		blob:     blob,
		defaults: defaults,
		policy:   policy,
		clock:    clock,
		logger:   logger.With("collection", name),
		metrics:  m,
	}
}

func (c *Collection[T]) Name() string { return c.name }

// LoadAll returns an ordered snapshot of the collection.
func (c *Collection[T]) LoadAll(ctx context.Context) []T {
	c.ensureLoaded(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.items)
}

// SaveAll replaces the whole collection and writes it durably in one call.
func (c *Collection[T]) SaveAll(ctx context.Context, records []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = cloneAll(records)
	c.loaded = true
	c.persistLocked(ctx)
}

// Get returns the record with id. ok is false when it does not exist.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool) {
	return c.Find(ctx, func(r T) bool { return r.RecordID() == id })
}

// Find returns the first record matching pred in collection order.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool) {
	c.ensureLoaded(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.items {
		if pred(r) {
			return r.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the record with the same id or appends it.
func (c *Collection[T]) Upsert(ctx context.Context, record T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)

	stored := record.Clone()
	if i := c.indexLocked(stored.RecordID()); i >= 0 {
		c.items[i] = stored
	} else {
		c.items = append(c.items, stored)
	}
	c.persistLocked(ctx)
	return stored.Clone()
}

// Insert appends record unless reject reports a conflict with an existing one.
// The check and the append happen under the same lock.
func (c *Collection[T]) Insert(ctx context.Context, record T, reject func(existing T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)

	if reject != nil {
		for _, existing := range c.items {
			if err := reject(existing); err != nil {
				var zero T
				return zero, err
			}
		}
	}

	stored := record.Clone()
	c.items = append(c.items, stored)
	c.persistLocked(ctx)
	return stored.Clone(), nil
}

// Patch applies mutate to a working copy of the record with id. The copy is
// stored, stamped and persisted only when mutate reports a change. found is
// false when no record has the id; that is not an error.
func (c *Collection[T]) Patch(ctx context.Context, id string, mutate func(*T) (bool, error)) (result T, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)

	i := c.indexLocked(id)
	if i < 0 {
		return result, false, nil
	}

	working := c.items[i].Clone()
	changed, err := mutate(&working)
	if err != nil {
		return c.items[i].Clone(), true, err
	}
	if !changed {
		return c.items[i].Clone(), true, nil
	}

	c.items[i] = working.Touched(c.clock.Now())
	c.persistLocked(ctx)
	return c.items[i].Clone(), true, nil
}

// Mutate visits every record under one write lock. Records for which visit
// returns true are stamped and the collection is persisted once. The changed
// records are returned in collection order.
func (c *Collection[T]) Mutate(ctx context.Context, visit func(*T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)

	var changed []T
	now := c.clock.Now()
	for i := range c.items {
		working := c.items[i].Clone()
		if !visit(&working) {
			continue
		}
		c.items[i] = working.Touched(now)
		changed = append(changed, c.items[i].Clone())
	}

	if len(changed) > 0 {
		c.persistLocked(ctx)
	}
	return changed
}

func (c *Collection[T]) ensureLoaded(ctx context.Context) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	c.mu.Lock()
	c.loadLocked(ctx)
	c.mu.Unlock()
}

func (c *Collection[T]) indexLocked(id string) int {
	for i, r := range c.items {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

// loadLocked reads the durable copy once and reconciles it with the defaults.
func (c *Collection[T]) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	defaults := c.defaults()

	payload, err := c.blob.Load(ctx, c.name)
	if errors.Is(err, repositories.ErrBlobNotFound) {
		c.logger.InfoContext(ctx, "No durable copy, seeding defaults", "count", len(defaults))
		c.items = defaults
		c.persistLocked(ctx)
		return
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to read durable copy, serving defaults", "error", err)
		c.metrics.LoadFailure(c.name)
		c.items = defaults
		return
	}

	var durable []T
	if err := json.Unmarshal(payload, &durable); err != nil {
		c.logger.ErrorContext(ctx, "Failed to decode durable copy, serving defaults", "error", err)
		c.metrics.LoadFailure(c.name)
		c.items = defaults
		return
	}

	c.items = mergeRecords(defaults, durable, c.policy)
	if !sameEncoding(c.items, durable) {
		c.logger.InfoContext(ctx, "Reconciled defaults with durable copy", "count", len(c.items))
		c.persistLocked(ctx)
	}
}

// persistLocked writes the full collection. Failures are logged and counted,
// never returned: the in-memory state stays authoritative.
func (c *Collection[T]) persistLocked(ctx context.Context) {
	items := c.items
	if items == nil {
		items = []T{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to encode collection", "error", err)
		c.metrics.PersistFailure(c.name)
		return
	}

	if err := c.blob.Save(ctx, c.name, payload); err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist collection", "error", err, "count", len(items))
		c.metrics.PersistFailure(c.name)
	}
}

// mergeRecords walks the defaults in order, letting durable records replace
// them per policy, then appends durable-only records in durable order.
func mergeRecords[T Record[T]](defaults, durable []T, policy MergePolicy) []T {
	byID := make(map[string]T, len(durable))
	for _, r := range durable {
		byID[r.RecordID()] = r
	}

	merged := make([]T, 0, len(defaults)+len(durable))
	seen := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		id := d.RecordID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if stored, ok := byID[id]; ok && (policy == PreferDurable || stored.Diverged()) {
			merged = append(merged, stored)
			continue
		}
		merged = append(merged, d)
	}

	for _, r := range durable {
		id := r.RecordID()
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, r)
	}
	return merged
}

func sameEncoding[T any](a, b []T) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func cloneAll[T Record[T]](items []T) []T {
	out := make([]T, len(items))
	for i, r := range items {
		out[i] = r.Clone()
	}
	return out
}
