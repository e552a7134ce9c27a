// Package catalog is the server-side view of the listing store. It keeps
// an in-memory snapshot for the query engine, drops it on every write and
// optionally memoizes computed pages in a ResultCache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/arsarazi/realty/internal/metrics"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/query"
	"github.com/arsarazi/realty/internal/store"
)

// Defaults for the listing shortcuts.
const (
	DefaultFeatured = 6
	DefaultRelated  = 3
	DefaultSimilar  = 4
)

// ResultCache memoizes computed results by key. Get reports the version it
// looked in and Set stores into that version. Invalidate must make every
// earlier version unreachable, including versions Set writes to afterwards.
type ResultCache interface {
	Get(ctx context.Context, key string, dst interface{}) (version int64, ok bool, err error)
	Set(ctx context.Context, key string, version int64, v interface{}) error
	Invalidate(ctx context.Context) error
}

// Detail is a single listing with related suggestions.
type Detail struct {
	Property property.Property   `json:"property"`
	Related  []property.Property `json:"related_properties"`
}

// Catalog serves listing reads from a snapshot and routes writes to the store.
type Catalog struct {
	store  store.Properties
	cache  ResultCache
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []property.Property
	loaded   bool
	gen      uint64
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCache enables the second-level result cache.
func WithCache(c ResultCache) Option {
	return func(cat *Catalog) { cat.cache = c }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(cat *Catalog) { cat.logger = l }
}

// New creates a catalog over s.
func New(s store.Properties, opts ...Option) *Catalog {
	c := &Catalog{store: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store.
func (c *Catalog) Store() store.Properties { return c.store }

// Snapshot returns every listing in insertion order, loading it from the
// store on first use. The returned slice is shared and must not be modified.
func (c *Catalog) Snapshot(ctx context.Context) ([]property.Property, error) {
	c.mu.RLock()
	if c.loaded {
		snap := c.snapshot
		c.mu.RUnlock()
		return snap, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	snap, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	metrics.SnapshotLoads.Inc()

	c.mu.Lock()
	// A write that landed during the load makes this list stale; serve it
	// to this caller but do not publish it.
	if c.gen == gen {
		c.snapshot = snap
		c.loaded = true
	}
	c.mu.Unlock()

	return snap, nil
}

// Invalidate drops the snapshot and every cached result.
func (c *Catalog) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.snapshot = nil
	c.loaded = false
	c.gen++
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx); err != nil {
			c.logger.Warn("invalidating result cache", "error", err)
		}
	}
}

// Refresh reloads the snapshot from the store.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.Invalidate(ctx)
	_, err := c.Snapshot(ctx)
	return err
}

func (c *Catalog) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// cached runs compute unless key is already in the result cache. Cache
// failures are logged and never fail the request. A result is only stored
// if no write invalidated the catalog while it was computed.
func cached[T any](ctx context.Context, c *Catalog, key string, compute func() (T, error)) (T, error) {
	if c.cache == nil {
		return compute()
	}

	gen := c.generation()
	var hit T
	version, ok, err := c.cache.Get(ctx, key, &hit)
	cacheable := err == nil
	switch {
	case err != nil:
		metrics.CacheTotal.WithLabelValues("error").Inc()
		c.logger.Warn("reading result cache", "key", key, "error", err)
	case ok:
		metrics.CacheTotal.WithLabelValues("hit").Inc()
		return hit, nil
	default:
		metrics.CacheTotal.WithLabelValues("miss").Inc()
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if cacheable && c.generation() == gen {
		if err := c.cache.Set(ctx, key, version, v); err != nil {
			c.logger.Warn("writing result cache", "key", key, "error", err)
		}
	}
	return v, nil
}

// Search runs the query engine over the snapshot.
func (c *Catalog) Search(ctx context.Context, s query.Spec) (query.Result, error) {
	return cached(ctx, c, "search:"+s.Key(), func() (query.Result, error) {
		snap, err := c.Snapshot(ctx)
		if err != nil {
			return query.Result{}, err
		}
		res := query.Run(snap, s)
		metrics.ObserveQuery("search", res.TotalItems)
		return res, nil
	})
}

// Stats summarizes every listing matching s. Paging is ignored.
func (c *Catalog) Stats(ctx context.Context, s query.Spec) (query.Stats, error) {
	s.Page, s.PageSize = 0, 0
	return cached(ctx, c, "stats:"+s.Key(), func() (query.Stats, error) {
		snap, err := c.Snapshot(ctx)
		if err != nil {
			return query.Stats{}, err
		}
		st := query.SummarizeSpec(snap, s)
		metrics.ObserveQuery("stats", st.Count)
		return st, nil
	})
}

// Featured returns up to n listed, featured listings, newest first.
func (c *Catalog) Featured(ctx context.Context, n int) ([]property.Property, error) {
	if n <= 0 {
		n = DefaultFeatured
	}

	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := []property.Property{}
	for _, p := range query.Filter(snap, query.Spec{}) {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	query.Sort(out, query.SortNewest, false)
	if len(out) > n {
		out = out[:n]
	}
	metrics.ObserveQuery("featured", len(out))
	return out, nil
}

// Get returns one listing with related suggestions and counts the view.
// The new view count is written through to the snapshot.
func (c *Catalog) Get(ctx context.Context, id int64) (*Detail, error) {
	if err := c.store.IncrementViews(ctx, id); err != nil {
		return nil, err
	}

	gen := c.generation()
	p, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.replace(gen, p.Clone())

	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &Detail{Property: *p, Related: similar(snap, p, DefaultRelated)}, nil
}

// replace swaps p into the published snapshot if nothing invalidated it
// since gen. Callers already holding the old slice keep it unchanged.
func (c *Catalog) replace(gen uint64, p property.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || c.gen != gen {
		return
	}
	for i := range c.snapshot {
		if c.snapshot[i].ID == p.ID {
			next := make([]property.Property, len(c.snapshot))
			copy(next, c.snapshot)
			next[i] = p
			c.snapshot = next
			return
		}
	}
}

// Similar returns up to n listed listings resembling listing id.
func (c *Catalog) Similar(ctx context.Context, id int64, n int) ([]property.Property, error) {
	if n <= 0 {
		n = DefaultSimilar
	}

	p, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return similar(snap, p, n), nil
}

// similar ranks listed records sharing the type (weight 2) or the region
// (weight 1) of p, best score first and newest first within a score.
func similar(snap []property.Property, p *property.Property, n int) []property.Property {
	region := query.Region(p.Location)

	type scored struct {
		p     property.Property
		score int
	}
	var candidates []scored
	for _, q := range query.Filter(snap, query.Spec{}) {
		if q.ID == p.ID {
			continue
		}
		score := 0
		if q.Type == p.Type {
			score += 2
		}
		if region != query.UnknownRegion && query.Region(q.Location) == region {
			score++
		}
		if score > 0 {
			candidates = append(candidates, scored{q, score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].p.CreatedAt.After(candidates[j].p.CreatedAt)
	})

	out := []property.Property{}
	for i := 0; i < len(candidates) && i < n; i++ {
		out = append(out, candidates[i].p)
	}
	return out
}

// Create validates and stores a new listing.
func (c *Catalog) Create(ctx context.Context, p *property.Property) (*property.Property, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	saved, err := c.store.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	c.Invalidate(ctx)
	c.logger.Info("property created", "id", saved.ID, "title", saved.Title)
	return saved, nil
}

// Update validates and replaces the editable fields of listing id.
func (c *Catalog) Update(ctx context.Context, id int64, p *property.Property) (*property.Property, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	saved, err := c.store.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	c.Invalidate(ctx)
	c.logger.Info("property updated", "id", id)
	return saved, nil
}

// Delete removes listing id.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.Invalidate(ctx)
	c.logger.Info("property deleted", "id", id)
	return nil
}

// Import validates and stores every listing in order, invalidating once at
// the end. It stops at the first failure and reports how many were stored.
func (c *Catalog) Import(ctx context.Context, props []property.Property) (int, error) {
	n := 0
	defer func() {
		if n > 0 {
			c.Invalidate(ctx)
		}
	}()

	for i := range props {
		p := props[i].Clone()
		p.ApplyDefaults()
		if err := p.Validate(); err != nil {
			return n, fmt.Errorf("record %d (%q): %w", i+1, p.Title, err)
		}
		if _, err := c.store.Insert(ctx, &p); err != nil {
			return n, fmt.Errorf("record %d (%q): %w", i+1, p.Title, err)
		}
		n++
	}

	c.logger.Info("properties imported", "count", n)
	return n, nil
}

// IsNotFound reports whether err means a missing listing.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
