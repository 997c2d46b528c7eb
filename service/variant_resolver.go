package service

import (
	"context"
	"log"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"listing-studio/metrics"
	"listing-studio/models"
)

// variantFetchConcurrency bounds the parallel variant requests of one Sync/Ensure call
const variantFetchConcurrency = 4

// VariantResolver fetches and caches the variant lists of the selected blueprints.
//
// The cache only ever holds selected blueprints: Sync evicts everything outside the new
// working set. A fetch started for an older selection version is written back only if its
// blueprint is still part of the working set when the answer arrives.
type VariantResolver struct {
	source VariantSource

	mu       sync.Mutex
	version  uint64
	wanted   map[int]bool
	cache    map[int][]models.Variant
	failed   map[int]bool
	inflight map[int]chan struct{}
}

// NewVariantResolver creates a new VariantResolver
func NewVariantResolver(source VariantSource) *VariantResolver {
	return &VariantResolver{
		source:   source,
		wanted:   map[int]bool{},
		cache:    map[int][]models.Variant{},
		failed:   map[int]bool{},
		inflight: map[int]chan struct{}{},
	}
}

// Sync makes ids the working set of selection version, evicts blueprints that left it and
// fetches the missing ones. Calls for a version older than the tracked one change nothing.
// It returns once every fetch for ids has completed or failed.
func (r *VariantResolver) Sync(ctx context.Context, version uint64, ids []int) map[int][]models.Variant {
	r.mu.Lock()
	if version < r.version {
		r.mu.Unlock()
		log.Printf("⏭️  VariantResolver.Sync: ignoring stale version %d (tracking %d)", version, r.version)
		return r.snapshot(ids)
	}
	r.version = version
	r.wanted = make(map[int]bool, len(ids))
	for _, id := range ids {
		r.wanted[id] = true
	}
	evicted := 0
	for id := range r.cache {
		if !r.wanted[id] {
			delete(r.cache, id)
			evicted++
		}
	}
	for id := range r.failed {
		if !r.wanted[id] {
			delete(r.failed, id)
		}
	}
	r.mu.Unlock()

	if evicted > 0 {
		log.Printf("🧹 VariantResolver.Sync: evicted %d deselected blueprints", evicted)
	}
	return r.ensure(ctx, version, ids)
}

// Ensure fetches the variants of every id that is not cached yet, without changing the working set.
// A failed fetch is logged and resolves to an empty list.
func (r *VariantResolver) Ensure(ctx context.Context, ids []int) map[int][]models.Variant {
	r.mu.Lock()
	version := r.version
	r.mu.Unlock()
	return r.ensure(ctx, version, ids)
}

func (r *VariantResolver) ensure(ctx context.Context, version uint64, ids []int) map[int][]models.Variant {
	var toFetch []int
	var waits []chan struct{}

	r.mu.Lock()
	for _, id := range uniqueIDs(ids) {
		if _, ok := r.cache[id]; ok {
			continue
		}
		if ch, ok := r.inflight[id]; ok {
			waits = append(waits, ch)
			continue
		}
		r.inflight[id] = make(chan struct{})
		toFetch = append(toFetch, id)
	}
	r.mu.Unlock()

	if len(toFetch) > 0 {
		log.Printf("🔍 VariantResolver: fetching variants for %d blueprints (version %d)", len(toFetch), version)
	}

	var g errgroup.Group
	g.SetLimit(variantFetchConcurrency)
	for _, id := range toFetch {
		g.Go(func() error {
			r.fetch(ctx, version, id)
			return nil
		})
	}
	_ = g.Wait()

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
	return r.snapshot(ids)
}

func (r *VariantResolver) fetch(ctx context.Context, version uint64, id int) {
	variants, err := r.source.ListVariants(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.inflight[id]; ok {
		close(ch)
		delete(r.inflight, id)
	}

	if r.version != version && !r.wanted[id] {
		log.Printf("⏭️  VariantResolver: dropping variants of blueprint %d (deselected while in flight)", id)
		metrics.VariantFetches.WithLabelValues(metrics.OutcomeDropped).Inc()
		return
	}
	if err != nil {
		log.Printf("❌ VariantResolver: variants of blueprint %d unavailable: %v", id, err)
		metrics.VariantFetches.WithLabelValues(metrics.OutcomeFailure).Inc()
		r.failed[id] = true
		return
	}
	if variants == nil {
		variants = []models.Variant{}
	}
	delete(r.failed, id)
	r.cache[id] = variants
	metrics.VariantFetches.WithLabelValues(metrics.OutcomeSuccess).Inc()
}

// Ready reports whether every blueprint of the working set has been fetched or has failed.
// Fetches still in flight for deselected blueprints don't count.
func (r *VariantResolver) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.inflight {
		if r.wanted[id] {
			return false
		}
	}
	for id := range r.wanted {
		if _, ok := r.cache[id]; !ok && !r.failed[id] {
			return false
		}
	}
	return true
}

// Options returns the cached variants of a blueprint
func (r *VariantResolver) Options(id int) ([]models.Variant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variants, ok := r.cache[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(variants), true
}

// Cached returns the ids currently held in the cache
func (r *VariantResolver) Cached() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns the variants of the working set; failed or pending blueprints map to an empty list
func (r *VariantResolver) Snapshot() map[int][]models.Variant {
	r.mu.Lock()
	ids := make([]int, 0, len(r.wanted))
	for id := range r.wanted {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	return r.snapshot(ids)
}

func (r *VariantResolver) snapshot(ids []int) map[int][]models.Variant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int][]models.Variant, len(ids))
	for _, id := range ids {
		if variants, ok := r.cache[id]; ok {
			out[id] = slices.Clone(variants)
		} else {
			out[id] = []models.Variant{}
		}
	}
	return out
}

func uniqueIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
