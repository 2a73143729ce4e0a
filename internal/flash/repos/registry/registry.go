// Package registry implements the named counter collection that is the
// single source of truth for the run's global tallies.
package registry

import (
	"fmt"
	"sort"

	"github.com/haukened/flashsim/internal/flash/domain"
)

// Names of the pre-declared counters. Incrementing any other name
// through Increment is a caller bug; IncrementCustom is the sanctioned
// path for dynamic names.
const (
	TotalReads       = "total_reads"
	TotalMisses      = "total_misses"
	TotalHits        = "total_hits"
	CompulsoryMisses = "compulsory_misses"
	CapacityMisses   = "capacity_misses"
	WASkipMisses     = "wa_skip_misses"
	OneHitMisses     = "one_hit_misses"
	CopyFwdHits      = "copyfwd_hits"
	CopyForwards     = "copy_forwards"
	Inserts          = "inserts"
	Reinserts        = "reinserts"
	SkippedCopyFwds  = "skipped_copyfwds"
	SkippedInserts   = "skipped_inserts"
	TotalPlacements  = "total_placements"
	ObjectsWritten   = "objects_written"
	DRAMHits         = "dram_hits"
	DRAMMisses       = "dram_misses"
)

// declared is the core counter set present in every registry.
var declared = []string{
	TotalReads,
	TotalMisses,
	TotalHits,
	CompulsoryMisses,
	CapacityMisses,
	WASkipMisses,
	OneHitMisses,
	CopyFwdHits,
	CopyForwards,
	Inserts,
	Reinserts,
	SkippedCopyFwds,
	SkippedInserts,
	TotalPlacements,
	ObjectsWritten,
}

// Registry owns the named counters for one simulated run. It is not
// safe for concurrent use; event delivery is single-threaded by
// contract and the registry adds no locking of its own.
type Registry struct {
	counters map[string]*domain.Counter
}

// New returns a Registry seeded with the declared counter set plus any
// extra names (e.g. the DRAM tier counters when that option is on).
func New(extra ...string) *Registry {
	r := &Registry{counters: make(map[string]*domain.Counter, len(declared)+len(extra))}
	for _, name := range declared {
		r.counters[name] = &domain.Counter{}
	}
	for _, name := range extra {
		r.counters[name] = &domain.Counter{}
	}
	return r
}

// Increment adds one object of the given size to the named counter.
// The name must be registered; an unknown name is a programmer error
// and panics rather than silently creating a counter.
func (r *Registry) Increment(name string, size uint64) {
	c, ok := r.counters[name]
	if !ok {
		panic(fmt.Sprintf("registry: increment of unregistered counter %q", name))
	}
	c.Increment(size)
}

// IncrementCustom adds one object of the given size to the named
// counter, creating it on first use. This is the only path that may
// introduce counter names beyond the declared set.
func (r *Registry) IncrementCustom(name string, size uint64) {
	c, ok := r.counters[name]
	if !ok {
		c = &domain.Counter{}
		r.counters[name] = c
	}
	c.Increment(size)
}

// Value returns a snapshot of the named counter and whether it exists.
func (r *Registry) Value(name string) (domain.Counter, bool) {
	c, ok := r.counters[name]
	if !ok {
		return domain.Counter{}, false
	}
	return *c, true
}

// Names returns all registered counter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
