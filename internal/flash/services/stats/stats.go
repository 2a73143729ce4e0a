// Package stats is the telemetry core of the flash-cache simulator. It
// consumes object lifecycle events from the cache-policy driver and
// maintains the global counters, the per-object classification state,
// and the periodic segment series.
//
// All methods must be called from a single logical thread of event
// delivery, in true causal order per key. The core provides no internal
// synchronization; embedding it in a concurrent simulator requires the
// caller to serialize every mutating call. Ordering violations panic
// (see package tracker) rather than corrupting the accounting.
package stats

import (
	"github.com/haukened/flashsim/internal/flash/domain"
	"github.com/haukened/flashsim/internal/flash/repos/registry"
	"github.com/haukened/flashsim/internal/flash/repos/tracker"
)

// Stats owns the accounting state for one simulated run.
type Stats struct {
	opts Options
	reg  *registry.Registry
	trk  *tracker.Tracker

	flashBytesWritten uint64
	containersWritten uint64
	containersErased  uint64

	agg aggregator
}

// New returns a Stats core configured by opts.
func New(opts Options) *Stats {
	var extra []string
	if opts.DRAMCounters {
		extra = append(extra, registry.DRAMHits, registry.DRAMMisses)
	}
	return &Stats{
		opts: opts,
		reg:  registry.New(extra...),
		trk:  tracker.New(),
	}
}

// OnAccess records a read request of size bytes. Per-key effects happen
// in OnHit/OnMiss.
func (s *Stats) OnAccess(size uint64) {
	s.reg.Increment(registry.TotalReads, size)
}

// OnHit records a read that was served from the cache.
func (s *Stats) OnHit(key domain.ObjectKey, size uint64) {
	s.reg.Increment(registry.TotalHits, size)
	if s.trk.Hit(key) {
		s.reg.Increment(registry.CopyFwdHits, size)
	}
}

// OnMiss records a read that was not served from the cache and
// classifies it against the key's history.
func (s *Stats) OnMiss(key domain.ObjectKey, size uint64) {
	s.reg.Increment(registry.TotalMisses, size)
	switch s.trk.Miss(key) {
	case tracker.MissCompulsory:
		s.reg.Increment(registry.CompulsoryMisses, size)
	case tracker.MissCapacity:
		s.reg.Increment(registry.CapacityMisses, size)
	case tracker.MissWASkip:
		s.reg.Increment(registry.WASkipMisses, size)
	}
}

// OnInsertAttempt records the outcome of an admission decision. When
// the insert went through, the key becomes (or stays) admitted; a key
// that was already admitted counts as a reinsert. A declined insert
// counts as a skipped insert unless redundancy-aware accounting is on
// and the decline was redundant (the object already resides in cache).
func (s *Stats) OnInsertAttempt(key domain.ObjectKey, size uint64, inserted, redundant bool) {
	if inserted {
		s.reg.Increment(registry.Inserts, size)
		if s.trk.Admit(key) {
			s.reg.Increment(registry.Reinserts, size)
		}
		return
	}
	if redundant && s.opts.RedundancyAware {
		return
	}
	s.trk.DeclineInsert(key)
	s.reg.Increment(registry.SkippedInserts, size)
}

// OnCopyForwardAttempt records the outcome of a compaction decision for
// a still-valid object: copied forward, or evicted instead.
func (s *Stats) OnCopyForwardAttempt(key domain.ObjectKey, size uint64, copied bool) {
	if copied {
		s.trk.CopyForward(key)
		s.reg.Increment(registry.CopyForwards, size)
		return
	}
	s.trk.DeclineCopyForward(key)
	s.reg.Increment(registry.SkippedCopyFwds, size)
}

// OnErase records removal of an admitted object from flash. Objects
// never read since their last insert count as one-hit misses.
func (s *Stats) OnErase(key domain.ObjectKey, size uint64) {
	neverRead, _ := s.trk.Erase(key)
	if neverRead {
		s.reg.Increment(registry.OneHitMisses, size)
	}
}

// OnEvict is a hook for bad-choice-miss accounting, reserved for
// evictions forced on objects the policy might have kept. No such
// classification exists yet, so it is a no-op.
func (s *Stats) OnEvict(key domain.ObjectKey, size uint64) {
}

// OnWrite records size object bytes physically written to the medium.
func (s *Stats) OnWrite(size uint64) {
	s.reg.Increment(registry.ObjectsWritten, size)
	s.flashBytesWritten += size
}

// OnPlacement records a physical slotting of an object into a
// container, including copy-forward placements.
func (s *Stats) OnPlacement(size uint64) {
	s.reg.Increment(registry.TotalPlacements, size)
}

// OnContainerFlush records a container being closed with unused bytes
// of padding, which still cost flash writes.
func (s *Stats) OnContainerFlush(unusedCapacity uint64) {
	s.flashBytesWritten += unusedCapacity
	s.containersWritten++
}

// OnContainerErase records a container erase cycle.
func (s *Stats) OnContainerErase() {
	s.containersErased++
}

// OnDRAMHit records a hit in the DRAM tier. No-op unless the DRAM
// counters option is on.
func (s *Stats) OnDRAMHit(size uint64) {
	if s.opts.DRAMCounters {
		s.reg.Increment(registry.DRAMHits, size)
	}
}

// OnDRAMMiss records a miss in the DRAM tier. No-op unless the DRAM
// counters option is on.
func (s *Stats) OnDRAMMiss(size uint64) {
	if s.opts.DRAMCounters {
		s.reg.Increment(registry.DRAMMisses, size)
	}
}

// IncrementCustomCounter bumps a caller-defined counter, creating it on
// first use.
func (s *Stats) IncrementCustomCounter(name string, size uint64) {
	s.reg.IncrementCustom(name, size)
}

// Options returns the options the core was built with.
func (s *Stats) Options() Options {
	return s.opts
}

// Counter returns a snapshot of the named counter.
func (s *Stats) Counter(name string) (domain.Counter, bool) {
	return s.reg.Value(name)
}

// CounterNames returns all registered counter names in sorted order.
func (s *Stats) CounterNames() []string {
	return s.reg.Names()
}

// FlashBytesWritten returns the total bytes physically written to the
// medium, object bytes plus container padding.
func (s *Stats) FlashBytesWritten() uint64 {
	return s.flashBytesWritten
}

// ContainersWritten returns the number of containers flushed.
func (s *Stats) ContainersWritten() uint64 {
	return s.containersWritten
}

// ContainersErased returns the number of container erase cycles.
func (s *Stats) ContainersErased() uint64 {
	return s.containersErased
}

// Histogram returns the copy-forward histogram of erased objects.
func (s *Stats) Histogram() [tracker.HistBuckets]uint32 {
	return s.trk.Histogram()
}

// KeysSeen returns the number of distinct keys ever observed.
func (s *Stats) KeysSeen() int {
	return s.trk.Seen()
}
