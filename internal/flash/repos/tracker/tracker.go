// Package tracker implements the per-object state machine that
// reconciles the event stream into mutually exclusive miss categories.
//
// The tracker classifies; it does not count. Callers translate the
// returned classifications into counter increments so that each logical
// event increments each counter exactly once.
package tracker

import (
	"fmt"

	"github.com/haukened/flashsim/internal/flash/domain"
)

// HistBuckets is the size of the copy-forward histogram. Per-key
// copy-forward counts saturate at HistBuckets-1.
const HistBuckets = 256

// MissKind classifies a miss event against the key's prior state.
type MissKind int

const (
	// MissCompulsory is a miss on a key never seen before.
	MissCompulsory MissKind = iota
	// MissCapacity is a miss on a previously admitted key that was
	// evicted purely for space.
	MissCapacity
	// MissWASkip is a miss on a key whose insertion or copy-forward was
	// deliberately declined to limit write amplification.
	MissWASkip
)

// String returns the classification name.
func (k MissKind) String() string {
	switch k {
	case MissCompulsory:
		return "compulsory"
	case MissCapacity:
		return "capacity"
	case MissWASkip:
		return "wa_skip"
	default:
		return "unknown"
	}
}

// Tracker owns the per-key flag and copy-forward state for one run.
//
// The flag map grows monotonically with distinct keys seen and entries
// are never deleted; the copy-forward map holds only keys currently
// between admission and erase. Event delivery must be single-threaded
// and in true causal order per key; out-of-order delivery trips the
// invariant panics below. The tracker adds no locking of its own.
type Tracker struct {
	cached   map[domain.ObjectKey]domain.Flags
	copyfwds map[domain.ObjectKey]uint8
	hist     [HistBuckets]uint32
}

// New returns an empty Tracker scoped to one simulated run.
func New() *Tracker {
	return &Tracker{
		cached:   make(map[domain.ObjectKey]domain.Flags),
		copyfwds: make(map[domain.ObjectKey]uint8),
	}
}

// Miss records a miss on key and classifies it.
//
// A first touch creates the key's state and is compulsory. Otherwise a
// pending SKIPPED_INSERT or SKIPPED_CF makes it a write-amplification
// skip miss and consumes those flags. Anything else must be a
// previously admitted key evicted for space; a capacity miss on a key
// without INSERTED set means the caller broke event ordering and
// panics.
func (t *Tracker) Miss(key domain.ObjectKey) MissKind {
	flags, seen := t.cached[key]
	if !seen {
		t.cached[key] = 0
		return MissCompulsory
	}

	if flags.Has(domain.SkippedInsert) || flags.Has(domain.SkippedCF) {
		if flags.Has(domain.SkippedCF) {
			// A copy-forward can only be skipped for something that
			// was inserted at some point.
			if !flags.Has(domain.Inserted) {
				panic(fmt.Sprintf("tracker: SKIPPED_CF on never-inserted key %d (flags %v)", key, flags))
			}
			flags = flags.Without(domain.SkippedCF)
		}
		t.cached[key] = flags.Without(domain.SkippedInsert)
		return MissWASkip
	}

	if !flags.Has(domain.Inserted) {
		panic(fmt.Sprintf("tracker: capacity miss on never-inserted key %d (flags %v)", key, flags))
	}
	return MissCapacity
}

// Admit records a completed insertion of key and reports whether it was
// a reinsert (the key already carried INSERTED from an earlier
// admission).
func (t *Tracker) Admit(key domain.ObjectKey) (reinsert bool) {
	flags := t.cached[key]
	reinsert = flags.Has(domain.Inserted)
	t.cached[key] = flags.With(domain.Inserted)
	return reinsert
}

// DeclineInsert records that an insertion of key was skipped for write
// amplification, so a later miss on the key classifies as a skip miss.
func (t *Tracker) DeclineInsert(key domain.ObjectKey) {
	t.cached[key] = t.cached[key].With(domain.SkippedInsert)
}

// CopyForward records a completed copy-forward of key and bumps its
// per-key copy-forward count, saturating at HistBuckets-1.
func (t *Tracker) CopyForward(key domain.ObjectKey) {
	t.cached[key] = t.cached[key].With(domain.CF)
	if t.copyfwds[key] < HistBuckets-1 {
		t.copyfwds[key]++
	}
}

// DeclineCopyForward records that key came up for copy-forward and was
// evicted instead.
func (t *Tracker) DeclineCopyForward(key domain.ObjectKey) {
	t.cached[key] = t.cached[key].With(domain.SkippedCF)
}

// Hit records a read hit on key and reports whether the key had been
// copied forward since its last insert.
func (t *Tracker) Hit(key domain.ObjectKey) (copyForwarded bool) {
	flags := t.cached[key]
	copyForwarded = flags.Has(domain.CF)
	t.cached[key] = flags.With(domain.Read)
	return copyForwarded
}

// Erase retires key from flash. It reports whether the key was never
// read since its last insert (a one-hit wonder) and the copy-forward
// count retired into the histogram. The key's READ and CF flags are
// cleared; INSERTED survives. Erasing a key that was never inserted is
// a caller ordering violation and panics.
func (t *Tracker) Erase(key domain.ObjectKey) (neverRead bool, copyForwards uint8) {
	flags, seen := t.cached[key]
	if !seen {
		panic(fmt.Sprintf("tracker: erase of unknown key %d", key))
	}
	if !flags.Has(domain.Inserted) {
		panic(fmt.Sprintf("tracker: erase of never-inserted key %d (flags %v)", key, flags))
	}

	neverRead = !flags.Has(domain.Read)
	t.cached[key] = flags.Without(domain.Read | domain.CF)

	copyForwards = t.copyfwds[key]
	t.hist[copyForwards]++
	delete(t.copyfwds, key)
	return neverRead, copyForwards
}

// Flags returns the current flag set for key and whether the key has
// ever been seen.
func (t *Tracker) Flags(key domain.ObjectKey) (domain.Flags, bool) {
	f, ok := t.cached[key]
	return f, ok
}

// Seen returns the number of distinct keys the tracker has ever seen.
func (t *Tracker) Seen() int {
	return len(t.cached)
}

// CopyForwardCount returns key's copy-forward count since admission.
func (t *Tracker) CopyForwardCount(key domain.ObjectKey) uint8 {
	return t.copyfwds[key]
}

// Histogram returns a copy of the copy-forward histogram. Bucket i
// holds the number of erased objects that were copied forward i times.
func (t *Tracker) Histogram() [HistBuckets]uint32 {
	return t.hist
}
