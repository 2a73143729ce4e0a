// Package driver simulates a container-log flash cache and feeds its
// lifecycle events to the telemetry core. It is the event producer the
// core treats as an external collaborator: an admission filter decides
// what to insert, a recency policy decides what to copy forward during
// container reclaim, and everything else gets evicted.
//
// The simulation is a pure single-threaded loop; pacing and
// cancellation belong to the caller.
package driver

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/flashsim/internal/flash/common/log"
	"github.com/haukened/flashsim/internal/flash/domain"
	"github.com/haukened/flashsim/internal/flash/services/stats"
)

// admissionFPRate is the false-positive rate of the bloom admission
// filter. A false positive admits a first-touch object early, which
// only costs a little extra write traffic.
const admissionFPRate = 0.01

// cancelCheckInterval is how many events pass between context checks.
const cancelCheckInterval = 4096

// Options configures the simulated cache.
type Options struct {
	Keyspace       uint64 // distinct keys in the workload
	ObjectMinBytes uint64
	ObjectMaxBytes uint64
	ContainerBytes uint64 // capacity of one container
	Containers     int    // containers on the flash
	DRAMEntries    int    // DRAM front buffer entries, 0 disables
	CopyFwdLimit   int    // max objects copied forward per reclaim
	Policy         string // "lru" or "arc"
	Seed           int64
	Period         int // events between periodic collections
}

type residentObject struct {
	container int
	size      uint64
}

// container is one append-only region of the simulated flash. used
// includes bytes of objects that were since evicted; space is only
// recovered by erasing the whole container.
type container struct {
	used uint64
	live []domain.ObjectKey
}

// Driver owns the simulated cache state and emits events to the core.
type Driver struct {
	opts Options
	core *stats.Stats

	work    *workload
	recency recencyList
	seen    *bloom.BloomFilter
	dram    *lru.Cache[domain.ObjectKey, struct{}]

	containers []container
	open       int
	resident   map[domain.ObjectKey]residentObject
	totalBytes uint64

	// Progress, when set, is invoked after each periodic collection
	// with the number of collections so far.
	Progress func(collections int)
}

// New builds a Driver that reports into core.
func New(core *stats.Stats, opts Options) (*Driver, error) {
	if opts.ObjectMaxBytes > opts.ContainerBytes {
		return nil, fmt.Errorf("object max size %d exceeds container capacity %d",
			opts.ObjectMaxBytes, opts.ContainerBytes)
	}
	if opts.Containers < 2 {
		return nil, fmt.Errorf("need at least 2 containers, got %d", opts.Containers)
	}

	// size the recency tracker to about the object count the flash
	// can hold
	avg := (opts.ObjectMinBytes + opts.ObjectMaxBytes) / 2
	slots := int(uint64(opts.Containers) * opts.ContainerBytes / avg)
	if slots < 16 {
		slots = 16
	}
	recency, err := newRecency(opts.Policy, slots)
	if err != nil {
		return nil, err
	}

	var dram *lru.Cache[domain.ObjectKey, struct{}]
	if opts.DRAMEntries > 0 {
		dram, err = lru.New[domain.ObjectKey, struct{}](opts.DRAMEntries)
		if err != nil {
			return nil, err
		}
	}

	return &Driver{
		opts:       opts,
		core:       core,
		work:       newWorkload(opts.Seed, opts.Keyspace, opts.ObjectMinBytes, opts.ObjectMaxBytes),
		recency:    recency,
		seen:       bloom.NewWithEstimates(uint(opts.Keyspace), admissionFPRate),
		dram:       dram,
		containers: make([]container, opts.Containers),
		resident:   make(map[domain.ObjectKey]residentObject, slots),
	}, nil
}

// Run simulates the given number of accesses, collecting periodic stats
// every Period events. It returns early with the context error if the
// caller cancels.
func (d *Driver) Run(ctx context.Context, events int) error {
	for i := 1; i <= events; i++ {
		if i%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		d.step()

		if d.opts.Period > 0 && i%d.opts.Period == 0 {
			d.core.CollectPeriodicStats(d.totalBytes)
			if d.Progress != nil {
				d.Progress(d.core.Collections())
			}
		}
	}
	return nil
}

// step performs one access against the simulated cache.
func (d *Driver) step() {
	key, size := d.work.next()
	d.core.OnAccess(size)
	d.dramTouch(key, size)

	if _, ok := d.resident[key]; ok {
		d.core.OnHit(key, size)
		d.recency.Touch(key)
		return
	}

	d.core.OnMiss(key, size)

	// admit on second touch: first-timers only prime the filter
	admitted := d.seen.TestOrAdd(keyBytes(key))
	d.core.OnInsertAttempt(key, size, admitted, false)
	if admitted {
		d.place(key, size)
		d.recency.Touch(key)
	}
}

// dramTouch accounts the DRAM front buffer, which shadows recent keys
// without affecting flash residency.
func (d *Driver) dramTouch(key domain.ObjectKey, size uint64) {
	if d.dram == nil {
		return
	}
	if _, ok := d.dram.Get(key); ok {
		d.core.OnDRAMHit(size)
		return
	}
	d.core.OnDRAMMiss(size)
	d.dram.Add(key, struct{}{})
}

// place appends the object to the open container, rolling to the next
// container (and reclaiming it) when the open one cannot fit the
// object.
func (d *Driver) place(key domain.ObjectKey, size uint64) {
	c := &d.containers[d.open]
	if c.used+size > d.opts.ContainerBytes {
		d.core.OnContainerFlush(d.opts.ContainerBytes - c.used)
		d.advance()
		c = &d.containers[d.open]
	}
	c.used += size
	c.live = append(c.live, key)
	d.resident[key] = residentObject{container: d.open, size: size}
	d.totalBytes += size
	d.core.OnWrite(size)
	d.core.OnPlacement(size)
}

// advance moves the open pointer to the next container in the ring,
// reclaiming it first if it still holds data.
func (d *Driver) advance() {
	d.open = (d.open + 1) % len(d.containers)
	if d.containers[d.open].used > 0 {
		d.reclaim(d.open)
	}
}

// reclaim erases a container: warm objects are copied forward back
// into it (up to the copy-forward limit), the rest are evicted.
func (d *Driver) reclaim(idx int) {
	c := &d.containers[idx]

	type survivor struct {
		key  domain.ObjectKey
		size uint64
	}
	var survivors []survivor
	var survivorBytes uint64
	evicted := 0

	// survivors must leave room for at least one incoming object, or
	// the container would overflow right after being reclaimed
	budget := d.opts.ContainerBytes - d.opts.ObjectMaxBytes

	for _, key := range c.live {
		ro, ok := d.resident[key]
		if !ok || ro.container != idx {
			continue
		}
		warm := d.recency.Contains(key)
		if warm && len(survivors) < d.opts.CopyFwdLimit && survivorBytes+ro.size <= budget {
			d.core.OnCopyForwardAttempt(key, ro.size, true)
			survivors = append(survivors, survivor{key: key, size: ro.size})
			survivorBytes += ro.size
			continue
		}
		d.core.OnCopyForwardAttempt(key, ro.size, false)
		d.core.OnEvict(key, ro.size)
		d.core.OnErase(key, ro.size)
		delete(d.resident, key)
		d.totalBytes -= ro.size
		evicted++
	}

	d.core.OnContainerErase()
	c.used = 0
	c.live = c.live[:0]

	// survivors are rewritten into the freshly erased container; this
	// is write traffic and placement, not logical insertion
	for _, s := range survivors {
		c.used += s.size
		c.live = append(c.live, s.key)
		d.resident[s.key] = residentObject{container: idx, size: s.size}
		d.core.OnWrite(s.size)
		d.core.OnPlacement(s.size)
	}

	log.Debug(map[string]any{
		"container": idx,
		"copied":    len(survivors),
		"evicted":   evicted,
	}, "container reclaimed")
}

// TotalBytes returns the bytes of live objects currently on flash.
func (d *Driver) TotalBytes() uint64 {
	return d.totalBytes
}

// Resident returns the number of objects currently on flash.
func (d *Driver) Resident() int {
	return len(d.resident)
}
