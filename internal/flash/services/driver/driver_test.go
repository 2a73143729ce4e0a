package driver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/flashsim/internal/flash/gateways/report"
	"github.com/haukened/flashsim/internal/flash/repos/registry"
	"github.com/haukened/flashsim/internal/flash/services/stats"
)

func testOptions() Options {
	return Options{
		Keyspace:       256,
		ObjectMinBytes: 100,
		ObjectMaxBytes: 400,
		ContainerBytes: 4000,
		Containers:     4,
		DRAMEntries:    32,
		CopyFwdLimit:   4,
		Policy:         "lru",
		Seed:           42,
		Period:         500,
	}
}

func testStats() *stats.Stats {
	opts := stats.DefaultOptions()
	opts.Period = 500
	opts.DRAMCounters = true
	return stats.New(opts)
}

func TestNew_RejectsOversizedObjects(t *testing.T) {
	opts := testOptions()
	opts.ObjectMaxBytes = opts.ContainerBytes + 1
	_, err := New(testStats(), opts)
	assert.Error(t, err)
}

func TestNew_RejectsSingleContainer(t *testing.T) {
	opts := testOptions()
	opts.Containers = 1
	_, err := New(testStats(), opts)
	assert.Error(t, err)
}

func TestNew_RejectsUnknownPolicy(t *testing.T) {
	opts := testOptions()
	opts.Policy = "fifo"
	_, err := New(testStats(), opts)
	assert.Error(t, err)
}

func TestRun_EventStreamIsCausallyValid(t *testing.T) {
	// a full run must not trip any tracker ordering panic
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.Run(context.Background(), 10000))

	reads, _ := core.Counter(registry.TotalReads)
	assert.Equal(t, uint32(10000), reads.Objects)
}

func TestRun_MissCategoriesPartitionTotal(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 20000))

	total, _ := core.Counter(registry.TotalMisses)
	comp, _ := core.Counter(registry.CompulsoryMisses)
	capa, _ := core.Counter(registry.CapacityMisses)
	skip, _ := core.Counter(registry.WASkipMisses)
	assert.Equal(t, total.Objects, comp.Objects+capa.Objects+skip.Objects)
	assert.Equal(t, total.Bytes, comp.Bytes+capa.Bytes+skip.Bytes)
}

func TestRun_HistogramSumMatchesErases(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 20000))

	// every copy-forward attempt resolves to copied or skipped; every
	// skipped one is an erase, and each erase retires one histogram
	// bucket entry
	skipped, _ := core.Counter(registry.SkippedCopyFwds)
	var histSum uint32
	for _, n := range core.Histogram() {
		histSum += n
	}
	assert.Equal(t, skipped.Objects, histSum)
}

func TestRun_OccupancyStaysWithinFlash(t *testing.T) {
	opts := testOptions()
	core := testStats()
	d, err := New(core, opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 20000))

	capacity := uint64(opts.Containers) * opts.ContainerBytes
	assert.LessOrEqual(t, d.TotalBytes(), capacity)
	assert.LessOrEqual(t, d.Resident(), core.KeysSeen())
	for _, util := range core.Segments().Util {
		assert.LessOrEqual(t, util, capacity)
	}
}

func TestRun_PeriodicCadence(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)

	var calls []int
	d.Progress = func(n int) { calls = append(calls, n) }

	require.NoError(t, d.Run(context.Background(), 2500))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
	assert.Equal(t, 5, core.Collections())
}

func TestRun_CancelledContext(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = d.Run(ctx, 1000000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ARCPolicy(t *testing.T) {
	opts := testOptions()
	opts.Policy = "arc"
	core := testStats()
	d, err := New(core, opts)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 10000))

	hits, _ := core.Counter(registry.TotalHits)
	assert.NotZero(t, hits.Objects, "warm zipf workload should produce hits")
}

func TestRun_DRAMAccounting(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 5000))

	dh, _ := core.Counter(registry.DRAMHits)
	dm, _ := core.Counter(registry.DRAMMisses)
	assert.Equal(t, uint32(5000), dh.Objects+dm.Objects, "every access touches the DRAM tier")
}

func TestRun_ReportIsValidJSON(t *testing.T) {
	core := testStats()
	d, err := New(core, testOptions())
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), 10000))

	doc := report.DumpJSON(core)
	require.True(t, json.Valid(doc))

	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	assert.Contains(t, m, "flash_bytes_written")
	assert.Contains(t, m, "copyfwd_hist")
}

func TestWorkload_SizesAreStableAndBounded(t *testing.T) {
	w := newWorkload(7, 1000, 100, 400)
	sizes := make(map[uint64]uint64)
	for i := 0; i < 5000; i++ {
		key, size := w.next()
		assert.GreaterOrEqual(t, size, uint64(100))
		assert.LessOrEqual(t, size, uint64(400))
		if prev, ok := sizes[uint64(key)]; ok {
			assert.Equal(t, prev, size, "size for key %d must be stable", key)
		}
		sizes[uint64(key)] = size
	}
}
