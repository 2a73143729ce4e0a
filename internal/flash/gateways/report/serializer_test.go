package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/flashsim/internal/flash/services/stats"
)

func decode(t *testing.T, doc []byte) map[string]any {
	t.Helper()
	require.True(t, json.Valid(doc), "document must be valid JSON:\n%s", doc)
	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	return m
}

func TestDumpJSON_EmptyRunIsValid(t *testing.T) {
	s := stats.New(stats.DefaultOptions())

	m := decode(t, DumpJSON(s))

	// no collections yet: series are empty arrays, not malformed
	util, ok := m["segment_util"].([]any)
	require.True(t, ok, "segment_util must be an array")
	assert.Empty(t, util)
	assert.Equal(t, float64(0), m["average_occupancy"])
}

func TestDumpJSON_SingleElementSeries(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	s.CollectPeriodicStats(500)

	m := decode(t, DumpJSON(s))
	util := m["segment_util"].([]any)
	require.Len(t, util, 1)
	assert.Equal(t, float64(500), util[0])
	assert.Equal(t, float64(500), m["average_occupancy"])
}

func TestDumpJSON_CounterObjects(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	s.OnAccess(100)
	s.OnMiss(1, 100)
	s.OnInsertAttempt(1, 100, true, false)

	m := decode(t, DumpJSON(s))
	reads, ok := m["total_reads"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100), reads["bytes"])
	assert.Equal(t, float64(1), reads["objects"])

	// every declared counter is present
	for _, name := range s.CounterNames() {
		_, ok := m[name]
		assert.True(t, ok, "counter %q missing from document", name)
	}
}

func TestDumpJSON_ScalarsAndHistogram(t *testing.T) {
	opts := stats.DefaultOptions()
	opts.Period = 1000
	s := stats.New(opts)
	s.OnMiss(1, 10)
	s.OnInsertAttempt(1, 10, true, false)
	s.OnWrite(10)
	s.OnContainerFlush(90)
	s.OnContainerErase()
	s.OnErase(1, 10)

	m := decode(t, DumpJSON(s))
	assert.Equal(t, float64(100), m["flash_bytes_written"])
	assert.Equal(t, float64(1), m["containers_written"])
	assert.Equal(t, float64(1), m["containers_erased"])
	assert.Equal(t, float64(1000), m["segment_period"])

	hist, ok := m["copyfwd_hist"].([]any)
	require.True(t, ok)
	require.Len(t, hist, 256)
	assert.Equal(t, float64(1), hist[0])
}

func TestDumpJSON_ExtendedSegmentsGated(t *testing.T) {
	core := stats.New(stats.DefaultOptions())
	core.CollectPeriodicStats(0)
	m := decode(t, DumpJSON(core))
	_, ok := m["segment_bytes_read"]
	assert.False(t, ok, "extended series absent by default")

	opts := stats.DefaultOptions()
	opts.ExtendedSegments = true
	ext := stats.New(opts)
	ext.OnAccess(10)
	ext.OnHit(1, 10)
	ext.CollectPeriodicStats(0)
	m = decode(t, DumpJSON(ext))
	for _, name := range []string{
		"segment_bytes_hit", "segment_bytes_read",
		"segment_objects_hit", "segment_objects_read",
	} {
		arr, ok := m[name].([]any)
		require.True(t, ok, "expected %q array", name)
		assert.Len(t, arr, 1)
	}
}

func TestDumpJSON_CustomCounterAppears(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	s.IncrementCustomCounter("prefetches", 42)
	m := decode(t, DumpJSON(s))
	c, ok := m["prefetches"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), c["bytes"])
}

func TestPrintPeriodicStats(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	s.OnAccess(100)
	s.OnMiss(1, 100)
	s.OnInsertAttempt(1, 100, true, false)
	s.OnWrite(100)
	s.OnAccess(100)
	s.OnHit(1, 100)
	s.CollectPeriodicStats(100)

	var sb strings.Builder
	require.NoError(t, PrintPeriodicStats(&sb, s))
	out := sb.String()
	assert.Contains(t, out, "Segment BHR: 0.5000")
	assert.Contains(t, out, "Segment WA: 1.0000")
	assert.Contains(t, out, "Segment utilization: 100")
}

func TestPrintPeriodicStats_NoCollections(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	var sb strings.Builder
	require.NoError(t, PrintPeriodicStats(&sb, s))
	assert.Contains(t, sb.String(), "Segment BHR: 0.0000")
}

func TestPrintPeriodicStats_IsPureRead(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	s.OnAccess(10)
	s.CollectPeriodicStats(10)

	before := DumpJSON(s)
	var sb strings.Builder
	require.NoError(t, PrintPeriodicStats(&sb, s))
	after := DumpJSON(s)
	assert.Equal(t, string(before), string(after))
}

func TestDumpJSON_RegistryNamesSorted(t *testing.T) {
	s := stats.New(stats.DefaultOptions())
	doc := string(DumpJSON(s))
	// spot-check ordering of two counters in the rendered text
	assert.Less(t,
		strings.Index(doc, `"capacity_misses"`),
		strings.Index(doc, `"total_reads"`),
	)
}
