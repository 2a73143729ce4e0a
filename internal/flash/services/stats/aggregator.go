package stats

import (
	"github.com/haukened/flashsim/internal/flash/domain"
	"github.com/haukened/flashsim/internal/flash/repos/registry"
)

// Segments holds the per-segment series, one entry appended per
// periodic collection. All slices always have equal length.
type Segments struct {
	Util        []uint64 // caller-supplied occupancy samples
	FBW         []uint64 // flash bytes written per segment
	InsertBytes []uint64 // bytes inserted per segment
	BytesRead   []uint64
	BytesHit    []uint64
	ObjectsRead []uint64
	ObjectsHit  []uint64
}

// aggregator tracks the counter snapshots taken at the previous
// collection so each call appends only the delta.
type aggregator struct {
	lastReads   domain.Counter
	lastHits    domain.Counter
	lastInserts domain.Counter
	lastFBW     uint64
	utilSum     uint64
	seg         Segments
}

// CollectPeriodicStats closes the current segment: it appends the
// since-last-call deltas for reads, hits, inserted bytes and flash
// bytes written to the segment series, and records totalSize as the
// segment's occupancy sample. Calling it with no intervening events
// appends a zero-delta entry everywhere. Cumulative counters are not
// mutated.
func (s *Stats) CollectPeriodicStats(totalSize uint64) {
	reads, _ := s.reg.Value(registry.TotalReads)
	hits, _ := s.reg.Value(registry.TotalHits)
	inserts, _ := s.reg.Value(registry.Inserts)

	a := &s.agg
	a.seg.BytesRead = append(a.seg.BytesRead, reads.Bytes-a.lastReads.Bytes)
	a.seg.BytesHit = append(a.seg.BytesHit, hits.Bytes-a.lastHits.Bytes)
	a.seg.ObjectsRead = append(a.seg.ObjectsRead, uint64(reads.Objects-a.lastReads.Objects))
	a.seg.ObjectsHit = append(a.seg.ObjectsHit, uint64(hits.Objects-a.lastHits.Objects))
	a.seg.InsertBytes = append(a.seg.InsertBytes, inserts.Bytes-a.lastInserts.Bytes)
	a.seg.FBW = append(a.seg.FBW, s.flashBytesWritten-a.lastFBW)
	a.seg.Util = append(a.seg.Util, totalSize)

	a.lastReads = reads
	a.lastHits = hits
	a.lastInserts = inserts
	a.lastFBW = s.flashBytesWritten
	a.utilSum += totalSize
}

// Segments returns the collected segment series.
func (s *Stats) Segments() Segments {
	return s.agg.seg
}

// Collections returns the number of periodic collections so far.
func (s *Stats) Collections() int {
	return len(s.agg.seg.Util)
}

// AverageOccupancy returns the mean of the occupancy samples, or 0 when
// nothing has been collected yet.
func (s *Stats) AverageOccupancy() float64 {
	n := len(s.agg.seg.Util)
	if n == 0 {
		return 0
	}
	return float64(s.agg.utilSum) / float64(n)
}

// WriteAmplification returns the run-cumulative ratio of flash bytes
// written over bytes inserted, recomputed from the totals. Zero
// inserted bytes yields 0, never NaN.
func (s *Stats) WriteAmplification() float64 {
	inserts, _ := s.reg.Value(registry.Inserts)
	return ratio(s.flashBytesWritten, inserts.Bytes)
}

// ByteHitRatio returns the run-cumulative bytes hit over bytes read.
func (s *Stats) ByteHitRatio() float64 {
	reads, _ := s.reg.Value(registry.TotalReads)
	hits, _ := s.reg.Value(registry.TotalHits)
	return ratio(hits.Bytes, reads.Bytes)
}

// ObjectHitRatio returns the run-cumulative objects hit over objects
// read.
func (s *Stats) ObjectHitRatio() float64 {
	reads, _ := s.reg.Value(registry.TotalReads)
	hits, _ := s.reg.Value(registry.TotalHits)
	return ratio(uint64(hits.Objects), uint64(reads.Objects))
}

// SegmentByteHitRatio returns the byte hit ratio of the most recent
// segment, or 0 before the first collection.
func (s *Stats) SegmentByteHitRatio() float64 {
	return lastRatio(s.agg.seg.BytesHit, s.agg.seg.BytesRead)
}

// SegmentObjectHitRatio returns the object hit ratio of the most recent
// segment, or 0 before the first collection.
func (s *Stats) SegmentObjectHitRatio() float64 {
	return lastRatio(s.agg.seg.ObjectsHit, s.agg.seg.ObjectsRead)
}

// SegmentWriteAmplification returns the write amplification of the most
// recent segment, or 0 before the first collection.
func (s *Stats) SegmentWriteAmplification() float64 {
	return lastRatio(s.agg.seg.FBW, s.agg.seg.InsertBytes)
}

// ratio divides num by den, defining x/0 as 0.
func ratio(num, den uint64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func lastRatio(num, den []uint64) float64 {
	if len(num) == 0 || len(den) == 0 {
		return 0
	}
	return ratio(num[len(num)-1], den[len(den)-1])
}
