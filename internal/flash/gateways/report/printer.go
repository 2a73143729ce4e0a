package report

import (
	"fmt"
	"io"

	"github.com/haukened/flashsim/internal/flash/services/stats"
)

// PrintPeriodicStats writes a human-readable summary of the most recent
// segment's ratios plus the run-cumulative ones to w. It is a pure
// read; no accounting state changes.
func PrintPeriodicStats(w io.Writer, s *stats.Stats) error {
	seg := s.Segments()

	var util, fbw uint64
	if n := len(seg.Util); n > 0 {
		util = seg.Util[n-1]
		fbw = seg.FBW[n-1]
	}

	_, err := fmt.Fprintf(w,
		"\tSegment BHR: %.4f, overall %.4f\n"+
			"\tSegment OHR: %.4f, overall %.4f\n"+
			"\tSegment WA: %.4f, overall %.4f\n"+
			"\tSegment utilization: %d\n"+
			"\tSegment flash bytes written: %d\n",
		s.SegmentByteHitRatio(), s.ByteHitRatio(),
		s.SegmentObjectHitRatio(), s.ObjectHitRatio(),
		s.SegmentWriteAmplification(), s.WriteAmplification(),
		util, fbw,
	)
	return err
}
