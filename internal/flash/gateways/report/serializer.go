// Package report renders the telemetry core's state for external
// consumption: a fixed-schema JSON document at end of run and a
// human-readable periodic summary during it.
package report

import (
	"bytes"
	"strconv"

	"github.com/haukened/flashsim/internal/flash/services/stats"
)

// DumpJSON renders the full accounting state as a single JSON object.
//
// The field names are part of the external contract: one object per
// registered counter (sorted by name), the global write scalars, the
// 256-bucket copy-forward histogram, the collection cadence, the
// segment series, and the derived average occupancy. The extended
// per-segment read/hit series appear only when that option is enabled.
func DumpJSON(s *stats.Stats) []byte {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	for _, name := range s.CounterNames() {
		c, _ := s.Counter(name)
		writeName(&buf, name)
		buf.WriteString("{\"bytes\": ")
		buf.WriteString(strconv.FormatUint(c.Bytes, 10))
		buf.WriteString(", \"objects\": ")
		buf.WriteString(strconv.FormatUint(uint64(c.Objects), 10))
		buf.WriteString("},\n")
	}

	writeScalar(&buf, "flash_bytes_written", s.FlashBytesWritten())
	writeScalar(&buf, "containers_erased", s.ContainersErased())
	writeScalar(&buf, "containers_written", s.ContainersWritten())

	hist := s.Histogram()
	histVals := make([]uint64, len(hist))
	for i, v := range hist {
		histVals[i] = uint64(v)
	}
	writeArray(&buf, "copyfwd_hist", histVals)
	buf.WriteString(",\n")

	writeScalar(&buf, "segment_period", uint64(s.Options().Period))

	seg := s.Segments()
	writeArray(&buf, "segment_util", seg.Util)
	buf.WriteString(",\n")
	writeArray(&buf, "segment_fbw", seg.FBW)
	buf.WriteString(",\n")
	writeArray(&buf, "segment_inserts", seg.InsertBytes)
	buf.WriteString(",\n")

	if s.Options().ExtendedSegments {
		writeArray(&buf, "segment_bytes_hit", seg.BytesHit)
		buf.WriteString(",\n")
		writeArray(&buf, "segment_bytes_read", seg.BytesRead)
		buf.WriteString(",\n")
		writeArray(&buf, "segment_objects_hit", seg.ObjectsHit)
		buf.WriteString(",\n")
		writeArray(&buf, "segment_objects_read", seg.ObjectsRead)
		buf.WriteString(",\n")
	}

	writeName(&buf, "average_occupancy")
	buf.WriteString(strconv.FormatFloat(s.AverageOccupancy(), 'f', -1, 64))
	buf.WriteString("\n}\n")
	return buf.Bytes()
}

func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('"')
	buf.WriteString(name)
	buf.WriteString("\": ")
}

func writeScalar(buf *bytes.Buffer, name string, v uint64) {
	writeName(buf, name)
	buf.WriteString(strconv.FormatUint(v, 10))
	buf.WriteString(",\n")
}

// writeArray joins values with a separator, so empty and single-element
// series render as valid JSON.
func writeArray(buf *bytes.Buffer, name string, vals []uint64) {
	writeName(buf, name)
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatUint(v, 10))
	}
	buf.WriteByte(']')
}
