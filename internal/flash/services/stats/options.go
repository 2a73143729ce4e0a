package stats

// Options selects the collection cadence and the optional metric sets
// observed across simulator variants.
type Options struct {
	// Period is the number of events between periodic collections. The
	// cadence is owned by the driver; the value is recorded here only
	// so reports can state it.
	Period int

	// RedundancyAware suppresses skipped-insert accounting when an
	// insert was declined because the object already resides in the
	// cache, rather than as a true policy skip.
	RedundancyAware bool

	// ExtendedSegments adds the per-segment bytes/objects read and hit
	// series to the JSON report.
	ExtendedSegments bool

	// DRAMCounters registers and tracks the DRAM tier hit/miss
	// counters.
	DRAMCounters bool
}

// DefaultOptions matches the fuller of the observed variants:
// redundancy-aware insert accounting, core segment series only.
func DefaultOptions() Options {
	return Options{
		Period:          100000,
		RedundancyAware: true,
	}
}
