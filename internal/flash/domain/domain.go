// Package domain holds the value types shared by the telemetry core:
// the byte/object counter pair, object identifiers, and the per-object
// state flags used to classify misses.
package domain

// ObjectKey identifies a cached object. Keys are opaque to the telemetry
// core and unique within the keyspace of a single simulated run.
type ObjectKey uint64

// Counter is the atomic unit of accounting: a byte total and an object
// total that always move together. Every event that touches a Counter
// adds exactly one object and that object's size in bytes. There is no
// decrement; both totals are monotonic for the lifetime of a run.
type Counter struct {
	Bytes   uint64
	Objects uint32
}

// Increment adds one object of the given byte size to the counter.
func (c *Counter) Increment(size uint64) {
	c.Bytes += size
	c.Objects++
}

// IsZero reports whether the counter has never been incremented.
func (c Counter) IsZero() bool {
	return c.Bytes == 0 && c.Objects == 0
}
