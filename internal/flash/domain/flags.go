package domain

import "strings"

// Flags is the per-object bit state the tracker keeps for every key it
// has ever seen. The set/clear timing is load-bearing for miss
// classification:
//
//   - Inserted: set when the object is admitted to flash; never cleared.
//   - Read: set when a read hits the object; cleared on erase.
//   - SkippedInsert: set when an insert is declined for write
//     amplification; cleared by the next miss on the key.
//   - SkippedCF: set when a copy-forward is declined; cleared by the
//     next miss on the key.
//   - CF: set when the object is copied forward; cleared on erase.
type Flags uint8

const (
	Inserted Flags = 1 << iota
	Read
	SkippedInsert
	SkippedCF
	CF
)

// Has reports whether all bits in b are set.
func (f Flags) Has(b Flags) bool {
	return f&b == b
}

// With returns f with the bits in b set.
func (f Flags) With(b Flags) Flags {
	return f | b
}

// Without returns f with the bits in b cleared.
func (f Flags) Without(b Flags) Flags {
	return f &^ b
}

// String returns a pipe-separated list of the set flag names, or "none".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, e := range []struct {
		bit  Flags
		name string
	}{
		{Inserted, "INSERTED"},
		{Read, "READ"},
		{SkippedInsert, "SKIPPED_INSERT"},
		{SkippedCF, "SKIPPED_CF"},
		{CF, "CF"},
	} {
		if f.Has(e.bit) {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}
