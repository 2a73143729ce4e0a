package driver

import (
	"encoding/binary"
	"math/rand"

	"github.com/haukened/flashsim/internal/flash/domain"
)

// zipfSkew is the exponent of the synthetic access distribution. Values
// a bit above 1 give the heavy skew typical of CDN object traces.
const zipfSkew = 1.07

// workload produces a reproducible zipf-distributed key stream with a
// fixed size per key.
type workload struct {
	zipf    *rand.Zipf
	minSize uint64
	maxSize uint64
}

func newWorkload(seed int64, keyspace, minSize, maxSize uint64) *workload {
	rng := rand.New(rand.NewSource(seed))
	return &workload{
		zipf:    rand.NewZipf(rng, zipfSkew, 1, keyspace-1),
		minSize: minSize,
		maxSize: maxSize,
	}
}

// next returns the next key in the stream and its object size.
func (w *workload) next() (domain.ObjectKey, uint64) {
	key := domain.ObjectKey(w.zipf.Uint64())
	return key, w.sizeFor(key)
}

// sizeFor derives a stable object size in [minSize, maxSize] from the
// key, so repeated accesses to a key always see the same size.
func (w *workload) sizeFor(key domain.ObjectKey) uint64 {
	h := (uint64(key) + 1) * 0x9E3779B97F4A7C15
	h ^= h >> 29
	return w.minSize + h%(w.maxSize-w.minSize+1)
}

// keyBytes renders a key for the bloom admission filter.
func keyBytes(key domain.ObjectKey) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(key))
	return b[:]
}
