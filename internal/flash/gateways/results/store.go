// Package results stores finished run reports in a bbolt database so
// successive simulator invocations accumulate their JSON documents in
// one results file. Persistence lives here, in the driver's territory;
// the telemetry core itself keeps no state across runs.
package results

import (
	"encoding/binary"
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketRuns = []byte("runs")
	bucketMeta = []byte("meta")

	keyUpdated = []byte("updated_unix")

	// ErrNotFound is returned when no report exists under a run name.
	ErrNotFound = errors.New("results: run not found")
)

// Store persists run reports keyed by run name.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a results database at path and ensures the
// buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores report under run, replacing any prior document with the
// same name, and stamps the store's updated time.
func (s *Store) Put(run string, report []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put([]byte(run), report); err != nil {
			return err
		}
		var ts [8]byte
		binary.BigEndian.PutUint64(ts[:], uint64(time.Now().Unix()))
		return tx.Bucket(bucketMeta).Put(keyUpdated, ts[:])
	})
}

// Get returns the stored report for run, or ErrNotFound.
func (s *Store) Get(run string) ([]byte, error) {
	var report []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRuns).Get([]byte(run))
		if v == nil {
			return ErrNotFound
		}
		report = make([]byte, len(v))
		copy(report, v)
		return nil
	})
	return report, err
}

// Runs returns the stored run names in key order.
func (s *Store) Runs() ([]string, error) {
	var runs []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, _ []byte) error {
			runs = append(runs, string(k))
			return nil
		})
	})
	return runs, err
}

// UpdatedUnix returns the unix time of the last Put, or 0 if the store
// has never been written.
func (s *Store) UpdatedUnix() (int64, error) {
	var ts int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyUpdated)
		if len(v) == 8 {
			ts = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return ts, err
}
