// Package results persists failing test witnesses so a failure can be reproduced and reported after
// the process exits.
package results

import (
	"time"

	"github.com/fxamacker/cbor"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// witnessBucket describes the bucket failing witnesses are stored in, keyed by test case ID.
var witnessBucket = []byte("witnesses")

// WitnessRecord describes one persisted failing witness.
type WitnessRecord struct {
	// TestID describes the ID of the failed test case.
	TestID string `cbor:"testId"`

	// Reason describes the human-readable failure reason.
	Reason string `cbor:"reason"`

	// Input describes the rendered failing input values.
	Input string `cbor:"input"`

	// CallData describes the encoded call data of the failing input, replayable as-is against the
	// same test entry point.
	CallData []byte `cbor:"callData,omitempty"`

	// UnixTime describes when the failure was recorded.
	UnixTime int64 `cbor:"unixTime"`
}

// Store provides a persistent failing-witness store backed by a bolt database file.
type Store struct {
	// db describes the underlying bolt database.
	db *bolt.DB
}

// OpenStore opens (creating if necessary) a witness store at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open results store '%s'", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(witnessBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not initialize results store")
	}
	return &Store{db: db}, nil
}

// SaveWitness records a failing witness, replacing any previous record for the same test case.
func (s *Store) SaveWitness(record *WitnessRecord) error {
	data, err := cbor.Marshal(record, cbor.EncOptions{})
	if err != nil {
		return errors.Wrap(err, "could not encode witness record")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(witnessBucket).Put([]byte(record.TestID), data)
	})
	return errors.Wrap(err, "could not persist witness record")
}

// LoadWitness obtains the persisted witness for a test case ID.
// Returns nil if no witness is recorded for the ID.
func (s *Store) LoadWitness(testID string) (*WitnessRecord, error) {
	var record *WitnessRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(witnessBucket).Get([]byte(testID))
		if data == nil {
			return nil
		}
		record = &WitnessRecord{}
		return cbor.Unmarshal(data, record)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not load witness record for '%s'", testID)
	}
	return record, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "could not close results store")
}
