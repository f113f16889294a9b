package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var failuresBucket = []byte("delivery_failures")

const maxFailures = 500

// Failure is one LINE API call that did not go through.
type Failure struct {
	Seq       uint64    `json:"seq"`
	UserID    string    `json:"user_id"`
	Trigger   string    `json:"trigger"`
	Kind      string    `json:"kind"` // push | reply
	Messages  int       `json:"messages"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type Store interface {
	RecordFailure(f Failure) error
	ListFailures(limit int) ([]Failure, error)
	Close() error
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(failuresBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating failures bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// RecordFailure appends f and drops the oldest records beyond maxFailures.
func (s *BoltStore) RecordFailure(f Failure) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(failuresBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		f.Seq = seq
		if f.Timestamp.IsZero() {
			f.Timestamp = time.Now().UTC()
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return err
		}

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, k)
		}
		for i := 0; i < len(keys)-maxFailures; i++ {
			if err := b.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFailures returns up to limit records, newest first. limit <= 0 means all.
func (s *BoltStore) ListFailures(limit int) ([]Failure, error) {
	var out []Failure
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(failuresBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var f Failure
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("decoding failure %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// seqKey encodes seq big-endian so cursor order is insertion order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
