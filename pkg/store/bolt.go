package store

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Role names one of the independent persisted lists.
type Role string

const (
	RoleSpendRandomness   Role = "spend_randomness"
	RoleOutputRandomness  Role = "output_randomness"
	RoleConvertRandomness Role = "convert_randomness"
	RoleSpendSignatures   Role = "spend_signatures"
)

var allRoles = []Role{
	RoleSpendRandomness,
	RoleOutputRandomness,
	RoleConvertRandomness,
	RoleSpendSignatures,
}

// DB wraps a bbolt database holding one bucket per list role.
type DB struct {
	db *bolt.DB
}

// Open opens (or creates) the list database at path and ensures all role
// buckets exist.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path required")
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, r := range allRoles {
			if _, err := tx.CreateBucketIfNotExists([]byte(r)); err != nil {
				return fmt.Errorf("create bucket %s: %w", r, err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{db: bdb}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// List returns the ItemList for a role. Lists share the database but are
// fully independent; clearing one does not touch the others.
func (d *DB) List(role Role) ItemList {
	return &boltList{db: d.db, bucket: []byte(role)}
}

type boltList struct {
	db     *bolt.DB
	bucket []byte
}

func itemKey(index uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], index)
	return k[:]
}

func (l *boltList) Append(item []byte) (uint32, error) {
	var index uint32
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(l.bucket)
		if b == nil {
			return fmt.Errorf("store: missing bucket %s", l.bucket)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		index = uint32(seq - 1)
		return b.Put(itemKey(index), item)
	})
	if err != nil {
		return 0, fmt.Errorf("store append: %w", err)
	}
	return index, nil
}

func (l *boltList) Get(index uint32) ([]byte, error) {
	var out []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(l.bucket)
		if b == nil {
			return fmt.Errorf("store: missing bucket %s", l.bucket)
		}
		v := b.Get(itemKey(index))
		if v == nil {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *boltList) Len() (uint32, error) {
	var n uint32
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(l.bucket)
		if b == nil {
			return fmt.Errorf("store: missing bucket %s", l.bucket)
		}
		n = uint32(b.Sequence())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (l *boltList) Clear() error {
	return l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(l.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(l.bucket)
		return err
	})
}
