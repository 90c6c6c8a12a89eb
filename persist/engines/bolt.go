// Package engines provides the durable persist.Engine implementations used
// in production deployments.
package engines

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/drydocklab/drydock/persist"
)

var stateBucket = []byte("drivers")

// BoltEngine stores driver state in a bbolt file, one key per submission.
// Writes are committed transactions, so a successful Persist is visible to
// Read and ReadAll after a process restart.
type BoltEngine struct {
	db *bolt.DB
}

// MakeBoltEngine opens (creating if necessary) the bbolt database at path.
func MakeBoltEngine(path string) (*BoltEngine, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "creating state directory")
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening state database %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating state bucket")
	}

	return &BoltEngine{db: db}, nil
}

func (e *BoltEngine) Persist(id string, state []byte) error {
	err := e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(id), state)
	})
	if err != nil {
		return persist.NewStorageFailure("persist", err)
	}
	return nil
}

func (e *BoltEngine) Read(id string) ([]byte, error) {
	var state []byte
	err := e.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(stateBucket).Get([]byte(id))
		if value == nil {
			return persist.ErrNotFound
		}
		// value is only valid inside the transaction
		state = make([]byte, len(value))
		copy(state, value)
		return nil
	})
	if err == persist.ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, persist.NewStorageFailure("read", err)
	}
	return state, nil
}

func (e *BoltEngine) ReadAll() ([][]byte, error) {
	var all [][]byte
	err := e.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).ForEach(func(k, v []byte) error {
			state := make([]byte, len(v))
			copy(state, v)
			all = append(all, state)
			return nil
		})
	})
	if err != nil {
		return nil, persist.NewStorageFailure("readAll", err)
	}
	return all, nil
}

func (e *BoltEngine) Expunge(id string) error {
	err := e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete([]byte(id))
	})
	if err != nil {
		return persist.NewStorageFailure("expunge", err)
	}
	return nil
}

func (e *BoltEngine) Close() error {
	return e.db.Close()
}
