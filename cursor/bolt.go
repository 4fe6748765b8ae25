package cursor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	subscriptionBucket = []byte("subscription")
	cursorKey          = []byte("cursor")
)

// BoltStore keeps the cursor in a small local bbolt file, independent of the
// invoice database. Losing it is safe: resuming from an older cursor only
// replays events the settlement transition already tolerates.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (store *BoltStore) Load() (Cursor, error) {
	var cursor Cursor

	err := store.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(subscriptionBucket)
		if bucket == nil {
			return nil
		}

		payload := bucket.Get(cursorKey)
		if payload == nil || bytes.Equal(payload, []byte("null")) {
			return nil
		}

		return json.Unmarshal(payload, &cursor)
	})
	if err != nil {
		return Cursor{}, err
	}

	return cursor, nil
}

func (store *BoltStore) Save(cursor Cursor) error {
	return store.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(subscriptionBucket)
		if err != nil {
			return err
		}

		var stored Cursor
		if payload := bucket.Get(cursorKey); payload != nil {
			if err := json.Unmarshal(payload, &stored); err != nil {
				return err
			}
		}

		// clamp, never decrease
		if cursor.AddIndex < stored.AddIndex {
			cursor.AddIndex = stored.AddIndex
		}
		if cursor.SettleIndex < stored.SettleIndex {
			cursor.SettleIndex = stored.SettleIndex
		}

		payload, err := json.Marshal(cursor)
		if err != nil {
			return err
		}

		return bucket.Put(cursorKey, payload)
	})
}

func (store *BoltStore) Close() error {
	return store.db.Close()
}
