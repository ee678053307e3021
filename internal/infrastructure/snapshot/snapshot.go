package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/splitlist/taskboard/domain"
)

// Cache persists the last merged board state per identity, so a restarting
// client can render something before its first fetch completes. It is a
// display cache only: nothing is ever replayed from it against the server.
type Cache struct {
	db     *bolt.DB
	bucket []byte
}

type entry struct {
	SavedAt time.Time     `json:"saved_at"`
	Tasks   []domain.Task `json:"tasks"`
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("snapshots")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db:     db,
		bucket: bucket,
	}, nil
}

// Save stores the task list under the identity, stamped with the save time.
func (c *Cache) Save(identityID string, tasks []domain.Task) error {
	if c == nil || c.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if identityID == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(entry{SavedAt: time.Now(), Tasks: tasks})
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(identityID), payload)
	})
}

// Load returns the cached tasks for the identity and when they were saved.
// A missing snapshot yields nil tasks and a zero time, not an error.
func (c *Cache) Load(identityID string) ([]domain.Task, time.Time, error) {
	if c == nil || c.db == nil {
		return nil, time.Time{}, bolt.ErrDatabaseNotOpen
	}

	var e entry
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(c.bucket).Get([]byte(identityID))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &e)
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	if !found {
		return nil, time.Time{}, nil
	}
	return e.Tasks, e.SavedAt, nil
}

// Clear drops the snapshot stored for the identity.
func (c *Cache) Clear(identityID string) error {
	if c == nil || c.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete([]byte(identityID))
	})
}

// Close closes the Bolt database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
