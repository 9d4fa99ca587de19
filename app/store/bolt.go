package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const (
	usersBktName = "users"
	feedsBktName = "feeds"
)

// Bolt is a storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "feedcache.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{usersBktName, feedsBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Put puts user to storage.
func (b *Bolt) Put(_ context.Context, u User) error {
	if err := b.put(usersBktName, u.ChatID, u); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// List returns users from storage.
func (b *Bolt) List(_ context.Context, req ListRequest) ([]User, error) {
	var result []User
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(usersBktName))
		err := bkt.ForEach(func(k, v []byte) error {
			var u User
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("unmarshal user %s: %w", k, err)
			}
			if req.OnlySubscribed && !(u.Subscribed && u.Authorized) {
				return nil
			}
			result = append(result, u)
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}
	return result, nil
}

// Get returns user from storage.
func (b *Bolt) Get(_ context.Context, id string) (u User, err error) {
	if err = b.get(usersBktName, id, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes user from storage.
func (b *Bolt) Delete(_ context.Context, id string) error {
	if err := b.delete(usersBktName, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot of the feed category.
func (b *Bolt) Load(_ context.Context, category string) (s Snapshot, err error) {
	if err = b.get(feedsBktName, category, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Save persists the snapshot of the feed category.
func (b *Bolt) Save(_ context.Context, category string, s Snapshot) error {
	if err := b.put(feedsBktName, category, s); err != nil {
		return fmt.Errorf("put feed %s: %w", category, err)
	}
	return nil
}

// Clear removes the persisted snapshot of the feed category.
func (b *Bolt) Clear(_ context.Context, category string) error {
	if err := b.delete(feedsBktName, category); err != nil {
		return fmt.Errorf("delete feed %s: %w", category, err)
	}
	return nil
}

// ClearAll removes snapshots of all feed categories.
func (b *Bolt) ClearAll(context.Context) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(feedsBktName)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("drop bucket: %w", err)
		}
		if _, err := tx.CreateBucket([]byte(feedsBktName)); err != nil {
			return fmt.Errorf("recreate bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}
	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) put(bktName, key string, v any) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bktName))

		bts, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}

		if err := bkt.Put([]byte(key), bts); err != nil {
			return fmt.Errorf("put to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

func (b *Bolt) get(bktName, key string, v any) error {
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bktName))

		bts := bkt.Get([]byte(key))
		if bts == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(bts, v); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("view storage: %w", err)
	}

	return nil
}

func (b *Bolt) delete(bktName, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bktName)).Delete([]byte(key)); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}
	return nil
}
