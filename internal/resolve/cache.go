package resolve

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Cache TTLs per lookup kind. Listing surfaces change faster than
// individual videos; negative entries expire quickly so recovered
// content reappears.
const (
	VideoTTL    = 10 * time.Minute
	ListingTTL  = 2 * time.Minute
	NegativeTTL = 5 * time.Minute
)

var cacheBucket = []byte("resolutions")

// cacheEntry is the stored envelope. Negative entries record a
// permanent miss instead of a payload.
type cacheEntry struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Negative  bool            `json:"negative,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Cache is a persistent TTL cache for resolution results. Entries are
// immutable once written; a re-fetch overwrites with a fresh envelope.
type Cache struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenCache opens or creates the cache file.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open resolution cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize resolution cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close releases the cache file.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// get loads a live entry. The second return reports a hit; a hit with
// negative=true means the key is known missing.
func (c *Cache) get(key string, out any) (hit, negative bool) {
	if c == nil {
		return false, false
	}
	var entry cacheEntry
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(key))
		if raw == nil {
			return errMiss
		}
		return json.Unmarshal(raw, &entry)
	})
	if err != nil || c.now().After(entry.ExpiresAt) {
		return false, false
	}
	if entry.Negative {
		return true, true
	}
	if out != nil {
		if err := json.Unmarshal(entry.Payload, out); err != nil {
			return false, false
		}
	}
	return true, false
}

// put stores a successful result under key for ttl.
func (c *Cache) put(key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.write(key, cacheEntry{ExpiresAt: c.now().Add(ttl), Payload: payload})
}

// putNegative records a permanent miss under key.
func (c *Cache) putNegative(key string) {
	if c == nil {
		return
	}
	c.write(key, cacheEntry{ExpiresAt: c.now().Add(NegativeTTL), Negative: true})
}

func (c *Cache) write(key string, entry cacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Cache writes are best effort; a failed write only costs a
	// re-fetch.
	_ = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), raw)
	})
}

// Purge drops expired entries. The daemon calls this periodically so
// the file does not grow without bound.
func (c *Cache) Purge() error {
	if c == nil {
		return nil
	}
	now := c.now()
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(cacheBucket)
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry cacheEntry
			if json.Unmarshal(v, &entry) != nil || now.After(entry.ExpiresAt) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var errMiss = fmt.Errorf("cache miss")
