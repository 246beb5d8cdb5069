package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lafaom-mao/apilocale/store"
)

// record is the persisted translation, {"translation": ..., "timestamp": epoch ms}.
type record struct {
	Translation string `json:"translation"`
	Timestamp   int64  `json:"timestamp"`
}

// PersistentCache stores translations in a store.Store under a key prefix.
// Records older than the validity window are deleted when next read.
type PersistentCache struct {
	store  store.Store
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewPersistentCache creates a persistent tier. ttl <= 0 keeps records forever.
func NewPersistentCache(s store.Store, prefix string, ttl time.Duration, opts ...Option) *PersistentCache {
	o := buildOptions(opts)
	return &PersistentCache{
		store:  s,
		prefix: prefix,
		ttl:    max(ttl, 0),
		now:    o.now,
		logger: logrus.WithField("component", "translation-store"),
	}
}

// Get reads and validates a record. Store errors are logged and reported as a miss.
func (c *PersistentCache) Get(ctx context.Context, key string) (string, bool) {
	rec, ok, _ := c.read(ctx, c.prefix+key)
	if !ok {
		return "", false
	}
	return rec.Translation, true
}

// Set writes a record stamped with the current time.
func (c *PersistentCache) Set(ctx context.Context, key string, value string) error {
	data, err := json.Marshal(record{
		Translation: value,
		Timestamp:   c.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.prefix+key, string(data))
}

// Entries lists every valid record, keyed without the prefix.
func (c *PersistentCache) Entries(ctx context.Context) (map[string]string, error) {
	keys, err := c.store.Keys(ctx, c.prefix)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for _, full := range keys {
		if rec, ok, _ := c.read(ctx, full); ok {
			result[full[len(c.prefix):]] = rec.Translation
		}
	}
	return result, nil
}

// Purge deletes every expired or undecodable record and returns how many were removed.
func (c *PersistentCache) Purge(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, c.prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, full := range keys {
		if _, _, deleted := c.read(ctx, full); deleted {
			removed++
		}
	}
	return removed, nil
}

// read loads a record, deleting it when expired or malformed. deleted
// reports whether the record was actually removed from the store.
func (c *PersistentCache) read(ctx context.Context, fullKey string) (rec record, ok, deleted bool) {
	raw, err := c.store.Get(ctx, fullKey)
	if errors.Is(err, store.ErrNotFound) {
		return rec, false, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", fullKey).Warn("translation store read failed")
		return rec, false, false
	}

	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.WithError(err).WithField("key", fullKey).Warn("dropping malformed translation record")
		return rec, false, c.delete(ctx, fullKey)
	}

	if c.ttl > 0 && c.now().Sub(time.UnixMilli(rec.Timestamp)) >= c.ttl {
		return rec, false, c.delete(ctx, fullKey)
	}

	return rec, true, false
}

func (c *PersistentCache) delete(ctx context.Context, fullKey string) bool {
	if err := c.store.Delete(ctx, fullKey); err != nil {
		c.logger.WithError(err).WithField("key", fullKey).Warn("translation store delete failed")
		return false
	}
	return true
}

var _ ExportableCache = (*PersistentCache)(nil)
