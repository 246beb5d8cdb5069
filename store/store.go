// Package store provides the persistent key-value stores backing the
// response cache and the persistent translation tier.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is a string key-value store shared by the whole process. Writes are
// last-writer-wins.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// DeletePrefix removes every key under prefix and returns how many were removed.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
