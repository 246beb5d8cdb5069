package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// DiskStore persists each key as a JSON file named after the SHA-256 of the
// key, fanned out into two-character subdirectories.
type DiskStore struct {
	dir string
}

type diskRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewDiskStore creates the store directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("disk store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(key string) string {
	name := hashKey(key)
	return filepath.Join(s.dir, name[:2], name+".json")
}

func (s *DiskStore) Get(_ context.Context, key string) (string, error) {
	rec, err := readRecord(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if rec.Key != key {
		// hash collision, treat as absent
		return "", ErrNotFound
	}
	return rec.Value, nil
}

func (s *DiskStore) Set(_ context.Context, key, value string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return diskErr(err)
	}

	data, err := json.Marshal(diskRecord{Key: key, Value: value})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return diskErr(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return diskErr(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return diskErr(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return diskErr(err)
	}

	logrus.Debugf("Stored %s", path)
	return nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Keys reads every record under the store directory.
func (s *DiskStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		rec, err := readRecord(path)
		if err != nil {
			logrus.Warnf("Skipping unreadable store file %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(rec.Key, prefix) {
			keys = append(keys, rec.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func readRecord(path string) (diskRecord, error) {
	var rec diskRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// diskErr maps a full disk to ErrQuotaExceeded.
func diskErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}

var _ Store = (*DiskStore)(nil)
