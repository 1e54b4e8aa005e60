package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStore implements Store on a single-file bbolt database, one bucket for all keys.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
}

// OpenBolt opens or creates the database at path. timeout bounds the wait for the file lock
// held by another process.
func OpenBolt(path, bucket string, timeout time.Duration) (*BoltStore, error) {
	if bucket == "" {
		return nil, errors.New("bolt bucket name must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}
	return &BoltStore{db: db, bucket: []byte(bucket)}, nil
}

func (b *BoltStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		// the byte slice is only valid inside the transaction, string() copies it
		if v := tx.Bucket(b.bucket).Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, translateBoltErr(err))
	}
	return value, found, nil
}

func (b *BoltStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, translateBoltErr(err))
	}
	return nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

func translateBoltErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}
