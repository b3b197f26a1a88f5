package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

var sessionBucket = []byte("Session")

// BoltStorage keeps the session in a single-file bbolt database.
type BoltStorage struct {
	db     *bbolt.DB
	logger zerolog.Logger
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string, logger zerolog.Logger) (*BoltStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt storage path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt storage: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	logger.Debug().Str("component", "bolt_storage").Str("path", path).Msg("session storage ready")

	return &BoltStorage{
		db:     db,
		logger: logger.With().Str("component", "bolt_storage").Logger(),
	}, nil
}

func (s *BoltStorage) Get(_ context.Context, key string) (string, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (s *BoltStorage) Set(_ context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
}

func (s *BoltStorage) Delete(_ context.Context, keys ...string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the file lock.
func (s *BoltStorage) Close() error {
	return s.db.Close()
}
