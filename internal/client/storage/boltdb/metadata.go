package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/godivatech/contentsync/internal/client/storage"
)

// SaveMeta сохраняет служебное значение по ключу
func (s *Storage) SaveMeta(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save meta %q: %w", key, err)
		}

		return nil
	})
}

// GetMeta возвращает служебное значение по ключу
func (s *Storage) GetMeta(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrMetaNotFound
		}

		value = string(data)
		return nil
	})

	if err != nil {
		return "", err
	}

	return value, nil
}

// DeleteMeta удаляет ключ; отсутствие ключа не является ошибкой
func (s *Storage) DeleteMeta(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}

		return bucket.Delete([]byte(key))
	})
}
