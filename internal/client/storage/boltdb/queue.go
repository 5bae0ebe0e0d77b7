package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/godivatech/contentsync/internal/client/storage"
	"github.com/godivatech/contentsync/internal/models"
)

// keySnapshot ключ, под которым лежит полный снимок очереди
var keySnapshot = []byte("snapshot")

// SaveQueue атомарно перезаписывает снимок offline-очереди
func (s *Storage) SaveQueue(ctx context.Context, ops []*models.QueuedOperation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		// Сериализуем очередь целиком
		data, err := json.Marshal(ops)
		if err != nil {
			return fmt.Errorf("failed to marshal queue snapshot: %w", err)
		}

		if err := bucket.Put(keySnapshot, data); err != nil {
			return fmt.Errorf("failed to save queue snapshot: %w", err)
		}

		return nil
	})
}

// LoadQueue читает последний сохранённый снимок очереди
func (s *Storage) LoadQueue(ctx context.Context) ([]*models.QueuedOperation, error) {
	var ops []*models.QueuedOperation

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		data := bucket.Get(keySnapshot)
		if data == nil {
			return storage.ErrSnapshotNotFound
		}

		if err := json.Unmarshal(data, &ops); err != nil {
			return fmt.Errorf("failed to unmarshal queue snapshot: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return ops, nil
}
