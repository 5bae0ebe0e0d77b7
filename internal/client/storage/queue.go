package storage

import (
	"context"

	"github.com/godivatech/contentsync/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage определяет durable-хранилище offline-очереди.
// Очередь сохраняется целиком, единым снимком: каждая мутация очереди
// немедленно перезаписывает снимок, чтобы пережить внезапное завершение
// процесса.
type QueueStorage interface {
	// SaveQueue атомарно перезаписывает снимок очереди
	SaveQueue(ctx context.Context, ops []*models.QueuedOperation) error

	// LoadQueue читает последний сохранённый снимок.
	// Возвращает ErrSnapshotNotFound, если снимка ещё не было.
	LoadQueue(ctx context.Context) ([]*models.QueuedOperation, error)
}
