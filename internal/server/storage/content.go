package storage

import (
	"context"

	"github.com/godivatech/contentsync/internal/models"
)

// ContentStorage defines interface for content record persistence.
// Записи живут в именованных коллекциях; каждая несёт числовой
// суррогатный id и строковый doc_id, оба пригодны для адресации.
type ContentStorage interface {
	// ListRecords retrieves all records of a collection in creation order.
	// Returns empty slice if collection is empty or unknown.
	ListRecords(ctx context.Context, collection string) ([]map[string]any, error)

	// GetRecord retrieves a single record by canonical id (doc_id or
	// numeric id). Returns ErrRecordNotFound if record doesn't exist.
	GetRecord(ctx context.Context, collection, id string) (map[string]any, error)

	// CreateRecord inserts a record and returns its stored form with
	// server-assigned identifiers merged in.
	CreateRecord(ctx context.Context, collection string, fields map[string]any) (map[string]any, error)

	// UpdateRecord applies a partial update and returns the full record.
	// Returns ErrRecordNotFound if record doesn't exist.
	UpdateRecord(ctx context.Context, collection, id string, patch map[string]any) (map[string]any, error)

	// DeleteRecord removes a record. Returns ErrRecordNotFound if record
	// doesn't exist.
	DeleteRecord(ctx context.Context, collection, id string) error
}

// OpLedger defines interface for the idempotency ledger. Мутация с
// непустым X-Op-ID записывает сюда свой результат; повтор той же
// операции получает сохранённый ответ вместо повторного исполнения.
type OpLedger interface {
	// GetOp retrieves a recorded operation result.
	// Returns ErrOpNotFound if operation was never recorded.
	GetOp(ctx context.Context, opID string) (*models.OpResult, error)

	// SaveOp records an operation result. Saving the same opID twice is
	// not an error; the first record wins.
	SaveOp(ctx context.Context, opID string, result *models.OpResult) error
}
