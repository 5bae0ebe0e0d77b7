package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godivatech/contentsync/internal/models"
	"github.com/godivatech/contentsync/internal/server/storage"
)

// GetOp retrieves a recorded operation result
func (s *Storage) GetOp(ctx context.Context, opID string) (*models.OpResult, error) {
	query := `SELECT status, body FROM op_ledger WHERE op_id = ?`

	result := &models.OpResult{}
	var body string
	err := s.db.QueryRowContext(ctx, query, opID).Scan(&result.Status, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOpNotFound
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	result.Body = []byte(body)
	return result, nil
}

// SaveOp records an operation result. Повторная запись того же opId
// игнорируется: первый результат остаётся каноническим.
func (s *Storage) SaveOp(ctx context.Context, opID string, result *models.OpResult) error {
	query := `
		INSERT INTO op_ledger (op_id, status, body, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(op_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, opID, result.Status, string(result.Body), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}

	return nil
}
