package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/godivatech/contentsync/internal/ident"
	"github.com/godivatech/contentsync/internal/server/storage"
)

// ListRecords retrieves all records of a collection in creation order
func (s *Storage) ListRecords(ctx context.Context, collection string) ([]map[string]any, error) {
	query := `
		SELECT id, doc_id, fields
		FROM content_records
		WHERE collection = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]map[string]any, 0)
	for rows.Next() {
		var id int64
		var docID, fieldsJSON string
		if err := rows.Scan(&id, &docID, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		record, err := buildRecord(id, docID, fieldsJSON)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// GetRecord retrieves a single record by canonical id (doc_id or numeric id)
func (s *Storage) GetRecord(ctx context.Context, collection, id string) (map[string]any, error) {
	query := `
		SELECT id, doc_id, fields
		FROM content_records
		WHERE collection = ? AND (doc_id = ? OR CAST(id AS TEXT) = ?)
	`

	var numID int64
	var docID, fieldsJSON string
	err := s.db.QueryRowContext(ctx, query, collection, id, id).Scan(&numID, &docID, &fieldsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return buildRecord(numID, docID, fieldsJSON)
}

// CreateRecord inserts a record and returns its stored form.
// Идентификаторы присваивает хранилище: попытка клиента навязать свои
// id/docId молча игнорируется.
func (s *Storage) CreateRecord(ctx context.Context, collection string, fields map[string]any) (map[string]any, error) {
	fieldsJSON, err := json.Marshal(stripIdentifiers(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	docID := uuid.New().String()
	now := time.Now().Unix()

	query := `
		INSERT INTO content_records (doc_id, collection, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, docID, collection, string(fieldsJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return buildRecord(id, docID, string(fieldsJSON))
}

// UpdateRecord applies a partial update and returns the full record
func (s *Storage) UpdateRecord(ctx context.Context, collection, id string, patch map[string]any) (map[string]any, error) {
	query := `
		SELECT id, doc_id, fields
		FROM content_records
		WHERE collection = ? AND (doc_id = ? OR CAST(id AS TEXT) = ?)
	`

	var numID int64
	var docID, fieldsJSON string
	err := s.db.QueryRowContext(ctx, query, collection, id, id).Scan(&numID, &docID, &fieldsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record for update: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("corrupted record fields: %w", err)
	}

	for k, v := range stripIdentifiers(patch) {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged fields: %w", err)
	}

	updateQuery := `
		UPDATE content_records
		SET fields = ?, updated_at = ?
		WHERE id = ?
	`

	if _, err := s.db.ExecContext(ctx, updateQuery, string(merged), time.Now().Unix(), numID); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	return buildRecord(numID, docID, string(merged))
}

// DeleteRecord removes a record
func (s *Storage) DeleteRecord(ctx context.Context, collection, id string) error {
	query := `
		DELETE FROM content_records
		WHERE collection = ? AND (doc_id = ? OR CAST(id AS TEXT) = ?)
	`

	result, err := s.db.ExecContext(ctx, query, collection, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// buildRecord собирает карту записи из строки таблицы: произвольные
// поля из JSON плюс оба серверных идентификатора
func buildRecord(id int64, docID, fieldsJSON string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("corrupted record fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields[ident.FieldID] = id
	fields[ident.FieldDocID] = docID
	return fields, nil
}

// stripIdentifiers убирает поля-идентификаторы из пользовательских данных
func stripIdentifiers(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case ident.FieldID, ident.FieldDocID, ident.FieldLegacy:
			continue
		}
		out[k] = v
	}
	return out
}
