package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/godivatech/contentsync/internal/ident"
	"github.com/godivatech/contentsync/internal/models"
)

// parsePayload разбирает JSON-аргумент команды в поля записи
func parsePayload(raw string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("payload must be a non-empty JSON object")
	}
	return payload, nil
}

// recordID возвращает отображаемый идентификатор записи: каноническую
// идентичность, а до подтверждения сервером — временную
func recordID(rec *models.Record) string {
	if id, err := ident.Canonical(rec.Fields); err == nil {
		return id
	}
	return rec.TempID
}

// printRecord печатает запись с полями в стабильном порядке
func (c *Cli) printRecord(rec *models.Record) {
	c.io.Printf("ID: %s", recordID(rec))
	if rec.PendingSync {
		c.io.Printf("  (pending sync)")
	} else if rec.IsSyncing {
		c.io.Printf("  (syncing)")
	}
	c.io.Println()

	keys := make([]string, 0, len(rec.Fields))
	for key := range rec.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == models.TempIDField {
			continue
		}
		c.io.Printf("   %s: %v\n", key, rec.Fields[key])
	}
}
