package models

// OpKind тип операции записи
type OpKind string

// Виды операций
const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// QueuedOperation представляет запись, которая не смогла уйти в сеть
// и ожидает повторного проигрывания в offline-очереди.
type QueuedOperation struct {
	Payload    map[string]any `json:"payload,omitempty"`
	OpID       string         `json:"op_id"`      // локально сгенерированный уникальный id
	Collection string         `json:"collection"` // целевая коллекция
	TargetID   string         `json:"target_id,omitempty"`
	TempID     string         `json:"temp_id,omitempty"` // корреляционный токен для create
	Kind       OpKind         `json:"kind"`
	Timestamp  int64          `json:"timestamp"` // unix ms, порядок проигрывания
	RetryCount int            `json:"retry_count"`
}
