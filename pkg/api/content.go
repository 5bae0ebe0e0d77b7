package api

import (
	"fmt"
	"strings"
)

// ListResponse представляет ответ сервера на GET /api/v1/content/{collection}
type ListResponse struct {
	Records []map[string]any `json:"records"`
}

// ChangeAction тип действия в сообщении change feed
type ChangeAction string

// Возможные действия change feed
const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
)

// ChangeMessage представляет одно push-сообщение change feed.
// Type имеет форму "<collection>_<created|updated|deleted>",
// например "projects_created".
type ChangeMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
	// Timestamp серверное время события (unix ms), используется клиентом
	// для сравнения с локальными оптимистичными правками
	Timestamp int64 `json:"timestamp,omitempty"`
}

// FeedType собирает поле Type сообщения change feed
func FeedType(collection string, action ChangeAction) string {
	return fmt.Sprintf("%s_%s", collection, action)
}

// ParseFeedType разбирает поле Type обратно на коллекцию и действие.
// Имя коллекции может содержать подчёркивания, поэтому разделителем
// считается последний "_".
func ParseFeedType(t string) (collection string, action ChangeAction, ok bool) {
	idx := strings.LastIndex(t, "_")
	if idx <= 0 || idx == len(t)-1 {
		return "", "", false
	}
	collection = t[:idx]
	action = ChangeAction(t[idx+1:])
	switch action {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
		return collection, action, true
	default:
		return "", "", false
	}
}
