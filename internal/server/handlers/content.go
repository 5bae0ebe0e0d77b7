package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/godivatech/contentsync/internal/models"
	"github.com/godivatech/contentsync/internal/server/storage"
	"github.com/godivatech/contentsync/pkg/api"
)

// Broadcaster рассылает события изменения контента подписчикам feed
type Broadcaster interface {
	Broadcast(msg api.ChangeMessage)
}

// ContentHandler обрабатывает CRUD запросы контент-эндпоинта
type ContentHandler struct {
	storage storage.ContentStorage
	ledger  storage.OpLedger
	feed    Broadcaster
	logger  *slog.Logger
}

// NewContentHandler создает handler контент-эндпоинта
func NewContentHandler(contentStorage storage.ContentStorage, ledger storage.OpLedger, feed Broadcaster, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		storage: contentStorage,
		ledger:  ledger,
		feed:    feed,
		logger:  logger,
	}
}

// List обрабатывает GET /api/v1/content/{collection}
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	records, err := h.storage.ListRecords(r.Context(), collection)
	if err != nil {
		h.logger.Error("failed to list records", "collection", collection, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list records")
		return
	}

	writeJSON(w, http.StatusOK, api.ListResponse{Records: records})
}

// Create обрабатывает POST /api/v1/content/{collection}
//
// Непустой заголовок X-Op-ID делает операцию идемпотентной: повтор с
// тем же значением получает сохранённый ответ, записи-дубликата не
// возникает.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	opID := r.Header.Get(api.HeaderOpID)

	if h.replayFromLedger(w, r, opID) {
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	// Временный id клиента не хранится, но эхом возвращается в ответе
	// и в событии feed, чтобы клиент сопоставил запись со своей
	tempID, _ := payload[models.TempIDField].(string)
	delete(payload, models.TempIDField)

	if len(payload) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "payload is required")
		return
	}

	record, err := h.storage.CreateRecord(r.Context(), collection, payload)
	if err != nil {
		h.logger.Error("failed to create record", "collection", collection, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create record")
		return
	}

	if tempID != "" {
		record[models.TempIDField] = tempID
	}

	h.recordOp(r.Context(), opID, http.StatusCreated, record)
	h.broadcast(collection, api.ChangeCreated, record)
	writeJSON(w, http.StatusCreated, record)
}

// Update обрабатывает PUT /api/v1/content/{collection}/{id}
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]
	opID := r.Header.Get(api.HeaderOpID)

	if h.replayFromLedger(w, r, opID) {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	delete(patch, models.TempIDField)

	if len(patch) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "patch is required")
		return
	}

	record, err := h.storage.UpdateRecord(r.Context(), collection, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "record not found: "+id)
			return
		}
		h.logger.Error("failed to update record", "collection", collection, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update record")
		return
	}

	h.recordOp(r.Context(), opID, http.StatusOK, record)
	h.broadcast(collection, api.ChangeUpdated, record)
	writeJSON(w, http.StatusOK, record)
}

// Delete обрабатывает DELETE /api/v1/content/{collection}/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]
	opID := r.Header.Get(api.HeaderOpID)

	if h.replayFromLedger(w, r, opID) {
		return
	}

	// Запись читается до удаления: событию feed нужны оба идентификатора
	record, err := h.storage.GetRecord(r.Context(), collection, id)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "record not found: "+id)
			return
		}
		h.logger.Error("failed to load record for delete", "collection", collection, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete record")
		return
	}

	if err := h.storage.DeleteRecord(r.Context(), collection, id); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "record not found: "+id)
			return
		}
		h.logger.Error("failed to delete record", "collection", collection, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete record")
		return
	}

	h.recordOp(r.Context(), opID, http.StatusNoContent, nil)
	h.broadcast(collection, api.ChangeDeleted, record)
	w.WriteHeader(http.StatusNoContent)
}

// replayFromLedger отдаёт сохранённый ответ, если операция с таким opId
// уже выполнялась. Возвращает true, если ответ записан.
func (h *ContentHandler) replayFromLedger(w http.ResponseWriter, r *http.Request, opID string) bool {
	if opID == "" {
		return false
	}

	result, err := h.ledger.GetOp(r.Context(), opID)
	if err != nil {
		if !errors.Is(err, storage.ErrOpNotFound) {
			h.logger.Error("failed to check op ledger", "op_id", opID, "error", err)
		}
		return false
	}

	h.logger.Info("replaying recorded operation", "op_id", opID, "status", result.Status)

	if len(result.Body) == 0 {
		w.WriteHeader(result.Status)
		return true
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.Status)
	_, _ = w.Write(result.Body)
	return true
}

// recordOp сохраняет результат мутации в журнал идемпотентности.
// Ошибка журнала не ломает уже выполненную мутацию.
func (h *ContentHandler) recordOp(ctx context.Context, opID string, status int, body any) {
	if opID == "" {
		return
	}

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			h.logger.Error("failed to marshal op result", "op_id", opID, "error", err)
			return
		}
	}

	if err := h.ledger.SaveOp(ctx, opID, &models.OpResult{Status: status, Body: raw}); err != nil {
		h.logger.Error("failed to record operation", "op_id", opID, "error", err)
	}
}

// broadcast шлёт событие в change feed
func (h *ContentHandler) broadcast(collection string, action api.ChangeAction, data map[string]any) {
	h.feed.Broadcast(api.ChangeMessage{
		Type:      api.FeedType(collection, action),
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// writeJSON пишет JSON ответ
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError пишет JSON ошибку
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: code, Message: message})
}
