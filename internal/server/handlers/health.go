package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pinger проверяет доступность хранилища; интерфейсу удовлетворяет *sql.DB
type Pinger interface {
	Ping() error
}

// HealthHandler обрабатывает health check запросы. Клиенты используют
// этот эндпоинт и как замер латентности для определения degraded-сети.
type HealthHandler struct {
	logger *slog.Logger
	db     Pinger
}

// NewHealthHandler создает новый handler для health check.
// db может быть nil, тогда проверяется только живость процесса.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// WithStorage добавляет проверку доступности хранилища
func (h *HealthHandler) WithStorage(db Pinger) *HealthHandler {
	h.db = db
	return h
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := HealthResponse{
		Status:  "ok",
		Version: "dev", // TODO: получать из build-time переменной
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Error("storage health check failed", "error", err)
			status = http.StatusServiceUnavailable
			resp.Status = "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
