package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/godivatech/contentsync/internal/server/middleware"
)

// RouterConfig параметры сборки маршрутов
type RouterConfig struct {
	// RateLimit максимум запросов с одного IP за окно; 0 отключает лимит
	RateLimit int
	// RateWindow окно rate limit
	RateWindow time.Duration
}

// NewRouter собирает маршруты сервера.
// feed — websocket-эндпоинт change feed; может быть nil в тестах,
// которые его не трогают.
func NewRouter(content *ContentHandler, health *HealthHandler, feed http.Handler, cfg RouterConfig, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RecoveryMiddleware(logger))
	// Health check опрашивается часто и шума в логах не стоит
	r.Use(middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}))

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	if feed != nil {
		apiRouter.Handle("/feed", feed).Methods(http.MethodGet)
	}

	contentRouter := apiRouter.PathPrefix("/content").Subrouter()
	if cfg.RateLimit > 0 {
		contentRouter.Use(middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow, logger))
	}
	contentRouter.HandleFunc("/{collection}", content.List).Methods(http.MethodGet)
	contentRouter.HandleFunc("/{collection}", content.Create).Methods(http.MethodPost)
	contentRouter.HandleFunc("/{collection}/{id}", content.Update).Methods(http.MethodPut)
	contentRouter.HandleFunc("/{collection}/{id}", content.Delete).Methods(http.MethodDelete)

	return r
}
