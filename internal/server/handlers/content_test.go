package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godivatech/contentsync/internal/server/storage/sqlite"
	"github.com/godivatech/contentsync/pkg/api"
)

type broadcastSpy struct {
	mu       sync.Mutex
	messages []api.ChangeMessage
}

func (b *broadcastSpy) Broadcast(msg api.ChangeMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *broadcastSpy) all() []api.ChangeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) (*httptest.Server, *broadcastSpy) {
	t.Helper()

	logger := setupTestLogger()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	spy := &broadcastSpy{}
	content := NewContentHandler(store, store, spy, logger)
	health := NewHealthHandler(logger)

	srv := httptest.NewServer(NewRouter(content, health, nil, RouterConfig{}, logger))
	t.Cleanup(srv.Close)

	return srv, spy
}

func doRequest(t *testing.T, method, url, opID string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opID != "" {
		req.Header.Set(api.HeaderOpID, opID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestContentCRUDFlow(t *testing.T) {
	srv, spy := newTestServer(t)
	base := srv.URL + "/api/v1/content/projects"

	// Create
	resp, created := doRequest(t, http.MethodPost, base, "", map[string]any{
		"title":   "A",
		"_tempId": "temp-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), created["id"])
	assert.NotEmpty(t, created["docId"])
	assert.Equal(t, "temp-1", created["_tempId"], "temp id echoed back")

	// List
	resp, _ = doRequest(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Update по числовому id
	resp, updated := doRequest(t, http.MethodPut, base+"/1", "", map[string]any{"title": "B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "B", updated["title"])

	// Delete по docId
	docID := created["docId"].(string)
	resp, _ = doRequest(t, http.MethodDelete, base+"/"+docID, "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Запись исчезла
	resp, _ = doRequest(t, http.MethodPut, base+"/1", "", map[string]any{"title": "C"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// События feed: created, updated, deleted
	messages := spy.all()
	require.Len(t, messages, 3)
	assert.Equal(t, "projects_created", messages[0].Type)
	assert.Equal(t, "temp-1", messages[0].Data["_tempId"])
	assert.Equal(t, "projects_updated", messages[1].Type)
	assert.Equal(t, "projects_deleted", messages[2].Type)
	assert.NotEmpty(t, messages[2].Data["docId"], "delete event carries identifiers")
	for _, msg := range messages {
		assert.Positive(t, msg.Timestamp)
	}
}

func TestCreate_IdempotentReplay(t *testing.T) {
	srv, spy := newTestServer(t)
	base := srv.URL + "/api/v1/content/projects"

	first, firstBody := doRequest(t, http.MethodPost, base, "op-77", map[string]any{"title": "A"})
	require.Equal(t, http.StatusCreated, first.StatusCode)

	// Повтор той же операции: тот же ответ, записи-дубликата нет
	second, secondBody := doRequest(t, http.MethodPost, base, "op-77", map[string]any{"title": "A"})
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, firstBody["id"], secondBody["id"])
	assert.Equal(t, firstBody["docId"], secondBody["docId"])

	resp, list := doRequest(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := list["records"].([]any)
	assert.Len(t, records, 1)

	// Повтор не породил второго события feed
	assert.Len(t, spy.all(), 1)
}

func TestCreate_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/content/projects"

	// Пустая полезная нагрузка
	resp, body := doRequest(t, http.MethodPost, base, "", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
}

func TestCreate_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/content/projects", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdate_NotFound(t *testing.T) {
	srv, spy := newTestServer(t)

	resp, body := doRequest(t, http.MethodPut, srv.URL+"/api/v1/content/projects/404", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
	assert.Empty(t, spy.all(), "failed mutation emits no feed event")
}

func TestDelete_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodDelete, srv.URL+"/api/v1/content/projects/404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
