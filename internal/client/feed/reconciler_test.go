package feed

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/godivatech/contentsync/internal/client/api"
	"github.com/godivatech/contentsync/internal/client/executor"
	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/view"
	"github.com/godivatech/contentsync/internal/clock"
	"github.com/godivatech/contentsync/internal/models"
	"github.com/godivatech/contentsync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestReconciler(t *testing.T, apiMock *clientapi.ClientAPIMock, debounce time.Duration) (*Reconciler, *view.Store) {
	t.Helper()

	logger := testLogger()
	monitor := netmon.New(true, nil, netmon.Config{}, logger)
	exec := executor.New(monitor, executor.Config{MaxAttempts: 1, RequestTimeout: time.Second}, logger)
	store := view.NewStore()

	r := NewReconciler(apiMock, exec, store, clock.New(), debounce, logger)
	t.Cleanup(r.Stop)
	return r, store
}

func TestApply_CreatedInsertsRecord(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	r.Apply(api.ChangeMessage{
		Type:      "projects_created",
		Data:      map[string]any{"id": float64(1), "title": "remote"},
		Timestamp: time.Now().UnixMilli(),
	})

	rec, ok := store.Get("projects", "1")
	require.True(t, ok)
	assert.Equal(t, "remote", rec.Fields["title"])
}

func TestApply_CreatedEchoDeduplicated(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	// Собственная оптимистичная запись ждёт подтверждения
	store.Insert("projects", &models.Record{
		Collection:   "projects",
		Fields:       map[string]any{models.TempIDField: "temp-1", "title": "draft"},
		TempID:       "temp-1",
		IsOptimistic: true,
	})

	// Эхо нашего create пришло раньше HTTP-ответа
	r.Apply(api.ChangeMessage{
		Type: "projects_created",
		Data: map[string]any{
			"id": float64(42), "title": "draft",
			models.TempIDField: "temp-1",
		},
		Timestamp: time.Now().UnixMilli(),
	})

	// Ровно одна запись: временная заменена канонической
	assert.Equal(t, 1, store.Len("projects"))
	rec, ok := store.Get("projects", "42")
	require.True(t, ok)
	assert.Equal(t, "temp-1", rec.TempID)
}

func TestApply_CreatedDuplicateByIdentity(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	store.Insert("projects", &models.Record{
		Collection: "projects",
		Fields:     map[string]any{"id": float64(7), "title": "already here"},
	})

	r.Apply(api.ChangeMessage{
		Type:      "projects_created",
		Data:      map[string]any{"id": float64(7), "title": "server copy"},
		Timestamp: time.Now().UnixMilli(),
	})

	assert.Equal(t, 1, store.Len("projects"))
	rec, _ := store.Get("projects", "7")
	assert.Equal(t, "server copy", rec.Fields["title"])
}

func TestApply_UpdatedReplacesOlderLocal(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	store.Insert("projects", &models.Record{
		Collection:     "projects",
		Fields:         map[string]any{"id": float64(5), "title": "old"},
		LocalTimestamp: time.Now().Add(-time.Minute),
	})

	r.Apply(api.ChangeMessage{
		Type:      "projects_updated",
		Data:      map[string]any{"id": float64(5), "title": "fresh"},
		Timestamp: time.Now().UnixMilli(),
	})

	rec, _ := store.Get("projects", "5")
	assert.Equal(t, "fresh", rec.Fields["title"])
}

func TestApply_UpdatedLosesToNewerLocal(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	// Локальная правка новее события
	store.Insert("projects", &models.Record{
		Collection:     "projects",
		Fields:         map[string]any{"id": float64(5), "title": "local edit"},
		LocalTimestamp: time.Now(),
	})

	r.Apply(api.ChangeMessage{
		Type:      "projects_updated",
		Data:      map[string]any{"id": float64(5), "title": "stale server"},
		Timestamp: time.Now().Add(-time.Minute).UnixMilli(),
	})

	rec, _ := store.Get("projects", "5")
	assert.Equal(t, "local edit", rec.Fields["title"])
}

func TestApply_UpdatedLosesToPendingLocal(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	// Запись ждёт в offline-очереди: её правка ещё не на сервере
	store.Insert("projects", &models.Record{
		Collection:     "projects",
		Fields:         map[string]any{"id": float64(5), "title": "queued edit"},
		PendingSync:    true,
		LocalTimestamp: time.Now().Add(-time.Hour),
	})

	r.Apply(api.ChangeMessage{
		Type:      "projects_updated",
		Data:      map[string]any{"id": float64(5), "title": "server"},
		Timestamp: time.Now().UnixMilli(),
	})

	rec, _ := store.Get("projects", "5")
	assert.Equal(t, "queued edit", rec.Fields["title"])
}

func TestApply_UpdatedUnknownRecordInserted(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	r.Apply(api.ChangeMessage{
		Type:      "projects_updated",
		Data:      map[string]any{"id": float64(9), "title": "first sight"},
		Timestamp: time.Now().UnixMilli(),
	})

	rec, ok := store.Get("projects", "9")
	require.True(t, ok)
	assert.Equal(t, "first sight", rec.Fields["title"])
}

func TestApply_DeletedIdempotent(t *testing.T) {
	r, store := newTestReconciler(t, &clientapi.ClientAPIMock{}, 0)

	store.Insert("projects", &models.Record{
		Collection: "projects",
		Fields:     map[string]any{"id": float64(5)},
	})

	msg := api.ChangeMessage{
		Type:      "projects_deleted",
		Data:      map[string]any{"id": float64(5)},
		Timestamp: time.Now().UnixMilli(),
	}

	r.Apply(msg)
	assert.Zero(t, store.Len("projects"))

	// Повторное событие удаления ничего не ломает
	r.Apply(msg)
	assert.Zero(t, store.Len("projects"))
}

func TestApply_MalformedTypeIgnored(t *testing.T) {
	var listCalls atomic.Int32
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			listCalls.Add(1)
			return nil, nil
		},
	}
	r, store := newTestReconciler(t, apiMock, 10*time.Millisecond)

	r.Apply(api.ChangeMessage{Type: "garbage", Data: map[string]any{"id": float64(1)}})
	r.Apply(api.ChangeMessage{Type: "projects_exploded", Data: map[string]any{"id": float64(1)}})

	assert.Zero(t, store.Len("projects"))

	// Мусорное событие не взводит и пересинхронизацию
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, listCalls.Load())
}

func TestApply_SchedulesResyncBackstop(t *testing.T) {
	var listCalls atomic.Int32
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			listCalls.Add(1)
			return []map[string]any{{"id": float64(5), "title": "authoritative"}}, nil
		},
	}
	r, store := newTestReconciler(t, apiMock, 20*time.Millisecond)

	// Обычное событие применяется быстрым путём...
	r.Apply(api.ChangeMessage{
		Type:      "projects_updated",
		Data:      map[string]any{"id": float64(5), "title": "fast path"},
		Timestamp: time.Now().UnixMilli(),
	})

	rec, ok := store.Get("projects", "5")
	require.True(t, ok)
	assert.Equal(t, "fast path", rec.Fields["title"])

	// ...но само по себе не считается достаточным: вслед за ним
	// приходит полная пересинхронизация коллекции с сервера
	assert.Eventually(t, func() bool {
		return listCalls.Load() > 0
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		rec, ok := store.Get("projects", "5")
		return ok && rec.Fields["title"] == "authoritative"
	}, time.Second, 5*time.Millisecond)
}

func TestSchedule_DebouncesStorm(t *testing.T) {
	var listCalls atomic.Int32
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			listCalls.Add(1)
			return []map[string]any{{"id": float64(1), "title": "synced"}}, nil
		},
	}
	r, store := newTestReconciler(t, apiMock, 30*time.Millisecond)

	// Шторм запросов внутри окна debounce сливается в один
	for i := 0; i < 10; i++ {
		r.Schedule("projects")
	}

	assert.Eventually(t, func() bool {
		return listCalls.Load() == 1 && store.Len("projects") == 1
	}, time.Second, 5*time.Millisecond)

	// Дополнительных запросов не случилось
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), listCalls.Load())
}

func TestResync_PreservesPendingRecords(t *testing.T) {
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			return []map[string]any{{"id": float64(1), "title": "server"}}, nil
		},
	}
	r, store := newTestReconciler(t, apiMock, 0)

	store.Insert("projects", &models.Record{
		Collection:   "projects",
		Fields:       map[string]any{models.TempIDField: "temp-1", "title": "queued"},
		TempID:       "temp-1",
		IsOptimistic: true,
		PendingSync:  true,
	})

	require.NoError(t, r.Resync(context.Background(), "projects"))

	assert.Equal(t, 2, store.Len("projects"))
	_, ok := store.GetByTempID("projects", "temp-1")
	assert.True(t, ok, "unsynced record survives resync")
}

func TestResync_PropagatesError(t *testing.T) {
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			return nil, clientapi.FromStatus(http.StatusInternalServerError, "boom")
		},
	}
	r, _ := newTestReconciler(t, apiMock, 0)

	err := r.Resync(context.Background(), "projects")
	require.Error(t, err)
	assert.Equal(t, clientapi.KindServer, clientapi.KindOf(err))
}

func TestStop_CancelsScheduledResync(t *testing.T) {
	var listCalls atomic.Int32
	apiMock := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, collection string) ([]map[string]any, error) {
			listCalls.Add(1)
			return nil, nil
		},
	}
	r, _ := newTestReconciler(t, apiMock, 20*time.Millisecond)

	r.Schedule("projects")
	r.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, listCalls.Load())
}
