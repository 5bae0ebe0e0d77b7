package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/queue"
	"github.com/godivatech/contentsync/internal/client/storage"
	"github.com/godivatech/contentsync/internal/clock"
	"github.com/godivatech/contentsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()

	store := &storage.QueueStorageMock{
		SaveQueueFunc: func(ctx context.Context, ops []*models.QueuedOperation) error { return nil },
		LoadQueueFunc: func(ctx context.Context) ([]*models.QueuedOperation, error) {
			return nil, storage.ErrSnapshotNotFound
		},
	}
	q, err := queue.New(context.Background(), store, clock.New(), queue.Config{}, testLogger())
	require.NoError(t, err)
	return q
}

func metaMock() (*storage.MetadataStorageMock, func(key string) string, func(key, value string)) {
	values := map[string]string{}
	var mu sync.Mutex

	mock := &storage.MetadataStorageMock{
		SaveMetaFunc: func(ctx context.Context, key, value string) error {
			mu.Lock()
			defer mu.Unlock()
			values[key] = value
			return nil
		},
		GetMetaFunc: func(ctx context.Context, key string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if v, ok := values[key]; ok {
				return v, nil
			}
			return "", storage.ErrMetaNotFound
		},
		DeleteMetaFunc: func(ctx context.Context, key string) error {
			mu.Lock()
			defer mu.Unlock()
			delete(values, key)
			return nil
		},
	}
	get := func(key string) string {
		mu.Lock()
		defer mu.Unlock()
		return values[key]
	}
	set := func(key, value string) {
		mu.Lock()
		defer mu.Unlock()
		values[key] = value
	}
	return mock, get, set
}

func TestDrain_ReplaysQueuedOperations(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, &models.QueuedOperation{Collection: "projects", Kind: models.OpCreate})
	q.Enqueue(ctx, &models.QueuedOperation{Collection: "projects", Kind: models.OpUpdate, TargetID: "1"})

	meta, getMeta, _ := metaMock()
	monitor := netmon.New(true, nil, netmon.Config{}, testLogger())

	replayed := 0
	svc := NewService(q, func(ctx context.Context, op *models.QueuedOperation) error {
		replayed++
		return nil
	}, monitor, meta, nil, testLogger())

	result := svc.Drain(ctx)

	assert.Len(t, result.Processed, 2)
	assert.Equal(t, 2, replayed)
	assert.Zero(t, svc.PendingCount())
	assert.NotEmpty(t, getMeta("last_drain_at"), "successful drain leaves a timestamp")
}

func TestStart_DrainsOnReconnect(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, &models.QueuedOperation{Collection: "projects", Kind: models.OpCreate})

	meta, _, _ := metaMock()
	monitor := netmon.New(false, nil, netmon.Config{}, testLogger())

	replayed := make(chan struct{})
	svc := NewService(q, func(ctx context.Context, op *models.QueuedOperation) error {
		close(replayed)
		return nil
	}, monitor, meta, nil, testLogger())

	stop := svc.Start(ctx)
	defer stop()

	// Возврат сети запускает проигрывание
	monitor.SetOnline(true)

	select {
	case <-replayed:
	case <-time.After(time.Second):
		t.Fatal("queue was not drained after reconnect")
	}
}

func TestStart_DegradedDoesNotDrain(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, &models.QueuedOperation{Collection: "projects", Kind: models.OpCreate})

	meta, _, _ := metaMock()
	monitor := netmon.New(false, nil, netmon.Config{}, testLogger())

	svc := NewService(q, func(ctx context.Context, op *models.QueuedOperation) error {
		t.Error("replay must not run on degraded transition")
		return nil
	}, monitor, meta, nil, testLogger())

	stop := svc.Start(ctx)
	defer stop()

	// Деградация — не повод проигрывать очередь: сеть ещё не online
	monitor.SetStatus(models.StatusDegraded)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, svc.PendingCount())
}

func TestDrain_ReportsLostOperations(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	opID := q.Enqueue(ctx, &models.QueuedOperation{Collection: "projects", Kind: models.OpCreate})

	meta, _, _ := metaMock()
	monitor := netmon.New(true, nil, netmon.Config{}, testLogger())

	var lost []string
	svc := NewService(q, func(ctx context.Context, op *models.QueuedOperation) error {
		return errors.New("permanent failure")
	}, monitor, meta, func(opIDs []string) {
		lost = opIDs
	}, testLogger())

	// Три прохода исчерпывают лимит повторов
	for i := 0; i < 3; i++ {
		svc.Drain(ctx)
	}

	assert.Equal(t, []string{opID}, lost)
	assert.Zero(t, svc.PendingCount())
}

func TestLastDrainAt(t *testing.T) {
	q := newTestQueue(t)
	meta, _, setMeta := metaMock()
	monitor := netmon.New(true, nil, netmon.Config{}, testLogger())
	svc := NewService(q, nil, monitor, meta, nil, testLogger())

	// Ни одного проигрывания ещё не было
	ts, err := svc.LastDrainAt(context.Background())
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	now := time.Now()
	setMeta("last_drain_at", strconv.FormatInt(now.UnixMilli(), 10))

	ts, err = svc.LastDrainAt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ts.UnixMilli())
}

func TestLastDrainAt_WrappedNotFound(t *testing.T) {
	q := newTestQueue(t)
	meta := &storage.MetadataStorageMock{
		GetMetaFunc: func(ctx context.Context, key string) (string, error) {
			return "", fmt.Errorf("bucket lookup: %w", storage.ErrMetaNotFound)
		},
	}
	monitor := netmon.New(true, nil, netmon.Config{}, testLogger())
	svc := NewService(q, nil, monitor, meta, nil, testLogger())

	// Хранилище вправе обернуть sentinel: это всё ещё «ни одного проигрывания»
	ts, err := svc.LastDrainAt(context.Background())
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestLastDrainAt_Corrupted(t *testing.T) {
	q := newTestQueue(t)
	meta, _, setMeta := metaMock()
	setMeta("last_drain_at", "not-a-number")
	monitor := netmon.New(true, nil, netmon.Config{}, testLogger())
	svc := NewService(q, nil, monitor, meta, nil, testLogger())

	_, err := svc.LastDrainAt(context.Background())
	assert.Error(t, err)
}
