// Package queue реализует durable-очередь отложенных операций записи.
//
// Операции, выполненные в offline, попадают сюда и проигрываются заново
// при восстановлении сети. Очередь в памяти авторитетна для текущего
// процесса; каждая её мутация синхронно сбрасывает полный снимок в
// durable-хранилище, чтобы пережить внезапное завершение.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/godivatech/contentsync/internal/client/storage"
	"github.com/godivatech/contentsync/internal/clock"
	"github.com/godivatech/contentsync/internal/models"
)

// Executor проигрывает одну операцию очереди против сети
type Executor func(ctx context.Context, op *models.QueuedOperation) error

// Config параметры очереди
type Config struct {
	// Capacity максимальный размер очереди; при переполнении вытесняется
	// самая старая операция
	Capacity int
	// MaxRetries максимум повторов проигрывания одной операции, после
	// которого она отбрасывается и репортится как потерянная запись
	MaxRetries int
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		Capacity:   50,
		MaxRetries: 3,
	}
}

// DrainResult итог одного прохода Drain
type DrainResult struct {
	// Processed операции, успешно проигранные и убранные из очереди
	Processed []string
	// Failed операции, исчерпавшие повторы и отброшенные навсегда.
	// Вызывающий код обязан показать их как потерянные записи.
	Failed []string
}

// Queue durable-очередь отложенных операций
type Queue struct {
	storage  storage.QueueStorage
	clk      *clock.Clock
	logger   *slog.Logger
	ops      []*models.QueuedOperation
	config   Config
	mu       sync.Mutex
	draining bool
}

// New создает очередь и восстанавливает снимок из хранилища.
// Отсутствие снимка означает пустую очередь.
func New(ctx context.Context, store storage.QueueStorage, clk *clock.Clock, cfg Config, logger *slog.Logger) (*Queue, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}

	q := &Queue{
		storage: store,
		clk:     clk,
		config:  cfg,
		logger:  logger,
	}

	ops, err := store.LoadQueue(ctx)
	switch {
	case err == nil:
		q.ops = ops
		// Часы не должны отставать от восстановленных операций
		for _, op := range ops {
			clk.Observe(op.Timestamp)
		}
	case errors.Is(err, storage.ErrSnapshotNotFound):
		// Первый запуск
	default:
		return nil, err
	}

	return q, nil
}

// Enqueue присваивает операции id и timestamp, добавляет её в очередь
// и немедленно сохраняет снимок. Возвращает присвоенный opId.
func (q *Queue) Enqueue(ctx context.Context, op *models.QueuedOperation) string {
	q.mu.Lock()

	op.OpID = uuid.New().String()
	op.Timestamp = q.clk.Now()
	q.ops = append(q.ops, op)

	// При переполнении вытесняется самая старая операция
	if len(q.ops) > q.config.Capacity {
		evicted := q.ops[0]
		q.ops = q.ops[1:]
		q.logger.Warn("queue full, evicting oldest operation",
			"evicted_op_id", evicted.OpID,
			"collection", evicted.Collection,
			"kind", evicted.Kind)
	}

	q.persistLocked(ctx)
	q.mu.Unlock()

	q.logger.Info("operation queued",
		"op_id", op.OpID,
		"collection", op.Collection,
		"kind", op.Kind,
		"queue_len", q.Len())

	return op.OpID
}

// PeekAll возвращает копию очереди в порядке проигрывания
func (q *Queue) PeekAll() []*models.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.QueuedOperation, len(q.ops))
	copy(out, q.ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Len возвращает число операций в очереди
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Drain проигрывает очередь строго последовательно, в порядке
// возрастания timestamp. Параллельного проигрывания нет: update,
// поставленный после create той же записи, не должен выполниться
// раньше него. Повторный вход во время идущего прохода — no-op.
//
// Успешная операция убирается из очереди. Неудачная получает +1 к
// retryCount; исчерпавшая повторы отбрасывается и попадает в Failed,
// остальные остаются, и проход останавливается — очередь не обгоняет
// застрявшую операцию.
func (q *Queue) Drain(ctx context.Context, exec Executor) DrainResult {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return DrainResult{}
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	var result DrainResult

	for {
		if ctx.Err() != nil {
			return result
		}

		q.mu.Lock()
		if len(q.ops) == 0 {
			q.mu.Unlock()
			return result
		}
		sort.SliceStable(q.ops, func(i, j int) bool { return q.ops[i].Timestamp < q.ops[j].Timestamp })
		op := q.ops[0]
		q.mu.Unlock()

		err := exec(ctx, op)

		q.mu.Lock()
		if err == nil {
			q.removeLocked(op.OpID)
			q.persistLocked(ctx)
			q.mu.Unlock()

			result.Processed = append(result.Processed, op.OpID)
			q.logger.Info("queued operation replayed", "op_id", op.OpID, "collection", op.Collection, "kind", op.Kind)
			continue
		}

		op.RetryCount++
		if op.RetryCount >= q.config.MaxRetries {
			// Запись потеряна: больше не повторяем никогда
			q.removeLocked(op.OpID)
			q.persistLocked(ctx)
			q.mu.Unlock()

			result.Failed = append(result.Failed, op.OpID)
			q.logger.Error("queued operation dropped after max retries",
				"op_id", op.OpID,
				"collection", op.Collection,
				"kind", op.Kind,
				"error", err)
			continue
		}

		q.persistLocked(ctx)
		q.mu.Unlock()

		q.logger.Warn("queued operation replay failed, will retry",
			"op_id", op.OpID,
			"retry_count", op.RetryCount,
			"error", err)
		return result
	}
}

// removeLocked убирает операцию по opId; вызывается под мьютексом
func (q *Queue) removeLocked(opID string) {
	for i, op := range q.ops {
		if op.OpID == opID {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return
		}
	}
}

// persistLocked сбрасывает снимок очереди. Ошибка персистентности
// логируется и глотается: in-memory очередь остаётся авторитетной для
// текущего процесса, и ронять операцию вызывающего из-за диска нельзя.
func (q *Queue) persistLocked(ctx context.Context) {
	snapshot := make([]*models.QueuedOperation, len(q.ops))
	copy(snapshot, q.ops)

	if err := q.storage.SaveQueue(ctx, snapshot); err != nil {
		q.logger.Error("failed to persist queue snapshot", "error", err, "queue_len", len(snapshot))
	}
}
