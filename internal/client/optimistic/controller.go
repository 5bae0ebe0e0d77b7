// Package optimistic реализует контроллер оптимистичных мутаций.
//
// Каждая мутация немедленно применяется к локальному отображению, а
// затем подтверждается сервером, откатывается или уходит в durable
// очередь, если сеть недоступна. Мутации одной записи сериализованы:
// вторая правка той же записи ждёт исхода первой.
package optimistic

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/godivatech/contentsync/internal/client/api"
	"github.com/godivatech/contentsync/internal/client/executor"
	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/queue"
	"github.com/godivatech/contentsync/internal/client/view"
	"github.com/godivatech/contentsync/internal/clock"
	"github.com/godivatech/contentsync/internal/ident"
	"github.com/godivatech/contentsync/internal/models"
)

// ResyncScheduler планирует отложенную полную пересинхронизацию
// коллекции. Реализуется change-feed реконсилятором.
type ResyncScheduler interface {
	Schedule(collection string)
}

// Controller управляет жизненным циклом оптимистичных мутаций
type Controller struct {
	api     api.ClientAPI
	exec    *executor.Executor
	queue   *queue.Queue
	view    *view.Store
	monitor *netmon.Monitor
	clk     *clock.Clock
	logger  *slog.Logger
	resync  ResyncScheduler

	// locks сериализует мутации по записям: ключ — каноническая или
	// временная идентичность записи
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// New создает контроллер
func New(
	apiClient api.ClientAPI,
	exec *executor.Executor,
	q *queue.Queue,
	store *view.Store,
	monitor *netmon.Monitor,
	clk *clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		api:     apiClient,
		exec:    exec,
		queue:   q,
		view:    store,
		monitor: monitor,
		clk:     clk,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// SetResyncScheduler подключает планировщик пересинхронизации.
// Вызывается один раз при сборке клиента; до подключения поврежденные
// сценарии обходятся без backstop.
func (c *Controller) SetResyncScheduler(r ResyncScheduler) {
	c.resync = r
}

// View возвращает локальное отображение коллекций
func (c *Controller) View() *view.Store {
	return c.view
}

// Create оптимистично создает запись.
//
// Запись с временным id появляется в отображении немедленно. Online —
// подтверждение сервера атомарно заменяет её канонической версией;
// отказ убирает её без следа. Offline — операция уходит в очередь, а
// запись остается видимой с флагом pending sync.
func (c *Controller) Create(ctx context.Context, collection string, payload map[string]any) (*models.Record, error) {
	tempID := "temp-" + uuid.New().String()

	fields := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	// Временный id кладётся в сами поля: сервер вернёт его эхом, и
	// событие change feed можно будет сопоставить с этой записью
	fields[models.TempIDField] = tempID

	rec := &models.Record{
		Collection:     collection,
		Fields:         fields,
		TempID:         tempID,
		IsOptimistic:   true,
		LocalTimestamp: time.UnixMilli(c.clk.Now()),
	}

	unlock := c.lockRecord(collection, tempID)
	defer unlock()

	c.view.Insert(collection, rec)

	if c.monitor.Offline() {
		return c.deferCreate(ctx, collection, tempID, fields)
	}

	opID := uuid.New().String()
	var created map[string]any
	err := c.exec.Execute(ctx, collection+":create", func(ctx context.Context) error {
		var callErr error
		created, callErr = c.api.Create(ctx, collection, opID, fields)
		return callErr
	})
	if err != nil {
		if offlineError(err) && c.monitor.Offline() {
			// Сеть пропала между проверкой и вызовом
			return c.deferCreate(ctx, collection, tempID, fields)
		}
		// Откат: оптимистичная запись исчезает без следа
		c.view.RemoveByTempID(collection, tempID)
		c.logger.Warn("create rolled back", "collection", collection, "temp_id", tempID, "error", err)
		return nil, err
	}

	confirmed := c.confirmedRecord(collection, created, tempID)
	if !c.view.ReplaceByTempID(collection, tempID, confirmed) {
		// Событие change feed успело заместить временную запись
		c.view.Upsert(collection, confirmed)
	}

	c.logger.Info("create confirmed", "collection", collection, "temp_id", tempID)
	return confirmed, nil
}

// deferCreate ставит создание в offline-очередь
func (c *Controller) deferCreate(ctx context.Context, collection, tempID string, fields map[string]any) (*models.Record, error) {
	opID := c.queue.Enqueue(ctx, &models.QueuedOperation{
		Collection: collection,
		Kind:       models.OpCreate,
		TempID:     tempID,
		Payload:    fields,
	})

	rec, ok := c.view.GetByTempID(collection, tempID)
	if !ok {
		return nil, errors.New("optimistic record vanished before enqueue")
	}
	rec.PendingSync = true
	c.view.ReplaceByTempID(collection, tempID, rec)

	c.logger.Info("create deferred to queue", "collection", collection, "temp_id", tempID, "op_id", opID)
	return rec, nil
}

// Update оптимистично накладывает частичное обновление на запись.
//
// Перед изменением снимается снимок прежнего состояния; отказ сервера
// восстанавливает его дословно. Offline-операция уходит в очередь, а
// обновление остаётся примененным с флагом pending sync.
func (c *Controller) Update(ctx context.Context, collection, id string, patch map[string]any) (*models.Record, error) {
	unlock := c.lockRecord(collection, id)
	defer unlock()

	snapshot, ok := c.view.ApplyPatch(collection, id, patch)
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Message: "record not found in local view: " + id}
	}

	if c.monitor.Offline() {
		return c.deferUpdate(ctx, collection, id, patch)
	}

	opID := uuid.New().String()
	var updated map[string]any
	err := c.exec.Execute(ctx, collection+":update", func(ctx context.Context) error {
		var callErr error
		updated, callErr = c.api.Update(ctx, collection, id, opID, patch)
		return callErr
	})
	if err != nil {
		if offlineError(err) && c.monitor.Offline() {
			return c.deferUpdate(ctx, collection, id, patch)
		}
		// Откат: запись возвращается в состояние до правки
		c.view.Replace(collection, id, snapshot)
		c.logger.Warn("update rolled back", "collection", collection, "id", id, "error", err)
		return nil, err
	}

	confirmed := c.confirmedRecord(collection, updated, snapshot.TempID)
	c.view.Replace(collection, id, confirmed)

	return confirmed, nil
}

// deferUpdate ставит обновление в offline-очередь
func (c *Controller) deferUpdate(ctx context.Context, collection, id string, patch map[string]any) (*models.Record, error) {
	opID := c.queue.Enqueue(ctx, &models.QueuedOperation{
		Collection: collection,
		Kind:       models.OpUpdate,
		TargetID:   id,
		Payload:    patch,
	})

	rec, ok := c.view.Get(collection, id)
	if !ok {
		return nil, errors.New("patched record vanished before enqueue")
	}
	rec.IsSyncing = false
	rec.PendingSync = true
	c.view.Replace(collection, id, rec)

	c.logger.Info("update deferred to queue", "collection", collection, "id", id, "op_id", opID)
	return rec, nil
}

// Delete оптимистично удаляет запись.
//
// Запись исчезает из отображения немедленно. Отказ сервера удаление НЕ
// восстанавливает: повторное появление записи дезориентирует сильнее,
// чем её отсутствие. Вместо этого пишется предупреждение и планируется
// полная пересинхронизация, которая вернёт запись, если сервер её
// сохранил.
func (c *Controller) Delete(ctx context.Context, collection, id string) error {
	unlock := c.lockRecord(collection, id)
	defer unlock()

	removed := c.view.Remove(collection, id)
	if !removed {
		// Идемпотентность: записи уже нет
		return nil
	}

	if c.monitor.Offline() {
		opID := c.queue.Enqueue(ctx, &models.QueuedOperation{
			Collection: collection,
			Kind:       models.OpDelete,
			TargetID:   id,
		})
		c.logger.Info("delete deferred to queue", "collection", collection, "id", id, "op_id", opID)
		return nil
	}

	opID := uuid.New().String()
	err := c.exec.Execute(ctx, collection+":delete", func(ctx context.Context) error {
		return c.api.Delete(ctx, collection, id, opID)
	})
	if err != nil {
		if api.KindOf(err) == api.KindNotFound {
			// Сервер записи уже не знает — исход совпадает с желаемым
			return nil
		}
		if offlineError(err) && c.monitor.Offline() {
			c.queue.Enqueue(ctx, &models.QueuedOperation{
				Collection: collection,
				Kind:       models.OpDelete,
				TargetID:   id,
			})
			return nil
		}

		// Запись осталась удаленной локально, но, возможно, жива на
		// сервере. Пересинхронизация разрешит расхождение.
		c.logger.Warn("delete failed on server, local removal kept",
			"collection", collection, "id", id, "error", err)
		if c.resync != nil {
			c.resync.Schedule(collection)
		}
		return err
	}

	return nil
}

// Replay проигрывает одну операцию из offline-очереди. Передается в
// queue.Drain как Executor.
func (c *Controller) Replay(ctx context.Context, op *models.QueuedOperation) error {
	switch op.Kind {
	case models.OpCreate:
		return c.replayCreate(ctx, op)
	case models.OpUpdate:
		return c.replayUpdate(ctx, op)
	case models.OpDelete:
		return c.replayDelete(ctx, op)
	default:
		// Неизвестный вид операции не лечится повтором
		c.logger.Error("unknown queued operation kind", "op_id", op.OpID, "kind", op.Kind)
		return nil
	}
}

func (c *Controller) replayCreate(ctx context.Context, op *models.QueuedOperation) error {
	var created map[string]any
	err := c.exec.Execute(ctx, op.Collection+":create", func(ctx context.Context) error {
		var callErr error
		// op.OpID стабилен между повторами: сервер дедуплицирует
		created, callErr = c.api.Create(ctx, op.Collection, op.OpID, op.Payload)
		return callErr
	})
	if err != nil {
		return err
	}

	confirmed := c.confirmedRecord(op.Collection, created, op.TempID)
	if !c.view.ReplaceByTempID(op.Collection, op.TempID, confirmed) {
		c.view.Upsert(op.Collection, confirmed)
	}
	return nil
}

func (c *Controller) replayUpdate(ctx context.Context, op *models.QueuedOperation) error {
	// Цель могла быть создана offline: тогда op.TargetID — временный id,
	// а канонический появился только при проигрывании create
	id := op.TargetID
	if rec, ok := c.view.GetByTempID(op.Collection, op.TargetID); ok {
		if canonical, err := ident.Canonical(rec.Fields); err == nil {
			id = canonical
		}
	}

	var updated map[string]any
	err := c.exec.Execute(ctx, op.Collection+":update", func(ctx context.Context) error {
		var callErr error
		updated, callErr = c.api.Update(ctx, op.Collection, id, op.OpID, op.Payload)
		return callErr
	})
	if err != nil {
		return err
	}

	confirmed := c.confirmedRecord(op.Collection, updated, "")
	if !c.view.Replace(op.Collection, id, confirmed) {
		c.view.Upsert(op.Collection, confirmed)
	}
	return nil
}

func (c *Controller) replayDelete(ctx context.Context, op *models.QueuedOperation) error {
	// Цель могла получить канонический id уже после постановки в очередь
	id := op.TargetID
	if rec, ok := c.view.GetByTempID(op.Collection, op.TargetID); ok {
		if canonical, err := ident.Canonical(rec.Fields); err == nil {
			id = canonical
		}
	}

	err := c.exec.Execute(ctx, op.Collection+":delete", func(ctx context.Context) error {
		return c.api.Delete(ctx, op.Collection, id, op.OpID)
	})
	if err != nil && api.KindOf(err) != api.KindNotFound {
		return err
	}
	// NotFound — успех: запись уже удалена кем-то другим
	return nil
}

// confirmedRecord строит запись из серверного ответа
func (c *Controller) confirmedRecord(collection string, fields map[string]any, tempID string) *models.Record {
	if fields == nil {
		fields = map[string]any{}
	}
	return &models.Record{
		Collection:     collection,
		Fields:         fields,
		TempID:         tempID,
		LocalTimestamp: time.UnixMilli(c.clk.Now()),
	}
}

// lockRecord берет мьютекс записи; возвращает функцию освобождения
func (c *Controller) lockRecord(collection, id string) func() {
	key := collection + "/" + id

	c.locksMu.Lock()
	mu, ok := c.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		c.locks[key] = mu
	}
	c.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// offlineError сообщает, является ли ошибка сетевой — кандидатом на
// перенаправление в очередь, если монитор подтверждает offline
func offlineError(err error) bool {
	return api.KindOf(err) == api.KindNetwork
}
