// Package feed принимает push-события change feed и согласует их с
// локальным отображением.
//
// События сервера и собственные оптимистичные правки клиента гоняются
// друг с другом, поэтому каждое событие проходит три фильтра: эхо
// собственной мутации дедуплицируется по временному id, устаревшее
// обновление проигрывает более свежей локальной правке, а удаление
// идемпотентно. Страховкой от пропущенных событий служит отложенная
// полная пересинхронизация коллекции.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/godivatech/contentsync/internal/client/api"
	"github.com/godivatech/contentsync/internal/client/executor"
	"github.com/godivatech/contentsync/internal/client/view"
	"github.com/godivatech/contentsync/internal/clock"
	"github.com/godivatech/contentsync/internal/ident"
	"github.com/godivatech/contentsync/internal/models"
	"github.com/godivatech/contentsync/pkg/api"
)

// DefaultDebounce окно слияния повторных запросов пересинхронизации
const DefaultDebounce = 500 * time.Millisecond

// Reconciler согласует события change feed с локальным отображением
type Reconciler struct {
	api      clientapi.ClientAPI
	exec     *executor.Executor
	view     *view.Store
	clk      *clock.Clock
	logger   *slog.Logger
	debounce time.Duration

	timers  map[string]*time.Timer
	mu      sync.Mutex
	stopped bool
}

// NewReconciler создает реконсилятор. debounce <= 0 означает значение
// по умолчанию.
func NewReconciler(
	apiClient clientapi.ClientAPI,
	exec *executor.Executor,
	store *view.Store,
	clk *clock.Clock,
	debounce time.Duration,
	logger *slog.Logger,
) *Reconciler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Reconciler{
		api:      apiClient,
		exec:     exec,
		view:     store,
		clk:      clk,
		debounce: debounce,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Apply обрабатывает одно событие change feed. Непонятные сообщения
// игнорируются: сломанное событие не повод ронять поток.
func (r *Reconciler) Apply(msg api.ChangeMessage) {
	collection, action, ok := api.ParseFeedType(msg.Type)
	if !ok {
		r.logger.Debug("ignoring malformed feed message", "type", msg.Type)
		return
	}

	if msg.Timestamp > 0 {
		r.clk.Observe(msg.Timestamp)
	}

	switch action {
	case api.ChangeCreated:
		r.applyCreated(collection, msg)
	case api.ChangeUpdated:
		r.applyUpdated(collection, msg)
	case api.ChangeDeleted:
		r.applyDeleted(collection, msg)
	}

	// Push-событие — лишь быстрый путь, доверять ему целиком нельзя:
	// источником истины остаётся сервер. Каждое распознанное событие
	// взводит отложенную полную пересинхронизацию коллекции, шторм
	// событий сливается в один запрос окном debounce.
	r.Schedule(collection)
}

// applyCreated вставляет новую запись, дедуплицируя эхо собственной
// оптимистичной мутации
func (r *Reconciler) applyCreated(collection string, msg api.ChangeMessage) {
	rec := r.remoteRecord(collection, msg)

	// Эхо собственного create: сервер вернул временный id, который мы
	// сами положили в полезную нагрузку. Временная запись заменяется
	// канонической, дубликат не появляется.
	if tempID, ok := msg.Data[models.TempIDField].(string); ok && tempID != "" {
		rec.TempID = tempID
		if r.view.ReplaceByTempID(collection, tempID, rec) {
			r.logger.Debug("feed echo deduplicated", "collection", collection, "temp_id", tempID)
			return
		}
	}

	// Запись могла прийти раньше по другому пути (подтверждение HTTP
	// или проигрывание очереди): Upsert не создаст дубликата
	if id, err := ident.Canonical(msg.Data); err == nil {
		if _, exists := r.view.Get(collection, id); exists {
			r.view.Upsert(collection, rec)
			return
		}
	}

	r.view.Insert(collection, rec)
}

// applyUpdated применяет серверное обновление, если локальная копия не новее
func (r *Reconciler) applyUpdated(collection string, msg api.ChangeMessage) {
	id, err := ident.Canonical(msg.Data)
	if err != nil {
		r.logger.Debug("feed update without identity ignored", "collection", collection)
		return
	}

	local, exists := r.view.Get(collection, id)
	if !exists {
		// Запись нам неизвестна — берём серверную версию как есть
		r.view.Upsert(collection, r.remoteRecord(collection, msg))
		return
	}

	// Локальная правка новее события или ещё не добралась до сервера:
	// событие отражает прошлое, локальная версия побеждает
	if local.PendingSync || local.IsSyncing {
		r.logger.Debug("stale feed update ignored: local change in flight", "collection", collection, "id", id)
		return
	}
	if msg.Timestamp > 0 && local.LocalTimestamp.UnixMilli() > msg.Timestamp {
		r.logger.Debug("stale feed update ignored: local copy newer", "collection", collection, "id", id)
		return
	}

	rec := r.remoteRecord(collection, msg)
	rec.TempID = local.TempID
	r.view.Replace(collection, id, rec)
}

// applyDeleted убирает запись; отсутствие записи не ошибка
func (r *Reconciler) applyDeleted(collection string, msg api.ChangeMessage) {
	id, err := ident.Canonical(msg.Data)
	if err != nil {
		return
	}
	if r.view.Remove(collection, id) {
		r.logger.Debug("record removed by feed", "collection", collection, "id", id)
	}
}

// Schedule планирует отложенную полную пересинхронизацию коллекции.
// Повторный вызов внутри окна debounce сдвигает таймер: шторм событий
// сливается в один запрос списка.
func (r *Reconciler) Schedule(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	if timer, ok := r.timers[collection]; ok {
		timer.Reset(r.debounce)
		return
	}

	r.timers[collection] = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		delete(r.timers, collection)
		r.mu.Unlock()

		if err := r.Resync(context.Background(), collection); err != nil {
			r.logger.Warn("scheduled resync failed", "collection", collection, "error", err)
		}
	})
}

// Resync немедленно перечитывает коллекцию с сервера и заменяет
// локальное отображение, сохраняя несинхронизированные записи.
func (r *Reconciler) Resync(ctx context.Context, collection string) error {
	var rows []map[string]any
	err := r.exec.Execute(ctx, collection+":list", func(ctx context.Context) error {
		var callErr error
		rows, callErr = r.api.List(ctx, collection)
		return callErr
	})
	if err != nil {
		return err
	}

	now := time.UnixMilli(r.clk.Now())
	records := make([]*models.Record, 0, len(rows))
	for _, fields := range rows {
		records = append(records, &models.Record{
			Collection:     collection,
			Fields:         fields,
			LocalTimestamp: now,
		})
	}
	r.view.Reset(collection, records)

	r.logger.Info("collection resynced", "collection", collection, "records", len(records))
	return nil
}

// Stop отменяет все отложенные пересинхронизации
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	for collection, timer := range r.timers {
		timer.Stop()
		delete(r.timers, collection)
	}
}

// remoteRecord строит запись из данных события
func (r *Reconciler) remoteRecord(collection string, msg api.ChangeMessage) *models.Record {
	ts := msg.Timestamp
	if ts <= 0 {
		ts = r.clk.Now()
	}
	return &models.Record{
		Collection:     collection,
		Fields:         msg.Data,
		LocalTimestamp: time.UnixMilli(ts),
	}
}
