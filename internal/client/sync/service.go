// Package sync связывает монитор сети с offline-очередью: как только
// соединение возвращается, накопленные операции проигрываются против
// сервера в исходном порядке.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/godivatech/contentsync/internal/client/netmon"
	"github.com/godivatech/contentsync/internal/client/queue"
	"github.com/godivatech/contentsync/internal/client/storage"
	"github.com/godivatech/contentsync/internal/models"
)

//go:generate moq -out service_mock.go . Service

// metaKeyLastDrain ключ метаданных с временем последнего успешного
// проигрывания очереди (unix ms)
const metaKeyLastDrain = "last_drain_at"

// Service определяет интерфейс sync-сервиса
type Service interface {
	// Start подписывает сервис на смену статуса сети; возвращает
	// функцию отписки
	Start(ctx context.Context) func()

	// Drain немедленно проигрывает offline-очередь
	Drain(ctx context.Context) queue.DrainResult

	// PendingCount возвращает число операций, ожидающих проигрывания
	PendingCount() int

	// LastDrainAt возвращает время последнего успешного проигрывания
	LastDrainAt(ctx context.Context) (time.Time, error)
}

type service struct {
	queue           *queue.Queue
	replay          queue.Executor
	monitor         *netmon.Monitor
	metadataStorage storage.MetadataStorage
	logger          *slog.Logger

	// onLost уведомляет о навсегда отброшенных операциях
	onLost func(opIDs []string)
	mu     sync.Mutex
}

// NewService создает sync-сервис. replay проигрывает одну операцию
// очереди; обычно это Replay контроллера мутаций. onLost может быть
// nil — тогда потерянные операции только логируются.
func NewService(
	q *queue.Queue,
	replay queue.Executor,
	monitor *netmon.Monitor,
	metadataStorage storage.MetadataStorage,
	onLost func(opIDs []string),
	logger *slog.Logger,
) Service {
	return &service{
		queue:           q,
		replay:          replay,
		monitor:         monitor,
		metadataStorage: metadataStorage,
		onLost:          onLost,
		logger:          logger,
	}
}

// Start подписывает сервис на переходы статуса сети. Переход в online
// запускает проигрывание очереди в отдельной горутине: подписчики
// монитора зовутся синхронно, и затяжная синхронизация не должна
// задерживать остальных.
func (s *service) Start(ctx context.Context) func() {
	unsubscribe := s.monitor.Subscribe(func(status models.NetworkStatus) {
		if status != models.StatusOnline {
			return
		}
		if s.queue.Len() == 0 {
			return
		}
		go s.Drain(ctx)
	})

	s.logger.Info("sync service started", "pending", s.queue.Len())
	return unsubscribe
}

// Drain проигрывает очередь и репортит итог
func (s *service) Drain(ctx context.Context) queue.DrainResult {
	// Drain сам по себе реентерабелен, но блокировка здесь даёт
	// детерминированный итог конкурентным вызовам
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.queue.Drain(ctx, s.replay)

	if len(result.Processed) > 0 {
		s.logger.Info("offline queue drained",
			"processed", len(result.Processed),
			"remaining", s.queue.Len())
		s.saveLastDrain(ctx)
	}

	if len(result.Failed) > 0 {
		// Эти операции отброшены навсегда: пользователь должен узнать
		// о потерянных изменениях
		s.logger.Error("operations dropped after exhausting retries",
			"count", len(result.Failed),
			"op_ids", result.Failed)
		if s.onLost != nil {
			s.onLost(result.Failed)
		}
	}

	return result
}

// PendingCount возвращает число операций, ожидающих проигрывания
func (s *service) PendingCount() int {
	return s.queue.Len()
}

// LastDrainAt возвращает время последнего успешного проигрывания.
// Если очередь ещё ни разу не проигрывалась, возвращается нулевое время.
func (s *service) LastDrainAt(ctx context.Context) (time.Time, error) {
	value, err := s.metadataStorage.GetMeta(ctx, metaKeyLastDrain)
	if err != nil {
		if errors.Is(err, storage.ErrMetaNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last drain timestamp: %w", err)
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupted last drain timestamp %q: %w", value, err)
	}
	return time.UnixMilli(ms), nil
}

// saveLastDrain сохраняет отметку времени; ошибка не прерывает работу
func (s *service) saveLastDrain(ctx context.Context) {
	value := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.metadataStorage.SaveMeta(ctx, metaKeyLastDrain, value); err != nil {
		s.logger.Warn("failed to save last drain timestamp", "error", err)
	}
}
