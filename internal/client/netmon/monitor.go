// Package netmon отслеживает состояние сетевого соединения процесса.
//
// Единственное авторитетное значение NetworkStatus живёт здесь. Сигналы
// платформы (online/offline) переключают состояние напрямую; пока
// соединение не offline, периодический probe замеряет латентность и
// переводит состояние в degraded и обратно.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/godivatech/contentsync/internal/models"
)

// ProbeFunc выполняет лёгкий round-trip и возвращает латентность
type ProbeFunc func(ctx context.Context) (time.Duration, error)

// Config параметры монитора
type Config struct {
	// ProbeInterval интервал между замерами латентности
	ProbeInterval time.Duration
	// DegradedThreshold латентность, выше которой соединение считается degraded
	DegradedThreshold time.Duration
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		ProbeInterval:     30 * time.Second,
		DegradedThreshold: 2 * time.Second,
	}
}

// Monitor хранит статус сети и уведомляет подписчиков о его смене
type Monitor struct {
	probe   ProbeFunc
	logger  *slog.Logger
	subs    map[int]func(models.NetworkStatus)
	stopCh  chan struct{}
	status  models.NetworkStatus
	config  Config
	nextSub int
	mu      sync.Mutex
	stopped bool
}

// New создает монитор. online задаёт начальное состояние из сигнала
// платформы; probe может быть nil, тогда замеры латентности отключены.
func New(online bool, probe ProbeFunc, cfg Config, logger *slog.Logger) *Monitor {
	status := models.StatusOnline
	if !online {
		status = models.StatusOffline
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultConfig().ProbeInterval
	}
	if cfg.DegradedThreshold <= 0 {
		cfg.DegradedThreshold = DefaultConfig().DegradedThreshold
	}
	return &Monitor{
		status: status,
		probe:  probe,
		config: cfg,
		logger: logger,
		subs:   make(map[int]func(models.NetworkStatus)),
		stopCh: make(chan struct{}),
	}
}

// Status возвращает текущее состояние сети
func (m *Monitor) Status() models.NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Offline сообщает, что сеть недоступна
func (m *Monitor) Offline() bool {
	return m.Status() == models.StatusOffline
}

// SetStatus устанавливает состояние и синхронно уведомляет подписчиков.
// Повторная установка того же значения уведомлений не порождает.
func (m *Monitor) SetStatus(s models.NetworkStatus) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	old := m.status
	m.status = s
	// Копируем подписчиков, чтобы звать их вне мьютекса
	subs := make([]func(models.NetworkStatus), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Info("network status changed", "from", old, "to", s)
	for _, fn := range subs {
		fn(s)
	}
}

// SetOnline обрабатывает сигнал платформы о доступности сети
func (m *Monitor) SetOnline(online bool) {
	if online {
		m.SetStatus(models.StatusOnline)
	} else {
		m.SetStatus(models.StatusOffline)
	}
}

// Subscribe регистрирует подписчика и возвращает функцию отписки
func (m *Monitor) Subscribe(fn func(models.NetworkStatus)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Start запускает цикл замеров латентности. Блокирует до остановки
// монитора или отмены контекста, поэтому вызывается в отдельной горутине.
func (m *Monitor) Start(ctx context.Context) {
	if m.probe == nil {
		return
	}

	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.runProbe(ctx)
		}
	}
}

// Stop останавливает цикл замеров
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.stopCh)
	}
}

// runProbe выполняет один замер и применяет переходы online <-> degraded.
// Ошибка замера статус не меняет: авторитетный сигнал offline приходит
// только от платформы.
func (m *Monitor) runProbe(ctx context.Context) {
	if m.Status() == models.StatusOffline {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeInterval)
	defer cancel()

	rtt, err := m.probe(probeCtx)
	if err != nil {
		m.logger.Debug("latency probe failed", "error", err)
		return
	}

	switch {
	case rtt > m.config.DegradedThreshold:
		m.SetStatus(models.StatusDegraded)
	case m.Status() == models.StatusDegraded:
		m.SetStatus(models.StatusOnline)
	}
}
