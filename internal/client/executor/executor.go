// Package executor оборачивает одиночный сетевой вызов таймаутом,
// повторами с экспоненциальной задержкой и джиттером и circuit breaker
// на каждый operation key. Вся политика повторов живёт здесь: ни API
// клиент, ни контроллер мутаций собственных повторов не делают.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/godivatech/contentsync/internal/client/api"
	"github.com/godivatech/contentsync/internal/client/netmon"
)

// ErrCircuitOpen возвращается (обёрнутой в *api.Error), когда breaker
// открыт и cooldown ещё не истёк.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// errWentOffline прерывает цикл повторов, если сеть пропала между попытками
var errWentOffline = errors.New("network went offline during retries")

// Config параметры исполнителя
type Config struct {
	// MaxAttempts максимум попыток, включая первую
	MaxAttempts int
	// BaseDelay начальная задержка перед повтором
	BaseDelay time.Duration
	// MaxDelay потолок задержки
	MaxDelay time.Duration
	// JitterPercent разброс задержки в процентах (±)
	JitterPercent uint64
	// RequestTimeout таймаут одной попытки
	RequestTimeout time.Duration
	// BreakerThreshold число последовательных отказов до открытия breaker
	BreakerThreshold int
	// BreakerCooldown окно остывания открытого breaker
	BreakerCooldown time.Duration
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		BaseDelay:        500 * time.Millisecond,
		MaxDelay:         10 * time.Second,
		JitterPercent:    30,
		RequestTimeout:   15 * time.Second,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// Executor выполняет сетевые вызовы с единой политикой устойчивости
type Executor struct {
	monitor  *netmon.Monitor
	logger   *slog.Logger
	breakers map[string]*breaker
	config   Config
	mu       sync.Mutex
}

// New создает исполнитель
func New(monitor *netmon.Monitor, cfg Config, logger *slog.Logger) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig().MaxDelay
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = DefaultConfig().BreakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = DefaultConfig().BreakerCooldown
	}
	return &Executor{
		monitor:  monitor,
		config:   cfg,
		logger:   logger,
		breakers: make(map[string]*breaker),
	}
}

// Execute выполняет fn с таймаутом, повторами и circuit breaker.
// operationKey группирует вызовы для breaker, обычно "collection:kind".
// Возвращаемая ошибка всегда классифицирована (*api.Error).
func (e *Executor) Execute(ctx context.Context, operationKey string, fn func(ctx context.Context) error) error {
	// Offline — это решение о маршрутизации, а не ошибка сети для
	// повторов: вызывающий код обязан был уйти в очередь
	if e.monitor.Offline() {
		return &api.Error{
			Kind:    api.KindNetwork,
			Message: "network is offline",
		}
	}

	br := e.breakerFor(operationKey)

	backoff := retry.NewExponential(e.config.BaseDelay)
	backoff = retry.WithCappedDuration(e.config.MaxDelay, backoff)
	if e.config.JitterPercent > 0 {
		backoff = retry.WithJitterPercent(e.config.JitterPercent, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(e.config.MaxAttempts-1), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		// Сеть могла пропасть между попытками: прекращаем немедленно,
		// вместо того чтобы молотить в заведомо мёртвую сеть
		if e.monitor.Offline() {
			return errWentOffline
		}

		// Breaker опрашивается перед каждой попыткой, а не один раз на
		// вызов: открывшийся посреди цикла повторов breaker гасит
		// оставшиеся попытки, а в half-open пробная попытка ровно одна
		if !br.Allow() {
			e.logger.Warn("circuit breaker rejected call",
				"operation_key", operationKey,
				"attempt", attempt)
			return fmt.Errorf("%s: %w", operationKey, ErrCircuitOpen)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
		callErr := fn(attemptCtx)
		cancel()

		if callErr == nil {
			br.RecordSuccess()
			return nil
		}

		apiErr := api.Classify(callErr)
		br.RecordFailure()

		e.logger.Debug("attempt failed",
			"operation_key", operationKey,
			"attempt", attempt,
			"kind", apiErr.Kind,
			"retryable", apiErr.Retryable)

		if apiErr.Retryable {
			return retry.RetryableError(apiErr)
		}
		return apiErr
	})

	if err == nil {
		return nil
	}
	if errors.Is(err, errWentOffline) {
		return &api.Error{
			Kind:    api.KindNetwork,
			Message: "network went offline during retries",
		}
	}
	return api.Classify(err)
}

// BreakerState возвращает состояние breaker для operation key.
// Для неизвестного ключа возвращается "closed".
func (e *Executor) BreakerState(operationKey string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if br, ok := e.breakers[operationKey]; ok {
		return br.State()
	}
	return "closed"
}

// breakerFor возвращает (лениво создавая) breaker для operation key
func (e *Executor) breakerFor(operationKey string) *breaker {
	e.mu.Lock()
	defer e.mu.Unlock()

	br, ok := e.breakers[operationKey]
	if !ok {
		br = newBreaker(e.config.BreakerThreshold, e.config.BreakerCooldown)
		e.breakers[operationKey] = br
	}
	return br
}
