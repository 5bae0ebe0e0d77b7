package executor

import (
	"sync"
	"time"
)

// breakerState состояние автомата circuit breaker
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker защищает один operation key (collection:kind) от повторных
// обращений к заведомо падающей операции. Потокобезопасен.
type breaker struct {
	lastFailure time.Time
	threshold   int
	cooldown    time.Duration
	failures    int
	state       breakerState
	mu          sync.Mutex
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{
		threshold: threshold,
		cooldown:  cooldown,
		state:     breakerClosed,
	}
}

// Allow сообщает, можно ли выполнить попытку. В открытом состоянии после
// истечения cooldown разрешается ровно одна пробная попытка (half-open);
// пока она в полёте, остальные вызовы отклоняются.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.state = breakerHalfOpen
			return true
		}
		return false
	case breakerHalfOpen:
		// Пробная попытка уже выдана
		return false
	}
	return true
}

// RecordSuccess фиксирует успешную попытку
func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = breakerClosed
}

// RecordFailure фиксирует неудачную попытку
func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Счётчик отказов устаревает после cooldown
	if b.state == breakerClosed && !b.lastFailure.IsZero() && time.Since(b.lastFailure) > b.cooldown {
		b.failures = 0
	}

	b.failures++
	b.lastFailure = time.Now()

	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
	}
}

// State возвращает строковое представление состояния
func (b *breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
