// Package clock выдаёт строго возрастающие локальные timestamps.
//
// Порядок проигрывания offline-очереди и сравнение "локальная правка
// против события change feed" опираются на эти значения, поэтому два
// последовательных вызова в одном процессе обязаны давать разные
// значения даже при одинаковом показании системных часов.
package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock представляет монотонный источник локального времени процесса.
// Значения основаны на wall clock (unix ms), но никогда не убывают.
type Clock struct {
	nodeID string     // уникальный идентификатор этого клиента
	last   int64      // последнее выданное значение
	mu     sync.Mutex // мьютекс для потокобезопасности
}

// New создает новый Clock с уникальным идентификатором узла (UUID)
func New() *Clock {
	return &Clock{nodeID: uuid.New().String()}
}

// NewWithNodeID создает Clock с заданным идентификатором узла.
// Используется в тестах и при восстановлении состояния.
func NewWithNodeID(nodeID string) *Clock {
	return &Clock{nodeID: nodeID}
}

// Now возвращает следующий timestamp: max(последнее значение + 1, unix ms)
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe подтягивает часы вперёд после наблюдения удалённого timestamp.
// Следующее значение Now будет строго больше remote.
func (c *Clock) Observe(remote int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.last {
		c.last = remote
	}
}

// NodeID возвращает уникальный идентификатор узла
func (c *Clock) NodeID() string {
	return c.nodeID
}
