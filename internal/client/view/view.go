// Package view хранит локальное отображение коллекций — то, что
// немедленно видит UI. Оптимистичные мутации применяются сюда до ответа
// сервера; подтверждение меняет запись на серверную версию атомарно,
// одним захватом мьютекса, чтобы никакое чтение не увидело ни дубликата
// (временная + каноническая), ни дыры (ни той, ни другой).
package view

import (
	"sync"

	"github.com/godivatech/contentsync/internal/ident"
	"github.com/godivatech/contentsync/internal/models"
)

// Store потокобезопасное отображение коллекций.
// Записи копируются на входе и на выходе: вызывающий код не может
// изменить внутреннее состояние через удержанный указатель.
type Store struct {
	collections map[string][]*models.Record
	mu          sync.RWMutex
}

// NewStore создает пустое отображение
func NewStore() *Store {
	return &Store{
		collections: make(map[string][]*models.Record),
	}
}

// Snapshot возвращает копию коллекции в порядке вставки
func (s *Store) Snapshot(collection string) []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.collections[collection]
	out := make([]*models.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Clone())
	}
	return out
}

// Get возвращает копию записи по канонической идентичности
func (s *Store) Get(collection, id string) (*models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(collection, id); i >= 0 {
		return s.collections[collection][i].Clone(), true
	}
	return nil, false
}

// GetByTempID возвращает копию оптимистичной записи по временному id
func (s *Store) GetByTempID(collection, tempID string) (*models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfTemp(collection, tempID); i >= 0 {
		return s.collections[collection][i].Clone(), true
	}
	return nil, false
}

// Insert добавляет запись в конец коллекции
func (s *Store) Insert(collection string, rec *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[collection] = append(s.collections[collection], rec.Clone())
}

// Upsert заменяет запись с той же идентичностью или добавляет новую.
// Поиск и замена происходят под одним захватом мьютекса.
func (s *Store) Upsert(collection string, rec *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, err := ident.Canonical(rec.Fields); err == nil {
		if i := s.indexOf(collection, id); i >= 0 {
			s.collections[collection][i] = rec.Clone()
			return
		}
	}
	s.collections[collection] = append(s.collections[collection], rec.Clone())
}

// ReplaceByTempID атомарно меняет оптимистичную запись на подтвержденную
// серверную версию. Возвращает false, если временная запись уже исчезла
// (например, её заместило событие change feed).
func (s *Store) ReplaceByTempID(collection, tempID string, rec *models.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfTemp(collection, tempID)
	if i < 0 {
		return false
	}
	s.collections[collection][i] = rec.Clone()
	return true
}

// Replace заменяет запись по канонической идентичности
func (s *Store) Replace(collection, id string, rec *models.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collection, id)
	if i < 0 {
		return false
	}
	s.collections[collection][i] = rec.Clone()
	return true
}

// ApplyPatch накладывает частичное обновление на запись и возвращает её
// состояние ДО изменения — снимок для возможного отката. Флаг syncing
// выставляется на время полёта запроса.
func (s *Store) ApplyPatch(collection, id string, patch map[string]any) (*models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collection, id)
	if i < 0 {
		return nil, false
	}

	prev := s.collections[collection][i]
	snapshot := prev.Clone()

	next := prev.Clone()
	for k, v := range patch {
		next.Fields[k] = v
	}
	next.IsSyncing = true
	s.collections[collection][i] = next

	return snapshot, true
}

// Remove убирает запись по канонической идентичности.
// Отсутствие записи не ошибка: удаление идемпотентно.
func (s *Store) Remove(collection, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collection, id)
	if i < 0 {
		return false
	}
	s.collections[collection] = append(s.collections[collection][:i], s.collections[collection][i+1:]...)
	return true
}

// RemoveByTempID убирает оптимистичную запись по временному id
func (s *Store) RemoveByTempID(collection, tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfTemp(collection, tempID)
	if i < 0 {
		return false
	}
	s.collections[collection] = append(s.collections[collection][:i], s.collections[collection][i+1:]...)
	return true
}

// Reset заменяет коллекцию серверным списком, сохраняя локальные записи,
// которые ещё не добрались до сервера: оптимистичные и ожидающие в
// offline-очереди. Полный resync не должен стирать несинхронизированные
// правки пользователя.
func (s *Store) Reset(collection string, records []*models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*models.Record, 0, len(records))
	for _, rec := range records {
		next = append(next, rec.Clone())
	}

	for _, rec := range s.collections[collection] {
		if !rec.IsOptimistic && !rec.PendingSync {
			continue
		}
		if id, err := ident.Canonical(rec.Fields); err == nil {
			if containsID(next, id) {
				continue
			}
		}
		next = append(next, rec)
	}

	s.collections[collection] = next
}

// Len возвращает размер коллекции
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// indexOf ищет запись по идентичности; вызывается под мьютексом.
// Оптимистичная запись до подтверждения не несёт канонического id,
// поэтому временный id тоже считается её идентичностью.
func (s *Store) indexOf(collection, id string) int {
	for i, rec := range s.collections[collection] {
		if ident.Matches(rec.Fields, id) {
			return i
		}
		if rec.TempID != "" && rec.TempID == id {
			return i
		}
	}
	return -1
}

// indexOfTemp ищет запись по временному id; вызывается под мьютексом
func (s *Store) indexOfTemp(collection, tempID string) int {
	for i, rec := range s.collections[collection] {
		if rec.TempID == tempID {
			return i
		}
	}
	return -1
}

func containsID(records []*models.Record, id string) bool {
	for _, rec := range records {
		if ident.Matches(rec.Fields, id) {
			return true
		}
	}
	return false
}
