package storage

import "context"

//go:generate moq -out metadatastorage_mock.go . MetadataStorage

// MetadataStorage хранит служебные значения клиента (например, момент
// последнего полного resync коллекции и node id часов).
type MetadataStorage interface {
	// SaveMeta сохраняет значение по ключу
	SaveMeta(ctx context.Context, key, value string) error

	// GetMeta возвращает значение по ключу.
	// Возвращает ErrMetaNotFound, если ключа нет.
	GetMeta(ctx context.Context, key string) (string, error)

	// DeleteMeta удаляет ключ; отсутствие ключа не является ошибкой
	DeleteMeta(ctx context.Context, key string) error
}
