// Package sqlite хранит записи контента и журнал операций в одном
// файле SQLite. Сервер — единственный писатель, поэтому пул жёстко
// ограничен одним соединением: WAL пускает параллельных читателей, а
// очередь записи выстраивается на уровне database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// schemaPragmas применяются к каждому новому файлу БД. busy_timeout
// страхует от SQLITE_BUSY при одновременном чтении во время checkpoint.
var schemaPragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

// Storage даёт доступ к записям контента и журналу операций
type Storage struct {
	db *sql.DB
}

// New открывает (или создает) файл БД и доводит схему до актуальной.
// ":memory:" даёт чистую БД в памяти, тесты пользуются именно этим.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open content database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range schemaPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate content schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// migrate накатывает embedded-миграции goose до последней версии
func migrate(db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

// Ping проверяет, что БД отвечает; на этом строится health-эндпоинт
func (s *Storage) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
