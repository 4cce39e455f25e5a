// Package sqlite provides SQLite-backed word usage persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/louisbranch/wordclash/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/wordclash/internal/services/stats/storage"
	"github.com/louisbranch/wordclash/internal/services/stats/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed word usage counters.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a word statistics SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AddPlays increments one word's play count, clamping at zero.
func (s *Store) AddPlays(ctx context.Context, category, word string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	category = strings.TrimSpace(category)
	word = strings.TrimSpace(word)
	if category == "" {
		return fmt.Errorf("category is required")
	}
	if word == "" {
		return fmt.Errorf("word is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO word_stats (category, word, plays)
VALUES (?, ?, MAX(?, 0))
ON CONFLICT(category, word) DO UPDATE SET
	plays = MAX(plays + ?, 0)
`, category, word, delta, delta)
	if err != nil {
		return fmt.Errorf("add plays: %w", err)
	}
	return nil
}

// Usage returns one word's play count alongside the category total.
func (s *Store) Usage(ctx context.Context, category, word string) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, 0, fmt.Errorf("storage is not configured")
	}
	category = strings.TrimSpace(category)
	word = strings.TrimSpace(word)
	if category == "" || word == "" {
		return 0, 0, fmt.Errorf("category and word are required")
	}

	var plays, total int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
	COALESCE((SELECT plays FROM word_stats WHERE category = ? AND word = ?), 0),
	COALESCE((SELECT SUM(plays) FROM word_stats WHERE category = ?), 0)
`, category, word, category).Scan(&plays, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("read usage: %w", err)
	}
	return plays, total, nil
}

// TopWords lists the most played words in a category.
func (s *Store) TopWords(ctx context.Context, category string, limit int) ([]storage.UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT category, word, plays
FROM word_stats
WHERE category = ?
ORDER BY plays DESC, word ASC
LIMIT ?
`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list top words: %w", err)
	}
	defer rows.Close()

	records := make([]storage.UsageRecord, 0, limit)
	for rows.Next() {
		var record storage.UsageRecord
		if err := rows.Scan(&record.Category, &record.Word, &record.Plays); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage rows: %w", err)
	}
	return records, nil
}
