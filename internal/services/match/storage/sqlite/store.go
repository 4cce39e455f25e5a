// Package sqlite provides SQLite-backed match persistence.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/wordclash/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
	"github.com/louisbranch/wordclash/internal/services/match/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed match and reminder persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a match SQLite store and applies migrations.
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

// SaveMatch upserts one match record. The whole record lands in a single
// statement, so a save is atomic: a crash mid-save never leaves a partially
// updated snapshot behind.
func (s *Store) SaveMatch(ctx context.Context, record storage.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if record.State == "" {
		return fmt.Errorf("match state is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = time.Now().UTC()

	document, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode match document: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO matches (
	id,
	state,
	player0,
	player1,
	document,
	expiry_ms,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	state = excluded.state,
	player0 = excluded.player0,
	player1 = excluded.player1,
	document = excluded.document,
	expiry_ms = excluded.expiry_ms,
	updated_at = excluded.updated_at
`,
		record.ID,
		string(record.State),
		record.Players[0],
		record.Players[1],
		string(document),
		record.ExpiryMs,
		record.CreatedAt.UTC().UnixMilli(),
		record.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// GetMatch loads one match record by id.
func (s *Store) GetMatch(ctx context.Context, id string) (storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MatchRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.MatchRecord{}, fmt.Errorf("match id is required")
	}

	var document string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT document FROM matches WHERE id = ?", id).Scan(&document)
	if err == sql.ErrNoRows {
		return storage.MatchRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	return decodeMatchDocument(document)
}

// ListMatchesByPlayer lists a player's matches newest-first.
func (s *Store) ListMatchesByPlayer(ctx context.Context, playerID string, limit int) ([]storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT document
FROM matches
WHERE player0 = ? OR player1 = ?
ORDER BY updated_at DESC, id DESC
LIMIT ?
`, playerID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	records := make([]storage.MatchRecord, 0, limit)
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		record, err := decodeMatchDocument(document)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return records, nil
}

// ScheduleWake upserts the durable wake time for one match.
func (s *Store) ScheduleWake(ctx context.Context, matchID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	if at.IsZero() {
		return fmt.Errorf("wake time is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO match_reminders (match_id, wake_at_ms)
VALUES (?, ?)
ON CONFLICT(match_id) DO UPDATE SET wake_at_ms = excluded.wake_at_ms
`, matchID, at.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("schedule wake: %w", err)
	}
	return nil
}

// ClearWake removes the durable wake for one match. Clearing an absent wake
// is a no-op so release paths stay idempotent.
func (s *Store) ClearWake(ctx context.Context, matchID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM match_reminders WHERE match_id = ?", matchID); err != nil {
		return fmt.Errorf("clear wake: %w", err)
	}
	return nil
}

// DueWakes lists matches whose wake time has passed, oldest first.
func (s *Store) DueWakes(ctx context.Context, now time.Time, limit int) ([]storage.WakeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT match_id, wake_at_ms
FROM match_reminders
WHERE wake_at_ms <= ?
ORDER BY wake_at_ms ASC
LIMIT ?
`, now.UTC().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("list due wakes: %w", err)
	}
	defer rows.Close()

	wakes := make([]storage.WakeRecord, 0, limit)
	for rows.Next() {
		var wake storage.WakeRecord
		var wakeAtMs int64
		if err := rows.Scan(&wake.MatchID, &wakeAtMs); err != nil {
			return nil, fmt.Errorf("scan wake row: %w", err)
		}
		wake.WakeAt = time.UnixMilli(wakeAtMs).UTC()
		wakes = append(wakes, wake)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wake rows: %w", err)
	}
	return wakes, nil
}

func decodeMatchDocument(document string) (storage.MatchRecord, error) {
	var record storage.MatchRecord
	if err := json.Unmarshal([]byte(document), &record); err != nil {
		return storage.MatchRecord{}, fmt.Errorf("decode match document: %w", err)
	}
	return record, nil
}
