// Package sqlite provides SQLite-backed player persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/wordclash/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/wordclash/internal/services/player/domain"
	"github.com/louisbranch/wordclash/internal/services/player/storage"
	"github.com/louisbranch/wordclash/internal/services/player/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed player and result persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a player SQLite store and applies migrations.
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

// SavePlayer upserts one player record.
func (s *Store) SavePlayer(ctx context.Context, record storage.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = time.Now().UTC()

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (
	id,
	name,
	score,
	level,
	xp,
	gold,
	wins,
	losses,
	draws,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	score = excluded.score,
	level = excluded.level,
	xp = excluded.xp,
	gold = excluded.gold,
	wins = excluded.wins,
	losses = excluded.losses,
	draws = excluded.draws,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.Name,
		record.Score,
		record.Level,
		record.XP,
		record.Gold,
		record.Wins,
		record.Losses,
		record.Draws,
		record.CreatedAt.UTC().UnixMilli(),
		record.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

// GetPlayer loads one player record by id.
func (s *Store) GetPlayer(ctx context.Context, id string) (storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlayerRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PlayerRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.PlayerRecord{}, fmt.Errorf("player id is required")
	}

	var record storage.PlayerRecord
	var createdAtMs, updatedAtMs int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, score, level, xp, gold, wins, losses, draws, created_at, updated_at
FROM players
WHERE id = ?
`, id).Scan(
		&record.ID,
		&record.Name,
		&record.Score,
		&record.Level,
		&record.XP,
		&record.Gold,
		&record.Wins,
		&record.Losses,
		&record.Draws,
		&createdAtMs,
		&updatedAtMs,
	)
	if err == sql.ErrNoRows {
		return storage.PlayerRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	record.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	record.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
	return record, nil
}

// AddResult records one finished match for a player. Re-recording the same
// match overwrites the previous row, so settlement replays stay harmless.
func (s *Store) AddResult(ctx context.Context, record storage.ResultRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.PlayerID = strings.TrimSpace(record.PlayerID)
	record.MatchID = strings.TrimSpace(record.MatchID)
	if record.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if record.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	if record.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	vsBot := 0
	if record.VsBot {
		vsBot = 1
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO match_results (player_id, match_id, outcome, vs_bot, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(player_id, match_id) DO UPDATE SET
	outcome = excluded.outcome,
	vs_bot = excluded.vs_bot
`,
		record.PlayerID,
		record.MatchID,
		string(record.Outcome),
		vsBot,
		record.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("add result: %w", err)
	}
	return nil
}

// RecentResults lists a player's finished matches newest-first.
func (s *Store) RecentResults(ctx context.Context, playerID string, limit int) ([]storage.ResultRecord, error) {
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
SELECT player_id, match_id, outcome, vs_bot, created_at
FROM match_results
WHERE player_id = ?
ORDER BY created_at DESC, match_id DESC
LIMIT ?
`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	records := make([]storage.ResultRecord, 0, limit)
	for rows.Next() {
		var record storage.ResultRecord
		var outcome string
		var vsBot int
		var createdAtMs int64
		if err := rows.Scan(&record.PlayerID, &record.MatchID, &outcome, &vsBot, &createdAtMs); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		record.Outcome = domain.Outcome(outcome)
		record.VsBot = vsBot != 0
		record.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return records, nil
}

// Rank returns the player's 1-based leaderboard position. Players with equal
// score share a rank.
func (s *Store) Rank(ctx context.Context, playerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return 0, fmt.Errorf("player id is required")
	}

	var rank int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) + 1
FROM players
WHERE score > (SELECT score FROM players WHERE id = ?)
`, playerID).Scan(&rank)
	if err == sql.ErrNoRows {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("rank player: %w", err)
	}

	// The subquery yields NULL for an unknown player and the count still
	// scans, so confirm the player exists.
	var exists int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM players WHERE id = ?", playerID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("rank player: %w", err)
	}
	if exists == 0 {
		return 0, storage.ErrNotFound
	}
	return rank, nil
}

// Top lists the highest-scored players.
func (s *Store) Top(ctx context.Context, limit int) ([]storage.RankedEntry, error) {
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
SELECT id, name, score
FROM players
ORDER BY score DESC, id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.RankedEntry, 0, limit)
	rank := 0
	prevScore := 0
	for rows.Next() {
		var entry storage.RankedEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Name, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if len(entries) == 0 || entry.Score != prevScore {
			rank = len(entries) + 1
		}
		entry.Rank = rank
		prevScore = entry.Score
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return entries, nil
}
