// Package store persists the caller-owned state around key rotation:
// the Gemini key pool, the rotation cursor, and the analysis history.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/duongtho001/Youseo/internal/engine"
)

// Store is implemented by SQLite (default) and Postgres backends.
type Store interface {
	// Keys returns the key pool in priority order and the persisted cursor.
	Keys(ctx context.Context) ([]string, int, error)
	// SetKeys replaces the pool (trimmed, blanks dropped) and resets the cursor to 0.
	SetKeys(ctx context.Context, keys []string) error
	SaveCursor(ctx context.Context, idx int) error

	// AddHistory records an analysis, newest first, one entry per video, at most limit entries.
	AddHistory(ctx context.Context, item engine.HistoryItem, limit int) error
	History(ctx context.Context) ([]engine.HistoryItem, error)
	// DeleteHistory reports whether an entry was removed.
	DeleteHistory(ctx context.Context, videoID string) (bool, error)
	ClearHistory(ctx context.Context) error

	Close()
}

const cursorSetting = "key_cursor"

var errEmptyVideoID = errors.New("history item has no video id")

// Open selects Postgres when databaseURL is set, SQLite at sqlitePath otherwise.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return OpenPostgres(ctx, databaseURL)
	}
	if sqlitePath == "" {
		sqlitePath = DefaultSQLitePath()
	}
	return OpenSQLite(sqlitePath)
}

// DefaultSQLitePath is ~/.youseo/youseo.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".youseo", "youseo.db")
}

// SeedKeys stores keys when the pool is empty. Reports whether it seeded.
func SeedKeys(ctx context.Context, s Store, keys []string) (bool, error) {
	keys = engine.CleanKeys(keys)
	if len(keys) == 0 {
		return false, nil
	}
	existing, _, err := s.Keys(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	return true, s.SetKeys(ctx, keys)
}
