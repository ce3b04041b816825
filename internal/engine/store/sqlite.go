package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLite is the default single-node Store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() { s.db.Close() }

func (s *SQLite) Keys(ctx context.Context) ([]string, int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT api_key FROM gemini_keys ORDER BY position`)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, 0, fmt.Errorf("store: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: list keys: %w", err)
	}

	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, cursorSetting).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return keys, 0, nil
	case err != nil:
		return nil, 0, fmt.Errorf("store: load cursor: %w", err)
	}
	cursor, _ := strconv.Atoi(raw)
	return keys, cursor, nil
}

func (s *SQLite) SetKeys(ctx context.Context, keys []string) error {
	keys = engine.CleanKeys(keys)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gemini_keys`); err != nil {
		return fmt.Errorf("store: clear keys: %w", err)
	}
	for i, k := range keys {
		if _, err := tx.ExecContext(ctx, `INSERT INTO gemini_keys (position, api_key) VALUES (?, ?)`, i, k); err != nil {
			return fmt.Errorf("store: insert key: %w", err)
		}
	}
	if err := sqliteSetCursor(ctx, tx, 0); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) SaveCursor(ctx context.Context, idx int) error {
	return sqliteSetCursor(ctx, s.db, idx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqliteSetCursor(ctx context.Context, db execer, idx int) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		cursorSetting, strconv.Itoa(idx))
	if err != nil {
		return fmt.Errorf("store: save cursor: %w", err)
	}
	return nil
}

func (s *SQLite) AddHistory(ctx context.Context, item engine.HistoryItem, limit int) error {
	if item.VideoID == "" {
		return errEmptyVideoID
	}
	if limit <= 0 {
		limit = engine.DefaultHistoryLimit
	}
	if item.AnalyzedAt == "" {
		item.AnalyzedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE video_id = ?`, item.VideoID); err != nil {
		return fmt.Errorf("store: dedupe history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (video_id, url, title, analyzed_at) VALUES (?, ?, ?, ?)`,
		item.VideoID, item.URL, item.Title, item.AnalyzedAt); err != nil {
		return fmt.Errorf("store: insert history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`,
		limit); err != nil {
		return fmt.Errorf("store: trim history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) History(ctx context.Context) ([]engine.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, video_id, analyzed_at FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list history: %w", err)
	}
	defer rows.Close()

	items := []engine.HistoryItem{}
	for rows.Next() {
		var it engine.HistoryItem
		if err := rows.Scan(&it.URL, &it.Title, &it.VideoID, &it.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLite) DeleteHistory(ctx context.Context, videoID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE video_id = ?`, videoID)
	if err != nil {
		return false, fmt.Errorf("store: delete history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("store: clear history: %w", err)
	}
	return nil
}
