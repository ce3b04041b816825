package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/postgres.sql
var postgresSchema string

// Postgres is the shared Store for multi-instance deployments.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	slog.Info("store: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Keys(ctx context.Context) ([]string, int, error) {
	rows, err := p.pool.Query(ctx, `SELECT api_key FROM youseo_gemini_keys ORDER BY position`)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, 0, fmt.Errorf("store: list keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}

	var raw string
	err = p.pool.QueryRow(ctx, `SELECT value FROM youseo_settings WHERE name = $1`, cursorSetting).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return keys, 0, nil
	case err != nil:
		return nil, 0, fmt.Errorf("store: load cursor: %w", err)
	}
	cursor, _ := strconv.Atoi(raw)
	return keys, cursor, nil
}

func (p *Postgres) SetKeys(ctx context.Context, keys []string) error {
	keys = engine.CleanKeys(keys)
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM youseo_gemini_keys`); err != nil {
			return fmt.Errorf("store: clear keys: %w", err)
		}
		batch := &pgx.Batch{}
		for i, k := range keys {
			batch.Queue(`INSERT INTO youseo_gemini_keys (position, api_key) VALUES ($1, $2)`, i, k)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("store: insert keys: %w", err)
			}
		}
		return pgSetCursor(ctx, tx, 0)
	})
}

func (p *Postgres) SaveCursor(ctx context.Context, idx int) error {
	return pgSetCursor(ctx, p.pool, idx)
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgSetCursor(ctx context.Context, db pgExecer, idx int) error {
	_, err := db.Exec(ctx,
		`INSERT INTO youseo_settings (name, value) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		cursorSetting, strconv.Itoa(idx))
	if err != nil {
		return fmt.Errorf("store: save cursor: %w", err)
	}
	return nil
}

func (p *Postgres) AddHistory(ctx context.Context, item engine.HistoryItem, limit int) error {
	if item.VideoID == "" {
		return errEmptyVideoID
	}
	if limit <= 0 {
		limit = engine.DefaultHistoryLimit
	}
	at := time.Now().UTC()
	if item.AnalyzedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.AnalyzedAt); err == nil {
			at = t
		}
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM youseo_history WHERE video_id = $1`, item.VideoID); err != nil {
			return fmt.Errorf("store: dedupe history: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO youseo_history (video_id, url, title, analyzed_at) VALUES ($1, $2, $3, $4)`,
			item.VideoID, item.URL, item.Title, at); err != nil {
			return fmt.Errorf("store: insert history: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM youseo_history WHERE seq NOT IN
			 (SELECT seq FROM youseo_history ORDER BY seq DESC LIMIT $1)`, limit); err != nil {
			return fmt.Errorf("store: trim history: %w", err)
		}
		return nil
	})
}

func (p *Postgres) History(ctx context.Context) ([]engine.HistoryItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT url, title, video_id, analyzed_at FROM youseo_history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list history: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.HistoryItem, error) {
		var it engine.HistoryItem
		var at time.Time
		if err := row.Scan(&it.URL, &it.Title, &it.VideoID, &at); err != nil {
			return it, err
		}
		it.AnalyzedAt = at.UTC().Format(time.RFC3339)
		return it, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan history: %w", err)
	}
	if items == nil {
		items = []engine.HistoryItem{}
	}
	return items, nil
}

func (p *Postgres) DeleteHistory(ctx context.Context, videoID string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM youseo_history WHERE video_id = $1`, videoID)
	if err != nil {
		return false, fmt.Errorf("store: delete history: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) ClearHistory(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM youseo_history`); err != nil {
		return fmt.Errorf("store: clear history: %w", err)
	}
	return nil
}
