package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteCache stores cache entries and the mission log in one SQLite file.
type SQLiteCache struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLiteCache(db *sqlx.DB) (*SQLiteCache, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	return &SQLiteCache{db: db, now: time.Now}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	c, err := NewSQLiteCache(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(c.now()),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *SQLiteCache) Remove(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (c *SQLiteCache) AppendMission(ctx context.Context, in MissionEntry) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO mission_completions (id, user_id, mission_id, name, water, waste, co2, time_slot, date, completed_at)
		VALUES (:id, :user_id, :mission_id, :name, :water, :waste, :co2, :time_slot, :date, :completed_at)`,
		rowFromEntry(in),
	)
	return err
}

func (c *SQLiteCache) ListMissions(ctx context.Context, filter MissionListFilter) ([]MissionEntry, error) {
	query := `SELECT id, user_id, mission_id, name, water, waste, co2, time_slot, date, completed_at
		FROM mission_completions WHERE user_id = ?`
	args := []any{filter.UserID}
	if filter.Date != "" {
		query += ` AND date = ?`
		args = append(args, filter.Date)
	}
	query += ` ORDER BY completed_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	var rows []missionRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]MissionEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, fmt.Errorf("parse mission %s: %w", row.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *SQLiteCache) DeleteMission(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM mission_completions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
