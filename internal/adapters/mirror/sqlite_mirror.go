package mirror

import (
	"context"
	"courier-service/internal/platform/obs"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLite-backed WorkflowMirror for single-node and local runs.
type SqliteMirror struct {
	DB *sql.DB
}

func NewSqliteMirror(db *sql.DB) *SqliteMirror {
	return &SqliteMirror{DB: db}
}

// InitSqliteSchema creates the mirror table if it does not exist.
func InitSqliteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init sqlite mirror schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS workflow_mirror (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init sqlite mirror schema: %w", err)
	}
	return nil
}

func (s *SqliteMirror) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "mirror.sqlite.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("sqlite mirror: db is nil")
	}

	var v string
	err = s.DB.QueryRowContext(ctx, `SELECT value FROM workflow_mirror WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get sqlite mirror: query %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SqliteMirror) Set(ctx context.Context, key, value string) (err error) {
	defer obs.Time(ctx, "mirror.sqlite.Set")(&err)

	if s.DB == nil {
		return errors.New("sqlite mirror: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("set sqlite mirror: empty key")
	}

	q := `
	INSERT OR REPLACE INTO workflow_mirror (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP);
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set sqlite mirror %q: %w", key, err)
	}
	return nil
}

func (s *SqliteMirror) Delete(ctx context.Context, keys ...string) (err error) {
	defer obs.Time(ctx, "mirror.sqlite.Delete")(&err)

	if s.DB == nil {
		return errors.New("sqlite mirror: db is nil")
	}
	if len(keys) == 0 {
		return nil
	}

	ph := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		ph = append(ph, "?")
		args = append(args, k)
	}

	// SQLite does not bind slices; only the placeholder list is interpolated.
	q := fmt.Sprintf(`DELETE FROM workflow_mirror WHERE key IN (%s);`, strings.Join(ph, ","))

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete sqlite mirror: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete sqlite mirror: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete sqlite mirror commit: %w", err)
	}
	return nil
}
