package mirror

import (
	"context"
	"courier-service/internal/platform/obs"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLMirror is a Postgres-backed WorkflowMirror over the workflow_mirror table.
type SQLMirror struct {
	DB *sql.DB
}

func NewSQLMirror(db *sql.DB) *SQLMirror {
	return &SQLMirror{DB: db}
}

func (s *SQLMirror) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "mirror.sql.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("sql mirror: db is nil")
	}

	q := `
	SELECT value
	FROM workflow_mirror
	WHERE key = $1;
	`

	var v string
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get workflow mirror: query %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLMirror) Set(ctx context.Context, key, value string) (err error) {
	defer obs.Time(ctx, "mirror.sql.Set")(&err)

	if s.DB == nil {
		return errors.New("sql mirror: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("set workflow mirror: empty key")
	}

	q := `
	INSERT INTO workflow_mirror (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set workflow mirror %q: %w", key, err)
	}
	return nil
}

func (s *SQLMirror) Delete(ctx context.Context, keys ...string) (err error) {
	defer obs.Time(ctx, "mirror.sql.Delete")(&err)

	if s.DB == nil {
		return errors.New("sql mirror: db is nil")
	}
	if len(keys) == 0 {
		return nil
	}

	q := `
	DELETE FROM workflow_mirror
	WHERE key = ANY($1::text[]);
	`
	if _, err := s.DB.ExecContext(ctx, q, keys); err != nil {
		return fmt.Errorf("delete workflow mirror: %w", err)
	}
	return nil
}
