package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/platform/obs"
	"database/sql"
	"fmt"
)

// Postgres-backed implementation of the ActivityRepository port.
type PostgresActivityRepository struct{ DB *sql.DB }

func (r *PostgresActivityRepository) ListActivities(ctx context.Context, kurirID string) (out []*domain.KurirActivity, err error) {
	defer obs.Time(ctx, "activities.List")(&err)

	query := `
	SELECT id, kurir_id, kurir_name, activity_type, description, lokasi, waktu, status, created_at
	FROM kurir_activities`
	var args []any
	if kurirID != "" {
		query += ` WHERE kurir_id = $1`
		args = append(args, kurirID)
	}
	query += ` ORDER BY waktu DESC;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: query kurir_activities table: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.KurirActivity, 0, 64)
	for rows.Next() {
		var (
			a                   domain.KurirActivity
			description, lokasi sql.NullString
		)
		err := rows.Scan(&a.ID, &a.KurirID, &a.KurirName, &a.ActivityType, &description, &lokasi, &a.Waktu, &a.Status, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("list activities: scan row: %w", err)
		}
		a.Description = description.String
		a.Lokasi = lokasi.String
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activities: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresActivityRepository) CreateActivity(ctx context.Context, a *domain.KurirActivity) (err error) {
	defer obs.Time(ctx, "activities.Create")(&err)

	query := `
	INSERT INTO kurir_activities (
		id, kurir_id, kurir_name, activity_type, description, lokasi, waktu, status, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.DB.ExecContext(ctx, query,
		a.ID, a.KurirID, a.KurirName, a.ActivityType,
		nullable(a.Description), nullable(a.Lokasi), a.Waktu, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create activity: kurir_id=%q: %w", a.KurirID, mapError(err))
	}
	return nil
}
