package repositories

import (
	"courier-service/internal/ports"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// NewPostgresRepositories returns every record store backed by db.
func NewPostgresRepositories(db *sql.DB) ports.Repositories {
	return ports.Repositories{
		Users:      &PostgresUserRepository{DB: db},
		Shipments:  &PostgresShipmentRepository{DB: db},
		Activities: &PostgresActivityRepository{DB: db},
		Attendance: &PostgresAttendanceRepository{DB: db},
		Approvals:  &PostgresApprovalRepository{DB: db},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

// mapError turns driver errors into the port's sentinel errors.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ports.ErrConflict
	}
	return err
}

// nullable stores "" as SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
