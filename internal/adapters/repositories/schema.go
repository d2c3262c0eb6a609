package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the Postgres tables used by the record stores and the
// workflow mirror. It is safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		wilayah TEXT,
		area TEXT,
		lokasi_kerja TEXT,
		phone TEXT,
		status TEXT NOT NULL DEFAULT 'aktif',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createApprovalsQuery := `
	CREATE TABLE IF NOT EXISTS approval_requests (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		requester_name TEXT NOT NULL,
		request_type TEXT NOT NULL,
		target_admin_id TEXT,
		request_data TEXT NOT NULL,
		current_data TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT,
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		notes TEXT
	);
	`

	createActivitiesQuery := `
	CREATE TABLE IF NOT EXISTS kurir_activities (
		id TEXT PRIMARY KEY,
		kurir_id TEXT NOT NULL,
		kurir_name TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		description TEXT,
		lokasi TEXT,
		waktu TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL DEFAULT 'selesai',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createPackagesQuery := `
	CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		resi_number TEXT NOT NULL UNIQUE,
		kurir_id TEXT NOT NULL,
		kurir_name TEXT NOT NULL,
		pengirim TEXT NOT NULL,
		penerima TEXT NOT NULL,
		alamat_pengirim TEXT NOT NULL,
		alamat_penerima TEXT NOT NULL,
		status_pengiriman TEXT NOT NULL DEFAULT 'pickup',
		tanggal_pickup TIMESTAMPTZ,
		tanggal_terkirim TIMESTAMPTZ,
		berat NUMERIC(10, 2) NOT NULL DEFAULT 0,
		nilai_cod NUMERIC(15, 2) NOT NULL DEFAULT 0,
		catatan TEXT,
		foto_bukti_terkirim TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createAttendanceQuery := `
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		kurir_id TEXT NOT NULL,
		kurir_name TEXT NOT NULL,
		tanggal DATE NOT NULL,
		jam_masuk TIME,
		jam_keluar TIME,
		lokasi_absen TEXT,
		foto_absen TEXT,
		status TEXT NOT NULL DEFAULT 'hadir',
		total_jam NUMERIC(5, 2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createMirrorQuery := `
	CREATE TABLE IF NOT EXISTS workflow_mirror (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	indexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_packages_kurir_created ON packages (kurir_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_kurir_waktu ON kurir_activities (kurir_id, waktu DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_kurir_tanggal ON attendance (kurir_id, tanggal DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_approvals_status_created ON approval_requests (status, created_at DESC);`,
	}

	statements := []string{
		createUsersQuery,
		createApprovalsQuery,
		createActivitiesQuery,
		createPackagesQuery,
		createAttendanceQuery,
		createMirrorQuery,
	}
	statements = append(statements, indexQueries...)

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
