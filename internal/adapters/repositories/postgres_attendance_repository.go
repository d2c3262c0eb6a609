package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/platform/obs"
	"database/sql"
	"fmt"
)

// Postgres-backed implementation of the AttendanceRepository port.
// Dates and clock times travel as text so the domain keeps its string form.
type PostgresAttendanceRepository struct{ DB *sql.DB }

func (r *PostgresAttendanceRepository) ListAttendance(ctx context.Context, kurirID string) (out []*domain.Attendance, err error) {
	defer obs.Time(ctx, "attendance.List")(&err)

	query := `
	SELECT
		id, kurir_id, kurir_name, to_char(tanggal, 'YYYY-MM-DD'),
		jam_masuk::text, jam_keluar::text, lokasi_absen, foto_absen,
		status, total_jam::float8, created_at
	FROM attendance`
	var args []any
	if kurirID != "" {
		query += ` WHERE kurir_id = $1`
		args = append(args, kurirID)
	}
	query += ` ORDER BY tanggal DESC, created_at DESC;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: query attendance table: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.Attendance, 0, 64)
	for rows.Next() {
		var (
			a                           domain.Attendance
			masuk, keluar, lokasi, foto sql.NullString
			totalJam                    sql.NullFloat64
		)
		err := rows.Scan(
			&a.ID, &a.KurirID, &a.KurirName, &a.Tanggal,
			&masuk, &keluar, &lokasi, &foto,
			&a.Status, &totalJam, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list attendance: scan row: %w", err)
		}
		a.JamMasuk = masuk.String
		a.JamKeluar = keluar.String
		a.LokasiAbsen = lokasi.String
		a.FotoAbsen = foto.String
		if totalJam.Valid {
			v := totalJam.Float64
			a.TotalJam = &v
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresAttendanceRepository) CreateAttendance(ctx context.Context, a *domain.Attendance) (err error) {
	defer obs.Time(ctx, "attendance.Create")(&err)

	var totalJam any
	if a.TotalJam != nil {
		totalJam = *a.TotalJam
	}

	query := `
	INSERT INTO attendance (
		id, kurir_id, kurir_name, tanggal, jam_masuk, jam_keluar,
		lokasi_absen, foto_absen, status, total_jam, created_at
	)
	VALUES ($1, $2, $3, $4::text::date, $5::text::time, $6::text::time, $7, $8, $9, $10, $11);
	`
	_, err = r.DB.ExecContext(ctx, query,
		a.ID, a.KurirID, a.KurirName, a.Tanggal, nullable(a.JamMasuk), nullable(a.JamKeluar),
		nullable(a.LokasiAbsen), nullable(a.FotoAbsen), a.Status, totalJam, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create attendance: kurir_id=%q: %w", a.KurirID, mapError(err))
	}
	return nil
}
