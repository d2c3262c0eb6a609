package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/platform/obs"
	"database/sql"
	"fmt"
	"time"
)

// Postgres-backed implementation of the ShipmentRepository port.
type PostgresShipmentRepository struct{ DB *sql.DB }

const shipmentColumns = `
	id, resi_number, kurir_id, kurir_name, pengirim, penerima,
	alamat_pengirim, alamat_penerima, status_pengiriman,
	tanggal_pickup, tanggal_terkirim, berat::float8, nilai_cod::float8,
	catatan, foto_bukti_terkirim, created_at, updated_at`

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var (
		s                  domain.Shipment
		pickup, terkirim   sql.NullTime
		catatan, fotoBukti sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.ResiNumber, &s.KurirID, &s.KurirName, &s.Pengirim, &s.Penerima,
		&s.AlamatPengirim, &s.AlamatPenerima, &s.Status,
		&pickup, &terkirim, &s.Berat, &s.NilaiCOD,
		&catatan, &fotoBukti, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.TanggalPickup = timePtr(pickup)
	s.TanggalTerkirim = timePtr(terkirim)
	s.Catatan = catatan.String
	s.FotoBuktiTerkirim = fotoBukti.String
	return &s, nil
}

// ListShipments returns the newest shipments first. An empty kurirID lists all.
func (r *PostgresShipmentRepository) ListShipments(ctx context.Context, kurirID string) (out []*domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.List")(&err)

	query := `SELECT ` + shipmentColumns + ` FROM packages`
	var args []any
	if kurirID != "" {
		query += ` WHERE kurir_id = $1`
		args = append(args, kurirID)
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: query packages table: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.Shipment, 0, 64)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("list shipments: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shipments: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresShipmentRepository) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := scanShipment(r.DB.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM packages WHERE id = $1;`, id))
	if err != nil {
		return nil, fmt.Errorf("get shipment: id=%q: %w", id, mapError(err))
	}
	return s, nil
}

func (r *PostgresShipmentRepository) CreateShipment(ctx context.Context, s *domain.Shipment) (err error) {
	defer obs.Time(ctx, "shipments.Create")(&err)

	query := `
	INSERT INTO packages (
		id, resi_number, kurir_id, kurir_name, pengirim, penerima,
		alamat_pengirim, alamat_penerima, status_pengiriman,
		tanggal_pickup, tanggal_terkirim, berat, nilai_cod,
		catatan, foto_bukti_terkirim, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = r.DB.ExecContext(ctx, query,
		s.ID, s.ResiNumber, s.KurirID, s.KurirName, s.Pengirim, s.Penerima,
		s.AlamatPengirim, s.AlamatPenerima, s.Status,
		nullableTime(s.TanggalPickup), nullableTime(s.TanggalTerkirim), s.Berat, s.NilaiCOD,
		nullable(s.Catatan), nullable(s.FotoBuktiTerkirim), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create shipment: resi=%q: %w", s.ResiNumber, mapError(err))
	}
	return nil
}

func (r *PostgresShipmentRepository) UpdateShipment(ctx context.Context, id string, patch domain.ShipmentPatch) (s *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.Update")(&err)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update shipment: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	s, err = scanShipment(tx.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM packages WHERE id = $1 FOR UPDATE;`, id))
	if err != nil {
		return nil, fmt.Errorf("update shipment: id=%q: %w", id, mapError(err))
	}

	now := time.Now().UTC()
	patch.Apply(s, now)
	s.UpdatedAt = now

	query := `
	UPDATE packages SET
		status_pengiriman = $2, catatan = $3, foto_bukti_terkirim = $4,
		tanggal_terkirim = $5, updated_at = $6
	WHERE id = $1;
	`
	_, err = tx.ExecContext(ctx, query,
		s.ID, s.Status, nullable(s.Catatan), nullable(s.FotoBuktiTerkirim),
		nullableTime(s.TanggalTerkirim), s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update shipment: id=%q: %w", id, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update shipment: commit tx: %w", err)
	}
	return s, nil
}
