package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/platform/obs"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Postgres-backed implementation of the UserRepository port.
type PostgresUserRepository struct{ DB *sql.DB }

const userColumns = `
	id, user_id, email, password_hash, name, role,
	wilayah, area, lokasi_kerja, phone, status, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                                 domain.User
		role                              string
		wilayah, area, lokasiKerja, phone sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.UserID, &u.Email, &u.PasswordHash, &u.Name, &role,
		&wilayah, &area, &lokasiKerja, &phone, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Wilayah = wilayah.String
	u.Area = area.String
	u.LokasiKerja = lokasiKerja.String
	u.Phone = phone.String
	return &u, nil
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context) (users []*domain.User, err error) {
	defer obs.Time(ctx, "users.List")(&err)
	if r.DB == nil {
		return nil, errors.New("postgres user repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list users: query users table: %w", err)
	}
	defer rows.Close()

	users = make([]*domain.User, 0, 32)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: scan row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: row iteration: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1;`, value)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user: %s=%q: %w", column, value, mapError(err))
	}
	return u, nil
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresUserRepository) GetUserByUserID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getBy(ctx, "user_id", userID)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *domain.User) (err error) {
	defer obs.Time(ctx, "users.Create")(&err)

	query := `
	INSERT INTO users (
		id, user_id, email, password_hash, name, role,
		wilayah, area, lokasi_kerja, phone, status, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.DB.ExecContext(ctx, query,
		u.ID, u.UserID, u.Email, u.PasswordHash, u.Name, string(u.Role),
		nullable(u.Wilayah), nullable(u.Area), nullable(u.LokasiKerja), nullable(u.Phone),
		u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: user_id=%q: %w", u.UserID, mapError(err))
	}
	return nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (u *domain.User, err error) {
	defer obs.Time(ctx, "users.Update")(&err)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update user: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u, err = scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE;`, id))
	if err != nil {
		return nil, fmt.Errorf("update user: id=%q: %w", id, mapError(err))
	}

	patch.Apply(u)
	u.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE users SET
		name = $2, role = $3, wilayah = $4, area = $5,
		lokasi_kerja = $6, phone = $7, status = $8, updated_at = $9
	WHERE id = $1;
	`
	_, err = tx.ExecContext(ctx, query,
		u.ID, u.Name, string(u.Role), nullable(u.Wilayah), nullable(u.Area),
		nullable(u.LokasiKerja), nullable(u.Phone), u.Status, u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: id=%q: %w", id, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update user: commit tx: %w", err)
	}
	return u, nil
}
