package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/platform/obs"
	"courier-service/internal/ports"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Postgres-backed implementation of the ApprovalRepository port.
type PostgresApprovalRepository struct{ DB *sql.DB }

const approvalColumns = `
	id, requester_id, requester_name, request_type, target_admin_id,
	request_data, current_data, status, approved_by, approved_at, created_at, notes`

func scanApproval(row rowScanner) (*domain.ApprovalRequest, error) {
	var (
		a                                  domain.ApprovalRequest
		requestData                        string
		targetAdmin, currentData, approver sql.NullString
		notes                              sql.NullString
		approvedAt                         sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.RequesterID, &a.RequesterName, &a.RequestType, &targetAdmin,
		&requestData, &currentData, &a.Status, &approver, &approvedAt, &a.CreatedAt, &notes,
	)
	if err != nil {
		return nil, err
	}
	a.TargetAdminID = targetAdmin.String
	a.RequestData = json.RawMessage(requestData)
	if currentData.Valid {
		a.CurrentData = json.RawMessage(currentData.String)
	}
	a.ApprovedBy = approver.String
	a.ApprovedAt = timePtr(approvedAt)
	a.Notes = notes.String
	return &a, nil
}

func (r *PostgresApprovalRepository) list(ctx context.Context, where string, args ...any) ([]*domain.ApprovalRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+approvalColumns+` FROM approval_requests `+where+` ORDER BY created_at DESC;`, args...)
	if err != nil {
		return nil, fmt.Errorf("list approvals: query approval_requests table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.ApprovalRequest, 0, 16)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("list approvals: scan row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list approvals: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresApprovalRepository) ListApprovals(ctx context.Context) (out []*domain.ApprovalRequest, err error) {
	defer obs.Time(ctx, "approvals.List")(&err)
	return r.list(ctx, "")
}

func (r *PostgresApprovalRepository) ListPendingApprovals(ctx context.Context) (out []*domain.ApprovalRequest, err error) {
	defer obs.Time(ctx, "approvals.ListPending")(&err)
	return r.list(ctx, "WHERE status = $1", domain.ApprovalPending)
}

func (r *PostgresApprovalRepository) CreateApproval(ctx context.Context, a *domain.ApprovalRequest) (err error) {
	defer obs.Time(ctx, "approvals.Create")(&err)

	var currentData any
	if len(a.CurrentData) > 0 {
		currentData = string(a.CurrentData)
	}

	query := `
	INSERT INTO approval_requests (
		id, requester_id, requester_name, request_type, target_admin_id,
		request_data, current_data, status, created_at, notes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.DB.ExecContext(ctx, query,
		a.ID, a.RequesterID, a.RequesterName, a.RequestType, nullable(a.TargetAdminID),
		string(a.RequestData), currentData, a.Status, a.CreatedAt, nullable(a.Notes),
	)
	if err != nil {
		return fmt.Errorf("create approval: requester=%q: %w", a.RequesterID, mapError(err))
	}
	return nil
}

func (r *PostgresApprovalRepository) DecideApproval(ctx context.Context, id string, d domain.Decision) (a *domain.ApprovalRequest, err error) {
	defer obs.Time(ctx, "approvals.Decide")(&err)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("decide approval: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err = scanApproval(tx.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1 FOR UPDATE;`, id))
	if err != nil {
		return nil, fmt.Errorf("decide approval: id=%q: %w", id, mapError(err))
	}
	if a.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("decide approval: id=%q status=%s: %w", id, a.Status, ports.ErrConflict)
	}

	d.Apply(a, time.Now().UTC())

	query := `
	UPDATE approval_requests SET status = $2, approved_by = $3, approved_at = $4, notes = $5
	WHERE id = $1;
	`
	_, err = tx.ExecContext(ctx, query, a.ID, a.Status, nullable(a.ApprovedBy), nullableTime(a.ApprovedAt), nullable(a.Notes))
	if err != nil {
		return nil, fmt.Errorf("decide approval: id=%q: %w", id, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("decide approval: commit tx: %w", err)
	}
	return a, nil
}
