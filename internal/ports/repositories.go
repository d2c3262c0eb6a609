package ports

import (
	"context"
	"courier-service/internal/domain"
	"errors"
)

var (
	// ErrNotFound is returned by repositories when no record matches the key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("record already exists")
)

// Port: persistence for dashboard user accounts.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUserID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}

// Port: persistence for back-office package records.
// An empty kurirID lists every shipment.
type ShipmentRepository interface {
	ListShipments(ctx context.Context, kurirID string) ([]*domain.Shipment, error)
	GetShipment(ctx context.Context, id string) (*domain.Shipment, error)
	CreateShipment(ctx context.Context, s *domain.Shipment) error
	UpdateShipment(ctx context.Context, id string, patch domain.ShipmentPatch) (*domain.Shipment, error)
}

// Port: append-only courier activity log.
type ActivityRepository interface {
	ListActivities(ctx context.Context, kurirID string) ([]*domain.KurirActivity, error)
	CreateActivity(ctx context.Context, a *domain.KurirActivity) error
}

// Port: courier attendance records.
type AttendanceRepository interface {
	ListAttendance(ctx context.Context, kurirID string) ([]*domain.Attendance, error)
	CreateAttendance(ctx context.Context, a *domain.Attendance) error
}

// Port: approval request queue.
// DecideApproval fails with ErrConflict when the request is no longer pending.
type ApprovalRepository interface {
	ListApprovals(ctx context.Context) ([]*domain.ApprovalRequest, error)
	ListPendingApprovals(ctx context.Context) ([]*domain.ApprovalRequest, error)
	CreateApproval(ctx context.Context, a *domain.ApprovalRequest) error
	DecideApproval(ctx context.Context, id string, d domain.Decision) (*domain.ApprovalRequest, error)
}

// Repositories groups every record store the REST layer depends on.
type Repositories struct {
	Users      UserRepository
	Shipments  ShipmentRepository
	Activities ActivityRepository
	Attendance AttendanceRepository
	Approvals  ApprovalRepository
}
