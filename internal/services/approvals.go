package services

import (
	"context"
	"courier-service/internal/apperr"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"courier-service/internal/realtime"
	"encoding/json"
	"errors"
	"fmt"
)

type CreateApprovalRequest struct {
	RequesterID   string
	RequesterName string
	RequestType   string
	TargetAdminID string
	RequestData   json.RawMessage
	CurrentData   json.RawMessage
	Notes         string
}

func (s *Service) ListApprovals(ctx context.Context) ([]*domain.ApprovalRequest, error) {
	out, err := s.Repos.Approvals.ListApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return out, nil
}

func (s *Service) ListPendingApprovals(ctx context.Context) ([]*domain.ApprovalRequest, error) {
	out, err := s.Repos.Approvals.ListPendingApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return out, nil
}

func (s *Service) CreateApproval(ctx context.Context, req CreateApprovalRequest, actor string) (*domain.ApprovalRequest, error) {
	if !json.Valid(req.RequestData) {
		return nil, apperr.Validation("request_data must be valid JSON")
	}
	if len(req.CurrentData) > 0 && !json.Valid(req.CurrentData) {
		return nil, apperr.Validation("current_data must be valid JSON")
	}

	a := &domain.ApprovalRequest{
		ID:            s.newID(),
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		RequestType:   req.RequestType,
		TargetAdminID: req.TargetAdminID,
		RequestData:   req.RequestData,
		CurrentData:   req.CurrentData,
		Status:        domain.ApprovalPending,
		CreatedAt:     s.now().UTC(),
		Notes:         req.Notes,
	}
	if err := s.Repos.Approvals.CreateApproval(ctx, a); err != nil {
		return nil, fmt.Errorf("create approval: %w", err)
	}

	s.Events.Broadcast(realtime.TypeApprovalRequestCreated, a, actor)
	return a, nil
}

// DecideApproval approves or rejects a pending request. A request that was
// already decided cannot be decided again.
func (s *Service) DecideApproval(ctx context.Context, id string, d domain.Decision, actor string) (*domain.ApprovalRequest, error) {
	if !domain.ValidDecision(d.Status) {
		return nil, apperr.Validation(fmt.Sprintf("status must be %q or %q", domain.ApprovalApproved, domain.ApprovalRejected))
	}
	if d.ApprovedBy == "" {
		d.ApprovedBy = actor
	}

	a, err := s.Repos.Approvals.DecideApproval(ctx, id, d)
	if errors.Is(err, ports.ErrConflict) {
		return nil, apperr.Conflict("approval request already decided").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("decide approval: %w", err)
	}

	s.Events.Broadcast(realtime.TypeApprovalRequestUpdated, a, actor)
	return a, nil
}
