package services

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/realtime"
	"fmt"
	"strings"
)

type CreateActivityRequest struct {
	KurirID      string
	KurirName    string
	ActivityType string
	Description  string
	Lokasi       string
	Status       string
}

func (s *Service) ListActivities(ctx context.Context, kurirID string) ([]*domain.KurirActivity, error) {
	out, err := s.Repos.Activities.ListActivities(ctx, strings.TrimSpace(kurirID))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

// CreateActivity logs an activity stamped with the current time.
func (s *Service) CreateActivity(ctx context.Context, req CreateActivityRequest, actor string) (*domain.KurirActivity, error) {
	status := req.Status
	if status == "" {
		status = "selesai"
	}

	now := s.now().UTC()
	a := &domain.KurirActivity{
		ID:           s.newID(),
		KurirID:      req.KurirID,
		KurirName:    req.KurirName,
		ActivityType: req.ActivityType,
		Description:  req.Description,
		Lokasi:       req.Lokasi,
		Waktu:        now,
		Status:       status,
		CreatedAt:    now,
	}
	if err := s.Repos.Activities.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.Events.Broadcast(realtime.TypeKurirActivityCreated, a, actor)
	return a, nil
}
