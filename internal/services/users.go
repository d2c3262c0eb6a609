package services

import (
	"context"
	"courier-service/internal/apperr"
	"courier-service/internal/domain"
	"courier-service/internal/realtime"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	UserID      string
	Email       string
	Password    string
	Name        string
	Role        domain.Role
	Wilayah     string
	Area        string
	LokasiKerja string
	Phone       string
	Status      string
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.Repos.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser looks a user up by login handle.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Repos.Users.GetUserByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest, actor string) (*domain.User, error) {
	if !req.Role.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("invalid role %q", req.Role))
	}
	status := req.Status
	if status == "" {
		status = domain.UserStatusActive
	}
	if status != domain.UserStatusActive && status != domain.UserStatusInactive {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q", status))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := s.now().UTC()
	u := &domain.User{
		ID:           s.newID(),
		UserID:       strings.TrimSpace(req.UserID),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Wilayah:      req.Wilayah,
		Area:         req.Area,
		LokasiKerja:  req.LokasiKerja,
		Phone:        req.Phone,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repos.Users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Events.Broadcast(realtime.TypeUserCreated, u, actor)
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, patch domain.UserPatch, actor string) (*domain.User, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("invalid role %q", *patch.Role))
	}
	if patch.Status != nil && *patch.Status != domain.UserStatusActive && *patch.Status != domain.UserStatusInactive {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q", *patch.Status))
	}

	u, err := s.Repos.Users.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.Events.Broadcast(realtime.TypeUserUpdated, u, actor)
	return u, nil
}
