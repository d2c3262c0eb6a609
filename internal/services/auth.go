package services

import (
	"context"
	"courier-service/internal/apperr"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"courier-service/internal/session"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	User *domain.User `json:"user"`
	Tab  session.Tab  `json:"session"`
}

// authenticate checks credentials and returns the matching active user.
// Unknown email and wrong password produce the same error.
func (s *Service) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password required")
	}

	u, err := s.Repos.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if u.Status == domain.UserStatusInactive {
		return nil, apperr.Unauthorized("account is inactive")
	}
	return u, nil
}

// Login verifies the credentials and opens a new tab session for the user.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	tab := s.Sessions.Open(u)
	return LoginResult{User: u, Tab: tab}, nil
}

// SwitchUser signs a different user into an existing tab session.
func (s *Service) SwitchUser(ctx context.Context, sessionID, email, password string) (LoginResult, error) {
	if _, err := s.Sessions.Get(sessionID); err != nil {
		return LoginResult{}, err
	}
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	tab, err := s.Sessions.SwitchUser(sessionID, u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Tab: tab}, nil
}

// Logout closes the tab session. Unknown sessions are ignored.
func (s *Service) Logout(sessionID string) {
	s.Sessions.Close(sessionID)
}

// CurrentSession returns the tab registered under sessionID.
func (s *Service) CurrentSession(sessionID string) (session.Tab, error) {
	return s.Sessions.Get(sessionID)
}
