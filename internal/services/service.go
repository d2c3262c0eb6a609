package services

import (
	"courier-service/internal/ports"
	"courier-service/internal/session"
	"time"

	"github.com/google/uuid"
)

// Service implements the REST use cases on top of the repository ports.
// Every successful write is announced through Events; actor is the
// user id of the caller and is excluded from the broadcast.
type Service struct {
	Repos    ports.Repositories
	Events   ports.Broadcaster
	Photos   ports.PhotoStore
	Sessions *session.Registry

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func New(repos ports.Repositories, events ports.Broadcaster, photos ports.PhotoStore, sessions *session.Registry, opts ...Option) *Service {
	if events == nil {
		events = nopBroadcaster{}
	}
	if sessions == nil {
		sessions = session.NewRegistry()
	}
	s := &Service{
		Repos:    repos,
		Events:   events,
		Photos:   photos,
		Sessions: sessions,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any, string) {}
