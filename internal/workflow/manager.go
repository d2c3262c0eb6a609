package workflow

import (
	"context"
	"courier-service/internal/ports"
	"sync"

	"go.uber.org/zap"
)

// Manager hands out one Store per session id, opening it from the mirror
// on first use. Sessions never share a Store or mirror keys.
type Manager struct {
	mu        sync.Mutex
	mirror    ports.WorkflowMirror
	opts      []Option
	stores    map[string]*Store
	observers []func(Event)
	logger    *zap.Logger
}

func NewManager(mirror ports.WorkflowMirror, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		mirror: mirror,
		opts:   append([]Option{WithLogger(logger)}, opts...),
		stores: make(map[string]*Store),
		logger: logger,
	}
}

// Subscribe registers fn on every Store the manager opens, past and future.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
	for _, s := range m.stores {
		s.Subscribe(fn)
	}
}

// Get returns the Store for sessionID, loading it from the mirror if needed.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s, nil
	}

	s, err := Open(ctx, sessionID, m.mirror, m.opts...)
	if err != nil {
		return nil, err
	}
	for _, fn := range m.observers {
		s.Subscribe(fn)
	}
	m.stores[sessionID] = s
	m.logger.Debug("workflow session opened", zap.String("session_id", sessionID))

	return s, nil
}

// Evict drops the in-memory Store of sessionID. Its mirrored state is kept
// and is reloaded by the next Get.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Len reports how many sessions are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
