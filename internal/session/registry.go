// Package session tracks which user is signed in to which client tab.
//
// Each tab gets its own session id, and every piece of per-tab state (the
// workflow mirror keys in particular) is namespaced by it so that two tabs
// never overwrite each other. Changes are pushed to observers as they happen.
package session

import (
	"courier-service/internal/domain"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Tab is one signed-in client tab.
type Tab struct {
	SessionID string       `json:"session_id"`
	TabID     string       `json:"tab_id"`
	User      *domain.User `json:"user"`
	OpenedAt  time.Time    `json:"opened_at"`
}

type ChangeKind string

const (
	Opened       ChangeKind = "opened"
	UserSwitched ChangeKind = "user_switched"
	Closed       ChangeKind = "closed"
)

// Change is delivered to observers after every registry write.
type Change struct {
	Kind     ChangeKind
	Tab      Tab
	Previous *domain.User
}

// Registry holds the open tabs. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	tabs      map[string]*Tab
	observers []func(Change)
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		tabs: make(map[string]*Tab),
		now:  time.Now,
	}
}

// Subscribe registers fn to be called synchronously after each write.
func (r *Registry) Subscribe(fn func(Change)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Open starts a new tab session for user.
func (r *Registry) Open(user *domain.User) Tab {
	tab := &Tab{
		SessionID: uuid.NewString(),
		TabID:     "tab_" + uuid.NewString(),
		User:      user,
		OpenedAt:  r.now(),
	}

	r.mu.Lock()
	r.tabs[tab.SessionID] = tab
	observers := r.observers
	out := *tab
	r.mu.Unlock()

	notify(observers, Change{Kind: Opened, Tab: out})
	return out
}

func (r *Registry) Get(sessionID string) (Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[sessionID]
	if !ok {
		return Tab{}, ErrSessionNotFound
	}
	return *tab, nil
}

// SwitchUser replaces the signed-in user of an existing tab.
// Observers are only notified when the user id actually changes.
func (r *Registry) SwitchUser(sessionID string, user *domain.User) (Tab, error) {
	r.mu.Lock()
	tab, ok := r.tabs[sessionID]
	if !ok {
		r.mu.Unlock()
		return Tab{}, ErrSessionNotFound
	}
	prev := tab.User
	tab.User = user
	out := *tab
	observers := r.observers
	r.mu.Unlock()

	if prev != nil && user != nil && prev.ID == user.ID {
		return out, nil
	}
	notify(observers, Change{Kind: UserSwitched, Tab: out, Previous: prev})
	return out, nil
}

// Close ends a tab session; closing an unknown session is a no-op.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	tab, ok := r.tabs[sessionID]
	if ok {
		delete(r.tabs, sessionID)
	}
	observers := r.observers
	r.mu.Unlock()

	if ok {
		notify(observers, Change{Kind: Closed, Tab: *tab})
	}
}

// Len reports the number of open tabs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

func notify(observers []func(Change), c Change) {
	for _, fn := range observers {
		fn(c)
	}
}
