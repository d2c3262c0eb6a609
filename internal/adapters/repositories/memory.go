package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps every record in process memory. It backs STORAGE=memory
// and the service and handler tests. Records are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      map[string]domain.User
	shipments  map[string]domain.Shipment
	activities []domain.KurirActivity
	attendance []domain.Attendance
	approvals  map[string]domain.ApprovalRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		users:     make(map[string]domain.User),
		shipments: make(map[string]domain.Shipment),
		approvals: make(map[string]domain.ApprovalRequest),
	}
}

// Repositories exposes the store through every repository port.
func (m *MemoryStore) Repositories() ports.Repositories {
	return ports.Repositories{
		Users:      m,
		Shipments:  m,
		Activities: m,
		Attendance: m,
		Approvals:  m,
	}
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ports.ErrNotFound)
}

// users

func (m *MemoryStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) findUser(match func(domain.User) bool, kind, key string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, notFound(kind, key)
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.ID == id }, "user", id)
}

func (m *MemoryStore) GetUserByUserID(_ context.Context, userID string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.UserID == userID }, "user_id", userID)
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.Email == email }, "email", email)
}

func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.ID == u.ID || existing.UserID == u.UserID || existing.Email == u.Email {
			return fmt.Errorf("create user %q: %w", u.UserID, ports.ErrConflict)
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	patch.Apply(&u)
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return &u, nil
}

// shipments

func (m *MemoryStore) ListShipments(_ context.Context, kurirID string) ([]*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Shipment, 0, len(m.shipments))
	for _, s := range m.shipments {
		if kurirID != "" && s.KurirID != kurirID {
			continue
		}
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetShipment(_ context.Context, id string) (*domain.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	return &s, nil
}

func (m *MemoryStore) CreateShipment(_ context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.shipments {
		if existing.ID == s.ID || existing.ResiNumber == s.ResiNumber {
			return fmt.Errorf("create shipment %q: %w", s.ResiNumber, ports.ErrConflict)
		}
	}
	m.shipments[s.ID] = *s
	return nil
}

func (m *MemoryStore) UpdateShipment(_ context.Context, id string, patch domain.ShipmentPatch) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	now := m.now().UTC()
	patch.Apply(&s, now)
	s.UpdatedAt = now
	m.shipments[id] = s
	return &s, nil
}

// activities

func (m *MemoryStore) ListActivities(_ context.Context, kurirID string) ([]*domain.KurirActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.KurirActivity, 0, len(m.activities))
	for _, a := range m.activities {
		if kurirID != "" && a.KurirID != kurirID {
			continue
		}
		out = append(out, &a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Waktu.After(out[j].Waktu) })
	return out, nil
}

func (m *MemoryStore) CreateActivity(_ context.Context, a *domain.KurirActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, *a)
	return nil
}

// attendance

func (m *MemoryStore) ListAttendance(_ context.Context, kurirID string) ([]*domain.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Attendance, 0, len(m.attendance))
	for _, a := range m.attendance {
		if kurirID != "" && a.KurirID != kurirID {
			continue
		}
		out = append(out, &a)
	}
	// Tanggal is YYYY-MM-DD, so string order is date order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tanggal != out[j].Tanggal {
			return out[i].Tanggal > out[j].Tanggal
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) CreateAttendance(_ context.Context, a *domain.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance = append(m.attendance, *a)
	return nil
}

// approvals

func (m *MemoryStore) listApprovals(match func(domain.ApprovalRequest) bool) []*domain.ApprovalRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.ApprovalRequest, 0, len(m.approvals))
	for _, a := range m.approvals {
		if match(a) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) ListApprovals(_ context.Context) ([]*domain.ApprovalRequest, error) {
	return m.listApprovals(func(domain.ApprovalRequest) bool { return true }), nil
}

func (m *MemoryStore) ListPendingApprovals(_ context.Context) ([]*domain.ApprovalRequest, error) {
	return m.listApprovals(func(a domain.ApprovalRequest) bool { return a.Status == domain.ApprovalPending }), nil
}

func (m *MemoryStore) CreateApproval(_ context.Context, a *domain.ApprovalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.approvals[a.ID]; ok {
		return fmt.Errorf("create approval %q: %w", a.ID, ports.ErrConflict)
	}
	m.approvals[a.ID] = *a
	return nil
}

func (m *MemoryStore) DecideApproval(_ context.Context, id string, d domain.Decision) (*domain.ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.approvals[id]
	if !ok {
		return nil, notFound("approval", id)
	}
	if a.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("decide approval %q: status %s: %w", id, a.Status, ports.ErrConflict)
	}
	d.Apply(&a, m.now().UTC())
	m.approvals[id] = a
	return &a, nil
}
