package workflow

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidDailyInput is returned when the daily counts do not add up.
	ErrInvalidDailyInput = errors.New("invalid daily input")
	// ErrPackageNotFound is returned when a delivery id is not in the delivery set.
	ErrPackageNotFound = errors.New("delivery package not found")
	// ErrAlreadyProcessed is returned when a delivery item was already delivered or pended.
	ErrAlreadyProcessed = errors.New("delivery package already processed")
)

// Event describes one applied mutation.
type Event struct {
	SessionID string
	Step      domain.Step
	Changed   []Collection
	// Advanced is set when the mutation moved the workflow to Step.
	Advanced bool
}

// Store owns the workflow state of a single tab session.
//
// Every mutation is applied in memory first and then written to the mirror.
// A failed mirror write is returned to the caller but the in-memory change
// is kept; the next successful write brings the mirror back in line.
// Store is safe for concurrent use. Mirror writes, including the deletes in
// Reset, run under the store lock, so a slow mirror also delays Snapshot
// and Step readers of the same session.
type Store struct {
	mu        sync.Mutex
	state     Snapshot
	mirror    ports.WorkflowMirror
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	observers []func(Event)
}

type Option func(*Store)

// WithClock overrides the time source used for scan, delivery and return stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides package id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads the session's state from mirror and returns its Store.
func Open(ctx context.Context, sessionID string, mirror ports.WorkflowMirror, opts ...Option) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("open workflow: session id must be non-empty")
	}
	if mirror == nil {
		return nil, errors.New("open workflow: mirror is nil")
	}

	s := &Store{
		mirror: mirror,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := load(ctx, mirror, sessionID, s.logger)
	if err != nil {
		return nil, fmt.Errorf("open workflow: session %s: %w", sessionID, err)
	}
	s.state = state

	return s, nil
}

func (s *Store) SessionID() string { return s.state.SessionID }

// Subscribe registers fn to be called after every applied mutation.
// Callbacks run synchronously on the mutating goroutine, outside the lock.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Step
}

func (s *Store) CanProceedToScan() bool        { return s.Snapshot().CanProceedToScan() }
func (s *Store) CanProceedToDelivery() bool    { return s.Snapshot().CanProceedToDelivery() }
func (s *Store) CanProceedToPending() bool     { return s.Snapshot().CanProceedToPending() }
func (s *Store) CanProceedToPerformance() bool { return s.Snapshot().CanProceedToPerformance() }

// Summary reports the session's delivery performance.
func (s *Store) Summary() Summary { return Summarize(s.Snapshot()) }

// SaveDailyInput validates the daily counts and replaces the daily package
// template with total packages PKG001..PKGnnn, the first cod flagged COD.
// The scanned set belongs to the previous template and is cleared.
// Invalid counts are rejected before anything is changed.
func (s *Store) SaveDailyInput(ctx context.Context, total, cod, nonCOD int) error {
	if err := ValidateDailyInput(total, cod, nonCOD); err != nil {
		return err
	}

	return s.mutate(ctx, func(st *Snapshot) []Collection {
		now := s.now()
		pkgs := make([]domain.Package, total)
		for i := range pkgs {
			pkgs[i] = domain.Package{
				ID:             "daily_" + s.newID(),
				TrackingNumber: fmt.Sprintf("PKG%03d", i+1),
				IsCOD:          i < cod,
			}
		}
		st.DailyPackages = pkgs
		st.ScannedPackages = nil
		st.DailyInput = &domain.DailyInput{
			TotalPackages:  total,
			CODPackages:    cod,
			NonCODPackages: nonCOD,
			SavedAt:        now,
		}
		return []Collection{CollectionDailyInput, CollectionDailyPackages, CollectionScannedPackages}
	})
}

// ValidateDailyInput checks total > 0, non-negative parts, and cod+nonCOD == total.
func ValidateDailyInput(total, cod, nonCOD int) error {
	if total <= 0 {
		return fmt.Errorf("%w: total packages must be greater than 0", ErrInvalidDailyInput)
	}
	if cod < 0 || nonCOD < 0 {
		return fmt.Errorf("%w: package counts must not be negative", ErrInvalidDailyInput)
	}
	if cod+nonCOD != total {
		return fmt.Errorf("%w: COD (%d) + non-COD (%d) = %d does not match total (%d)",
			ErrInvalidDailyInput, cod, nonCOD, cod+nonCOD, total)
	}
	return nil
}

// AddScannedPackage appends a scanned package unless the tracking number
// is blank or already scanned in this session, in which case it reports false.
func (s *Store) AddScannedPackage(ctx context.Context, trackingNumber string, isCOD bool) (domain.ScannedPackage, bool, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return domain.ScannedPackage{}, false, nil
	}

	var (
		added domain.ScannedPackage
		ok    bool
	)
	err := s.mutate(ctx, func(st *Snapshot) []Collection {
		for _, p := range st.ScannedPackages {
			if p.TrackingNumber == trackingNumber {
				return nil
			}
		}
		added = domain.ScannedPackage{
			Package: domain.Package{
				ID:             "scanned_" + s.newID(),
				TrackingNumber: trackingNumber,
				IsCOD:          isCOD,
			},
			ScanTime: s.now(),
			Status:   "scanned",
		}
		st.ScannedPackages = append(st.ScannedPackages, added)
		ok = true
		return []Collection{CollectionScannedPackages}
	})
	return added, ok, err
}

// RemoveScannedPackage drops the scanned package with id; unknown ids are ignored.
func (s *Store) RemoveScannedPackage(ctx context.Context, id string) error {
	return s.mutate(ctx, func(st *Snapshot) []Collection {
		for i, p := range st.ScannedPackages {
			if p.ID == id {
				st.ScannedPackages = append(st.ScannedPackages[:i:i], st.ScannedPackages[i+1:]...)
				return []Collection{CollectionScannedPackages}
			}
		}
		return nil
	})
}

// StartDelivery replaces the delivery set with the scanned packages,
// keeping only id, tracking number and COD flag.
func (s *Store) StartDelivery(ctx context.Context) error {
	return s.mutate(ctx, func(st *Snapshot) []Collection {
		items := make([]domain.Package, 0, len(st.ScannedPackages))
		for _, p := range st.ScannedPackages {
			items = append(items, p.Package)
		}
		st.DeliveryPackages = items
		return []Collection{CollectionDeliveryPackages}
	})
}

// MarkAsDelivered records the delivery item id as handed to recipientName.
func (s *Store) MarkAsDelivered(ctx context.Context, id, recipientName, proofPhoto string) error {
	var lookupErr error
	err := s.mutate(ctx, func(st *Snapshot) []Collection {
		pkg, err := st.deliveryItem(id)
		if err != nil {
			lookupErr = err
			return nil
		}
		st.DeliveredPackages = append(st.DeliveredPackages, domain.DeliveredPackage{
			Package:       pkg,
			RecipientName: recipientName,
			ProofPhoto:    proofPhoto,
			DeliveredAt:   s.now(),
		})
		return []Collection{CollectionDeliveredPackages}
	})
	if lookupErr != nil {
		return fmt.Errorf("mark delivered: %q: %w", id, lookupErr)
	}
	return err
}

// MarkAsPending records the delivery item id as undeliverable for reason.
func (s *Store) MarkAsPending(ctx context.Context, id, reason string) error {
	var lookupErr error
	err := s.mutate(ctx, func(st *Snapshot) []Collection {
		pkg, err := st.deliveryItem(id)
		if err != nil {
			lookupErr = err
			return nil
		}
		st.PendingPackages = append(st.PendingPackages, domain.PendingPackage{
			Package: pkg,
			Reason:  reason,
		})
		return []Collection{CollectionPendingPackages}
	})
	if lookupErr != nil {
		return fmt.Errorf("mark pending: %q: %w", id, lookupErr)
	}
	return err
}

// ReturnAllPendingToWarehouse stamps every outstanding pending package with
// the receiving leader, the return photo and the current time. Packages
// already returned keep their original stamp. It returns how many were stamped.
func (s *Store) ReturnAllPendingToWarehouse(ctx context.Context, leaderName, returnPhoto string) (int, error) {
	n := 0
	err := s.mutate(ctx, func(st *Snapshot) []Collection {
		now := s.now()
		for i := range st.PendingPackages {
			p := &st.PendingPackages[i]
			if p.Returned() {
				continue
			}
			t := now
			p.LeaderName = leaderName
			p.ReturnPhoto = returnPhoto
			p.ReturnedAt = &t
			n++
		}
		if n == 0 {
			return nil
		}
		return []Collection{CollectionPendingPackages}
	})
	return n, err
}

// AutoProgress advances the workflow by at most one step when the current
// step's forward guard holds. It returns the resulting step and whether it moved.
func (s *Store) AutoProgress(ctx context.Context) (domain.Step, bool, error) {
	var advanced bool
	err := s.mutate(ctx, func(st *Snapshot) []Collection {
		next, ok := Next(st.Step, *st)
		if !ok {
			return nil
		}
		st.Step = next
		advanced = true
		return []Collection{CollectionStep}
	})
	return s.Step(), advanced, err
}

// Reset discards the whole day's state and returns to the input step.
// Every mirrored key of the session is removed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.state.SessionID
	s.state = Snapshot{SessionID: sessionID, Step: domain.StepInput}

	keys := make([]string, 0, len(AllCollections))
	for _, c := range AllCollections {
		keys = append(keys, Key(c, sessionID))
	}
	err := s.mirror.Delete(ctx, keys...)
	ev := Event{SessionID: sessionID, Step: domain.StepInput, Changed: AllCollections}
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("reset workflow: session %s: %w", sessionID, err)
	}
	notify(observers, ev)
	return nil
}

// mutate applies fn under the lock and persists the collections it reports
// as changed. A nil result means nothing changed and nothing is written.
func (s *Store) mutate(ctx context.Context, fn func(st *Snapshot) []Collection) error {
	s.mu.Lock()
	prevStep := s.state.Step
	changed := fn(&s.state)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}

	err := save(ctx, s.mirror, &s.state, changed)
	ev := Event{
		SessionID: s.state.SessionID,
		Step:      s.state.Step,
		Changed:   changed,
		Advanced:  s.state.Step != prevStep,
	}
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("workflow mirror write failed",
			zap.String("session_id", ev.SessionID),
			zap.Error(err),
		)
		return err
	}
	notify(observers, ev)
	return nil
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}

// deliveryItem finds id in the delivery set and checks it is unprocessed.
func (st *Snapshot) deliveryItem(id string) (domain.Package, error) {
	var (
		pkg   domain.Package
		found bool
	)
	for _, p := range st.DeliveryPackages {
		if p.ID == id {
			pkg, found = p, true
			break
		}
	}
	if !found {
		return domain.Package{}, ErrPackageNotFound
	}

	for _, p := range st.DeliveredPackages {
		if p.ID == id {
			return domain.Package{}, ErrAlreadyProcessed
		}
	}
	for _, p := range st.PendingPackages {
		if p.ID == id {
			return domain.Package{}, ErrAlreadyProcessed
		}
	}
	return pkg, nil
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.DailyInput != nil {
		in := *s.DailyInput
		out.DailyInput = &in
	}
	out.DailyPackages = append([]domain.Package{}, s.DailyPackages...)
	out.ScannedPackages = append([]domain.ScannedPackage{}, s.ScannedPackages...)
	out.DeliveryPackages = append([]domain.Package{}, s.DeliveryPackages...)
	out.DeliveredPackages = append([]domain.DeliveredPackage{}, s.DeliveredPackages...)
	out.PendingPackages = make([]domain.PendingPackage, len(s.PendingPackages))
	for i, p := range s.PendingPackages {
		if p.ReturnedAt != nil {
			t := *p.ReturnedAt
			p.ReturnedAt = &t
		}
		out.PendingPackages[i] = p
	}
	return out
}
