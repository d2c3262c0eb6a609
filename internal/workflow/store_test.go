package workflow

import (
	"context"
	"courier-service/internal/adapters/mirror"
	"courier-service/internal/domain"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func openTestStore(t *testing.T, m *mirror.MemoryMirror, clock *fixedClock) *Store {
	t.Helper()
	s, err := Open(context.Background(), "tab-1", m, WithClock(clock.now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return s
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func TestStoreFullDayScenario(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryMirror()
	s := openTestStore(t, m, newClock())

	require.Equal(t, domain.StepInput, s.Step())

	require.NoError(t, s.SaveDailyInput(ctx, 10, 4, 6))
	step, moved, err := s.AutoProgress(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, domain.StepScan, step)

	for i := 1; i <= 10; i++ {
		_, ok, err := s.AddScannedPackage(ctx, fmt.Sprintf("PKG%03d", i), i <= 4)
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.NoError(t, s.StartDelivery(ctx))
	step, _, err = s.AutoProgress(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StepDelivery, step)

	items := s.Snapshot().DeliveryPackages
	require.Len(t, items, 10)

	for _, p := range items[:8] {
		require.NoError(t, s.MarkAsDelivered(ctx, p.ID, "Recipient "+p.TrackingNumber, "photo-"+p.ID))
		step, _, err = s.AutoProgress(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.StepDelivery, step)
	}
	require.NoError(t, s.MarkAsPending(ctx, items[8].ID, "recipient not home"))
	step, _, _ = s.AutoProgress(ctx)
	require.Equal(t, domain.StepDelivery, step, "one item still unprocessed")

	require.NoError(t, s.MarkAsPending(ctx, items[9].ID, "address not found"))
	step, moved, err = s.AutoProgress(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, domain.StepPending, step)

	n, err := s.ReturnAllPendingToWarehouse(ctx, "Budi", "return.jpg")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	step, moved, err = s.AutoProgress(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, domain.StepPerformance, step)

	sum := s.Summary()
	assert.Equal(t, 10, sum.TotalPackages)
	assert.Equal(t, 8, sum.Delivered)
	assert.Equal(t, 2, sum.Returned)
	assert.Equal(t, 0, sum.Outstanding)
	assert.Equal(t, 80, sum.SuccessRate)

	// Terminal until reset.
	_, moved, err = s.AutoProgress(ctx)
	require.NoError(t, err)
	require.False(t, moved)
}

func TestSaveDailyInput(t *testing.T) {
	ctx := context.Background()

	valid := [][3]int{{10, 4, 6}, {1, 1, 0}, {1, 0, 1}, {25, 0, 25}, {7, 7, 0}}
	for _, in := range valid {
		s := openTestStore(t, mirror.NewMemoryMirror(), newClock())
		require.NoError(t, s.SaveDailyInput(ctx, in[0], in[1], in[2]), "input %v", in)

		pkgs := s.Snapshot().DailyPackages
		require.Len(t, pkgs, in[0])
		cod := 0
		for _, p := range pkgs {
			if p.IsCOD {
				cod++
			}
		}
		assert.Equal(t, in[1], cod, "input %v", in)
		assert.Equal(t, "PKG001", pkgs[0].TrackingNumber)
	}

	invalid := [][3]int{{10, 4, 5}, {10, 6, 6}, {0, 0, 0}, {-1, 0, -1}, {3, -1, 4}}
	for _, in := range invalid {
		s := openTestStore(t, mirror.NewMemoryMirror(), newClock())
		err := s.SaveDailyInput(ctx, in[0], in[1], in[2])
		require.ErrorIs(t, err, ErrInvalidDailyInput, "input %v", in)
		assert.Empty(t, s.Snapshot().DailyPackages)
		assert.Nil(t, s.Snapshot().DailyInput)
	}
}

func TestSaveDailyInputClearsScannedSet(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryMirror()
	s := openTestStore(t, m, newClock())

	require.NoError(t, s.SaveDailyInput(ctx, 2, 1, 1))
	_, ok, err := s.AddScannedPackage(ctx, "PKG001", true)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.SaveDailyInput(ctx, 3, 0, 3))
	assert.Empty(t, s.Snapshot().ScannedPackages)

	// The new day's template scans cleanly.
	_, ok, err = s.AddScannedPackage(ctx, "PKG001", false)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.SaveDailyInput(ctx, 1, 1, 0))
	reopened, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)
	assert.Empty(t, reopened.Snapshot().ScannedPackages, "the cleared set is mirrored")
}

func TestAddScannedPackageRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, mirror.NewMemoryMirror(), newClock())

	first, ok, err := s.AddScannedPackage(ctx, "PKG001", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "scanned", first.Status)

	_, ok, err = s.AddScannedPackage(ctx, "PKG001", false)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = s.AddScannedPackage(ctx, "  PKG001 ", false)
	assert.False(t, ok, "tracking numbers are compared trimmed")

	_, ok, _ = s.AddScannedPackage(ctx, "   ", false)
	assert.False(t, ok, "blank tracking number is not added")

	assert.Len(t, s.Snapshot().ScannedPackages, 1)

	require.NoError(t, s.RemoveScannedPackage(ctx, first.ID))
	require.NoError(t, s.RemoveScannedPackage(ctx, "missing"))
	assert.Empty(t, s.Snapshot().ScannedPackages)

	_, ok, _ = s.AddScannedPackage(ctx, "PKG001", false)
	assert.True(t, ok, "removed tracking number can be scanned again")
}

func TestStartDeliveryCopiesScannedSet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, mirror.NewMemoryMirror(), newClock())

	for i, cod := range []bool{true, false, true} {
		_, _, err := s.AddScannedPackage(ctx, fmt.Sprintf("R%d", i), cod)
		require.NoError(t, err)
	}

	require.NoError(t, s.StartDelivery(ctx))
	require.NoError(t, s.StartDelivery(ctx))

	snap := s.Snapshot()
	require.Len(t, snap.ScannedPackages, 3)
	require.Len(t, snap.DeliveryPackages, 3)
	for i, p := range snap.DeliveryPackages {
		assert.Equal(t, snap.ScannedPackages[i].Package, p)
	}
}

func TestMarkUnknownOrProcessedPackage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, mirror.NewMemoryMirror(), newClock())

	_, _, err := s.AddScannedPackage(ctx, "PKG001", false)
	require.NoError(t, err)
	require.NoError(t, s.StartDelivery(ctx))
	id := s.Snapshot().DeliveryPackages[0].ID

	err = s.MarkAsDelivered(ctx, "nope", "A", "p")
	require.ErrorIs(t, err, ErrPackageNotFound)
	err = s.MarkAsPending(ctx, "nope", "closed")
	require.ErrorIs(t, err, ErrPackageNotFound)

	require.NoError(t, s.MarkAsDelivered(ctx, id, "A", "p"))
	require.ErrorIs(t, s.MarkAsDelivered(ctx, id, "A", "p"), ErrAlreadyProcessed)
	require.ErrorIs(t, s.MarkAsPending(ctx, id, "closed"), ErrAlreadyProcessed)

	snap := s.Snapshot()
	assert.Len(t, snap.DeliveredPackages, 1)
	assert.Empty(t, snap.PendingPackages)
}

func TestReturnAllPendingKeepsEarlierReturns(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := openTestStore(t, mirror.NewMemoryMirror(), clock)

	for _, r := range []string{"A", "B", "C"} {
		_, _, err := s.AddScannedPackage(ctx, r, false)
		require.NoError(t, err)
	}
	require.NoError(t, s.StartDelivery(ctx))
	items := s.Snapshot().DeliveryPackages

	require.NoError(t, s.MarkAsPending(ctx, items[0].ID, "closed"))
	n, err := s.ReturnAllPendingToWarehouse(ctx, "Budi", "first.jpg")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	firstReturn := clock.t

	clock.advance(time.Hour)
	require.NoError(t, s.MarkAsPending(ctx, items[1].ID, "refused"))
	require.NoError(t, s.MarkAsPending(ctx, items[2].ID, "wrong address"))

	n, err = s.ReturnAllPendingToWarehouse(ctx, "Sari", "second.jpg")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	pending := s.Snapshot().PendingPackages
	require.Len(t, pending, 3)
	assert.Equal(t, "Budi", pending[0].LeaderName)
	assert.True(t, pending[0].ReturnedAt.Equal(firstReturn))
	for _, p := range pending[1:] {
		assert.Equal(t, "Sari", p.LeaderName)
		assert.Equal(t, "second.jpg", p.ReturnPhoto)
		assert.True(t, p.ReturnedAt.Equal(clock.t))
	}

	n, err = s.ReturnAllPendingToWarehouse(ctx, "Joko", "third.jpg")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryMirror()
	clock := newClock()
	s := openTestStore(t, m, clock)

	require.NoError(t, s.SaveDailyInput(ctx, 2, 1, 1))
	_, _, err := s.AutoProgress(ctx)
	require.NoError(t, err)
	scanned, _, err := s.AddScannedPackage(ctx, "PKG001", true)
	require.NoError(t, err)
	require.NoError(t, s.StartDelivery(ctx))
	require.NoError(t, s.MarkAsPending(ctx, scanned.ID, "closed"))

	reopened, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)

	got := reopened.Snapshot()
	want := s.Snapshot()
	assert.Equal(t, domain.StepScan, got.Step)
	assert.Equal(t, want.DailyPackages, got.DailyPackages)
	assert.Equal(t, want.PendingPackages, got.PendingPackages)
	require.Len(t, got.ScannedPackages, 1)
	assert.True(t, got.ScannedPackages[0].ScanTime.Equal(clock.t), "scan time is rehydrated")
	require.NotNil(t, got.DailyInput)
	assert.Equal(t, 2, got.DailyInput.TotalPackages)

	other, err := Open(ctx, "tab-2", m)
	require.NoError(t, err)
	assert.Empty(t, other.Snapshot().DailyPackages, "sessions do not share state")
}

func TestUnreadableMirrorValueLoadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryMirror()
	require.NoError(t, m.Set(ctx, Key(CollectionScannedPackages, "tab-1"), "{not json"))
	require.NoError(t, m.Set(ctx, Key(CollectionStep, "tab-1"), "teleport"))
	require.NoError(t, m.Set(ctx, Key(CollectionDailyPackages, "tab-1"), `[{"id":"d1","trackingNumber":"PKG001","isCOD":true}]`))

	s, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.ScannedPackages)
	assert.Equal(t, domain.StepInput, snap.Step)
	assert.Len(t, snap.DailyPackages, 1)
}

func TestResetClearsStateAndMirror(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryMirror()
	s := openTestStore(t, m, newClock())

	require.NoError(t, s.SaveDailyInput(ctx, 3, 0, 3))
	_, _, err := s.AutoProgress(ctx)
	require.NoError(t, err)
	_, _, err = s.AddScannedPackage(ctx, "PKG001", false)
	require.NoError(t, err)
	require.NoError(t, s.StartDelivery(ctx))
	require.Greater(t, m.Len(), 0)

	require.NoError(t, s.Reset(ctx))

	snap := s.Snapshot()
	assert.Equal(t, domain.StepInput, snap.Step)
	assert.Empty(t, snap.DailyPackages)
	assert.Empty(t, snap.ScannedPackages)
	assert.Empty(t, snap.DeliveryPackages)
	assert.Empty(t, snap.DeliveredPackages)
	assert.Empty(t, snap.PendingPackages)
	assert.Zero(t, m.Len())

	reopened, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)
	assert.Equal(t, domain.StepInput, reopened.Step())
	assert.Empty(t, reopened.Snapshot().DailyPackages)
}

func TestObserversSeeEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, mirror.NewMemoryMirror(), newClock())

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	require.NoError(t, s.SaveDailyInput(ctx, 1, 0, 1))
	_, _, err := s.AutoProgress(ctx)
	require.NoError(t, err)
	_, _, err = s.AutoProgress(ctx) // guard fails, no event
	require.NoError(t, err)
	_, ok, err := s.AddScannedPackage(ctx, "PKG001", false)
	require.NoError(t, err)
	require.True(t, ok)
	_, _, err = s.AddScannedPackage(ctx, "PKG001", false) // duplicate, no event
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, []Collection{CollectionDailyInput, CollectionDailyPackages, CollectionScannedPackages}, events[0].Changed)
	assert.True(t, events[1].Advanced)
	assert.Equal(t, domain.StepScan, events[1].Step)
	assert.Equal(t, []Collection{CollectionScannedPackages}, events[2].Changed)
	assert.False(t, events[2].Advanced)
}

type failingMirror struct {
	*mirror.MemoryMirror
	fail bool
}

func (f *failingMirror) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("mirror unavailable")
	}
	return f.MemoryMirror.Set(ctx, key, value)
}

func TestMirrorWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	m := &failingMirror{MemoryMirror: mirror.NewMemoryMirror()}
	s, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)

	m.fail = true
	_, ok, err := s.AddScannedPackage(ctx, "PKG001", false)
	require.Error(t, err)
	require.True(t, ok)
	assert.Len(t, s.Snapshot().ScannedPackages, 1)

	m.fail = false
	_, _, err = s.AddScannedPackage(ctx, "PKG002", false)
	require.NoError(t, err)

	reopened, err := Open(ctx, "tab-1", m)
	require.NoError(t, err)
	assert.Len(t, reopened.Snapshot().ScannedPackages, 2, "next write resynchronizes the mirror")
}

func TestOpenRejectsEmptySession(t *testing.T) {
	_, err := Open(context.Background(), " ", mirror.NewMemoryMirror())
	require.Error(t, err)
}

func TestManagerSharesStorePerSession(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(mirror.NewMemoryMirror(), nil)

	var seen []string
	mgr.Subscribe(func(ev Event) { seen = append(seen, ev.SessionID) })

	a1, err := mgr.Get(ctx, "a")
	require.NoError(t, err)
	a2, err := mgr.Get(ctx, "a")
	require.NoError(t, err)
	b, err := mgr.Get(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, mgr.Len())

	require.NoError(t, a1.SaveDailyInput(ctx, 1, 1, 0))
	require.NoError(t, b.SaveDailyInput(ctx, 1, 1, 0))
	assert.Equal(t, []string{"a", "b"}, seen)

	mgr.Evict("a")
	assert.Equal(t, 1, mgr.Len())
	reloaded, err := mgr.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, a1, reloaded)
	assert.Len(t, reloaded.Snapshot().DailyPackages, 1)
}
