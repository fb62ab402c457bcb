package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"centerku_backend/internals/features/attendance/centers/directory"
	"centerku_backend/internals/features/attendance/centers/model"
	"centerku_backend/internals/features/attendance/centers/resolver"
	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/geo"
	"centerku_backend/internals/features/attendance/timewindow"
)

var wib = time.FixedZone("WIB", 7*60*60)

// titik ~156 m dari Main, dan ~15 km ke utara
var (
	nearMain = geo.Coordinate{Lat: 28.6150, Lng: 77.2100}
	farAway  = geo.Coordinate{Lat: 28.7489, Lng: 77.2090}
)

func at(hh, mm int) time.Time {
	return time.Date(2024, 5, 1, hh, mm, 0, 0, wib)
}

func mainCenter(t *testing.T) model.Center {
	t.Helper()
	w, err := timewindow.NewWindow("morning", "09:00", "13:00")
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return model.Center{
		ID:           uuid.New(),
		Name:         "Main",
		Location:     geo.Coordinate{Lat: 28.6139, Lng: 77.2090},
		RadiusMeters: 2000,
		IsActive:     true,
		Windows:      []timewindow.Window{w},
	}
}

type fakeCenters struct {
	mu   sync.Mutex
	snap *directory.Snapshot
}

func (f *fakeCenters) Current() (*directory.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap == nil {
		return nil, directory.ErrUnavailable
	}
	return f.snap, nil
}

func (f *fakeCenters) set(centers ...model.Center) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = directory.NewSnapshot(1, time.Now(), centers)
}

func withCenters(centers ...model.Center) *fakeCenters {
	f := &fakeCenters{}
	f.set(centers...)
	return f
}

func newTestLedger(store Store, src CenterSource) *Ledger {
	return New(store, src, Config{
		Location:            wib,
		DefaultGraceMinutes: 15,
		PersistTimeout:      time.Second,
		MaxRetries:          3,
	}, nil)
}

func locEv(id string, p geo.Coordinate, ts time.Time) evidence.Evidence {
	return evidence.Evidence{
		SourceMessageID: id,
		Coordinate:      p,
		HasLocation:     true,
		Timestamp:       ts,
		Precision:       evidence.PrecisionDevice,
	}
}

func mustApply(t *testing.T, l *Ledger, student uuid.UUID, elig resolver.Eligibility, ev evidence.Evidence) Outcome {
	t.Helper()
	out, err := l.ApplyEvidence(context.Background(), student, elig, ev)
	if err != nil {
		t.Fatalf("ApplyEvidence(%s): %v", ev.SourceMessageID, err)
	}
	return out
}

func TestLedger_ApplyEvidence_StatusByTimeWindow(t *testing.T) {
	cases := []struct {
		name       string
		at         time.Time
		wantStatus Status
		wantWindow string
		wantText   string
	}{
		{"on time", at(9, 5), StatusPresent, "morning", TextPresent},
		{"grace boundary", at(9, 15), StatusPresent, "morning", TextPresent},
		{"after grace", at(9, 20), StatusLate, "morning", TextLate},
		{"outside hours", at(23, 30), StatusLate, "", TextLateOutsideHours},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := mainCenter(t)
			store := NewMemoryStore()
			l := newTestLedger(store, withCenters(c))

			out := mustApply(t, l, uuid.New(), resolver.AnyCenter(), locEv("m1", nearMain, tc.at))

			if out.Kind != OutcomeVerified || out.Status != tc.wantStatus {
				t.Fatalf("got kind=%s status=%s, want verified/%s", out.Kind, out.Status, tc.wantStatus)
			}
			if out.TextKey != tc.wantText {
				t.Errorf("text key = %s, want %s", out.TextKey, tc.wantText)
			}
			rec := out.Record
			if tc.wantWindow == "" {
				if rec.TimeWindow != nil {
					t.Errorf("expected no window, got %+v", rec.TimeWindow)
				}
			} else if rec.TimeWindow == nil || rec.TimeWindow.Name != tc.wantWindow {
				t.Errorf("window = %+v, want %s", rec.TimeWindow, tc.wantWindow)
			}
			if !rec.Verification.IsVerified || rec.Verification.Method != MethodAutoGeo {
				t.Errorf("verification = %+v", rec.Verification)
			}
			if rec.CenterID == nil || *rec.CenterID != c.ID {
				t.Errorf("center = %v, want %s", rec.CenterID, c.ID)
			}
			if rec.DistanceMeters == nil || *rec.DistanceMeters >= 2000 {
				t.Errorf("distance = %v", rec.DistanceMeters)
			}
			if rec.Date != "2024-05-01" {
				t.Errorf("date = %s", rec.Date)
			}
		})
	}
}

func TestLedger_ApplyEvidence_PerCenterGraceOverridesDefault(t *testing.T) {
	c := mainCenter(t)
	grace := 30
	c.GraceMinutes = &grace
	l := newTestLedger(NewMemoryStore(), withCenters(c))

	out := mustApply(t, l, uuid.New(), resolver.AnyCenter(), locEv("m1", nearMain, at(9, 25)))
	if out.Status != StatusPresent {
		t.Fatalf("status = %s, want present with 30 min grace", out.Status)
	}
}

func TestLedger_ApplyEvidence_MissLeavesPendingWithDiagnostics(t *testing.T) {
	c := mainCenter(t)
	l := newTestLedger(NewMemoryStore(), withCenters(c))

	out := mustApply(t, l, uuid.New(), resolver.AnyCenter(), locEv("m1", farAway, at(9, 5)))

	if out.Kind != OutcomeOutOfRange || out.Status != StatusPending {
		t.Fatalf("got %s/%s", out.Kind, out.Status)
	}
	if out.TextKey != TextOutOfRange {
		t.Errorf("text key = %s", out.TextKey)
	}
	rec := out.Record
	if rec.Verification.IsVerified {
		t.Errorf("miss must not verify")
	}
	if rec.CenterID == nil || *rec.CenterID != c.ID {
		t.Errorf("nearest center not recorded: %v", rec.CenterID)
	}
	if rec.DistanceMeters == nil || *rec.DistanceMeters < 2000 {
		t.Errorf("distance = %v, want > radius", rec.DistanceMeters)
	}
}

func TestLedger_ApplyEvidence_DuplicateMessageIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	l := newTestLedger(store, withCenters(mainCenter(t)))
	student := uuid.New()
	ev := locEv("dup-1", nearMain, at(9, 5))

	first := mustApply(t, l, student, resolver.AnyCenter(), ev)
	second := mustApply(t, l, student, resolver.AnyCenter(), ev)

	if second.Kind != OutcomeDuplicate {
		t.Fatalf("second kind = %s, want duplicate", second.Kind)
	}
	if second.Status != first.Status {
		t.Errorf("status changed %s → %s", first.Status, second.Status)
	}
	rec, _ := store.FindByKey(context.Background(), l.KeyFor(student, ev.Timestamp))
	if len(rec.Evidence) != 1 {
		t.Fatalf("evidence entries = %d, want 1", len(rec.Evidence))
	}
	if rec.Version != first.Record.Version {
		t.Errorf("duplicate should not write, version %d → %d", first.Record.Version, rec.Version)
	}
}

func TestLedger_ApplyEvidence_AssignedCenterNeverFallsBack(t *testing.T) {
	assigned := mainCenter(t)
	assigned.Name = "Assigned"
	assigned.IsActive = false
	assigned.Location = geo.Coordinate{Lat: -6.2, Lng: 106.8}

	other := mainCenter(t)
	other.Name = "Other"

	l := newTestLedger(NewMemoryStore(), withCenters(assigned, other))
	out := mustApply(t, l, uuid.New(), resolver.AssignedTo(assigned.ID), locEv("m1", nearMain, at(9, 5)))

	if out.Kind != OutcomeOutOfRange || out.Status != StatusPending {
		t.Fatalf("got %s/%s, want out_of_range/pending", out.Kind, out.Status)
	}
	if out.Record.CenterID != nil {
		t.Errorf("must not resolve to another center, got %v", out.Record.CenterID)
	}
	if out.TextKey != TextNoCenter {
		t.Errorf("text key = %s", out.TextKey)
	}
}

func TestLedger_ManualVerify_AbsentIsSticky(t *testing.T) {
	store := NewMemoryStore()
	l := newTestLedger(store, withCenters(mainCenter(t)))
	student := uuid.New()
	ctx := context.Background()

	first := mustApply(t, l, student, resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	admin := uuid.New()
	rec, err := l.ManualVerify(ctx, first.Record.ID, StatusAbsent, "left early", &admin)
	if err != nil {
		t.Fatalf("ManualVerify: %v", err)
	}
	if rec.Status != StatusAbsent || rec.Verification.Method != MethodManualAdmin {
		t.Fatalf("manual verify result %+v", rec)
	}

	out := mustApply(t, l, student, resolver.AnyCenter(), locEv("m2", nearMain, at(9, 0)))
	if out.Kind != OutcomeLocked || out.Status != StatusAbsent {
		t.Fatalf("got %s/%s, want locked/absent", out.Kind, out.Status)
	}
	if len(out.Record.Evidence) != 2 {
		t.Errorf("evidence still appended: got %d entries", len(out.Record.Evidence))
	}
	if out.Record.Verification.Method != MethodManualAdmin || out.Record.Verification.Notes != "left early" {
		t.Errorf("verification overwritten: %+v", out.Record.Verification)
	}
}

func TestLedger_ManualVerify_Errors(t *testing.T) {
	l := newTestLedger(NewMemoryStore(), withCenters(mainCenter(t)))
	ctx := context.Background()

	if _, err := l.ManualVerify(ctx, uuid.New(), StatusPending, "", nil); !errors.Is(err, ErrInvalidManualStatus) {
		t.Errorf("pending: expected ErrInvalidManualStatus, got %v", err)
	}
	if _, err := l.ManualVerify(ctx, uuid.New(), StatusPresent, "", nil); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("unknown id: expected ErrRecordNotFound, got %v", err)
	}
}

func TestLedger_ResetManual_ReleasesLockAndReconciles(t *testing.T) {
	store := NewMemoryStore()
	l := newTestLedger(store, withCenters(mainCenter(t)))
	student := uuid.New()
	ctx := context.Background()

	first := mustApply(t, l, student, resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	if _, err := l.ManualVerify(ctx, first.Record.ID, StatusAbsent, "", nil); err != nil {
		t.Fatalf("ManualVerify: %v", err)
	}

	rec, err := l.ResetManual(ctx, first.Record.ID, "wrong student", nil)
	if err != nil {
		t.Fatalf("ResetManual: %v", err)
	}
	if rec.Status != StatusPending || rec.IsManual() || !rec.ResolutionDeferred {
		t.Fatalf("after reset: status=%s manual=%v deferred=%v", rec.Status, rec.IsManual(), rec.ResolutionDeferred)
	}

	out, err := l.Reconcile(ctx, rec.ID, resolver.AnyCenter())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out.Kind != OutcomeVerified || out.Status != StatusPresent {
		t.Fatalf("reconcile got %s/%s, want verified/present", out.Kind, out.Status)
	}
	if out.Record.ResolutionDeferred {
		t.Errorf("deferred flag should be cleared")
	}
}

func TestLedger_ApplyEvidence_DirectoryUnavailableDefers(t *testing.T) {
	src := &fakeCenters{}
	store := NewMemoryStore()
	l := newTestLedger(store, src)
	student := uuid.New()

	out := mustApply(t, l, student, resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	if out.Kind != OutcomeDeferred || out.Status != StatusPending {
		t.Fatalf("got %s/%s, want deferred/pending", out.Kind, out.Status)
	}
	if !out.Record.ResolutionDeferred || len(out.Record.Evidence) != 1 {
		t.Fatalf("deferred record = %+v", out.Record)
	}
	if out.Record.CenterID != nil || out.Record.Verification.IsVerified {
		t.Errorf("no resolution may be fabricated: %+v", out.Record)
	}

	// directory kembali; evidence berikutnya memutar ulang yang lama
	src.set(mainCenter(t))
	out = mustApply(t, l, student, resolver.AnyCenter(), locEv("m2", nearMain, at(9, 30)))
	if out.Status != StatusPresent {
		t.Fatalf("status = %s, want present from the earlier deferred evidence", out.Status)
	}
	if out.Kind != OutcomeAlreadyCheckedIn {
		t.Errorf("kind = %s, want already_checked_in", out.Kind)
	}
	if out.Record.CheckInMessageID != "m1" || out.Record.ResolutionDeferred {
		t.Errorf("check-in = %s deferred=%v", out.Record.CheckInMessageID, out.Record.ResolutionDeferred)
	}
}

func TestLedger_ApplyEvidence_EarliestCheckInWins(t *testing.T) {
	l := newTestLedger(NewMemoryStore(), withCenters(mainCenter(t)))
	student := uuid.New()

	out := mustApply(t, l, student, resolver.AnyCenter(), locEv("late", nearMain, at(9, 20)))
	if out.Status != StatusLate {
		t.Fatalf("status = %s", out.Status)
	}

	// terkirim belakangan tapi diambil lebih awal
	out = mustApply(t, l, student, resolver.AnyCenter(), locEv("early", nearMain, at(9, 5)))
	if out.Kind != OutcomeVerified || out.Status != StatusPresent {
		t.Fatalf("got %s/%s, want verified/present", out.Kind, out.Status)
	}

	out = mustApply(t, l, student, resolver.AnyCenter(), locEv("later", nearMain, at(9, 40)))
	if out.Kind != OutcomeAlreadyCheckedIn || out.Status != StatusPresent {
		t.Fatalf("got %s/%s, want already_checked_in/present", out.Kind, out.Status)
	}
	if out.Record.CheckInMessageID != "early" {
		t.Errorf("check-in message = %s", out.Record.CheckInMessageID)
	}
}

func TestLedger_ApplyEvidence_MissDoesNotDowngrade(t *testing.T) {
	l := newTestLedger(NewMemoryStore(), withCenters(mainCenter(t)))
	student := uuid.New()

	mustApply(t, l, student, resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	out := mustApply(t, l, student, resolver.AnyCenter(), locEv("m2", farAway, at(9, 1)))

	if out.Status != StatusPresent || out.Kind != OutcomeAlreadyCheckedIn {
		t.Fatalf("got %s/%s", out.Kind, out.Status)
	}
	if out.Record.DistanceMeters == nil || *out.Record.DistanceMeters >= 2000 {
		t.Errorf("diagnostics overwritten by miss: %v", out.Record.DistanceMeters)
	}
}

func TestLedger_ApplyEvidence_NoLocationCreatesShell(t *testing.T) {
	store := NewMemoryStore()
	l := newTestLedger(store, withCenters(mainCenter(t)))
	student := uuid.New()

	out := mustApply(t, l, student, resolver.AnyCenter(), evidence.Evidence{
		SourceMessageID: "photo-1",
		Timestamp:       at(9, 2),
		Precision:       evidence.PrecisionNoLocation,
	})
	if out.Kind != OutcomeNoLocation || out.Status != StatusPending {
		t.Fatalf("got %s/%s", out.Kind, out.Status)
	}
	if e := out.Record.Evidence[0]; e.Lat != nil || e.Lng != nil {
		t.Errorf("coordinates fabricated: %+v", e)
	}

	out = mustApply(t, l, student, resolver.AnyCenter(), locEv("loc-1", nearMain, at(9, 4)))
	if out.Status != StatusPresent || store.Count() != 1 {
		t.Fatalf("status=%s records=%d", out.Status, store.Count())
	}
}

func TestLedger_ApplyEvidence_RejectsMissingFields(t *testing.T) {
	l := newTestLedger(NewMemoryStore(), withCenters(mainCenter(t)))
	ctx := context.Background()

	_, err := l.ApplyEvidence(ctx, uuid.New(), resolver.AnyCenter(), locEv("", nearMain, at(9, 0)))
	var ie *evidence.InputError
	if !errors.As(err, &ie) || ie.Field != "source_message_id" {
		t.Errorf("expected InputError on source_message_id, got %v", err)
	}
	if _, err := l.ApplyEvidence(ctx, uuid.Nil, resolver.AnyCenter(), locEv("m", nearMain, at(9, 0))); !errors.Is(err, evidence.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil student, got %v", err)
	}
}

func TestLedger_ApplyEvidence_ConcurrentSameKeyCreatesOneRecord(t *testing.T) {
	store := NewMemoryStore()
	src := withCenters(mainCenter(t))
	l := newTestLedger(store, src)
	student := uuid.New()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := l.ApplyEvidence(context.Background(), student, resolver.AnyCenter(),
				locEv(fmt.Sprintf("m%d", i), nearMain, at(9, i)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if store.Count() != 1 {
		t.Fatalf("records = %d, want 1", store.Count())
	}
	rec, _ := l.GetByKey(context.Background(), student, "2024-05-01")
	if len(rec.Evidence) != 8 {
		t.Errorf("evidence entries = %d, want 8", len(rec.Evidence))
	}
	if rec.CheckInMessageID != "m0" {
		t.Errorf("earliest check-in should win, got %s", rec.CheckInMessageID)
	}
	if n := l.locks.size(); n != 0 {
		t.Errorf("key locks leaked: %d", n)
	}
}

// Dua instance Ledger (mis. dua pod) berbagi satu store: hanya unique key +
// versi yang menjaga, bukan mutex in-process.
func TestLedger_ApplyEvidence_ConcurrentAcrossInstancesMerges(t *testing.T) {
	store := NewMemoryStore()
	src := withCenters(mainCenter(t))
	cfg := Config{Location: wib, DefaultGraceMinutes: 15, PersistTimeout: time.Second, MaxRetries: 50}
	a := New(store, src, cfg, nil)
	b := New(store, src, cfg, nil)
	student := uuid.New()

	var g errgroup.Group
	for i := 0; i < 6; i++ {
		l := a
		if i%2 == 1 {
			l = b
		}
		g.Go(func() error {
			_, err := l.ApplyEvidence(context.Background(), student, resolver.AnyCenter(),
				locEv(fmt.Sprintf("m%d", i), nearMain, at(10, i)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if store.Count() != 1 {
		t.Fatalf("records = %d, want 1", store.Count())
	}
	rec, _ := store.FindByKey(context.Background(), Key{StudentID: student, Date: "2024-05-01"})
	if len(rec.Evidence) != 6 {
		t.Errorf("evidence entries = %d, want 6", len(rec.Evidence))
	}
}

type flakyStore struct {
	*MemoryStore
	mu       sync.Mutex
	failures int
	always   bool
	err      error
}

func (f *flakyStore) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.always || f.failures > 0 {
		f.failures--
		return f.err
	}
	return nil
}

func (f *flakyStore) Create(ctx context.Context, rec *Record) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemoryStore.Create(ctx, rec)
}

func (f *flakyStore) Save(ctx context.Context, rec *Record, v int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemoryStore.Save(ctx, rec, v)
}

func TestLedger_ApplyEvidence_RetriesTransientFailures(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2, err: ErrConcurrencyConflict}
	l := newTestLedger(store, withCenters(mainCenter(t)))
	before := testutil.ToFloat64(persistRetriesTotal)

	out := mustApply(t, l, uuid.New(), resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	if out.Status != StatusPresent {
		t.Fatalf("status = %s", out.Status)
	}
	if got := testutil.ToFloat64(persistRetriesTotal) - before; got != 2 {
		t.Errorf("retries counted = %v, want 2", got)
	}
}

func TestLedger_ApplyEvidence_ExhaustedRetriesEscalate(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), always: true, err: errors.New("connection reset")}
	l := newTestLedger(store, withCenters(mainCenter(t)))
	before := testutil.ToFloat64(persistExhaustedTotal)

	_, err := l.ApplyEvidence(context.Background(), uuid.New(), resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if got := testutil.ToFloat64(persistExhaustedTotal) - before; got != 1 {
		t.Errorf("exhausted counter delta = %v, want 1", got)
	}
	if store.Count() != 0 {
		t.Errorf("nothing should be persisted")
	}
}

type slowStore struct {
	*MemoryStore
	mu    sync.Mutex
	stall int
}

func (s *slowStore) FindByKey(ctx context.Context, key Key) (*Record, error) {
	s.mu.Lock()
	stall := s.stall > 0
	s.stall--
	s.mu.Unlock()
	if stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.MemoryStore.FindByKey(ctx, key)
}

func TestLedger_ApplyEvidence_PersistTimeoutIsRetried(t *testing.T) {
	store := &slowStore{MemoryStore: NewMemoryStore(), stall: 1}
	l := New(store, withCenters(mainCenter(t)), Config{
		Location:       wib,
		PersistTimeout: 20 * time.Millisecond,
		MaxRetries:     2,
	}, nil)

	out, err := l.ApplyEvidence(context.Background(), uuid.New(), resolver.AnyCenter(), locEv("m1", nearMain, at(9, 5)))
	if err != nil {
		t.Fatalf("timeout should be retried, got %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Errorf("kind = %s", out.Kind)
	}
}

func TestLedger_KeyFor_UsesDeploymentZone(t *testing.T) {
	l := newTestLedger(NewMemoryStore(), withCenters())
	// 2024-04-30 20:00 UTC = 2024-05-01 03:00 WIB
	k := l.KeyFor(uuid.New(), time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC))
	if k.Date != "2024-05-01" {
		t.Errorf("date = %s, want 2024-05-01", k.Date)
	}
}
