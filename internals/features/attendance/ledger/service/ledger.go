// file: internals/features/attendance/ledger/service/ledger.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"centerku_backend/internals/features/attendance/centers/directory"
	"centerku_backend/internals/features/attendance/centers/model"
	"centerku_backend/internals/features/attendance/centers/resolver"
	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/geo"
	"centerku_backend/internals/features/attendance/timewindow"
	"centerku_backend/internals/helpers/dbtime"
)

var (
	ErrRetriesExhausted    = errors.New("ledger: persistence retries exhausted")
	ErrInvalidManualStatus = errors.New("ledger: manual status must be present, late or absent")
)

// CenterSource = *directory.Directory (atau fake di test).
type CenterSource interface {
	Current() (*directory.Snapshot, error)
}

type Config struct {
	Location            *time.Location
	DefaultGraceMinutes int
	PersistTimeout      time.Duration
	MaxRetries          int
	RetryBackoff        time.Duration
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = dbtime.LoadLocation(dbtime.DefaultTimezone)
	}
	if c.DefaultGraceMinutes < 0 {
		c.DefaultGraceMinutes = 15
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 3 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}

// Ledger = state machine attendance per (student, tanggal).
// Semua operasi pada key yang sama diserialisasi lewat keyLocker,
// antar proses dijaga unique index + versi di Store.
type Ledger struct {
	store   Store
	centers CenterSource
	cfg     Config
	log     *zap.Logger
	locks   *keyLocker
	now     func() time.Time
}

func New(store Store, centers CenterSource, cfg Config, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:   store,
		centers: centers,
		cfg:     cfg.withDefaults(),
		log:     log,
		locks:   newKeyLocker(),
		now:     time.Now,
	}
}

func (l *Ledger) Location() *time.Location { return l.cfg.Location }

// KeyFor: tanggal kalender lokal deployment dari timestamp evidence.
func (l *Ledger) KeyFor(studentID uuid.UUID, ts time.Time) Key {
	return Key{StudentID: studentID, Date: dbtime.CalendarDate(ts, l.cfg.Location)}
}

// ApplyEvidence menerapkan satu evidence ke record (student, tanggal).
// Evidence yang sama (source message id) diterapkan dua kali tidak mengubah apa pun.
func (l *Ledger) ApplyEvidence(ctx context.Context, studentID uuid.UUID, elig resolver.Eligibility, ev evidence.Evidence) (Outcome, error) {
	switch {
	case studentID == uuid.Nil:
		return Outcome{}, &evidence.InputError{Field: "student_id", Reason: "required"}
	case ev.SourceMessageID == "":
		return Outcome{}, &evidence.InputError{Field: "source_message_id", Reason: "required"}
	case ev.Timestamp.IsZero():
		return Outcome{}, &evidence.InputError{Field: "timestamp", Reason: "required"}
	}

	key := l.KeyFor(studentID, ev.Timestamp)
	unlock := l.locks.Lock(key)
	defer unlock()

	// satu snapshot untuk seluruh operasi, walau directory di-refresh di tengah jalan
	snap, dirErr := l.centers.Current()

	var out Outcome
	err := l.withRetry(ctx, key, "apply_evidence", func(ctx context.Context) error {
		rec, isNew, err := l.loadOrShell(ctx, key)
		if err != nil {
			return err
		}
		if rec.hasEvidence(ev.SourceMessageID) {
			out = newOutcome(OutcomeDuplicate, rec)
			return nil
		}

		now := l.now()
		rec.appendEvidence(ev, now)
		kind := l.decide(rec, elig, ev, snap, dirErr, now)
		rec.UpdatedAt = now

		if err := l.persist(ctx, rec, isNew); err != nil {
			return err
		}
		out = newOutcome(kind, rec)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	outcomesTotal.WithLabelValues(string(out.Kind)).Inc()
	l.log.Debug("evidence applied",
		zap.String("student_id", studentID.String()),
		zap.String("date", key.Date),
		zap.String("source_message_id", ev.SourceMessageID),
		zap.String("kind", string(out.Kind)),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func (l *Ledger) decide(rec *Record, elig resolver.Eligibility, ev evidence.Evidence, snap *directory.Snapshot, dirErr error, now time.Time) OutcomeKind {
	if rec.IsManual() {
		return OutcomeLocked
	}
	if !ev.HasLocation {
		return OutcomeNoLocation
	}
	if dirErr != nil || snap == nil {
		rec.ResolutionDeferred = true
		l.log.Warn("center directory unavailable, resolution deferred",
			zap.String("student_id", rec.StudentID.String()),
			zap.String("date", rec.Date),
			zap.String("source_message_id", ev.SourceMessageID),
			zap.Error(dirErr),
		)
		return OutcomeDeferred
	}

	if rec.ResolutionDeferred {
		// ada evidence yang belum pernah diresolusi → putar ulang semuanya
		l.replay(rec, snap, elig, now)
	} else {
		l.applyEntry(rec, rec.Evidence[len(rec.Evidence)-1], snap, elig, now)
	}

	switch {
	case rec.isCheckedIn() && rec.CheckInMessageID == ev.SourceMessageID:
		return OutcomeVerified
	case rec.isCheckedIn():
		return OutcomeAlreadyCheckedIn
	default:
		return OutcomeOutOfRange
	}
}

// replay meresolusi ulang semua evidence berlokasi, urut waktu observasi.
func (l *Ledger) replay(rec *Record, snap *directory.Snapshot, elig resolver.Eligibility, now time.Time) {
	for _, e := range locatedEvidence(rec.Evidence) {
		l.applyEntry(rec, e, snap, elig, now)
	}
	rec.ResolutionDeferred = false
}

// applyEntry: hit dengan ObservedAt paling awal yang menentukan status;
// hit yang lebih baru tidak mengubah present/late, miss tidak menurunkannya.
func (l *Ledger) applyEntry(rec *Record, e EvidenceEntry, snap *directory.Snapshot, elig resolver.Eligibility, now time.Time) {
	if !e.hasLocation() {
		return
	}
	res := resolver.Resolve(geo.Coordinate{Lat: *e.Lat, Lng: *e.Lng}, snap.Centers, elig)

	if !res.Matched {
		// miss tidak pernah menurunkan status present/late
		if !rec.isCheckedIn() {
			rec.Status = StatusPending
			rec.setCenter(res.Center, res.Distance)
		}
		return
	}

	// check-in paling awal di dalam geofence yang menang
	if rec.isCheckedIn() && rec.CheckInAt != nil && !e.ObservedAt.Before(*rec.CheckInAt) {
		return
	}

	c := res.Center
	cls := timewindow.Classify(c.Windows, e.ObservedAt, l.cfg.Location)
	late := !cls.WithinHours ||
		timewindow.IsLate(cls.Window.Start, e.ObservedAt, l.cfg.Location, c.Grace(l.cfg.DefaultGraceMinutes))

	rec.Status = StatusPresent
	if late {
		rec.Status = StatusLate
	}
	rec.setCenter(c, res.Distance)
	rec.TimeWindow = nil
	if cls.Window != nil {
		rec.TimeWindow = &WindowSnapshot{
			Name:          cls.Window.Name,
			ExpectedStart: cls.Window.Start,
			ExpectedEnd:   cls.Window.End,
		}
	}
	verifiedAt := now
	rec.Verification = Verification{IsVerified: true, VerifiedAt: &verifiedAt, Method: MethodAutoGeo}
	observed := e.ObservedAt
	rec.CheckInAt = &observed
	rec.CheckInMessageID = e.SourceMessageID
}

func (r *Record) isCheckedIn() bool {
	return r.Status == StatusPresent || r.Status == StatusLate
}

func (r *Record) setCenter(c *model.Center, distance float64) {
	if c == nil {
		r.CenterID, r.CenterName, r.DistanceMeters = nil, "", nil
		return
	}
	id := c.ID
	r.CenterID = &id
	r.CenterName = c.Name
	r.DistanceMeters = finite(distance)
}

func locatedEvidence(all []EvidenceEntry) []EvidenceEntry {
	out := make([]EvidenceEntry, 0, len(all))
	for _, e := range all {
		if e.hasLocation() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out
}

/* =========================
   Manual (admin)
========================= */

// ManualVerify: admin menetapkan status. Setelah ini evidence otomatis
// tidak mengubah status/verifikasi sampai ResetManual.
func (l *Ledger) ManualVerify(ctx context.Context, recordID uuid.UUID, status Status, notes string, adminID *uuid.UUID) (*Record, error) {
	switch status {
	case StatusPresent, StatusLate, StatusAbsent:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidManualStatus, status)
	}

	key, err := l.keyOf(ctx, recordID)
	if err != nil {
		return nil, err
	}
	unlock := l.locks.Lock(key)
	defer unlock()

	var out *Record
	err = l.withRetry(ctx, key, "manual_verify", func(ctx context.Context) error {
		rec, err := l.store.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		now := l.now()
		rec.Status = status
		rec.Verification = Verification{
			IsVerified: true,
			VerifiedAt: &now,
			Method:     MethodManualAdmin,
			VerifiedBy: cloneUUID(adminID),
			Notes:      notes,
		}
		rec.ResolutionDeferred = false
		rec.UpdatedAt = now
		if err := l.store.Save(ctx, rec, rec.Version); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("attendance manually verified",
		zap.String("record_id", recordID.String()),
		zap.String("status", string(status)),
	)
	return out, nil
}

// ResetManual melepas kunci manual. Status kembali pending dan record
// ditandai deferred supaya evidence berikutnya / sweep menurunkan ulang status.
// Record yang tidak manual dikembalikan apa adanya.
func (l *Ledger) ResetManual(ctx context.Context, recordID uuid.UUID, notes string, adminID *uuid.UUID) (*Record, error) {
	key, err := l.keyOf(ctx, recordID)
	if err != nil {
		return nil, err
	}
	unlock := l.locks.Lock(key)
	defer unlock()

	var out *Record
	err = l.withRetry(ctx, key, "reset_manual", func(ctx context.Context) error {
		rec, err := l.store.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if !rec.IsManual() {
			out = rec
			return nil
		}
		now := l.now()
		rec.Status = StatusPending
		rec.Verification = Verification{VerifiedBy: cloneUUID(adminID), Notes: notes}
		rec.setCenter(nil, 0)
		rec.TimeWindow = nil
		rec.CheckInAt = nil
		rec.CheckInMessageID = ""
		rec.ResolutionDeferred = len(locatedEvidence(rec.Evidence)) > 0
		rec.UpdatedAt = now
		if err := l.store.Save(ctx, rec, rec.Version); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("manual verification reset", zap.String("record_id", recordID.String()))
	return out, nil
}

/* =========================
   Reconcile (deferred)
========================= */

// Reconcile meresolusi ulang record yang ditandai deferred memakai
// snapshot directory saat ini. Directory masih down → Outcome deferred, tanpa write.
func (l *Ledger) Reconcile(ctx context.Context, recordID uuid.UUID, elig resolver.Eligibility) (Outcome, error) {
	key, err := l.keyOf(ctx, recordID)
	if err != nil {
		return Outcome{}, err
	}
	unlock := l.locks.Lock(key)
	defer unlock()

	snap, dirErr := l.centers.Current()

	var out Outcome
	err = l.withRetry(ctx, key, "reconcile", func(ctx context.Context) error {
		rec, err := l.store.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if !rec.ResolutionDeferred {
			out = newOutcome(settledKind(rec), rec)
			return nil
		}
		if dirErr != nil || snap == nil {
			out = newOutcome(OutcomeDeferred, rec)
			return nil
		}

		now := l.now()
		if !rec.IsManual() {
			l.replay(rec, snap, elig, now)
		}
		rec.ResolutionDeferred = false
		rec.UpdatedAt = now
		if err := l.store.Save(ctx, rec, rec.Version); err != nil {
			return err
		}
		out = newOutcome(settledKind(rec), rec)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func settledKind(rec *Record) OutcomeKind {
	switch {
	case rec.IsManual():
		return OutcomeLocked
	case rec.ResolutionDeferred:
		return OutcomeDeferred
	case rec.isCheckedIn():
		return OutcomeVerified
	case len(locatedEvidence(rec.Evidence)) == 0:
		return OutcomeNoLocation
	default:
		return OutcomeOutOfRange
	}
}

/* =========================
   Reads
========================= */

func (l *Ledger) Get(ctx context.Context, recordID uuid.UUID) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.PersistTimeout)
	defer cancel()
	return l.store.FindByID(ctx, recordID)
}

func (l *Ledger) GetByKey(ctx context.Context, studentID uuid.UUID, date string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.PersistTimeout)
	defer cancel()
	return l.store.FindByKey(ctx, Key{StudentID: studentID, Date: date})
}

func (l *Ledger) ListDeferred(ctx context.Context, limit int) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.PersistTimeout)
	defer cancel()
	return l.store.ListDeferred(ctx, limit)
}

/* =========================
   Persistence + retry
========================= */

func (l *Ledger) loadOrShell(ctx context.Context, key Key) (*Record, bool, error) {
	rec, err := l.store.FindByKey(ctx, key)
	switch {
	case err == nil:
		return rec, false, nil
	case errors.Is(err, ErrRecordNotFound):
		now := l.now()
		return &Record{
			ID:        uuid.New(),
			StudentID: key.StudentID,
			Date:      key.Date,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}, true, nil
	default:
		return nil, false, err
	}
}

func (l *Ledger) persist(ctx context.Context, rec *Record, isNew bool) error {
	if isNew {
		return l.store.Create(ctx, rec)
	}
	return l.store.Save(ctx, rec, rec.Version)
}

func (l *Ledger) keyOf(ctx context.Context, recordID uuid.UUID) (Key, error) {
	rec, err := l.Get(ctx, recordID)
	if err != nil {
		return Key{}, err
	}
	return rec.Key(), nil
}

// withRetry: tiap attempt dibatasi PersistTimeout, conflict/duplicate/timeout
// diulang sebagai read-modify-write baru. Habis jatah → alert + ErrRetriesExhausted.
func (l *Ledger) withRetry(ctx context.Context, key Key, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			persistRetriesTotal.Inc()
			if err := sleepCtx(ctx, time.Duration(attempt)*l.cfg.RetryBackoff); err != nil {
				return err
			}
		}

		actx, cancel := context.WithTimeout(ctx, l.cfg.PersistTimeout)
		err := fn(actx)
		cancel()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		l.log.Warn("ledger persistence attempt failed",
			zap.String("op", op),
			zap.String("student_id", key.StudentID.String()),
			zap.String("date", key.Date),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	persistExhaustedTotal.Inc()
	l.log.Error("ledger persistence retries exhausted",
		zap.Bool("alert", true),
		zap.String("op", op),
		zap.String("student_id", key.StudentID.String()),
		zap.String("date", key.Date),
		zap.Int("attempts", l.cfg.MaxRetries+1),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w (%s %s): %w", ErrRetriesExhausted, op, key, lastErr)
}

func retryable(err error) bool {
	return !errors.Is(err, ErrRecordNotFound) &&
		!errors.Is(err, ErrInvalidManualStatus) &&
		!errors.Is(err, evidence.ErrInvalidInput)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
