// file: internals/features/attendance/ledger/service/record.go
package service

import (
	"time"

	"github.com/google/uuid"

	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/helpers/dbtime"
)

type Status string

const (
	StatusPending Status = "pending_verification"
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

type Method string

const (
	MethodAutoGeo     Method = "auto_geo"
	MethodManualAdmin Method = "manual_admin"
)

// Key = (student, tanggal lokal YYYY-MM-DD). Satu record per key.
type Key struct {
	StudentID uuid.UUID
	Date      string
}

func (k Key) String() string { return k.StudentID.String() + "/" + k.Date }

type Verification struct {
	IsVerified bool       `json:"is_verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Method     Method     `json:"method,omitempty"`
	VerifiedBy *uuid.UUID `json:"verified_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type WindowSnapshot struct {
	Name          string     `json:"name"`
	ExpectedStart dbtime.Tod `json:"expected_start"`
	ExpectedEnd   dbtime.Tod `json:"expected_end"`
}

type EvidenceEntry struct {
	ID              uuid.UUID          `json:"id"`
	SourceMessageID string             `json:"source_message_id"`
	Lat             *float64           `json:"lat,omitempty"`
	Lng             *float64           `json:"lng,omitempty"`
	Precision       evidence.Precision `json:"precision"`
	AccuracyMeters  *float64           `json:"accuracy_meters,omitempty"`
	Strategy        string             `json:"strategy,omitempty"`
	ObservedAt      time.Time          `json:"observed_at"`
	ReceivedAt      time.Time          `json:"received_at"`
}

func (e EvidenceEntry) hasLocation() bool { return e.Lat != nil && e.Lng != nil }

// Record = AttendanceRecord. Untuk status pending, CenterID/DistanceMeters
// berisi center terdekat yang tidak match (diagnostik).
type Record struct {
	ID             uuid.UUID       `json:"id"`
	StudentID      uuid.UUID       `json:"student_id"`
	Date           string          `json:"date"`
	Status         Status          `json:"status"`
	CenterID       *uuid.UUID      `json:"center_id,omitempty"`
	CenterName     string          `json:"center_name,omitempty"`
	DistanceMeters *float64        `json:"distance_meters,omitempty"`
	Verification   Verification    `json:"verification"`
	TimeWindow     *WindowSnapshot `json:"time_window,omitempty"`

	// evidence yang menentukan status auto saat ini
	CheckInAt        *time.Time `json:"check_in_at,omitempty"`
	CheckInMessageID string     `json:"check_in_message_id,omitempty"`

	ResolutionDeferred bool            `json:"resolution_deferred"`
	Evidence           []EvidenceEntry `json:"evidence"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Record) Key() Key { return Key{StudentID: r.StudentID, Date: r.Date} }

func (r *Record) IsManual() bool {
	return r.Verification.Method == MethodManualAdmin
}

func (r *Record) hasEvidence(sourceMessageID string) bool {
	for i := range r.Evidence {
		if r.Evidence[i].SourceMessageID == sourceMessageID {
			return true
		}
	}
	return false
}

func (r *Record) appendEvidence(ev evidence.Evidence, receivedAt time.Time) {
	e := EvidenceEntry{
		ID:              uuid.New(),
		SourceMessageID: ev.SourceMessageID,
		Precision:       ev.Precision,
		Strategy:        ev.Strategy,
		ObservedAt:      ev.Timestamp,
		ReceivedAt:      receivedAt,
	}
	if ev.HasLocation {
		lat, lng := ev.Coordinate.Lat, ev.Coordinate.Lng
		e.Lat, e.Lng = &lat, &lng
	}
	if ev.AccuracyMeters > 0 {
		acc := ev.AccuracyMeters
		e.AccuracyMeters = &acc
	}
	r.Evidence = append(r.Evidence, e)
}

// Clone: deep copy, store tidak boleh berbagi pointer dengan caller.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.CenterID = cloneUUID(r.CenterID)
	out.DistanceMeters = cloneFloat(r.DistanceMeters)
	out.Verification.VerifiedAt = cloneTime(r.Verification.VerifiedAt)
	out.Verification.VerifiedBy = cloneUUID(r.Verification.VerifiedBy)
	out.CheckInAt = cloneTime(r.CheckInAt)
	if r.TimeWindow != nil {
		w := *r.TimeWindow
		out.TimeWindow = &w
	}
	out.Evidence = make([]EvidenceEntry, len(r.Evidence))
	for i, e := range r.Evidence {
		e.Lat = cloneFloat(e.Lat)
		e.Lng = cloneFloat(e.Lng)
		e.AccuracyMeters = cloneFloat(e.AccuracyMeters)
		out.Evidence[i] = e
	}
	return &out
}

func cloneUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
