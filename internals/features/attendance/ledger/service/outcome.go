// file: internals/features/attendance/ledger/service/outcome.go
package service

import (
	"math"

	"github.com/google/uuid"
)

type OutcomeKind string

const (
	OutcomeVerified         OutcomeKind = "verified"
	OutcomeAlreadyCheckedIn OutcomeKind = "already_checked_in"
	OutcomeOutOfRange       OutcomeKind = "out_of_range"
	OutcomeDeferred         OutcomeKind = "deferred"
	OutcomeNoLocation       OutcomeKind = "no_location"
	OutcomeDuplicate        OutcomeKind = "duplicate"
	OutcomeLocked           OutcomeKind = "locked"
)

// Text key untuk notifier (lihat package notify).
const (
	TextPresent          = "checkin.present"
	TextLate             = "checkin.late"
	TextLateOutsideHours = "checkin.late_outside_hours"
	TextOutOfRange       = "checkin.out_of_range"
	TextNoCenter         = "checkin.no_center"
	TextDeferred         = "checkin.deferred"
	TextNoLocation       = "checkin.no_location"
	TextDuplicate        = "checkin.duplicate"
	TextLocked           = "checkin.locked"
	TextAlreadyRecorded  = "checkin.already_recorded"
	TextInvalidLocation  = "input.invalid_location"
)

// Outcome = hasil terstruktur applyEvidence untuk notifier eksternal.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Status     Status      `json:"status"`
	CenterID   *uuid.UUID  `json:"center_id,omitempty"`
	CenterName string      `json:"center_name,omitempty"`
	Distance   *float64    `json:"distance_meters,omitempty"`
	WindowName string      `json:"window_name,omitempty"`
	TextKey    string      `json:"text_key"`
	Record     *Record     `json:"record"`
}

func newOutcome(kind OutcomeKind, rec *Record) Outcome {
	o := Outcome{Kind: kind, Status: rec.Status, Record: rec}
	o.CenterID = cloneUUID(rec.CenterID)
	o.CenterName = rec.CenterName
	o.Distance = cloneFloat(rec.DistanceMeters)
	if rec.TimeWindow != nil {
		o.WindowName = rec.TimeWindow.Name
	}
	o.TextKey = textKeyFor(kind, rec)
	return o
}

func textKeyFor(kind OutcomeKind, rec *Record) string {
	switch kind {
	case OutcomeVerified:
		switch {
		case rec.Status == StatusPresent:
			return TextPresent
		case rec.TimeWindow == nil:
			return TextLateOutsideHours
		default:
			return TextLate
		}
	case OutcomeAlreadyCheckedIn:
		return TextAlreadyRecorded
	case OutcomeOutOfRange:
		if rec.CenterID == nil {
			return TextNoCenter
		}
		return TextOutOfRange
	case OutcomeDeferred:
		return TextDeferred
	case OutcomeNoLocation:
		return TextNoLocation
	case OutcomeDuplicate:
		return TextDuplicate
	case OutcomeLocked:
		return TextLocked
	}
	return ""
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
