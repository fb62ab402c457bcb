// file: internals/features/attendance/evidence/evidence.go
package evidence

import (
	"errors"
	"fmt"
	"time"

	"centerku_backend/internals/features/attendance/geo"
)

type Precision string

const (
	PrecisionDevice     Precision = "device"
	PrecisionPhotoEXIF  Precision = "photo-exif"
	PrecisionNoLocation Precision = "no-location"
)

// Evidence = satu observasi lokasi. Dipass by value, tidak diubah setelah dibuat.
type Evidence struct {
	SourceMessageID string
	Coordinate      geo.Coordinate
	HasLocation     bool
	Timestamp       time.Time
	Precision       Precision
	AccuracyMeters  float64 // 0 = tidak diketahui
	Strategy        string  // strategi ekstraksi yang menang (khusus foto)
}

var ErrInvalidInput = errors.New("evidence: invalid input")

// InputError: koordinat/timestamp/field wajib rusak. Ditolak sebelum resolver.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("evidence: invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func inputErr(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
