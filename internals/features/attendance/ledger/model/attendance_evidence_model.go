// file: internals/features/attendance/ledger/model/attendance_evidence_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceEvidenceModel: append-only. Unique (record, source message)
// supaya redelivery transport tidak menggandakan evidence.
type AttendanceEvidenceModel struct {
	AttendanceEvidenceID              uuid.UUID `gorm:"type:uuid;primaryKey;column:attendance_evidence_id"                                                              json:"attendance_evidence_id"`
	AttendanceEvidenceRecordID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_evidence_message,priority:1;column:attendance_evidence_record_id" json:"attendance_evidence_record_id"`
	AttendanceEvidenceSourceMessageID string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_attendance_evidence_message,priority:2;column:attendance_evidence_source_message_id" json:"attendance_evidence_source_message_id"`

	AttendanceEvidenceLat            *float64 `gorm:"column:attendance_evidence_lat"                     json:"attendance_evidence_lat,omitempty"`
	AttendanceEvidenceLng            *float64 `gorm:"column:attendance_evidence_lng"                     json:"attendance_evidence_lng,omitempty"`
	AttendanceEvidencePrecision      string   `gorm:"type:varchar(16);not null;column:attendance_evidence_precision" json:"attendance_evidence_precision"`
	AttendanceEvidenceAccuracyMeters *float64 `gorm:"column:attendance_evidence_accuracy_m"              json:"attendance_evidence_accuracy_m,omitempty"`
	AttendanceEvidenceStrategy       *string  `gorm:"type:varchar(40);column:attendance_evidence_strategy" json:"attendance_evidence_strategy,omitempty"`

	AttendanceEvidenceObservedAt time.Time `gorm:"type:timestamptz;not null;column:attendance_evidence_observed_at" json:"attendance_evidence_observed_at"`
	AttendanceEvidenceReceivedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_evidence_received_at" json:"attendance_evidence_received_at"`
}

func (AttendanceEvidenceModel) TableName() string {
	return "attendance_evidences"
}
