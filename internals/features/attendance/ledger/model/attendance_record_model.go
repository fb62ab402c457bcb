// file: internals/features/attendance/ledger/model/attendance_record_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"centerku_backend/internals/helpers/dbtime"
)

// AttendanceRecordModel: satu baris per (student, tanggal lokal).
// Unique index uq_attendance_student_date jadi pengaman terakhir race antar proses.
type AttendanceRecordModel struct {
	AttendanceRecordID        uuid.UUID      `gorm:"type:uuid;primaryKey;column:attendance_record_id"                                          json:"attendance_record_id"`
	AttendanceRecordStudentID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_student_date,priority:1;column:attendance_record_student_id" json:"attendance_record_student_id"`
	AttendanceRecordDate      datatypes.Date `gorm:"type:date;not null;uniqueIndex:uq_attendance_student_date,priority:2;column:attendance_record_date"        json:"attendance_record_date"`

	// pending_verification | present | late | absent
	AttendanceRecordStatus string `gorm:"type:varchar(24);not null;default:'pending_verification';index;column:attendance_record_status" json:"attendance_record_status"`

	AttendanceRecordCenterID       *uuid.UUID `gorm:"type:uuid;column:attendance_record_center_id"          json:"attendance_record_center_id,omitempty"`
	AttendanceRecordCenterName     *string    `gorm:"type:varchar(150);column:attendance_record_center_name" json:"attendance_record_center_name,omitempty"`
	AttendanceRecordDistanceMeters *float64   `gorm:"column:attendance_record_distance_m"                   json:"attendance_record_distance_m,omitempty"`

	AttendanceRecordIsVerified         bool       `gorm:"not null;default:false;column:attendance_record_is_verified" json:"attendance_record_is_verified"`
	AttendanceRecordVerifiedAt         *time.Time `gorm:"type:timestamptz;column:attendance_record_verified_at"       json:"attendance_record_verified_at,omitempty"`
	AttendanceRecordVerificationMethod *string    `gorm:"type:varchar(16);column:attendance_record_verification_method" json:"attendance_record_verification_method,omitempty"`
	AttendanceRecordVerifiedBy         *uuid.UUID `gorm:"type:uuid;column:attendance_record_verified_by"              json:"attendance_record_verified_by,omitempty"`
	AttendanceRecordAdminNotes         *string    `gorm:"type:text;column:attendance_record_admin_notes"              json:"attendance_record_admin_notes,omitempty"`

	AttendanceRecordWindowName  *string     `gorm:"type:varchar(60);column:attendance_record_window_name" json:"attendance_record_window_name,omitempty"`
	AttendanceRecordWindowStart *dbtime.Tod `gorm:"type:time;column:attendance_record_window_start"       json:"attendance_record_window_start,omitempty"`
	AttendanceRecordWindowEnd   *dbtime.Tod `gorm:"type:time;column:attendance_record_window_end"         json:"attendance_record_window_end,omitempty"`

	AttendanceRecordCheckInAt        *time.Time `gorm:"type:timestamptz;column:attendance_record_check_in_at"          json:"attendance_record_check_in_at,omitempty"`
	AttendanceRecordCheckInMessageID *string    `gorm:"type:varchar(128);column:attendance_record_check_in_message_id" json:"attendance_record_check_in_message_id,omitempty"`

	AttendanceRecordResolutionDeferred bool `gorm:"not null;default:false;index;column:attendance_record_resolution_deferred" json:"attendance_record_resolution_deferred"`

	// optimistic lock
	AttendanceRecordVersion int64 `gorm:"not null;default:1;column:attendance_record_version" json:"attendance_record_version"`

	AttendanceRecordCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_record_created_at" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_record_updated_at" json:"attendance_record_updated_at"`

	Evidences []AttendanceEvidenceModel `gorm:"foreignKey:AttendanceEvidenceRecordID;references:AttendanceRecordID;constraint:OnDelete:CASCADE" json:"evidences,omitempty"`
}

func (AttendanceRecordModel) TableName() string {
	return "attendance_records"
}
