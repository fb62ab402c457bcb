// file: internals/features/students/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentModel: hanya kolom yang dibutuhkan engine absensi.
// StudentChatRef = identitas pengirim di channel messaging (mis. nomor WA).
type StudentModel struct {
	StudentID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid();column:student_id"     json:"student_id"`
	StudentName             string     `gorm:"type:varchar(150);not null;column:student_name"                     json:"student_name"`
	StudentChatRef          string     `gorm:"type:varchar(64);not null;uniqueIndex;column:student_chat_ref"       json:"student_chat_ref"`
	StudentAssignedCenterID *uuid.UUID `gorm:"type:uuid;index;column:student_assigned_center_id"                   json:"student_assigned_center_id,omitempty"`
	StudentIsActive         bool       `gorm:"not null;column:student_is_active"                                   json:"student_is_active"`

	StudentCreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();column:student_created_at" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();column:student_updated_at" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"index;column:student_deleted_at"                                  json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string {
	return "students"
}
