// file: internals/features/attendance/centers/model/center_model.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"centerku_backend/internals/features/attendance/geo"
	"centerku_backend/internals/features/attendance/timewindow"
)

// CenterModel: tabel centers. Dikelola admin (CRUD di luar engine),
// engine hanya membaca lewat directory loader.
type CenterModel struct {
	CenterID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:center_id" json:"center_id"`
	CenterName    string    `gorm:"type:varchar(150);not null;column:center_name"                  json:"center_name"`
	CenterAddress *string   `gorm:"type:text;column:center_address"                                json:"center_address,omitempty"`

	CenterLatitude  float64 `gorm:"type:double precision;not null;column:center_latitude"  json:"center_latitude"`
	CenterLongitude float64 `gorm:"type:double precision;not null;column:center_longitude" json:"center_longitude"`
	CenterRadiusM   float64 `gorm:"type:double precision;not null;column:center_radius_m" json:"center_radius_m"`

	// tanpa default: gorm mengganti nilai nol (false / 0) dengan default saat INSERT
	CenterIsActive bool `gorm:"not null;column:center_is_active" json:"center_is_active"`

	// [{"name":"morning","start":"09:00","end":"13:00"}, ...]; urutan array = urutan deklarasi
	CenterTimeWindows  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]';column:center_time_windows" json:"center_time_windows"`
	CenterGraceMinutes *int           `gorm:"column:center_grace_minutes"                                json:"center_grace_minutes,omitempty"`

	CenterContactPhone *string `gorm:"type:varchar(40);column:center_contact_phone"  json:"center_contact_phone,omitempty"`
	CenterContactEmail *string `gorm:"type:varchar(150);column:center_contact_email" json:"center_contact_email,omitempty"`

	CenterSortOrder int `gorm:"not null;default:0;column:center_sort_order" json:"center_sort_order"`

	CenterCreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();column:center_created_at" json:"center_created_at"`
	CenterUpdatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();column:center_updated_at" json:"center_updated_at"`
	CenterDeletedAt gorm.DeletedAt `gorm:"column:center_deleted_at;index"                                   json:"center_deleted_at,omitempty"`
}

func (CenterModel) TableName() string {
	return "centers"
}

// ToCenter mengubah row ke value domain. Error di sini berarti JSON
// windows rusak; caller memperlakukannya sebagai ConfigurationError.
func (m CenterModel) ToCenter() (Center, error) {
	c := Center{
		ID:           m.CenterID,
		Name:         m.CenterName,
		Location:     geo.Coordinate{Lat: m.CenterLatitude, Lng: m.CenterLongitude},
		RadiusMeters: m.CenterRadiusM,
		IsActive:     m.CenterIsActive,
		GraceMinutes: m.CenterGraceMinutes,
	}
	if m.CenterAddress != nil {
		c.Address = *m.CenterAddress
	}
	if m.CenterContactPhone != nil {
		c.ContactPhone = *m.CenterContactPhone
	}
	if m.CenterContactEmail != nil {
		c.ContactEmail = *m.CenterContactEmail
	}
	if len(m.CenterTimeWindows) > 0 {
		var ws []timewindow.Window
		if err := json.Unmarshal(m.CenterTimeWindows, &ws); err != nil {
			return c, &ConfigurationError{CenterID: m.CenterID, Name: m.CenterName, Reason: "time windows: " + err.Error()}
		}
		c.Windows = ws
	}
	return c, nil
}

// FromCenter: kebalikan ToCenter (seeder / file import).
func FromCenter(c Center, sortOrder int) (CenterModel, error) {
	ws := c.Windows
	if ws == nil {
		ws = []timewindow.Window{}
	}
	raw, err := json.Marshal(ws)
	if err != nil {
		return CenterModel{}, err
	}
	return CenterModel{
		CenterID:           c.ID,
		CenterName:         c.Name,
		CenterAddress:      optString(c.Address),
		CenterLatitude:     c.Location.Lat,
		CenterLongitude:    c.Location.Lng,
		CenterRadiusM:      c.RadiusMeters,
		CenterIsActive:     c.IsActive,
		CenterTimeWindows:  datatypes.JSON(raw),
		CenterGraceMinutes: c.GraceMinutes,
		CenterContactPhone: optString(c.ContactPhone),
		CenterContactEmail: optString(c.ContactEmail),
		CenterSortOrder:    sortOrder,
	}, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
