// file: internals/features/attendance/centers/model/center.go
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"centerku_backend/internals/features/attendance/geo"
	"centerku_backend/internals/features/attendance/timewindow"
)

// Center = nilai immutable di dalam satu snapshot directory.
type Center struct {
	ID           uuid.UUID           `json:"id"            validate:"required"`
	Name         string              `json:"name"          validate:"required,max=150"`
	Address      string              `json:"address,omitempty"`
	Location     geo.Coordinate      `json:"location"`
	RadiusMeters float64             `json:"radius_meters" validate:"gt=0"`
	IsActive     bool                `json:"is_active"`
	Windows      []timewindow.Window `json:"windows"`
	GraceMinutes *int                `json:"grace_minutes,omitempty" validate:"omitempty,min=0,max=720"`
	ContactPhone string              `json:"contact_phone,omitempty"`
	ContactEmail string              `json:"contact_email,omitempty" validate:"omitempty,email"`
}

// ConfigurationError: center dengan radius/koordinat/window tidak valid.
// Center tsb dikeluarkan dari resolusi, center lain tetap jalan.
type ConfigurationError struct {
	CenterID uuid.UUID
	Name     string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("center %s (%s): invalid configuration: %s", e.CenterID, e.Name, e.Reason)
}

var validate = validator.New()

// Validate mengembalikan *ConfigurationError kalau center tidak boleh dipakai.
func (c Center) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			parts := make([]string, 0, len(ve))
			for _, fe := range ve {
				parts = append(parts, fmt.Sprintf("%s:%s", fe.Namespace(), fe.Tag()))
			}
			return c.configErr(strings.Join(parts, ", "))
		}
		return c.configErr(err.Error())
	}
	if !c.Location.Valid() {
		return c.configErr(fmt.Sprintf("coordinates out of range (%v,%v)", c.Location.Lat, c.Location.Lng))
	}
	if math.IsNaN(c.RadiusMeters) || math.IsInf(c.RadiusMeters, 0) {
		return c.configErr("radius is not finite")
	}
	seen := make(map[string]struct{}, len(c.Windows))
	for _, w := range c.Windows {
		if err := w.Validate(); err != nil {
			return c.configErr(err.Error())
		}
		if _, dup := seen[w.Name]; dup {
			return c.configErr("duplicate window name " + w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}

func (c Center) configErr(reason string) *ConfigurationError {
	return &ConfigurationError{CenterID: c.ID, Name: c.Name, Reason: reason}
}

// Grace: grace per center, fallback ke default deployment.
func (c Center) Grace(defaultMinutes int) int {
	if c.GraceMinutes != nil {
		return *c.GraceMinutes
	}
	return defaultMinutes
}
