// file: internals/features/attendance/ledger/dto/checkin_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/ledger/service"
)

/* =========================
   Webhook (transport → engine)
========================= */

type LocationPayload struct {
	Latitude  *float64 `json:"latitude"           validate:"required"`
	Longitude *float64 `json:"longitude"          validate:"required"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
}

type PhotoPayload struct {
	// base64 (std encoding) dari file foto asli
	Data     string            `json:"data"               validate:"required,base64"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CheckInWebhookRequest: bentuk netral; adapter provider messaging
// memetakan payload mereka ke sini. Minimal salah satu location/photo.
type CheckInWebhookRequest struct {
	MessageID string           `json:"message_id"         validate:"required,max=128"`
	SenderRef string           `json:"sender_ref"         validate:"required,max=64"`
	SentAt    time.Time        `json:"sent_at"            validate:"required"`
	Lang      string           `json:"lang,omitempty"     validate:"omitempty,max=10"`
	Location  *LocationPayload `json:"location,omitempty" validate:"required_without=Photo"`
	Photo     *PhotoPayload    `json:"photo,omitempty"    validate:"required_without=Location"`
}

func (r CheckInWebhookRequest) ToLocationShare() evidence.LocationShare {
	return evidence.LocationShare{
		MessageID:      r.MessageID,
		Latitude:       r.Location.Latitude,
		Longitude:      r.Location.Longitude,
		AccuracyMeters: r.Location.Accuracy,
		SentAt:         r.SentAt,
	}
}

func (r CheckInWebhookRequest) ToPhotoMessage(data []byte) evidence.PhotoMessage {
	return evidence.PhotoMessage{
		MessageID: r.MessageID,
		SentAt:    r.SentAt,
		Data:      data,
		Metadata:  r.Photo.Metadata,
	}
}

type CheckInResponse struct {
	Kind       service.OutcomeKind `json:"kind"`
	Status     service.Status      `json:"status"`
	RecordID   *uuid.UUID          `json:"record_id,omitempty"`
	Date       string              `json:"date,omitempty"`
	CenterID   *uuid.UUID          `json:"center_id,omitempty"`
	CenterName string              `json:"center_name,omitempty"`
	Distance   *float64            `json:"distance_meters,omitempty"`
	WindowName string              `json:"window_name,omitempty"`
	TextKey    string              `json:"text_key"`
	Message    string              `json:"message"`
}

func FromOutcome(o service.Outcome, message string) CheckInResponse {
	resp := CheckInResponse{
		Kind:       o.Kind,
		Status:     o.Status,
		CenterID:   o.CenterID,
		CenterName: o.CenterName,
		Distance:   o.Distance,
		WindowName: o.WindowName,
		TextKey:    o.TextKey,
		Message:    message,
	}
	if o.Record != nil {
		id := o.Record.ID
		resp.RecordID = &id
		resp.Date = o.Record.Date
	}
	return resp
}

/* =========================
   Admin
========================= */

type ManualVerifyRequest struct {
	Status  string     `json:"status"             validate:"required,oneof=present late absent"`
	Notes   string     `json:"notes,omitempty"    validate:"omitempty,max=500"`
	AdminID *uuid.UUID `json:"admin_id,omitempty"`
}

type ResetManualRequest struct {
	Notes   string     `json:"notes,omitempty"    validate:"omitempty,max=500"`
	AdminID *uuid.UUID `json:"admin_id,omitempty"`
}
