// file: internals/features/attendance/ledger/service/gorm_store.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"centerku_backend/internals/features/attendance/evidence"
	ledgerModel "centerku_backend/internals/features/attendance/ledger/model"
	helper "centerku_backend/internals/helpers"
	"centerku_backend/internals/helpers/dbtime"
)

// GormStore: Store di atas postgres.
//   - Create  → INSERT; unique uq_attendance_student_date → ErrDuplicateKey
//   - Save    → SELECT ... FOR UPDATE, cek versi, UPDATE + evidence ON CONFLICT DO NOTHING
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) FindByKey(ctx context.Context, key Key) (*Record, error) {
	var m ledgerModel.AttendanceRecordModel
	err := s.withEvidences(ctx).
		Where("attendance_record_student_id = ? AND attendance_record_date = ?", key.StudentID, key.Date).
		Take(&m).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return fromModel(&m), nil
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var m ledgerModel.AttendanceRecordModel
	err := s.withEvidences(ctx).
		Where("attendance_record_id = ?", id).
		Take(&m).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return fromModel(&m), nil
}

func (s *GormStore) Create(ctx context.Context, rec *Record) error {
	m, err := toModel(rec)
	if err != nil {
		return err
	}
	m.AttendanceRecordVersion = 1

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			if helper.IsDuplicateKey(err) {
				return ErrDuplicateKey
			}
			return err
		}
		return insertEvidences(tx, rec)
	})
	if err != nil {
		return err
	}
	rec.Version = 1
	return nil
}

func (s *GormStore) Save(ctx context.Context, rec *Record, expectedVersion int64) error {
	m, err := toModel(rec)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur ledgerModel.AttendanceRecordModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("attendance_record_id", "attendance_record_version").
			Where("attendance_record_id = ?", rec.ID).
			Take(&cur).Error; err != nil {
			return mapNotFound(err)
		}
		if cur.AttendanceRecordVersion != expectedVersion {
			return ErrConcurrencyConflict
		}

		res := versionedUpdate(tx, m, expectedVersion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}
		return insertEvidences(tx, rec)
	})
	if err != nil {
		return err
	}
	rec.Version = expectedVersion + 1
	return nil
}

func (s *GormStore) ListDeferred(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []ledgerModel.AttendanceRecordModel
	if err := s.withEvidences(ctx).
		Where("attendance_record_resolution_deferred = ?", true).
		Order("attendance_record_updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *GormStore) withEvidences(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Preload("Evidences", func(db *gorm.DB) *gorm.DB {
		return db.Order("attendance_evidence_received_at ASC, attendance_evidence_id ASC")
	})
}

// versionedUpdate: UPDATE ... WHERE id = ? AND version = expected, version+1.
// RowsAffected 0 = ditimpa writer lain.
func versionedUpdate(tx *gorm.DB, m *ledgerModel.AttendanceRecordModel, expectedVersion int64) *gorm.DB {
	return tx.Model(&ledgerModel.AttendanceRecordModel{}).
		Where("attendance_record_id = ? AND attendance_record_version = ?", m.AttendanceRecordID, expectedVersion).
		Updates(map[string]any{
			"attendance_record_status":              m.AttendanceRecordStatus,
			"attendance_record_center_id":           m.AttendanceRecordCenterID,
			"attendance_record_center_name":         m.AttendanceRecordCenterName,
			"attendance_record_distance_m":          m.AttendanceRecordDistanceMeters,
			"attendance_record_is_verified":         m.AttendanceRecordIsVerified,
			"attendance_record_verified_at":         m.AttendanceRecordVerifiedAt,
			"attendance_record_verification_method": m.AttendanceRecordVerificationMethod,
			"attendance_record_verified_by":         m.AttendanceRecordVerifiedBy,
			"attendance_record_admin_notes":         m.AttendanceRecordAdminNotes,
			"attendance_record_window_name":         m.AttendanceRecordWindowName,
			"attendance_record_window_start":        m.AttendanceRecordWindowStart,
			"attendance_record_window_end":          m.AttendanceRecordWindowEnd,
			"attendance_record_check_in_at":         m.AttendanceRecordCheckInAt,
			"attendance_record_check_in_message_id": m.AttendanceRecordCheckInMessageID,
			"attendance_record_resolution_deferred": m.AttendanceRecordResolutionDeferred,
			"attendance_record_version":             expectedVersion + 1,
			"attendance_record_updated_at":          m.AttendanceRecordUpdatedAt,
		})
}

// insertEvidences: append-only; baris yang sudah ada (record, message) dilewati.
func insertEvidences(tx *gorm.DB, rec *Record) error {
	if res := evidenceInsert(tx, rec); res != nil {
		return res.Error
	}
	return nil
}

// evidenceInsert: nil kalau record belum punya evidence.
func evidenceInsert(tx *gorm.DB, rec *Record) *gorm.DB {
	if len(rec.Evidence) == 0 {
		return nil
	}
	rows := make([]ledgerModel.AttendanceEvidenceModel, 0, len(rec.Evidence))
	for _, e := range rec.Evidence {
		rows = append(rows, evidenceToModel(rec.ID, e))
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

/* =========================
   Mapping
========================= */

func toModel(r *Record) (*ledgerModel.AttendanceRecordModel, error) {
	d, err := time.Parse(dbtime.DateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("ledger: bad record date %q: %w", r.Date, err)
	}
	m := &ledgerModel.AttendanceRecordModel{
		AttendanceRecordID:                 r.ID,
		AttendanceRecordStudentID:          r.StudentID,
		AttendanceRecordDate:               datatypes.Date(d),
		AttendanceRecordStatus:             string(r.Status),
		AttendanceRecordCenterID:           cloneUUID(r.CenterID),
		AttendanceRecordCenterName:         strPtr(r.CenterName),
		AttendanceRecordDistanceMeters:     cloneFloat(r.DistanceMeters),
		AttendanceRecordIsVerified:         r.Verification.IsVerified,
		AttendanceRecordVerifiedAt:         cloneTime(r.Verification.VerifiedAt),
		AttendanceRecordVerificationMethod: strPtr(string(r.Verification.Method)),
		AttendanceRecordVerifiedBy:         cloneUUID(r.Verification.VerifiedBy),
		AttendanceRecordAdminNotes:         strPtr(r.Verification.Notes),
		AttendanceRecordCheckInAt:          cloneTime(r.CheckInAt),
		AttendanceRecordCheckInMessageID:   strPtr(r.CheckInMessageID),
		AttendanceRecordResolutionDeferred: r.ResolutionDeferred,
		AttendanceRecordVersion:            r.Version,
		AttendanceRecordCreatedAt:          r.CreatedAt,
		AttendanceRecordUpdatedAt:          r.UpdatedAt,
	}
	if w := r.TimeWindow; w != nil {
		start, end := w.ExpectedStart, w.ExpectedEnd
		m.AttendanceRecordWindowName = strPtr(w.Name)
		m.AttendanceRecordWindowStart = &start
		m.AttendanceRecordWindowEnd = &end
	}
	return m, nil
}

func fromModel(m *ledgerModel.AttendanceRecordModel) *Record {
	r := &Record{
		ID:             m.AttendanceRecordID,
		StudentID:      m.AttendanceRecordStudentID,
		Date:           time.Time(m.AttendanceRecordDate).Format(dbtime.DateLayout),
		Status:         Status(m.AttendanceRecordStatus),
		CenterID:       m.AttendanceRecordCenterID,
		CenterName:     deref(m.AttendanceRecordCenterName),
		DistanceMeters: m.AttendanceRecordDistanceMeters,
		Verification: Verification{
			IsVerified: m.AttendanceRecordIsVerified,
			VerifiedAt: m.AttendanceRecordVerifiedAt,
			Method:     Method(deref(m.AttendanceRecordVerificationMethod)),
			VerifiedBy: m.AttendanceRecordVerifiedBy,
			Notes:      deref(m.AttendanceRecordAdminNotes),
		},
		CheckInAt:          m.AttendanceRecordCheckInAt,
		CheckInMessageID:   deref(m.AttendanceRecordCheckInMessageID),
		ResolutionDeferred: m.AttendanceRecordResolutionDeferred,
		Version:            m.AttendanceRecordVersion,
		CreatedAt:          m.AttendanceRecordCreatedAt,
		UpdatedAt:          m.AttendanceRecordUpdatedAt,
		Evidence:           make([]EvidenceEntry, 0, len(m.Evidences)),
	}
	if m.AttendanceRecordWindowName != nil && m.AttendanceRecordWindowStart != nil && m.AttendanceRecordWindowEnd != nil {
		r.TimeWindow = &WindowSnapshot{
			Name:          *m.AttendanceRecordWindowName,
			ExpectedStart: *m.AttendanceRecordWindowStart,
			ExpectedEnd:   *m.AttendanceRecordWindowEnd,
		}
	}
	for _, e := range m.Evidences {
		r.Evidence = append(r.Evidence, EvidenceEntry{
			ID:              e.AttendanceEvidenceID,
			SourceMessageID: e.AttendanceEvidenceSourceMessageID,
			Lat:             e.AttendanceEvidenceLat,
			Lng:             e.AttendanceEvidenceLng,
			Precision:       evidence.Precision(e.AttendanceEvidencePrecision),
			AccuracyMeters:  e.AttendanceEvidenceAccuracyMeters,
			Strategy:        deref(e.AttendanceEvidenceStrategy),
			ObservedAt:      e.AttendanceEvidenceObservedAt,
			ReceivedAt:      e.AttendanceEvidenceReceivedAt,
		})
	}
	return r
}

func evidenceToModel(recordID uuid.UUID, e EvidenceEntry) ledgerModel.AttendanceEvidenceModel {
	return ledgerModel.AttendanceEvidenceModel{
		AttendanceEvidenceID:              e.ID,
		AttendanceEvidenceRecordID:        recordID,
		AttendanceEvidenceSourceMessageID: e.SourceMessageID,
		AttendanceEvidenceLat:             cloneFloat(e.Lat),
		AttendanceEvidenceLng:             cloneFloat(e.Lng),
		AttendanceEvidencePrecision:       string(e.Precision),
		AttendanceEvidenceAccuracyMeters:  cloneFloat(e.AccuracyMeters),
		AttendanceEvidenceStrategy:        strPtr(e.Strategy),
		AttendanceEvidenceObservedAt:      e.ObservedAt,
		AttendanceEvidenceReceivedAt:      e.ReceivedAt,
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
