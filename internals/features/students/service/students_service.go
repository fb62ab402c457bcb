// file: internals/features/students/service/students_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"centerku_backend/internals/features/attendance/centers/resolver"
	"centerku_backend/internals/features/students/model"
)

var (
	ErrStudentNotFound = errors.New("students: not found")
	ErrStudentInactive = errors.New("students: inactive")
)

// Student = pandangan engine atas satu siswa.
type Student struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	ChatRef          string     `json:"chat_ref"`
	AssignedCenterID *uuid.UUID `json:"assigned_center_id,omitempty"`
	IsActive         bool       `json:"is_active"`
}

func (s Student) Eligibility() resolver.Eligibility {
	if s.AssignedCenterID == nil || *s.AssignedCenterID == uuid.Nil {
		return resolver.AnyCenter()
	}
	return resolver.AssignedTo(*s.AssignedCenterID)
}

// Directory: lookup siswa dari pengirim pesan / id.
type Directory interface {
	BySenderRef(ctx context.Context, ref string) (Student, error)
	ByID(ctx context.Context, id uuid.UUID) (Student, error)
}

// NormalizeRef: buang spasi, tanda baca, dan prefix "+" / domain jid.
// "+62 812-3456" dan "628123456@s.whatsapp.net" jadi "628123456".
func NormalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexByte(ref, '@'); i >= 0 {
		ref = ref[:i]
	}
	var b strings.Builder
	for _, r := range ref {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

/* =========================
   Gorm
========================= */

type GormDirectory struct {
	DB *gorm.DB
}

func (g GormDirectory) BySenderRef(ctx context.Context, ref string) (Student, error) {
	var m model.StudentModel
	err := g.DB.WithContext(ctx).
		Where("student_chat_ref = ?", NormalizeRef(ref)).
		Take(&m).Error
	return fromModel(m, err)
}

func (g GormDirectory) ByID(ctx context.Context, id uuid.UUID) (Student, error) {
	var m model.StudentModel
	err := g.DB.WithContext(ctx).
		Where("student_id = ?", id).
		Take(&m).Error
	return fromModel(m, err)
}

func (g GormDirectory) Eligibility(ctx context.Context, id uuid.UUID) (resolver.Eligibility, error) {
	return eligibilityOf(g.ByID(ctx, id))
}

func fromModel(m model.StudentModel, err error) (Student, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Student{}, ErrStudentNotFound
	}
	if err != nil {
		return Student{}, err
	}
	return Student{
		ID:               m.StudentID,
		Name:             m.StudentName,
		ChatRef:          m.StudentChatRef,
		AssignedCenterID: m.StudentAssignedCenterID,
		IsActive:         m.StudentIsActive,
	}, nil
}

/* =========================
   In-memory (file / test)
========================= */

type StaticDirectory struct {
	mu    sync.RWMutex
	byRef map[string]Student
	byID  map[uuid.UUID]Student
}

func NewStaticDirectory(students ...Student) *StaticDirectory {
	d := &StaticDirectory{byRef: map[string]Student{}, byID: map[uuid.UUID]Student{}}
	for _, s := range students {
		d.Put(s)
	}
	return d
}

// LoadStaticDirectory membaca JSON array Student.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("students: read %s: %w", path, err)
	}
	var list []Student
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("students: decode %s: %w", path, err)
	}
	return NewStaticDirectory(list...), nil
}

func (d *StaticDirectory) Put(s Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.ChatRef = NormalizeRef(s.ChatRef)
	d.byRef[s.ChatRef] = s
	d.byID[s.ID] = s
}

func (d *StaticDirectory) BySenderRef(_ context.Context, ref string) (Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byRef[NormalizeRef(ref)]
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return s, nil
}

func (d *StaticDirectory) ByID(_ context.Context, id uuid.UUID) (Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[id]
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return s, nil
}

func (d *StaticDirectory) Eligibility(ctx context.Context, id uuid.UUID) (resolver.Eligibility, error) {
	return eligibilityOf(d.ByID(ctx, id))
}

func eligibilityOf(s Student, err error) (resolver.Eligibility, error) {
	if err != nil {
		return resolver.Eligibility{}, err
	}
	if !s.IsActive {
		return resolver.Eligibility{}, ErrStudentInactive
	}
	return s.Eligibility(), nil
}
