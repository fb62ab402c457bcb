// file: internals/features/attendance/ledger/service/store.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound = errors.New("ledger: record not found")
	// ErrDuplicateKey: insert kalah race dengan writer lain → ulangi sebagai merge.
	ErrDuplicateKey = errors.New("ledger: record already exists for student/date")
	// ErrConcurrencyConflict: versi berubah sejak dibaca → baca ulang & merge.
	ErrConcurrencyConflict = errors.New("ledger: concurrent update detected")
)

// Store = persistence collaborator. Semua method mengembalikan salinan.
type Store interface {
	FindByKey(ctx context.Context, key Key) (*Record, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// Create menyimpan record baru (Version=1). ErrDuplicateKey kalau key sudah ada.
	Create(ctx context.Context, rec *Record) error
	// Save menulis record kalau versi tersimpan == expectedVersion, lalu
	// menaikkan versi. Evidence yang sudah ada (source message sama) diabaikan.
	Save(ctx context.Context, rec *Record, expectedVersion int64) error
	ListDeferred(ctx context.Context, limit int) ([]*Record, error)
}
