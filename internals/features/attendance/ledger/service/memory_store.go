// file: internals/features/attendance/ledger/service/memory_store.go
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore: Store in-process (LEDGER_STORE=memory & test).
// Semantiknya sama dengan GormStore: unique key + optimistic version.
type MemoryStore struct {
	mu    sync.Mutex
	byKey map[Key]*Record
	byID  map[uuid.UUID]Key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: map[Key]*Record{}, byID: map[uuid.UUID]Key{}}
}

func (s *MemoryStore) FindByKey(ctx context.Context, key Key) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byKey[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return s.byKey[key].Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Key()
	if _, exists := s.byKey[key]; exists {
		return ErrDuplicateKey
	}
	stored := rec.Clone()
	stored.Version = 1
	s.byKey[key] = stored
	s.byID[stored.ID] = key
	rec.Version = 1
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Key()
	cur, ok := s.byKey[key]
	if !ok {
		return ErrRecordNotFound
	}
	if cur.Version != expectedVersion || cur.ID != rec.ID {
		return ErrConcurrencyConflict
	}
	next := rec.Clone()
	// evidence append-only: pertahankan yang lama, tambahkan yang baru saja
	merged := append([]EvidenceEntry(nil), cur.Evidence...)
	for _, e := range next.Evidence {
		if !cur.hasEvidence(e.SourceMessageID) {
			merged = append(merged, e)
		}
	}
	next.Evidence = merged
	next.Version = expectedVersion + 1
	s.byKey[key] = next
	rec.Version = next.Version
	return nil
}

func (s *MemoryStore) ListDeferred(ctx context.Context, limit int) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, rec := range s.byKey {
		if rec.ResolutionDeferred {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count dipakai test untuk memastikan tidak ada record ganda.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}
