package connections

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/theleywin/talentnest-connections/src/models"
)

// MemoryStore is an in-process Store for dev mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]models.ConnectionRequest
	byPair map[string]string // pair key -> id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]models.ConnectionRequest),
		byPair: make(map[string]string),
	}
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (models.ConnectionRequest, error) {
	if err := ctx.Err(); err != nil {
		return models.ConnectionRequest{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return models.ConnectionRequest{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) FindByPair(ctx context.Context, a, b string) (models.ConnectionRequest, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.ConnectionRequest{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[models.PairKey(a, b)]
	if !ok {
		return models.ConnectionRequest{}, false, nil
	}
	return s.byID[id], true, nil
}

func (s *MemoryStore) FindByParticipant(ctx context.Context, member string) iter.Seq2[models.ConnectionRequest, error] {
	return func(yield func(models.ConnectionRequest, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(models.ConnectionRequest{}, err)
			return
		}

		s.mu.RLock()
		snap := make([]models.ConnectionRequest, 0, 8)
		for _, rec := range s.byID {
			if rec.Touches(member) {
				snap = append(snap, rec)
			}
		}
		s.mu.RUnlock()

		slices.SortFunc(snap, func(a, b models.ConnectionRequest) int {
			if newer(a, b) {
				return -1
			}
			if newer(b, a) {
				return 1
			}
			return 0
		})
		for _, rec := range snap {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) Insert(ctx context.Context, rec models.ConnectionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Callers may hand over strings backed by reused buffers
	rec.ID = strings.Clone(rec.ID)
	rec.RequesterID = strings.Clone(rec.RequesterID)
	rec.TargetID = strings.Clone(rec.TargetID)
	rec.PairKey = models.PairKey(rec.RequesterID, rec.TargetID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPair[rec.PairKey]; ok {
		return ErrConflict
	}
	if _, ok := s.byID[rec.ID]; ok {
		return ErrConflict
	}
	s.byID[rec.ID] = rec
	s.byPair[rec.PairKey] = rec.ID
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, rec models.ConnectionRequest, expected models.ConnectionStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[rec.ID]
	if !ok || cur.Status != expected {
		return ErrNotFound
	}
	cur.Status = rec.Status
	cur.UpdatedAt = rec.UpdatedAt
	s.byID[rec.ID] = cur
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
