package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

// Store keeps registrations in process memory. Unlike the hosted backends it
// rejects a duplicate name on insert as well as reporting it on query.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]models.Registration
	byName map[string]string
	now    func() time.Time
}

var _ store.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{
		byID:   map[string]models.Registration{},
		byName: map[string]string{},
		now:    time.Now,
	}
}

func (s *Store) IsTeamNameTaken(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, store.Wrap("query", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byName[store.NameKey(name)]
	return ok, nil
}

func (s *Store) Insert(ctx context.Context, reg models.Registration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", store.Wrap("insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.NameKey(reg.TeamName)
	if _, ok := s.byName[key]; ok {
		return "", store.Wrap("insert", store.ErrTeamNameTaken)
	}
	reg.ID = uuid.NewString()
	reg.PaymentStatus = models.PaymentPending
	reg.CreatedAt = s.now().UTC()
	reg.Members = append([]models.Member(nil), reg.Members...)

	s.byID[reg.ID] = reg
	s.byName[key] = reg.ID
	return reg.ID, nil
}

// Get returns a stored registration by id.
func (s *Store) Get(id string) (models.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	return reg, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
