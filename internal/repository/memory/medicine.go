// Package memory holds the medicine collection in process memory. It backs
// tests and the ephemeral DATABASE_URL=memory mode; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/repository"
)

type medicineStore struct {
	mu        sync.RWMutex
	medicines []models.Medicine
}

// NewMedicineStore creates an empty in-memory medicine store.
func NewMedicineStore() repository.MedicineStore {
	return &medicineStore{medicines: []models.Medicine{}}
}

func (s *medicineStore) LoadAll(ctx context.Context) ([]models.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Medicine, len(s.medicines))
	copy(out, s.medicines)
	return out, nil
}

func (s *medicineStore) SaveAll(ctx context.Context, medicines []models.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Medicine, len(medicines))
	copy(next, medicines)
	s.medicines = next
	return nil
}

func (s *medicineStore) Upsert(ctx context.Context, medicine models.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.medicines = repository.UpsertInto(s.medicines, medicine)
	return nil
}

func (s *medicineStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.medicines = repository.RemoveFrom(s.medicines, id)
	return nil
}

func (s *medicineStore) Close() error {
	return nil
}
