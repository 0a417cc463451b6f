package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/repository"
	"github.com/medibuddy/medibuddy/internal/schedule"
)

// DefaultLowStockThreshold is the stock level at or below which a medicine is
// flagged as running out.
const DefaultLowStockThreshold = 5

// Service is the business logic layer over the medicine store. All derived
// views are recomputed on demand from the current collection; there is no
// separate persisted index.
type Service struct {
	store  repository.MedicineStore
	logger *logrus.Logger
}

// New creates a new Service.
func New(store repository.MedicineStore, logger *logrus.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ListAll returns the full medicine collection.
func (s *Service) ListAll(ctx context.Context) ([]models.Medicine, error) {
	return s.store.LoadAll(ctx)
}

// ListByType returns the medicines of the given type.
func (s *Service) ListByType(ctx context.Context, t models.MedicineType) ([]models.Medicine, error) {
	medicines, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Medicine, 0)
	for _, m := range medicines {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out, nil
}

// Search returns medicines whose name or description contains the query,
// case-insensitively. A blank query returns the whole collection.
func (s *Service) Search(ctx context.Context, query string) ([]models.Medicine, error) {
	medicines, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return medicines, nil
	}

	out := make([]models.Medicine, 0)
	for _, m := range medicines {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.Description), query) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListLowStock returns medicines with stock at or below threshold.
func (s *Service) ListLowStock(ctx context.Context, threshold int) ([]models.Medicine, error) {
	medicines, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Medicine, 0)
	for _, m := range medicines {
		if m.LowStock(threshold) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListAlarms returns every alarm across the collection, sorted ascending by
// time-of-day.
func (s *Service) ListAlarms(ctx context.Context) ([]schedule.AlarmEntry, error) {
	medicines, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.SortAlarms(medicines), nil
}

// assignAlarmIDs gives every ID-less alarm a fresh identity; alarms without
// IDs could never be addressed by ToggleAlarm.
func assignAlarmIDs(medicine *models.Medicine) error {
	for i, a := range medicine.Alarms {
		if a.ID == "" {
			alarm, err := models.NewAlarm(a.Time, a.Days, a.Enabled)
			if err != nil {
				return err
			}
			medicine.Alarms[i] = alarm
		}
	}
	return nil
}

// Create validates and persists a new medicine, assigning it a fresh ID.
// Alarms without IDs are assigned ones as well.
func (s *Service) Create(ctx context.Context, medicine models.Medicine) (models.Medicine, error) {
	if err := assignAlarmIDs(&medicine); err != nil {
		return models.Medicine{}, err
	}

	medicine, err := models.NewMedicine(medicine)
	if err != nil {
		return models.Medicine{}, err
	}

	if err := s.store.Upsert(ctx, medicine); err != nil {
		return models.Medicine{}, fmt.Errorf("failed to persist medicine: %w", err)
	}

	s.logger.Infof("Created medicine %q (%s)", medicine.Name, medicine.ID)
	return medicine, nil
}

// Update validates and replaces an existing medicine. Updating an unknown ID
// is an error; alarms added by the update get fresh IDs like in Create.
func (s *Service) Update(ctx context.Context, medicine models.Medicine) (models.Medicine, error) {
	if err := assignAlarmIDs(&medicine); err != nil {
		return models.Medicine{}, err
	}
	if medicine.Alarms == nil {
		medicine.Alarms = []models.Alarm{}
	}
	if err := medicine.Validate(); err != nil {
		return models.Medicine{}, err
	}

	existing, err := s.get(ctx, medicine.ID)
	if err != nil {
		return models.Medicine{}, err
	}
	// Creation metadata is immutable.
	medicine.CreatedAt = existing.CreatedAt

	if err := s.store.Upsert(ctx, medicine); err != nil {
		return models.Medicine{}, fmt.Errorf("failed to persist medicine: %w", err)
	}

	s.logger.Infof("Updated medicine %q (%s)", medicine.Name, medicine.ID)
	return medicine, nil
}

// Delete removes a medicine and all its alarms. Deleting an unknown ID is a
// no-op success.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	s.logger.Infof("Deleted medicine %s", id)
	return nil
}

// ToggleAlarm enables or disables a single alarm. Unknown medicine or alarm
// IDs are errors.
func (s *Service) ToggleAlarm(ctx context.Context, medicineID, alarmID string, enabled bool) (models.Medicine, error) {
	medicine, err := s.get(ctx, medicineID)
	if err != nil {
		return models.Medicine{}, err
	}

	found := false
	for i, a := range medicine.Alarms {
		if a.ID == alarmID {
			medicine.Alarms[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return models.Medicine{}, fmt.Errorf("alarm %s on medicine %s: %w", alarmID, medicineID, models.ErrNotFound)
	}

	if err := s.store.Upsert(ctx, medicine); err != nil {
		return models.Medicine{}, fmt.Errorf("failed to persist medicine: %w", err)
	}
	return medicine, nil
}

func (s *Service) get(ctx context.Context, id string) (models.Medicine, error) {
	medicines, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Medicine{}, err
	}
	for _, m := range medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Medicine{}, fmt.Errorf("medicine %s: %w", id, models.ErrNotFound)
}
