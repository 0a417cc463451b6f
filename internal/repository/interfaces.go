package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medibuddy/medibuddy/internal/models"
)

// StorageKey is the well-known key the medicine collection is stored under.
const StorageKey = "medibuddy-medicines"

// MedicineStore is the single source of truth for the medicine collection.
// SaveAll replaces the whole collection atomically: a concurrent LoadAll sees
// either the old or the new payload, never a partial write. Every mutating
// operation persists before returning.
type MedicineStore interface {
	// LoadAll returns the full collection, empty if no data exists yet.
	// An undecodable payload yields an empty slice plus models.ErrStorageCorrupt.
	LoadAll(ctx context.Context) ([]models.Medicine, error)
	// SaveAll replaces the entire collection.
	SaveAll(ctx context.Context, medicines []models.Medicine) error
	// Upsert inserts a new medicine or replaces an existing one by ID.
	Upsert(ctx context.Context, medicine models.Medicine) error
	// Remove deletes by ID; removing an absent ID is a no-op, not an error.
	Remove(ctx context.Context, id string) error
	// Close releases the underlying storage resource.
	Close() error
}

// EncodeMedicines renders the collection as the persisted JSON payload.
// A nil collection and nil per-record alarm lists encode as empty arrays so a
// later DecodeMedicines never sees JSON null where it requires a list.
func EncodeMedicines(medicines []models.Medicine) ([]byte, error) {
	normalized := make([]models.Medicine, len(medicines))
	copy(normalized, medicines)
	for i := range normalized {
		if normalized[i].Alarms == nil {
			normalized[i].Alarms = []models.Alarm{}
		}
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode medicines: %w", err)
	}
	return data, nil
}

// DecodeMedicines parses a persisted payload, rejecting structurally invalid
// records (missing id, name, or alarms) as models.ErrStorageCorrupt. Optional
// fields may be absent; there is no schema version to negotiate.
func DecodeMedicines(data []byte) ([]models.Medicine, error) {
	var medicines []models.Medicine
	if err := json.Unmarshal(data, &medicines); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageCorrupt, err)
	}
	for i, m := range medicines {
		if m.ID == "" || m.Name == "" || m.Alarms == nil {
			return nil, fmt.Errorf("%w: record %d is missing id, name, or alarms", models.ErrStorageCorrupt, i)
		}
	}
	if medicines == nil {
		medicines = []models.Medicine{}
	}
	return medicines, nil
}

// UpsertInto replaces the medicine with a matching ID or appends it.
func UpsertInto(medicines []models.Medicine, medicine models.Medicine) []models.Medicine {
	for i, m := range medicines {
		if m.ID == medicine.ID {
			medicines[i] = medicine
			return medicines
		}
	}
	return append(medicines, medicine)
}

// RemoveFrom filters out the medicine with the given ID.
func RemoveFrom(medicines []models.Medicine, id string) []models.Medicine {
	out := medicines[:0]
	for _, m := range medicines {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
