// Package postgres persists the medicine collection in PostgreSQL, for
// installs that already run a server-grade database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/repository"
)

type medicineStore struct {
	db *sql.DB
}

// NewMedicineStore creates a PostgreSQL-backed medicine store.
func NewMedicineStore(db *sql.DB) repository.MedicineStore {
	return &medicineStore{db: db}
}

func (s *medicineStore) LoadAll(ctx context.Context) ([]models.Medicine, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM medicine_store WHERE key = $1`, repository.StorageKey,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Medicine{}, nil
		}
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}

	medicines, err := repository.DecodeMedicines(payload)
	if err != nil {
		return []models.Medicine{}, err
	}
	return medicines, nil
}

func (s *medicineStore) SaveAll(ctx context.Context, medicines []models.Medicine) error {
	payload, err := repository.EncodeMedicines(medicines)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO medicine_store (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		repository.StorageKey, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save medicines: %w", err)
	}
	return nil
}

func (s *medicineStore) Upsert(ctx context.Context, medicine models.Medicine) error {
	return s.readModifyWrite(ctx, func(medicines []models.Medicine) []models.Medicine {
		return repository.UpsertInto(medicines, medicine)
	})
}

func (s *medicineStore) Remove(ctx context.Context, id string) error {
	return s.readModifyWrite(ctx, func(medicines []models.Medicine) []models.Medicine {
		return repository.RemoveFrom(medicines, id)
	})
}

// readModifyWrite runs the mutation inside a transaction, holding a row lock
// so concurrent mutators cannot interleave between the read and the write.
func (s *medicineStore) readModifyWrite(ctx context.Context, mutate func([]models.Medicine) []models.Medicine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var payload []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM medicine_store WHERE key = $1 FOR UPDATE`, repository.StorageKey,
	).Scan(&payload)

	var medicines []models.Medicine
	switch {
	case errors.Is(err, sql.ErrNoRows):
		medicines = []models.Medicine{}
	case err != nil:
		return fmt.Errorf("failed to load medicines: %w", err)
	default:
		medicines, err = repository.DecodeMedicines(payload)
		if err != nil && !errors.Is(err, models.ErrStorageCorrupt) {
			return err
		}
		// A corrupt payload is unrecoverable; the mutation rebuilds the record.
	}

	next, err := repository.EncodeMedicines(mutate(medicines))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO medicine_store (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		repository.StorageKey, next, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save medicines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *medicineStore) Close() error {
	return s.db.Close()
}
