// Package sqlite persists the medicine collection in a local SQLite database,
// the default backend for single-user installs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/repository"
)

type medicineStore struct {
	db *sqlx.DB
}

// NewMedicineStore creates a SQLite-backed medicine store on an open connection.
func NewMedicineStore(db *sqlx.DB) repository.MedicineStore {
	return &medicineStore{db: db}
}

// Open connects to the SQLite database at the given DSN. The connection pool
// is capped at one so read-modify-write sequences serialize naturally.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *medicineStore) LoadAll(ctx context.Context) ([]models.Medicine, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM medicine_store WHERE key = ?`, repository.StorageKey,
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

	// Single upsert statement: a concurrent LoadAll sees old or new, never partial.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO medicine_store (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		repository.StorageKey, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save medicines: %w", err)
	}
	return nil
}

func (s *medicineStore) Upsert(ctx context.Context, medicine models.Medicine) error {
	medicines, err := s.LoadAll(ctx)
	if err != nil && !errors.Is(err, models.ErrStorageCorrupt) {
		return err
	}
	return s.SaveAll(ctx, repository.UpsertInto(medicines, medicine))
}

func (s *medicineStore) Remove(ctx context.Context, id string) error {
	medicines, err := s.LoadAll(ctx)
	if err != nil && !errors.Is(err, models.ErrStorageCorrupt) {
		return err
	}
	return s.SaveAll(ctx, repository.RemoveFrom(medicines, id))
}

func (s *medicineStore) Close() error {
	return s.db.Close()
}
