package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/repository"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.MustExec(`
		CREATE TABLE medicine_store (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	return db
}

func TestLoadAllMissingRowIsEmpty(t *testing.T) {
	store := NewMedicineStore(newTestDB(t))

	medicines, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, medicines)
}

func TestSaveAllLoadAllRoundTrip(t *testing.T) {
	store := NewMedicineStore(newTestDB(t))
	ctx := context.Background()

	in := []models.Medicine{
		{
			ID: "m1", Name: "Aspirin", Dosage: "100mg",
			Type:   models.MedicineTypeRegular,
			Alarms: []models.Alarm{{ID: "a1", Time: "08:00", Days: []string{"Monday"}, Enabled: true}},
			Stock:  12,
		},
	}

	require.NoError(t, store.SaveAll(ctx, in))

	out, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, in[0].Alarms, out[0].Alarms)

	// Save/load cycles are idempotent.
	require.NoError(t, store.SaveAll(ctx, out))
	again, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestSaveAllReplacesPreviousCollection(t *testing.T) {
	store := NewMedicineStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SaveAll(ctx, []models.Medicine{{ID: "m1", Name: "Aspirin", Alarms: []models.Alarm{}}}))
	require.NoError(t, store.SaveAll(ctx, []models.Medicine{{ID: "m2", Name: "Ibuprofen", Alarms: []models.Alarm{}}}))

	out, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m2", out[0].ID)
}

func TestUpsertAndRemove(t *testing.T) {
	store := NewMedicineStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, models.Medicine{ID: "m1", Name: "Aspirin", Alarms: []models.Alarm{}}))
	require.NoError(t, store.Upsert(ctx, models.Medicine{ID: "m2", Name: "Ibuprofen", Alarms: []models.Alarm{}}))
	require.NoError(t, store.Upsert(ctx, models.Medicine{ID: "m1", Name: "Aspirin Forte", Alarms: []models.Alarm{}}))

	out, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Aspirin Forte", out[0].Name)

	require.NoError(t, store.Remove(ctx, "m1"))
	require.NoError(t, store.Remove(ctx, "ghost")) // absent id is a no-op

	out, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m2", out[0].ID)
}

func TestLoadAllCorruptPayload(t *testing.T) {
	db := newTestDB(t)
	store := NewMedicineStore(db)

	db.MustExec(`INSERT INTO medicine_store (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		repository.StorageKey, "{{{not json")

	medicines, err := store.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorageCorrupt))
	assert.Empty(t, medicines, "corrupt read falls back to an empty collection")
}

func TestUpsertRebuildsCorruptRecord(t *testing.T) {
	db := newTestDB(t)
	store := NewMedicineStore(db)
	ctx := context.Background()

	db.MustExec(`INSERT INTO medicine_store (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		repository.StorageKey, "{{{not json")

	require.NoError(t, store.Upsert(ctx, models.Medicine{ID: "m1", Name: "Aspirin", Alarms: []models.Alarm{}}))

	out, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m1", out[0].ID)
}
