package models_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mmdatafocus/pos_sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCollections_CreatesDefaults(t *testing.T) {
	ctx := context.Background()
	store := models.NewStore(t.TempDir(), nil)
	require.NoError(t, store.EnsureCollections(ctx))

	for _, c := range models.AllCollections {
		raw, err := os.ReadFile(store.Path(c))
		require.NoError(t, err, c.File)
		var v any
		require.NoError(t, json.Unmarshal(raw, &v), c.File)
		if c.Shape == models.ShapeObject {
			assert.Equal(t, map[string]any{"isSetup": false}, v, c.File)
		} else {
			assert.Equal(t, []any{}, v, c.File)
		}
	}
}

func TestEnsureCollections_KeepsExistingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	existing := []byte(`[{"productId":"p1"}]`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), existing, 0o644))

	store := models.NewStore(dir, nil)
	require.NoError(t, store.EnsureCollections(ctx, models.CollectionProducts))

	raw, err := os.ReadFile(store.Path(models.CollectionProducts))
	require.NoError(t, err)
	assert.Equal(t, existing, raw)
}

func TestReadList_MissingFileIsEmpty(t *testing.T) {
	store := models.NewStore(t.TempDir(), nil)
	list, err := store.ReadList(context.Background(), models.CollectionExpenses)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	v, err := store.ReadValue(context.Background(), models.CollectionBusinessSetup)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReadList_WrongShape(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(`{"userId":"u1"}`), 0o644))

	store := models.NewStore(dir, nil)
	_, err := store.ReadList(context.Background(), models.CollectionUsers)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidShape))
}

func TestReadList_PreservesNumbersAndUnknownFields(t *testing.T) {
	dir := t.TempDir()
	body := `[{"productId":"p1","price":12.50,"stock":100000000000000001,"meta":{"color":"red"}}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte(body), 0o644))

	store := models.NewStore(dir, nil)
	ctx := context.Background()
	err := store.UpdateList(ctx, models.CollectionProducts, func(list []models.Record) ([]models.Record, bool, error) {
		list[0]["name"] = "Tea"
		return list, true, nil
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(store.Path(models.CollectionProducts))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price": 12.50`)
	assert.Contains(t, string(raw), `"stock": 100000000000000001`)
	assert.Contains(t, string(raw), `"color": "red"`)
	assert.Contains(t, string(raw), `"name": "Tea"`)
}

func TestUpdateList_NoChangeLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	original := []byte(`[ {"userId": "u1"} ]`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), original, 0o644))

	store := models.NewStore(dir, nil)
	err := store.UpdateList(context.Background(), models.CollectionUsers, func(list []models.Record) ([]models.Record, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(store.Path(models.CollectionUsers))
	require.NoError(t, err)
	assert.Equal(t, original, raw)
}

func TestUpdateList_ErrorDoesNotWrite(t *testing.T) {
	store := models.NewStore(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollections(ctx, models.CollectionExpenses))

	boom := errors.New("boom")
	err := store.UpdateList(ctx, models.CollectionExpenses, func(list []models.Record) ([]models.Record, bool, error) {
		return append(list, models.Record{"amount": 1}), true, boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := store.ReadList(ctx, models.CollectionExpenses)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateList_ConcurrentAppendsAreNotLost(t *testing.T) {
	store := models.NewStore(t.TempDir(), nil)
	ctx := context.Background()

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.UpdateList(ctx, models.CollectionTransactions, func(list []models.Record) ([]models.Record, bool, error) {
				return models.Prepend(list, models.Record{"n": i}), true, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := store.ReadList(ctx, models.CollectionTransactions)
	require.NoError(t, err)
	assert.Len(t, list, writers)

	// no temp files are left behind
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateValue_MergesBusinessSetup(t *testing.T) {
	store := models.NewStore(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollections(ctx, models.CollectionBusinessSetup))

	err := store.UpdateValue(ctx, models.CollectionBusinessSetup, func(current any) (any, bool, error) {
		return models.MergeBusinessSetup(current, models.Record{"isSetup": true, "name": "Corner Shop"}), true, nil
	})
	require.NoError(t, err)

	v, err := store.ReadValue(ctx, models.CollectionBusinessSetup)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"isSetup": true, "name": "Corner Shop"}, v)
}
