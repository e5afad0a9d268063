package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearport/surety-engine/service"
	"github.com/clearport/surety-engine/store/memory"
)

func TestStore_InsertOnlyContract(t *testing.T) {
	// GIVEN: A stored run
	// WHEN: Saving the same ID again and listing
	// THEN: The duplicate is rejected; listing is newest first

	store := memory.New()
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	base := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	older := &service.Run{ID: "run-1", CreatedAt: base}
	newer := &service.Run{ID: "run-2", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))
	require.Error(t, store.SaveRun(ctx, older))

	headers, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, headers, 2)
	assert.Equal(t, "run-2", headers[0].ID)
	assert.Equal(t, "run-1", headers[1].ID)
}

func TestStore_GetRun(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrRunNotFound)

	run := &service.Run{ID: "run-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.SaveRun(ctx, run))
	loaded, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, loaded)
}
