package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jutorials/backend/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	sess := &models.WithdrawalSession{
		UserID: 1,
		Step:   models.StepAmount,
		Method: models.PaymentMethodTelebirr,
	}
	require.NoError(t, store.Put(ctx, sess))

	got, err = store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StepAmount, got.Step)

	// The store hands out copies; mutating one must not leak back.
	got.Amount = 999
	again, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, again.Amount)

	require.NoError(t, store.Delete(ctx, 1))
	got, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreDeleteAbsent(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background(), 42))
}
