package in_memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorakhq/dorak/internal/model"
)

func TestUserStorageRoundTrip(t *testing.T) {
	storage := NewUserStorage()
	ctx := context.Background()

	_, err := storage.GetUser(ctx, "vera@example.com")
	assert.ErrorIs(t, err, model.ErrUserDoesNotExists)

	user := model.User{Username: "vera", Email: "vera@example.com", Credits: 25}
	require.NoError(t, storage.SaveUser(ctx, user))

	got, err := storage.GetUser(ctx, "vera@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, storage.DeleteUser(ctx, "vera@example.com"))
	_, err = storage.GetUser(ctx, "vera@example.com")
	assert.ErrorIs(t, err, model.ErrUserDoesNotExists)
	assert.ErrorIs(t, storage.DeleteUser(ctx, "vera@example.com"), model.ErrUserDoesNotExists)
}

func TestCurrentUserLifecycle(t *testing.T) {
	storage := NewUserStorage()
	ctx := context.Background()

	_, err := storage.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, model.ErrNoCurrentUser)

	user := model.User{Email: "vera@example.com"}
	require.NoError(t, storage.SetCurrentUser(ctx, user))
	got, err := storage.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, storage.ClearCurrentUser(ctx))
	_, err = storage.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, model.ErrNoCurrentUser)
}

func TestGoogleUserLifecycle(t *testing.T) {
	storage := NewUserStorage()
	ctx := context.Background()

	_, err := storage.GetGoogleUser(ctx)
	assert.ErrorIs(t, err, model.ErrNoGoogleUser)

	user := model.User{Email: "alex@simulated-google.com", Verified: true}
	require.NoError(t, storage.SaveGoogleUser(ctx, user))
	got, err := storage.GetGoogleUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, storage.DeleteGoogleUser(ctx))
	_, err = storage.GetGoogleUser(ctx)
	assert.ErrorIs(t, err, model.ErrNoGoogleUser)
}
