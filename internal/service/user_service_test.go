package service

import (
	"context"
	"testing"
	"time"

	"resbook/internal/auth"
	"resbook/internal/database"
	"resbook/internal/models"
	"resbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserService(t *testing.T, adminEmails []string, rateLimit int) (*UserService, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := repository.NewMemoryCounterCache(time.Hour)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewUserService(db, cache, tokens, adminEmails, rateLimit, 60, &logger)
	return svc, db
}

func TestUserServiceRegister(t *testing.T) {
	svc, _ := setupUserService(t, []string{"boss@corp.test"}, 10)
	ctx := context.Background()

	t.Run("RequesterByDefault", func(t *testing.T) {
		user, err := svc.Register(ctx, "Alice", "Alice@Corp.Test", "", "secret-pass")
		require.NoError(t, err)
		assert.Equal(t, models.RoleRequester, user.Role)
		// Email is normalized to lower case
		assert.Equal(t, "alice@corp.test", user.Email)
		assert.True(t, user.IsActive)
	})

	t.Run("AllowlistedBecomesAdmin", func(t *testing.T) {
		user, err := svc.Register(ctx, "Boss", "boss@corp.test", "", "secret-pass")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, "Clone", "alice@corp.test", "", "secret-pass")
		assert.ErrorIs(t, err, database.ErrEmailTaken)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		_, err := svc.Register(ctx, "Eve", "eve@corp.test", "", "short")
		var verr *database.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("BadEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, "Eve", "not-an-email", "", "secret-pass")
		var verr *database.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestUserServiceLogin(t *testing.T) {
	svc, db := setupUserService(t, nil, 10)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@corp.test", "", "secret-pass")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "alice@corp.test", "secret-pass")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice@corp.test", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost@corp.test", "secret-pass")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("DeactivatedUser", func(t *testing.T) {
		require.NoError(t, db.SetUserActive(ctx, registered.ID, false))
		_, _, err := svc.Login(ctx, "alice@corp.test", "secret-pass")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		require.NoError(t, db.SetUserActive(ctx, registered.ID, true))
	})
}

func TestUserServiceLoginRateLimit(t *testing.T) {
	svc, _ := setupUserService(t, nil, 2)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@corp.test", "", "secret-pass")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(ctx, "alice@corp.test", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	// Third attempt inside the window is throttled even with the
	// correct password.
	_, _, err = svc.Login(ctx, "alice@corp.test", "secret-pass")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Other accounts are unaffected
	_, err = svc.Register(ctx, "Bob", "bob@corp.test", "", "secret-pass")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "bob@corp.test", "secret-pass")
	assert.NoError(t, err)
}

func TestUserServicePushToken(t *testing.T) {
	svc, db := setupUserService(t, nil, 10)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@corp.test", "", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.SetPushToken(ctx, user.ID, "ExponentPushToken[abc]"))

	stored, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", stored.PushToken)
}
