package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUpdate(t *testing.T) {
	e := newTestEnv(t)
	users := NewUserService(e.users)
	ada := e.register(t, "ada")
	e.register(t, "grace")

	updated, err := users.Update(ada.ID, UserUpdate{
		DisplayName: ptr("Countess Lovelace"),
		AvatarURL:   ptr("/uploads/avatar.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Countess Lovelace", updated.DisplayName)
	assert.Equal(t, "/uploads/avatar.png", updated.AvatarURL)

	_, err = users.Update(ada.ID, UserUpdate{AvatarURL: ptr("javascript:alert(1)")})
	assert.ErrorIs(t, err, ErrInvalidAvatarURL)

	_, err = users.Update(ada.ID, UserUpdate{Email: ptr("grace@example.com")})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	cleared, err := users.Update(ada.ID, UserUpdate{Email: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.EmailAddress())
}

func TestUserChangePassword(t *testing.T) {
	e := newTestEnv(t)
	users := NewUserService(e.users)
	ada := e.register(t, "ada")

	err := users.ChangePassword(ada.ID, "not-my-password", "another-secret-9")
	assert.ErrorIs(t, err, ErrInvalidCurrentPassword)

	var inputErr *InputError
	err = users.ChangePassword(ada.ID, testPassword, "short")
	assert.ErrorAs(t, err, &inputErr)

	require.NoError(t, users.ChangePassword(ada.ID, testPassword, "another-secret-9"))
	_, err = e.auth.Login("ada", "another-secret-9")
	assert.NoError(t, err)
	_, err = e.auth.Login("ada", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
