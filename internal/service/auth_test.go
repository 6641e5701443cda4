package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	user, err := e.auth.Register(RegisterInput{
		Username:    "ada",
		Email:       "  Ada@Example.com ",
		Password:    testPassword,
		DisplayName: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.EmailAddress())
	assert.True(t, user.HasPassword())
	assert.NotEqual(t, testPassword, *user.PasswordHash)

	sub, err := e.subscriptions.Subscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPlanFree, sub.PlanID)

	byName, err := e.auth.Login("ada", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := e.auth.Login("ada@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = e.auth.Login("ada", "wrong-password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login("nobody", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	types := e.activityTypes(t, user.ID)
	assert.Contains(t, types, model.ActivityRegister)
	assert.Contains(t, types, model.ActivityLogin)
}

func TestRegisterConflictsAndValidation(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "grace")

	_, err := e.auth.Register(RegisterInput{Username: "grace", Password: testPassword})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = e.auth.Register(RegisterInput{Username: "hopper", Email: "grace@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	var inputErr *InputError
	_, err = e.auth.Register(RegisterInput{Username: "hopper", Password: "short"})
	assert.ErrorAs(t, err, &inputErr)

	_, err = e.auth.Register(RegisterInput{Username: "a", Password: testPassword})
	assert.ErrorAs(t, err, &inputErr)

	_, err = e.auth.Register(RegisterInput{Username: "hopper", Email: "not-an-email", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestLoginPasswordlessAccount(t *testing.T) {
	e := newTestEnv(t)

	user, err := e.auth.AuthenticateExternal(ExternalIdentity{
		Provider: model.AuthProviderReplit,
		Subject:  "replit-1",
		Username: "turing",
	})
	require.NoError(t, err)

	_, err = e.auth.Login(user.Username, testPassword)
	assert.ErrorIs(t, err, ErrPasswordlessAccount)
}

func TestJWTRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	token, expiry, err := e.auth.GenerateJWT(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := e.auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, model.AuthProviderLocal, claims.Provider)

	_, err = e.auth.VerifyJWT(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(e.users, e.subscriptions, nil, nil, "another-secret", time.Hour, false)
	_, err = other.VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewAuthService(e.users, e.subscriptions, nil, nil, "test-secret", -time.Minute, false)
	stale, _, err := expired.GenerateJWT(user)
	require.NoError(t, err)
	_, err = e.auth.VerifyJWT(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStartSessionSetsCookie(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	rec := httptest.NewRecorder()
	require.NoError(t, e.auth.StartSession(rec, user))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	claims, err := e.auth.VerifyJWT(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	rec = httptest.NewRecorder()
	e.auth.ClearJWTCookie(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestAuthenticateExternal(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "turing")

	id := ExternalIdentity{
		Provider:    model.AuthProviderReplit,
		Subject:     "replit-42",
		Email:       "turing@example.com",
		Username:    "turing",
		DisplayName: "Alan Turing",
	}

	user, err := e.auth.AuthenticateExternal(id)
	require.NoError(t, err)
	assert.Equal(t, model.AuthProviderReplit, user.AuthProvider)
	assert.NotEqual(t, "turing", user.Username, "taken username gets a suffix")
	assert.Contains(t, user.Username, "turing-")
	assert.Empty(t, user.EmailAddress(), "email owned by another account is not linked")
	assert.False(t, user.HasPassword())

	id.AvatarURL = "https://example.com/turing.png"
	again, err := e.auth.AuthenticateExternal(id)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	stored, err := e.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/turing.png", stored.AvatarURL)

	_, err = e.auth.AuthenticateExternal(ExternalIdentity{Provider: model.AuthProviderFirebase})
	assert.Error(t, err)
}

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "lovelace", usernameCandidate(ExternalIdentity{Email: "lovelace@example.com"}))
	assert.Equal(t, "ada.l", usernameCandidate(ExternalIdentity{Username: "ada.l!"}))
	assert.Equal(t, "firebase-user", usernameCandidate(ExternalIdentity{Provider: "firebase", Email: "x@example.com"}))
}
