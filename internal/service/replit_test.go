package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOIDCServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/me",
		})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"42","email":"alan@example.com","username":"alan","first_name":"Alan","last_name":"Turing","profile_image_url":"https://example.com/a.png"}`))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReplitAuthCodeURL(t *testing.T) {
	srv := newOIDCServer(t)
	oauth := NewReplitOAuth(srv.URL+"/", "client-1", "secret", "http://localhost:8080/api/callback")

	raw, err := oauth.AuthCodeURL(context.Background(), "state-xyz")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth", u.Path)
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.Equal(t, "client-1", u.Query().Get("client_id"))
	assert.Equal(t, "openid email profile", u.Query().Get("scope"))
}

func TestReplitExchange(t *testing.T) {
	srv := newOIDCServer(t)
	oauth := NewReplitOAuth(srv.URL, "client-1", "secret", "http://localhost:8080/api/callback")

	id, err := oauth.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, model.AuthProviderReplit, id.Provider)
	assert.Equal(t, "42", id.Subject)
	assert.Equal(t, "alan", id.Username)
	assert.Equal(t, "Alan Turing", id.DisplayName)
	assert.Equal(t, "https://example.com/a.png", id.AvatarURL)

	_, err = oauth.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrOAuthFailed)
}

func TestReplitDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewReplitOAuth(srv.URL, "c", "s", "http://localhost/cb").AuthCodeURL(context.Background(), "x")
	assert.Error(t, err)
}
