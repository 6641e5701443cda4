package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"golang.org/x/oauth2"
)

var ErrOAuthFailed = errors.New("oauth authentication failed")

// ReplitOAuth signs users in through Replit's OpenID Connect provider.
// Endpoints come from the issuer's discovery document on first use.
type ReplitOAuth struct {
	issuer       string
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client

	mu          sync.Mutex
	config      *oauth2.Config
	userInfoURL string
}

func NewReplitOAuth(issuer, clientID, clientSecret, redirectURL string) *ReplitOAuth {
	return &ReplitOAuth{
		issuer:       strings.TrimRight(issuer, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

type oidcDiscovery struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
}

func (r *ReplitOAuth) oauthConfig(ctx context.Context) (*oauth2.Config, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config != nil {
		return r.config, r.userInfoURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch oidc discovery: %w", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("oidc discovery returned status %d", resp.StatusCode)
	}

	var doc oidcDiscovery
	err = json.NewDecoder(resp.Body).Decode(&doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode oidc discovery: %w", err)
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, "", errors.New("oidc discovery document is missing endpoints")
	}

	r.config = &oauth2.Config{
		ClientID:     r.clientID,
		ClientSecret: r.clientSecret,
		RedirectURL:  r.redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  doc.AuthorizationEndpoint,
			TokenURL: doc.TokenEndpoint,
		},
	}
	r.userInfoURL = doc.UserInfoEndpoint
	return r.config, r.userInfoURL, nil
}

func (r *ReplitOAuth) AuthCodeURL(ctx context.Context, state string) (string, error) {
	cfg, _, err := r.oauthConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

type replitUserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ProfileImage      string `json:"profile_image_url"`
	Picture           string `json:"picture"`
}

// Exchange trades the callback code for the user's identity.
func (r *ReplitOAuth) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	cfg, userInfoURL, err := r.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}
	if userInfoURL == "" {
		return nil, fmt.Errorf("%w: issuer has no userinfo endpoint", ErrOAuthFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrOAuthFailed, err)
	}

	resp, err := cfg.Client(ctx, token).Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrOAuthFailed, err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned status %d", ErrOAuthFailed, resp.StatusCode)
	}

	var info replitUserInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrOAuthFailed, err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo has no subject", ErrOAuthFailed)
	}

	name := info.Name
	if name == "" {
		name = strings.TrimSpace(info.FirstName + " " + info.LastName)
	}
	username := info.Username
	if username == "" {
		username = info.PreferredUsername
	}
	avatar := info.ProfileImage
	if avatar == "" {
		avatar = info.Picture
	}

	return &ExternalIdentity{
		Provider:    model.AuthProviderReplit,
		Subject:     info.Sub,
		Email:       info.Email,
		Username:    username,
		DisplayName: name,
		AvatarURL:   avatar,
	}, nil
}
