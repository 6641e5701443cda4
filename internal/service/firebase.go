package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
)

const firebaseIdentityURL = "https://identitytoolkit.googleapis.com/v1"

// ErrFirebaseRejected covers Firebase errors that are the caller's fault
// (weak password, malformed email, ...).
var ErrFirebaseRejected = errors.New("firebase rejected the request")

// FirebaseAuth proxies email/password sign-in to the Identity Toolkit REST API.
type FirebaseAuth struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewFirebaseAuth(apiKey string) *FirebaseAuth {
	return &FirebaseAuth{
		apiKey:     apiKey,
		baseURL:    firebaseIdentityURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type firebaseAccount struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *FirebaseAuth) SignIn(ctx context.Context, email, password string) (*ExternalIdentity, error) {
	return f.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (f *FirebaseAuth) SignUp(ctx context.Context, email, password, displayName string) (*ExternalIdentity, error) {
	id, err := f.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"displayName":       displayName,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	if id.DisplayName == "" {
		id.DisplayName = displayName
	}
	return id, nil
}

func (f *FirebaseAuth) call(ctx context.Context, method string, body map[string]any) (*ExternalIdentity, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", f.baseURL, method, url.QueryEscape(f.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firebase %s request failed: %w", method, err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		var fe firebaseError
		if err := json.NewDecoder(resp.Body).Decode(&fe); err != nil {
			return nil, fmt.Errorf("firebase %s returned status %d", method, resp.StatusCode)
		}
		return nil, firebaseErr(fe.Error.Message)
	}

	var account firebaseAccount
	err = json.NewDecoder(resp.Body).Decode(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to decode firebase response: %w", err)
	}

	return &ExternalIdentity{
		Provider:    model.AuthProviderFirebase,
		Subject:     account.LocalID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	}, nil
}

// firebaseErr maps Identity Toolkit error codes. Messages look like
// "WEAK_PASSWORD : Password should be at least 6 characters".
func firebaseErr(message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return ErrEmailAlreadyExists
	case "":
		return ErrFirebaseRejected
	default:
		return fmt.Errorf("%w: %s", ErrFirebaseRejected, code)
	}
}
