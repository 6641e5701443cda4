package handler

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	replit      *service.ReplitOAuth
	firebase    *service.FirebaseAuth
	cfg         *config.Config
}

// NewAuthHandler wires the login flows. replit and firebase may be nil, which
// disables their routes.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	replit *service.ReplitOAuth,
	firebase *service.FirebaseAuth,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		replit:      replit,
		firebase:    firebase,
		cfg:         cfg,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "register")
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		respondError(w, r, err, "register")
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "log in")
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, err := h.authService.Login(identifier, req.Password)
	if err != nil {
		respondError(w, r, err, "log in")
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	err := h.authService.StartSession(w, user)
	if err != nil {
		respondError(w, r, err, "start session")
		return
	}
	user.PasswordHash = nil
	writeJSON(w, status, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

// CSRF hands the double-submit token to the SPA.
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": ctxkeys.CSRFToken(r.Context())})
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req service.UserUpdate
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "update user")
		return
	}

	user, err := h.userService.Update(userID, req)
	if err != nil {
		respondError(w, r, err, "update user")
		return
	}

	user.PasswordHash = nil
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req changePasswordRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "change password")
		return
	}

	err = h.userService.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(w, r, err, "change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ReplitLogin redirects to the issuer's authorize URL.
func (h *AuthHandler) ReplitLogin(w http.ResponseWriter, r *http.Request) {
	if h.replit == nil {
		writeError(w, http.StatusNotFound, "Replit login is not enabled")
		return
	}

	state := generateOAuthState()
	url, err := h.replit.AuthCodeURL(r.Context(), state)
	if err != nil {
		respondError(w, r, err, "start replit login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(), // Secure flag based on APP_ENV (safer than r.TLS behind load balancers)
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ReplitCallback finishes the OIDC flow and redirects into the app.
func (h *AuthHandler) ReplitCallback(w http.ResponseWriter, r *http.Request) {
	if h.replit == nil {
		writeError(w, http.StatusNotFound, "Replit login is not enabled")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("replit oauth state validation failed", "error", err)
		h.redirectAuthError(w, r)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("replit oauth callback missing code")
		h.redirectAuthError(w, r)
		return
	}

	identity, err := h.replit.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("failed to exchange replit code", "error", err)
		h.redirectAuthError(w, r)
		return
	}

	user, err := h.authService.AuthenticateExternal(*identity)
	if err != nil {
		slog.Error("failed to authenticate replit user", "error", err, "subject", identity.Subject)
		h.redirectAuthError(w, r)
		return
	}

	err = h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		h.redirectAuthError(w, r)
		return
	}

	http.Redirect(w, r, strings.TrimRight(h.cfg.AppURL, "/")+"/", http.StatusSeeOther)
}

func (h *AuthHandler) redirectAuthError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, strings.TrimRight(h.cfg.AppURL, "/")+"/auth?error=oauth_failed", http.StatusSeeOther)
}

type firebaseRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (h *AuthHandler) FirebaseLogin(w http.ResponseWriter, r *http.Request) {
	h.firebaseAuth(w, r, false)
}

func (h *AuthHandler) FirebaseRegister(w http.ResponseWriter, r *http.Request) {
	h.firebaseAuth(w, r, true)
}

func (h *AuthHandler) firebaseAuth(w http.ResponseWriter, r *http.Request, signUp bool) {
	if h.firebase == nil {
		writeError(w, http.StatusNotFound, "Firebase login is not enabled")
		return
	}

	var req firebaseRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "authenticate with firebase")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	var identity *service.ExternalIdentity
	if signUp {
		identity, err = h.firebase.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	} else {
		identity, err = h.firebase.SignIn(r.Context(), req.Email, req.Password)
	}
	if err != nil {
		respondError(w, r, err, "authenticate with firebase")
		return
	}

	user, err := h.authService.AuthenticateExternal(*identity)
	if err != nil {
		respondError(w, r, err, "authenticate with firebase")
		return
	}

	status := http.StatusOK
	if signUp {
		status = http.StatusCreated
	}
	h.startSession(w, r, user, status)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
