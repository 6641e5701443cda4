package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const AuthCookieName = "auth_token"

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrPasswordlessAccount = errors.New("this account signs in with an external provider")
	ErrUsernameTaken       = errors.New("username is already taken")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidToken        = errors.New("invalid or expired session")
)

// Claims is the session JWT payload.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// ExternalIdentity is a user vouched for by Replit or Firebase.
type ExternalIdentity struct {
	Provider    string
	Subject     string
	Email       string
	Username    string
	DisplayName string
	AvatarURL   string
}

type AuthService struct {
	userRepository      repository.UserRepository
	subscriptionService *SubscriptionService
	emailService        *EmailService
	activityService     *ActivityService
	jwtSecret           string
	jwtExpiry           time.Duration
	isProduction        bool
}

func NewAuthService(
	userRepository repository.UserRepository,
	subscriptionService *SubscriptionService,
	emailService *EmailService,
	activityService *ActivityService,
	jwtSecret string,
	jwtExpiry time.Duration,
	isProduction bool,
) *AuthService {
	return &AuthService{
		userRepository:      userRepository,
		subscriptionService: subscriptionService,
		emailService:        emailService,
		activityService:     activityService,
		jwtSecret:           jwtSecret,
		jwtExpiry:           jwtExpiry,
		isProduction:        isProduction,
	}
}

func (s *AuthService) Register(input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	displayName := strings.TrimSpace(input.DisplayName)

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, invalid(err)
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, invalid(ErrInvalidEmail)
		}
	}
	err = validation.ValidatePassword(input.Password)
	if err != nil {
		return nil, invalid(err)
	}
	err = validation.ValidateDisplayName(displayName)
	if err != nil {
		return nil, invalid(err)
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: &hash,
		AuthProvider: model.AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email != "" {
		user.Email = &email
	}

	err = s.userRepository.Create(user)
	if err != nil {
		return nil, mapUserConflict(err)
	}

	s.onboard(user)
	slog.Info("user registered", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// onboard runs the best-effort steps shared by every new account.
func (s *AuthService) onboard(user *model.User) {
	err := s.subscriptionService.CreateFreeSubscription(user.ID)
	if err != nil {
		slog.Warn("failed to create free subscription", "error", err, "user_id", user.ID)
	}

	s.activityService.Log(user.ID, model.ActivityRegister, nil, nil, map[string]any{"provider": user.AuthProvider})

	if email := user.EmailAddress(); email != "" && s.emailService != nil {
		err = s.emailService.SendWelcomeEmail(email, user.Name())
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
		}
	}
}

// Login accepts a username or an email address as identifier.
func (s *AuthService) Login(identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepository.ByUsername(identifier)
	if errors.Is(err, repository.ErrUserNotFound) && strings.Contains(identifier, "@") {
		user, err = s.userRepository.ByEmail(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordlessAccount
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	s.activityService.Log(user.ID, model.ActivityLogin, nil, nil, map[string]any{"provider": user.AuthProvider})
	return user, nil
}

// AuthenticateExternal finds or creates the user for an external identity.
func (s *AuthService) AuthenticateExternal(id ExternalIdentity) (*model.User, error) {
	if id.Subject == "" {
		return nil, fmt.Errorf("%s identity has no subject", id.Provider)
	}

	user, err := s.userRepository.ByProviderSubject(id.Provider, id.Subject)
	if err == nil {
		s.refreshExternal(user, id)
		s.activityService.Log(user.ID, model.ActivityLogin, nil, nil, map[string]any{"provider": id.Provider})
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	username, err := s.availableUsername(usernameCandidate(id))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	subject := id.Subject
	user = &model.User{
		ID:              uuid.New().String(),
		Username:        username,
		DisplayName:     strings.TrimSpace(id.DisplayName),
		AuthProvider:    id.Provider,
		ProviderSubject: &subject,
		AvatarURL:       id.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// An email already owned by another account is not linked automatically.
	if email := strings.ToLower(strings.TrimSpace(id.Email)); email != "" {
		_, err := s.userRepository.ByEmail(email)
		if errors.Is(err, repository.ErrUserNotFound) {
			user.Email = &email
		}
	}

	err = s.userRepository.Create(user)
	if err != nil {
		return nil, mapUserConflict(err)
	}

	s.onboard(user)
	slog.Info("new external user created", "user_id", user.ID, "provider", id.Provider)

	return user, nil
}

func (s *AuthService) refreshExternal(user *model.User, id ExternalIdentity) {
	changed := false
	if id.AvatarURL != "" && id.AvatarURL != user.AvatarURL {
		user.AvatarURL = id.AvatarURL
		changed = true
	}
	if user.DisplayName == "" && id.DisplayName != "" {
		user.DisplayName = strings.TrimSpace(id.DisplayName)
		changed = true
	}
	if !changed {
		return
	}
	err := s.userRepository.Update(user)
	if err != nil {
		slog.Warn("failed to refresh external profile", "error", err, "user_id", user.ID)
	}
}

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

func usernameCandidate(id ExternalIdentity) string {
	base := id.Username
	if base == "" && id.Email != "" {
		base = strings.SplitN(id.Email, "@", 2)[0]
	}
	base = usernameStrip.ReplaceAllString(base, "")
	if len(base) > 24 {
		base = base[:24]
	}
	if len(base) < 3 {
		base = id.Provider + "-user"
	}
	return base
}

// availableUsername returns base, or base with a random suffix when taken.
func (s *AuthService) availableUsername(base string) (string, error) {
	candidate := base
	for range 5 {
		_, err := s.userRepository.ByUsername(candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		suffix, err := randomHex(3)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + suffix
	}
	return "", ErrUsernameTaken
}

func mapUserConflict(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailAlreadyExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Provider: user.AuthProvider,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// StartSession issues a JWT for the user and sets the session cookie.
func (s *AuthService) StartSession(w http.ResponseWriter, user *model.User) error {
	token, expiry, err := s.GenerateJWT(user)
	if err != nil {
		return fmt.Errorf("failed to generate JWT: %w", err)
	}
	s.SetJWTCookie(w, token, expiry)
	return nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) IsProduction() bool {
	return s.isProduction
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
