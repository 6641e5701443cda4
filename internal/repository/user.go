package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateIdentity = errors.New("external identity already linked")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByProviderSubject(provider, subject string) (*model.User, error)
	Update(user *model.User) error
	UpdatePassword(userID, hash string) error
	Delete(id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, username, email, display_name, password_hash, auth_provider, provider_subject, avatar_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Username,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.AuthProvider,
		user.ProviderSubject,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return uniqueUserError(err)
	}
	return err
}

// uniqueUserError tells username and email conflicts apart by the constraint text.
func uniqueUserError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "provider_subject"):
		return ErrDuplicateIdentity
	case strings.Contains(msg, "username"):
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *userRepository) ByProviderSubject(provider, subject string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE auth_provider = $1 AND provider_subject = $2`, provider, subject)
}

func (r *userRepository) one(query string, args ...any) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, query, args...)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(user *model.User) error {
	user.UpdatedAt = time.Now()
	query := `UPDATE users SET email = $1, display_name = $2, avatar_url = $3, updated_at = $4 WHERE id = $5`

	result, err := r.db.Exec(query, user.Email, user.DisplayName, user.AvatarURL, user.UpdatedAt, user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return checkAffected(result, err, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(userID, hash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.Exec(query, hash, time.Now(), userID)
	return checkAffected(result, err, ErrUserNotFound)
}

func (r *userRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	return checkAffected(result, err, ErrUserNotFound)
}
