package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/db"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func createUser(t *testing.T, database *sqlx.DB, username string) *model.User {
	t.Helper()

	now := time.Now().UTC()
	email := fmt.Sprintf("%s@example.com", username)
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        &email,
		AuthProvider: model.AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(database).Create(user))
	return user
}

func createGoal(t *testing.T, database *sqlx.DB, userID, title string, parentID *string) *model.Goal {
	t.Helper()

	now := time.Now().UTC()
	goal := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		ParentID:  parentID,
		Title:     title,
		Status:    model.GoalStatusActive,
		Content:   model.RawJSON(`{}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewGoalRepository(database).Create(goal))
	return goal
}
