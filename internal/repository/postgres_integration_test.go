//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/db"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresRepositories(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("mindvault"),
		postgres.WithUsername("mindvault"),
		postgres.WithPassword("mindvault"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.Init("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "pgx"))

	user := createUser(t, database, "ada")
	goal := createGoal(t, database, user.ID, "postgres goal", nil)
	child := createGoal(t, database, user.ID, "child", &goal.ID)

	descendant, err := NewGoalRepository(database).IsDescendant(goal.ID, child.ID)
	require.NoError(t, err)
	assert.True(t, descendant)

	tracking := NewTrackingRepository(database)
	for i := 0; i < 2; i++ {
		now := time.Now().UTC()
		_, err := tracking.AddSession(&model.ProjectTracking{
			ID: uuid.New().String(), UserID: user.ID, GoalID: goal.ID,
			Day: "2026-06-01", SecondsSpent: 120, CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	summary, err := tracking.Summary(user.ID, TrackingFilter{})
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(240), summary[0].TotalSeconds)
	assert.Equal(t, 2, summary[0].TotalSessions)

	quotes, err := NewQuoteRepository(database).Count("")
	require.NoError(t, err)
	assert.Equal(t, 14, quotes)
}
