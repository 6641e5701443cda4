package service

import (
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/db"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testPassword = "lantern-orbit-42"

// testEnv wires the services against an in-memory database.
type testEnv struct {
	db             *sqlx.DB
	users          repository.UserRepository
	goalRepo       repository.GoalRepository
	transcriptRepo repository.TranscriptionRepository
	activityRepo   repository.ActivityRepository

	activity       *ActivityService
	subscriptions  *SubscriptionService
	auth           *AuthService
	goals          *GoalService
	transcriptions *TranscriptionService
	tracking       *TrackingService
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := newTestDB(t)
	e := &testEnv{
		db:             database,
		users:          repository.NewUserRepository(database),
		goalRepo:       repository.NewGoalRepository(database),
		transcriptRepo: repository.NewTranscriptionRepository(database),
		activityRepo:   repository.NewActivityRepository(database),
	}

	e.activity = NewActivityService(e.activityRepo, nil)
	e.subscriptions = NewSubscriptionService(repository.NewSubscriptionRepository(database))
	email := NewEmailService("", "MindVault <hello@example.com>", "http://localhost:8080", "MindVault", true)
	e.auth = NewAuthService(e.users, e.subscriptions, email, e.activity, "test-secret", time.Hour, false)
	e.goals = NewGoalService(e.goalRepo, e.transcriptRepo, e.activity, nil)
	e.transcriptions = NewTranscriptionService(e.transcriptRepo, e.goalRepo, e.activity, nil)
	e.tracking = NewTrackingService(repository.NewTrackingRepository(database), e.goalRepo, e.activity)
	return e
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()

	user, err := e.auth.Register(RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) activityTypes(t *testing.T, userID string) []string {
	t.Helper()

	page, err := e.activity.List(userID, 0, "", "")
	require.NoError(t, err)
	types := make([]string, 0, len(page.Activities))
	for _, a := range page.Activities {
		types = append(types, a.Type)
	}
	return types
}
