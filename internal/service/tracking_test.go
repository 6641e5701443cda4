package service

import (
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingSessionsAccumulatePerDay(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")
	e.tracking.now = func() time.Time { return time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC) }

	goal, err := e.goals.Create(user.ID, GoalInput{Title: "Practice piano"})
	require.NoError(t, err)

	first, err := e.tracking.RecordSession(user.ID, TrackingInput{GoalID: goal.ID, Seconds: 1500})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", first.Day)

	second, err := e.tracking.RecordSession(user.ID, TrackingInput{GoalID: goal.ID, Seconds: 900})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2400), second.SecondsSpent)
	assert.Equal(t, 2, second.SessionCount)

	_, err = e.tracking.RecordSession(user.ID, TrackingInput{GoalID: goal.ID, Seconds: 600, Day: "2026-03-15"})
	require.NoError(t, err)

	days, err := e.tracking.List(user.ID, TrackingQuery{GoalID: goal.ID})
	require.NoError(t, err)
	assert.Len(t, days, 2)

	summary, err := e.tracking.Summary(user.ID, TrackingQuery{From: "2026-03-01", To: "2026-03-31"})
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(3000), summary[0].TotalSeconds)
	assert.Equal(t, 3, summary[0].TotalSessions)
	assert.Equal(t, 2, summary[0].DaysActive)
	assert.Equal(t, "Practice piano", summary[0].GoalTitle)

	assert.Contains(t, e.activityTypes(t, user.ID), model.ActivityTrackingSession)
}

func TestTrackingValidation(t *testing.T) {
	e := newTestEnv(t)
	ada := e.register(t, "ada")
	grace := e.register(t, "grace")

	goal, err := e.goals.Create(ada.ID, GoalInput{Title: "Practice piano"})
	require.NoError(t, err)

	_, err = e.tracking.RecordSession(ada.ID, TrackingInput{Seconds: 60})
	assert.ErrorIs(t, err, ErrGoalRequired)
	_, err = e.tracking.RecordSession(ada.ID, TrackingInput{GoalID: goal.ID, Seconds: 0})
	assert.ErrorIs(t, err, ErrInvalidSeconds)
	_, err = e.tracking.RecordSession(ada.ID, TrackingInput{GoalID: goal.ID, Seconds: 86401})
	assert.ErrorIs(t, err, ErrInvalidSeconds)
	_, err = e.tracking.RecordSession(ada.ID, TrackingInput{GoalID: goal.ID, Seconds: 60, Day: "14/03/2026"})
	assert.ErrorIs(t, err, ErrInvalidDay)
	_, err = e.tracking.RecordSession(grace.ID, TrackingInput{GoalID: goal.ID, Seconds: 60})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	_, err = e.tracking.List(ada.ID, TrackingQuery{From: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidDay)
}
