package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/events"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenActivities fails every write.
type brokenActivities struct {
	repository.ActivityRepository
}

func (brokenActivities) Create(*model.Activity) error {
	return errors.New("disk full")
}

type capturePublisher struct {
	published chan events.ActivityEvent
}

func (p *capturePublisher) PublishActivity(_ context.Context, ev events.ActivityEvent) error {
	p.published <- ev
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestActivityRecordAndPublish(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	pub := &capturePublisher{published: make(chan events.ActivityEvent, 1)}
	svc := NewActivityService(e.activityRepo, pub)

	activity, err := svc.Record(user.ID, "meditation_done", nil, nil, map[string]any{"minutes": 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"minutes":10}`, string(activity.Metadata))

	select {
	case ev := <-pub.published:
		assert.Equal(t, activity.ID, ev.ID)
		assert.Equal(t, "meditation_done", ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("activity event was not published")
	}

	_, err = svc.Record(user.ID, "Not A Type", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestActivityRecordClientRejectsServerTypes(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	for _, typ := range []string{model.ActivityLogin, model.ActivityGoalCreated, model.ActivityExport} {
		_, err := e.activity.RecordClient(user.ID, typ, nil, nil, nil)
		assert.ErrorIs(t, err, ErrReservedActivityType, typ)
		var inputErr *InputError
		assert.ErrorAs(t, err, &inputErr, typ)
	}

	activity, err := e.activity.RecordClient(user.ID, "meditation_done", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "meditation_done", activity.Type)

	_, err = e.activity.RecordClient(user.ID, "Not A Type", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestActivityLogFailureDoesNotFailCaller(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	broken := NewActivityService(brokenActivities{}, nil)
	goals := NewGoalService(e.goalRepo, e.transcriptRepo, broken, nil)

	goal, err := goals.Create(user.ID, GoalInput{Title: "Still saved"})
	require.NoError(t, err)

	stored, err := e.goals.Get(user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Still saved", stored.Title)

	var nilService *ActivityService
	assert.NotPanics(t, func() { nilService.Log(user.ID, model.ActivityLogin, nil, nil, nil) })
}

func TestActivityListPaginates(t *testing.T) {
	e := newTestEnv(t)
	user := e.register(t, "ada")

	for range 5 {
		_, err := e.activity.Record(user.ID, "focus_block", nil, nil, nil)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := e.activity.List(user.ID, 2, cursor, "focus_block")
		require.NoError(t, err)
		pages++
		for _, a := range page.Activities {
			assert.Equal(t, "focus_block", a.Type)
			assert.False(t, seen[a.ID], "activity returned twice")
			seen[a.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		require.Less(t, pages, 10)
	}
	assert.Len(t, seen, 5)

	_, err := e.activity.List(user.ID, 2, "%%%", "")
	assert.Error(t, err)

	summary, err := e.activity.Summary(user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	counts := map[string]int{}
	for _, c := range summary {
		counts[c.Type] = c.Count
	}
	assert.Equal(t, 5, counts["focus_block"])
	assert.Equal(t, 1, counts[model.ActivityRegister])
}
