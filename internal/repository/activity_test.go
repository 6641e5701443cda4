package repository

import (
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRepositoryCursorPagination(t *testing.T) {
	database := newTestDB(t)
	repo := NewActivityRepository(database)
	user := createUser(t, database, "ada")

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		// Two rows share each timestamp to exercise the id tie-breaker
		at := base.Add(time.Duration(i/2) * time.Minute)
		require.NoError(t, repo.Create(&model.Activity{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Type:      model.ActivityGoalCreated,
			Metadata:  model.RawJSON(`{}`),
			CreatedAt: at,
		}))
	}

	seen := map[string]bool{}
	var cursor *Cursor
	var previous time.Time
	pages := 0
	for {
		page, next, err := repo.Activities(user.ID, ActivityQuery{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, a := range page {
			assert.False(t, seen[a.ID], "row repeated across pages")
			seen[a.ID] = true
			if !previous.IsZero() {
				assert.False(t, a.CreatedAt.After(previous), "rows must be newest first")
			}
			previous = a.CreatedAt
		}
		if next == nil {
			break
		}
		// Round-trip through the wire format
		cursor, err = DecodeCursor(EncodeCursor(next))
		require.NoError(t, err)
	}

	assert.Len(t, seen, 7)
	assert.Equal(t, 3, pages)
}

func TestActivityRepositoryTypeFilterAndSummary(t *testing.T) {
	database := newTestDB(t)
	repo := NewActivityRepository(database)
	user := createUser(t, database, "ada")

	now := time.Now().UTC()
	for _, typ := range []string{model.ActivityLogin, model.ActivityLogin, model.ActivityExport} {
		require.NoError(t, repo.Create(&model.Activity{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Type:      typ,
			Metadata:  model.RawJSON(`{}`),
			CreatedAt: now,
		}))
	}

	logins, next, err := repo.Activities(user.ID, ActivityQuery{Type: model.ActivityLogin})
	require.NoError(t, err)
	assert.Len(t, logins, 2)
	assert.Nil(t, next)

	summary, err := repo.Summary(user.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, model.ActivityCount{Type: model.ActivityLogin, Count: 2}, summary[0])
}

func TestDecodeCursor(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	at := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)
	c, err = DecodeCursor(EncodeCursor(&Cursor{CreatedAt: at, ID: "abc"}))
	require.NoError(t, err)
	assert.True(t, at.Equal(c.CreatedAt))
	assert.Equal(t, "abc", c.ID)
}
