package repository

import (
	"testing"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalRepositoryOwnership(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	ada := createUser(t, database, "ada")
	grace := createUser(t, database, "grace")

	goal := createGoal(t, database, ada.ID, "Write a book", nil)

	found, err := repo.ByID(ada.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write a book", found.Title)
	assert.JSONEq(t, `{}`, string(found.Content))

	_, err = repo.ByID(grace.ID, goal.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)
	assert.ErrorIs(t, repo.Delete(grace.ID, goal.ID), ErrGoalNotFound)
}

func TestGoalRepositoryFilters(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")

	root := createGoal(t, database, user.ID, "b root", nil)
	createGoal(t, database, user.ID, "a child", &root.ID)
	other := createGoal(t, database, user.ID, "c other", nil)
	other.Status = model.GoalStatusCompleted
	require.NoError(t, repo.Update(other))

	all, err := repo.Goals(user.ID, GoalFilter{Sort: GoalSortTitle})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a child", all[0].Title)

	roots, err := repo.Goals(user.ID, GoalFilter{RootOnly: true})
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	children, err := repo.Goals(user.ID, GoalFilter{ParentID: root.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "a child", children[0].Title)

	completed, err := repo.Goals(user.ID, GoalFilter{Status: model.GoalStatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, other.ID, completed[0].ID)
}

func TestGoalRepositoryIsDescendant(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")

	a := createGoal(t, database, user.ID, "a", nil)
	b := createGoal(t, database, user.ID, "b", &a.ID)
	c := createGoal(t, database, user.ID, "c", &b.ID)

	ok, err := repo.IsDescendant(a.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsDescendant(c.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGoalRepositoryDeleteCascades(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	transcriptions := NewTranscriptionRepository(database)
	user := createUser(t, database, "ada")

	parent := createGoal(t, database, user.ID, "parent", nil)
	child := createGoal(t, database, user.ID, "child", &parent.ID)
	entry := createTranscription(t, database, user.ID, &child.ID, "linked entry")

	require.NoError(t, repo.Delete(user.ID, parent.ID))

	_, err := repo.ByID(user.ID, child.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)

	kept, err := transcriptions.ByID(user.ID, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.GoalID)
}

func TestGoalRepositorySearch(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")
	createGoal(t, database, user.ID, "Learn Spanish", nil)
	createGoal(t, database, user.ID, "Run a marathon", nil)

	found, total, err := repo.Search(user.ID, "spanish", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Learn Spanish", found[0].Title)
}

func TestGoalRepositorySearchWildcardsAreLiteral(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")
	createGoal(t, database, user.ID, "Give 100% at the gym", nil)
	createGoal(t, database, user.ID, "Read 100 books", nil)
	createGoal(t, database, user.ID, "snake_case everything", nil)
	createGoal(t, database, user.ID, "snakeXcase nothing", nil)

	found, total, err := repo.Search(user.ID, "100%", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Give 100% at the gym", found[0].Title)

	found, _, err = repo.Search(user.ID, "snake_case", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "snake_case everything", found[0].Title)
}

func TestGoalRepositorySearchTotalCountsAllPages(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")
	for _, title := range []string{"Run 5k", "Run 10k", "Run a half", "Run a marathon"} {
		createGoal(t, database, user.ID, title, nil)
	}

	page, total, err := repo.Search(user.ID, "run", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 4, total)

	page, total, err = repo.Search(user.ID, "run", 2, 3)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 4, total)
}

func TestGoalRepositoryUpdateContent(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)
	user := createUser(t, database, "ada")
	goal := createGoal(t, database, user.ID, "journal", nil)

	require.NoError(t, repo.UpdateContent(user.ID, goal.ID, model.RawJSON(`{"entries":[1]}`)))

	saved, err := repo.ByID(user.ID, goal.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[1]}`, string(saved.Content))
	assert.ErrorIs(t, repo.UpdateContent(user.ID, "missing", model.RawJSON(`{}`)), ErrGoalNotFound)
}
