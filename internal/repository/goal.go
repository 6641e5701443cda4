package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	GoalSortRecent = "recent"
	GoalSortTitle  = "title"
	GoalSortTarget = "target"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

// GoalFilter narrows Goals. RootOnly wins over ParentID.
type GoalFilter struct {
	ParentID string
	RootOnly bool
	Status   string
	Sort     string
}

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID string, filter GoalFilter) ([]*model.Goal, error)
	IsDescendant(ancestorID, goalID string) (bool, error)
	Search(userID, q string, limit, offset int) ([]*model.Goal, int, error)
	All() ([]*model.Goal, error)
	Update(goal *model.Goal) error
	UpdateContent(userID, goalID string, content model.RawJSON) error
	Delete(userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, parent_id, title, description, status, content, target_date, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		goal.ID,
		goal.UserID,
		goal.ParentID,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.Content,
		goal.TargetDate,
		goal.CompletedAt,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrGoalNotFound
	}

	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(userID string, filter GoalFilter) ([]*model.Goal, error) {
	goals := []*model.Goal{}

	where := []string{"user_id = $1"}
	args := []any{userID}

	switch {
	case filter.RootOnly:
		where = append(where, "parent_id IS NULL")
	case filter.ParentID != "":
		args = append(args, filter.ParentID)
		where = append(where, "parent_id = "+placeholder(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = "+placeholder(len(args)))
	}

	// Validate and build ORDER BY clause
	var orderBy string
	switch filter.Sort {
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	case GoalSortTarget:
		orderBy = "ORDER BY target_date IS NULL, target_date ASC, updated_at DESC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY updated_at DESC"
	}

	query := `SELECT * FROM goals WHERE ` + strings.Join(where, " AND ") + " " + orderBy

	err := r.db.Select(&goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// IsDescendant reports whether goalID sits somewhere below ancestorID.
func (r *goalRepository) IsDescendant(ancestorID, goalID string) (bool, error) {
	query := `WITH RECURSIVE subtree(id) AS (
	              SELECT id FROM goals WHERE parent_id = $1
	              UNION
	              SELECT g.id FROM goals g JOIN subtree s ON g.parent_id = s.id
	          )
	          SELECT COUNT(*) FROM subtree WHERE id = $2`

	var count int
	err := r.db.QueryRow(query, ancestorID, goalID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Search returns one page of matches and the total number of matches.
func (r *goalRepository) Search(userID, q string, limit, offset int) ([]*model.Goal, int, error) {
	const where = `WHERE user_id = $1 AND (LOWER(title) LIKE $2 ESCAPE '\' OR LOWER(description) LIKE $2 ESCAPE '\')`
	pattern := likePattern(q)

	var total int
	err := r.db.Get(&total, `SELECT COUNT(*) FROM goals `+where, userID, pattern)
	if err != nil {
		return nil, 0, err
	}

	goals := []*model.Goal{}
	err = r.db.Select(&goals, `SELECT * FROM goals `+where+` ORDER BY updated_at DESC LIMIT $3 OFFSET $4`, userID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return goals, total, nil
}

func (r *goalRepository) All() ([]*model.Goal, error) {
	goals := []*model.Goal{}
	err := r.db.Select(&goals, `SELECT * FROM goals ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	goal.UpdatedAt = time.Now().UTC()
	query := `UPDATE goals
	          SET parent_id = $1, title = $2, description = $3, status = $4, content = $5,
	              target_date = $6, completed_at = $7, updated_at = $8
	          WHERE id = $9 AND user_id = $10`

	result, err := r.db.Exec(query,
		goal.ParentID,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.Content,
		goal.TargetDate,
		goal.CompletedAt,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)

	return checkAffected(result, err, ErrGoalNotFound)
}

func (r *goalRepository) UpdateContent(userID, goalID string, content model.RawJSON) error {
	query := `UPDATE goals SET content = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	result, err := r.db.Exec(query, content, time.Now().UTC(), goalID, userID)
	return checkAffected(result, err, ErrGoalNotFound)
}

// Delete removes the goal. Sub-goals go with it through the parent_id cascade.
func (r *goalRepository) Delete(userID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, goalID, userID)
	return checkAffected(result, err, ErrGoalNotFound)
}
