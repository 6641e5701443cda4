package repository

import (
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

type ActivityQuery struct {
	Type   string
	Limit  int
	Cursor *Cursor
}

// ActivityRepository is append-only.
type ActivityRepository interface {
	Create(a *model.Activity) error
	Activities(userID string, q ActivityQuery) ([]*model.Activity, *Cursor, error)
	Summary(userID string, since time.Time) ([]model.ActivityCount, error)
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(a *model.Activity) error {
	query := `INSERT INTO user_activity (id, user_id, activity_type, goal_id, entity_id, metadata, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query, a.ID, a.UserID, a.Type, a.GoalID, a.EntityID, a.Metadata, a.CreatedAt)
	return err
}

// Activities lists newest first. The returned cursor is nil on the last page.
func (r *activityRepository) Activities(userID string, q ActivityQuery) ([]*model.Activity, *Cursor, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT * FROM user_activity WHERE user_id = $1`
	args := []any{userID}

	if q.Type != "" {
		args = append(args, q.Type)
		query += " AND activity_type = " + placeholder(len(args))
	}
	if q.Cursor != nil {
		args = append(args, q.Cursor.CreatedAt, q.Cursor.ID)
		ts, id := placeholder(len(args)-1), placeholder(len(args))
		query += " AND (created_at < " + ts + " OR (created_at = " + ts + " AND id < " + id + "))"
	}

	// One extra row tells whether another page exists
	args = append(args, limit+1)
	query += " ORDER BY created_at DESC, id DESC LIMIT " + placeholder(len(args))

	list := []*model.Activity{}
	err := r.db.Select(&list, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(list) > limit {
		list = list[:limit]
		last := list[limit-1]
		next = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return list, next, nil
}

func (r *activityRepository) Summary(userID string, since time.Time) ([]model.ActivityCount, error) {
	counts := []model.ActivityCount{}
	query := `SELECT activity_type, COUNT(*) AS count FROM user_activity
	          WHERE user_id = $1 AND created_at >= $2
	          GROUP BY activity_type ORDER BY count DESC, activity_type`

	err := r.db.Select(&counts, query, userID, since)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
