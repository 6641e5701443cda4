package repository

import (
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

// TrackingFilter bounds day rows. From and To are inclusive YYYY-MM-DD days.
type TrackingFilter struct {
	GoalID string
	From   string
	To     string
}

type TrackingRepository interface {
	AddSession(row *model.ProjectTracking) (*model.ProjectTracking, error)
	Days(userID string, filter TrackingFilter) ([]*model.ProjectTracking, error)
	Summary(userID string, filter TrackingFilter) ([]*model.TrackingSummary, error)
}

type trackingRepository struct {
	db *sqlx.DB
}

func NewTrackingRepository(db *sqlx.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

// AddSession inserts the day row or adds to it in a single statement.
// row.ID and row.CreatedAt only apply when the row is new.
func (r *trackingRepository) AddSession(row *model.ProjectTracking) (*model.ProjectTracking, error) {
	query := `INSERT INTO project_tracking (id, user_id, goal_id, day, seconds_spent, session_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
	          ON CONFLICT (user_id, goal_id, day) DO UPDATE
	          SET seconds_spent = project_tracking.seconds_spent + excluded.seconds_spent,
	              session_count = project_tracking.session_count + 1,
	              updated_at = excluded.updated_at
	          RETURNING *`

	saved := &model.ProjectTracking{}
	err := r.db.Get(saved, query,
		row.ID,
		row.UserID,
		row.GoalID,
		row.Day,
		row.SecondsSpent,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *trackingRepository) Days(userID string, filter TrackingFilter) ([]*model.ProjectTracking, error) {
	where, args := trackingWhere("", userID, filter)
	query := `SELECT * FROM project_tracking WHERE ` + where + ` ORDER BY day DESC, updated_at DESC`

	rows := []*model.ProjectTracking{}
	err := r.db.Select(&rows, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *trackingRepository) Summary(userID string, filter TrackingFilter) ([]*model.TrackingSummary, error) {
	where, args := trackingWhere("pt.", userID, filter)
	query := `SELECT pt.goal_id, g.title AS goal_title,
	                 CAST(SUM(pt.seconds_spent) AS BIGINT) AS total_seconds,
	                 CAST(SUM(pt.session_count) AS BIGINT) AS total_sessions,
	                 COUNT(*) AS days_active
	          FROM project_tracking pt
	          JOIN goals g ON g.id = pt.goal_id
	          WHERE ` + where + `
	          GROUP BY pt.goal_id, g.title
	          ORDER BY total_seconds DESC`

	summary := []*model.TrackingSummary{}
	err := r.db.Select(&summary, query, args...)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func trackingWhere(prefix, userID string, filter TrackingFilter) (string, []any) {
	where := []string{prefix + "user_id = $1"}
	args := []any{userID}

	if filter.GoalID != "" {
		args = append(args, filter.GoalID)
		where = append(where, prefix+"goal_id = "+placeholder(len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		where = append(where, prefix+"day >= "+placeholder(len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		where = append(where, prefix+"day <= "+placeholder(len(args)))
	}

	return strings.Join(where, " AND "), args
}
