package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTranscriptionNotFound = errors.New("transcription not found")
)

// TranscriptionFilter narrows Transcriptions. Unlinked wins over GoalID.
// From and To bound created_at, To exclusive.
type TranscriptionFilter struct {
	GoalID   string
	Unlinked bool
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type TranscriptionRepository interface {
	Create(t *model.Transcription) error
	ByID(userID, id string) (*model.Transcription, error)
	Transcriptions(userID string, filter TranscriptionFilter) ([]*model.Transcription, error)
	Search(userID, q string, limit, offset int) ([]*model.Transcription, int, error)
	All() ([]*model.Transcription, error)
	Update(t *model.Transcription) error
	Delete(userID, id string) error
}

type transcriptionRepository struct {
	db *sqlx.DB
}

func NewTranscriptionRepository(db *sqlx.DB) TranscriptionRepository {
	return &transcriptionRepository{db: db}
}

func (r *transcriptionRepository) Create(t *model.Transcription) error {
	query := `INSERT INTO transcriptions (id, user_id, goal_id, title, text, language, duration_seconds, media, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		t.ID,
		t.UserID,
		t.GoalID,
		t.Title,
		t.Text,
		t.Language,
		t.DurationSeconds,
		t.Media,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrGoalNotFound
	}

	return err
}

func (r *transcriptionRepository) ByID(userID, id string) (*model.Transcription, error) {
	t := &model.Transcription{}
	query := `SELECT * FROM transcriptions WHERE id = $1 AND user_id = $2`

	err := r.db.Get(t, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTranscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (r *transcriptionRepository) Transcriptions(userID string, filter TranscriptionFilter) ([]*model.Transcription, error) {
	list := []*model.Transcription{}

	where := []string{"user_id = $1"}
	args := []any{userID}

	switch {
	case filter.Unlinked:
		where = append(where, "goal_id IS NULL")
	case filter.GoalID != "":
		args = append(args, filter.GoalID)
		where = append(where, "goal_id = "+placeholder(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, "created_at >= "+placeholder(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, "created_at < "+placeholder(len(args)))
	}

	query := `SELECT * FROM transcriptions WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT " + placeholder(len(args)-1) + " OFFSET " + placeholder(len(args))
	}

	err := r.db.Select(&list, query, args...)
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Search returns one page of matches and the total number of matches.
func (r *transcriptionRepository) Search(userID, q string, limit, offset int) ([]*model.Transcription, int, error) {
	const where = `WHERE user_id = $1 AND (LOWER(title) LIKE $2 ESCAPE '\' OR LOWER(text) LIKE $2 ESCAPE '\')`
	pattern := likePattern(q)

	var total int
	err := r.db.Get(&total, `SELECT COUNT(*) FROM transcriptions `+where, userID, pattern)
	if err != nil {
		return nil, 0, err
	}

	list := []*model.Transcription{}
	err = r.db.Select(&list, `SELECT * FROM transcriptions `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`, userID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *transcriptionRepository) All() ([]*model.Transcription, error) {
	list := []*model.Transcription{}
	err := r.db.Select(&list, `SELECT * FROM transcriptions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transcriptionRepository) Update(t *model.Transcription) error {
	t.UpdatedAt = time.Now().UTC()
	query := `UPDATE transcriptions
	          SET goal_id = $1, title = $2, text = $3, language = $4, duration_seconds = $5, media = $6, updated_at = $7
	          WHERE id = $8 AND user_id = $9`

	result, err := r.db.Exec(query,
		t.GoalID,
		t.Title,
		t.Text,
		t.Language,
		t.DurationSeconds,
		t.Media,
		t.UpdatedAt,
		t.ID,
		t.UserID,
	)
	if isForeignKeyViolation(err) {
		return ErrGoalNotFound
	}

	return checkAffected(result, err, ErrTranscriptionNotFound)
}

func (r *transcriptionRepository) Delete(userID, id string) error {
	query := `DELETE FROM transcriptions WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, id, userID)
	return checkAffected(result, err, ErrTranscriptionNotFound)
}
