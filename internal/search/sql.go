package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
)

type goalFinder interface {
	Search(userID, q string, limit, offset int) ([]*model.Goal, int, error)
}

type transcriptionFinder interface {
	Search(userID, q string, limit, offset int) ([]*model.Transcription, int, error)
}

// SQL searches with LIKE through the repositories.
type SQL struct {
	goals          goalFinder
	transcriptions transcriptionFinder
}

func NewSQL(goals goalFinder, transcriptions transcriptionFinder) *SQL {
	return &SQL{goals: goals, transcriptions: transcriptions}
}

// Search returns one page per requested type. The total counts every match
// across those types, not just the returned page.
func (s *SQL) Search(q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	results := []Result{}
	total := 0

	if q.FilterType == "" || q.FilterType == ResultGoal {
		goals, n, err := s.goals.Search(q.UserID, q.Text, limit, q.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("sql search goals: %w", err)
		}
		total += n
		for _, g := range goals {
			results = append(results, Result{
				Type:    ResultGoal,
				ID:      g.ID,
				Title:   g.Title,
				Snippet: snippet(g.Description, q.Text),
			})
		}
	}

	if q.FilterType == "" || q.FilterType == ResultTranscription {
		list, n, err := s.transcriptions.Search(q.UserID, q.Text, limit, q.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("sql search transcriptions: %w", err)
		}
		total += n
		for _, t := range list {
			r := Result{
				Type:    ResultTranscription,
				ID:      t.ID,
				Title:   t.Title,
				Snippet: snippet(t.Text, q.Text),
			}
			if t.GoalID != nil {
				r.GoalID = *t.GoalID
			}
			results = append(results, r)
		}
	}

	return results, total, nil
}

// snippet cuts a window of text around the first match.
func snippet(text, q string) string {
	const radius = 80

	if utf8.RuneCountInString(text) <= 2*radius {
		return text
	}

	runes := []rune(text)
	pos := strings.Index(strings.ToLower(text), strings.ToLower(strings.TrimSpace(q)))
	center := 0
	if pos > 0 {
		center = utf8.RuneCountInString(text[:pos])
	}

	start := max(center-radius, 0)
	end := min(start+2*radius, len(runes))

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}
