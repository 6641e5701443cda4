package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultGoal          ResultType = "goal"
	ResultTranscription ResultType = "transcription"
)

func ParseResultType(s string) (ResultType, bool) {
	switch ResultType(s) {
	case "":
		return "", true
	case ResultGoal, ResultTranscription:
		return ResultType(s), true
	}
	return "", false
}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	GoalID  string     `json:"goalId,omitempty"`
}

// Query describes a search request. Results are always scoped to UserID.
type Query struct {
	Text       string
	UserID     string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
}

// Engine is a search backend that also accepts index updates.
type Engine interface {
	Searcher
	Healthy() bool
	IndexGoals(goals []GoalRecord) error
	IndexTranscriptions(transcriptions []TranscriptionRecord) error
	DeleteGoal(id string) error
	DeleteTranscription(id string) error
}

// GoalRecord is the data we index for a goal.
type GoalRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// TranscriptionRecord is the data we index for a transcription.
type TranscriptionRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	GoalID    string `json:"goalId"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}
