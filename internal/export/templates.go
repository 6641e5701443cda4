package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var documentTemplate *template.Template

var titleCaser = cases.Title(language.English)

func init() {
	funcMap := template.FuncMap{
		"label": func(s string) string {
			return titleCaser.String(s)
		},
		"formatDate": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("January 2, 2006 15:04 MST")
		},
		"duration": formatDuration,
	}

	content, err := templateFS.ReadFile("templates/document.html")
	if err != nil {
		documentTemplate = template.Must(template.New("document").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	documentTemplate = template.Must(template.New("document").Funcs(funcMap).Parse(string(content)))
}

// TemplateData holds everything the document template renders.
type TemplateData struct {
	Title       string
	Subtitle    string
	Author      string
	GeneratedAt time.Time
	Goal        *GoalSection
	Entries     []EntrySection
}

type GoalSection struct {
	Status          string
	TargetDate      *time.Time
	CompletedAt     *time.Time
	DescriptionHTML template.HTML
	NotesHTML       template.HTML
	Journal         []JournalSection
	Media           []MediaBlock
	SubGoals        []*model.Goal
	Tracking        *model.TrackingSummary
}

type JournalSection struct {
	Date  string
	Text  string
	Media []MediaBlock
}

type EntrySection struct {
	Title           string
	Text            string
	Language        string
	DurationSeconds int64
	CreatedAt       time.Time
	Media           []MediaBlock
}

// RenderDocumentHTML renders the document template with provided data
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Goal}}<div>{{.Goal.DescriptionHTML}}</div>{{end}}
  {{range .Entries}}<h2>{{.Title}}</h2><p style="white-space: pre-wrap">{{.Text}}</p>{{end}}
</body>
</html>`
