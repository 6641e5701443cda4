package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

var errNoEmail = errors.New("add an email address to your account to receive exports")

type TranscriptionHandler struct {
	transcriptionService *service.TranscriptionService
	exportService        *export.Service
	emailService         *service.EmailService
}

func NewTranscriptionHandler(
	transcriptionService *service.TranscriptionService,
	exportService *export.Service,
	emailService *service.EmailService,
) *TranscriptionHandler {
	return &TranscriptionHandler{
		transcriptionService: transcriptionService,
		exportService:        exportService,
		emailService:         emailService,
	}
}

func (h *TranscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, r, err, "list transcriptions")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, err, "list transcriptions")
		return
	}

	list, err := h.transcriptionService.List(ctxkeys.UserID(r.Context()), service.TranscriptionQuery{
		GoalID: r.URL.Query().Get("goalId"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, r, err, "list transcriptions")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *TranscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.TranscriptionInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "create transcription")
		return
	}

	t, err := h.transcriptionService.Create(ctxkeys.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err, "create transcription")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.transcriptionService.Get(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "get transcription")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TranscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.TranscriptionPatch
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "update transcription")
		return
	}

	t, err := h.transcriptionService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), req)
	if err != nil {
		respondError(w, r, err, "update transcription")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TranscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.transcriptionService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "delete transcription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TranscriptionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, "export transcription")
		return
	}

	result, err := h.exportService.ExportTranscription(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), format)
	if err != nil {
		respondError(w, r, err, "export transcription")
		return
	}

	writeExport(w, result)
}

// ExportBulk exports the user's transcriptions, optionally narrowed to a goal
// and a date range. A date-only "to" includes that whole day.
func (h *TranscriptionHandler) ExportBulk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		respondError(w, r, err, "export transcriptions")
		return
	}

	filter := export.BulkFilter{GoalID: q.Get("goalId")}
	filter.From, err = queryDate(q.Get("from"), false)
	if err != nil {
		respondError(w, r, err, "export transcriptions")
		return
	}
	filter.To, err = queryDate(q.Get("to"), true)
	if err != nil {
		respondError(w, r, err, "export transcriptions")
		return
	}

	result, err := h.exportService.ExportTranscriptions(r.Context(), ctxkeys.UserID(r.Context()), filter, format)
	if err != nil {
		respondError(w, r, err, "export transcriptions")
		return
	}

	writeExport(w, result)
}

// ExportEmail sends the transcription PDF to the user's email address.
func (h *TranscriptionHandler) ExportEmail(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user.EmailAddress() == "" {
		respondError(w, r, &service.InputError{Err: errNoEmail}, "email export")
		return
	}

	t, err := h.transcriptionService.Get(user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "email export")
		return
	}

	result, err := h.exportService.ExportTranscription(r.Context(), user.ID, t.ID, export.FormatPDF)
	if err != nil {
		respondError(w, r, err, "email export")
		return
	}

	title := t.Title
	if title == "" {
		title = "Transcription"
	}
	err = h.emailService.SendExportEmail(r.Context(), user.EmailAddress(), user.Name(), title, result.Filename, result.Data)
	if err != nil {
		respondError(w, r, err, "email export")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "email": user.EmailAddress()})
}

// queryDate parses an optional date. With endOfDay a bare YYYY-MM-DD moves to
// the next midnight so the range includes that day.
func queryDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := service.ParseDate(raw)
	if err != nil {
		return nil, &service.InputError{Err: err}
	}
	if endOfDay && len(raw) == len(model.DayLayout) {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
