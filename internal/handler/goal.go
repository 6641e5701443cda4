package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

type GoalHandler struct {
	goalService   *service.GoalService
	exportService *export.Service
}

func NewGoalHandler(goalService *service.GoalService, exportService *export.Service) *GoalHandler {
	return &GoalHandler{
		goalService:   goalService,
		exportService: exportService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	q := r.URL.Query()

	goals, err := h.goalService.List(userID, q.Get("parentId"), q.Get("status"), q.Get("sort"))
	if err != nil {
		respondError(w, r, err, "list goals")
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.goalService.Tree(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err, "load goal tree")
		return
	}

	writeJSON(w, http.StatusOK, tree)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.GoalInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "create goal")
		return
	}

	goal, err := h.goalService.Create(ctxkeys.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err, "create goal")
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Get(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "get goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.GoalPatch
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "update goal")
		return
	}

	goal, err := h.goalService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), req)
	if err != nil {
		respondError(w, r, err, "update goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// UpdateContent replaces the journal blob sent as {"content": ...}.
func (h *GoalHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content json.RawMessage `json:"content"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "update goal content")
		return
	}

	goal, err := h.goalService.UpdateContent(ctxkeys.UserID(r.Context()), r.PathValue("id"), req.Content)
	if err != nil {
		respondError(w, r, err, "update goal content")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Transcriptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.goalService.Transcriptions(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "list goal transcriptions")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, "export goal")
		return
	}

	result, err := h.exportService.ExportGoal(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), format)
	if err != nil {
		respondError(w, r, err, "export goal")
		return
	}

	writeExport(w, result)
}

// writeExport sends the document as a download.
func writeExport(w http.ResponseWriter, result *export.Result) {
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
