package handler

import (
	"net/http"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

const defaultSummaryWindow = 30 * 24 * time.Hour

type ActivityHandler struct {
	activityService *service.ActivityService
	goalService     *service.GoalService
}

func NewActivityHandler(activityService *service.ActivityService, goalService *service.GoalService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		goalService:     goalService,
	}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, r, err, "list activity")
		return
	}

	q := r.URL.Query()
	page, err := h.activityService.List(ctxkeys.UserID(r.Context()), limit, q.Get("cursor"), q.Get("type"))
	if err != nil {
		respondError(w, r, err, "list activity")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

type activityRequest struct {
	ActivityType string         `json:"activityType"`
	GoalID       *string        `json:"goalId"`
	EntityID     *string        `json:"entityId"`
	Metadata     map[string]any `json:"metadata"`
}

// Create logs an event reported by the client. A goalId must be one of the
// user's goals, and server-side types such as goal_created are rejected.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req activityRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "log activity")
		return
	}

	if req.GoalID != nil && *req.GoalID != "" {
		_, err = h.goalService.Get(userID, *req.GoalID)
		if err != nil {
			respondError(w, r, err, "log activity")
			return
		}
	} else {
		req.GoalID = nil
	}

	activity, err := h.activityService.RecordClient(userID, req.ActivityType, req.GoalID, req.EntityID, req.Metadata)
	if err != nil {
		respondError(w, r, err, "log activity")
		return
	}

	writeJSON(w, http.StatusCreated, activity)
}

// Summary counts activities per type since ?since= (default 30 days).
func (h *ActivityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-defaultSummaryWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := service.ParseDate(raw)
		if err != nil {
			respondError(w, r, &service.InputError{Err: err}, "summarize activity")
			return
		}
		since = t
	}

	counts, err := h.activityService.Summary(ctxkeys.UserID(r.Context()), since)
	if err != nil {
		respondError(w, r, err, "summarize activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"since": since, "counts": counts})
}
