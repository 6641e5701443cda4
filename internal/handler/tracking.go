package handler

import (
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

type TrackingHandler struct {
	trackingService *service.TrackingService
}

func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req service.TrackingInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err, "record tracking session")
		return
	}

	row, err := h.trackingService.RecordSession(ctxkeys.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err, "record tracking session")
		return
	}

	writeJSON(w, http.StatusOK, row)
}

func (h *TrackingHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.trackingService.List(ctxkeys.UserID(r.Context()), trackingQuery(r))
	if err != nil {
		respondError(w, r, err, "list tracking")
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *TrackingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.trackingService.Summary(ctxkeys.UserID(r.Context()), trackingQuery(r))
	if err != nil {
		respondError(w, r, err, "summarize tracking")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func trackingQuery(r *http.Request) service.TrackingQuery {
	q := r.URL.Query()
	return service.TrackingQuery{
		GoalID: q.Get("goalId"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}
}
