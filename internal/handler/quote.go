package handler

import (
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

type QuoteHandler struct {
	quoteService *service.QuoteService
}

func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quoteService.List(r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err, "list quotes")
		return
	}

	writeJSON(w, http.StatusOK, quotes)
}

func (h *QuoteHandler) Random(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quoteService.Random(r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err, "get random quote")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Daily(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quoteService.Daily(r.Context())
	if err != nil {
		respondError(w, r, err, "get daily quote")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
