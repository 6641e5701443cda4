package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

var errInvalidSearchType = errors.New("type must be goal or transcription")

type SearchHandler struct {
	searchService *search.Service
}

func NewSearchHandler(searchService *search.Service) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))

	resultType, ok := search.ParseResultType(q.Get("type"))
	if !ok {
		respondError(w, r, &service.InputError{Err: errInvalidSearchType}, "search")
		return
	}

	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		respondError(w, r, err, "search")
		return
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, err, "search")
		return
	}

	if text == "" {
		writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}, Query: text})
		return
	}

	resp := h.searchService.Search(search.Query{
		Text:       text,
		UserID:     ctxkeys.UserID(r.Context()),
		FilterType: resultType,
		Limit:      limit,
		Offset:     offset,
	})
	writeJSON(w, http.StatusOK, resp)
}
