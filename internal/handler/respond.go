package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/export"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/search"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service/payment"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/validation"
)

const maxJSONBody = 1 << 20

var errInvalidJSON = errors.New("request body must be valid JSON")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads a JSON body of at most 1MB into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer func() { _ = body.Close() }()

	err := json.NewDecoder(body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return validation.ErrFileTooLarge
	}
	return &service.InputError{Err: errInvalidJSON}
}

// errorStatus maps service and repository errors to an HTTP status.
func errorStatus(err error) int {
	var inputErr *service.InputError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &inputErr),
		errors.Is(err, service.ErrInvalidCurrentPassword),
		errors.Is(err, service.ErrFirebaseRejected),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, payment.ErrNoPortal),
		errors.Is(err, repository.ErrInvalidCursor):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrPasswordlessAccount),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrOAuthFailed):
		return http.StatusUnauthorized

	case errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrTranscriptionNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrQuoteNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrFileForbidden),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound

	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, repository.ErrDuplicateUsername),
		errors.Is(err, repository.ErrDuplicateIdentity):
		return http.StatusConflict

	case errors.Is(err, validation.ErrFileTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, export.ErrPDFDependencyMissing),
		errors.Is(err, service.ErrEmailNotConfigured),
		errors.Is(err, payment.ErrNotConfigured),
		errors.Is(err, search.ErrSearchUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the mapped status. Unexpected errors are logged and
// answered with "Failed to <action>" instead of the error text.
func respondError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err, "method", r.Method, "path", r.URL.Path, "user_id", ctxkeys.UserID(r.Context()))
		writeError(w, status, "Failed to "+action)
		return
	}
	writeError(w, status, err.Error())
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &service.InputError{Err: errors.New(key + " must be a non-negative integer")}
	}
	return n, nil
}

// NotFound answers unknown API paths with JSON instead of the mux's text 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// Fallback is registered under the catch-all pattern. A path that mux routes
// for other methods gets a JSON 405 with Allow; anything else is NotFound.
func Fallback(mux *http.ServeMux, catchAll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allowed []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}
			other := r.Clone(r.Context())
			other.Method = method
			if _, pattern := mux.Handler(other); pattern != "" && pattern != catchAll {
				allowed = append(allowed, method)
			}
		}

		if len(allowed) == 0 {
			NotFound(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
