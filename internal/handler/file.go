package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

// Multipart overhead allowed on top of the file itself.
const multipartSlack = 1 << 20

var errMissingFile = errors.New("multipart field \"file\" is required")

type FileHandler struct {
	fileService   *service.FileService
	maxUploadSize int64
}

func NewFileHandler(fileService *service.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		fileService:   fileService,
		maxUploadSize: maxUploadSize,
	}
}

type uploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Public   bool   `json:"public"`
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartSlack)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, r, &service.InputError{Err: errMissingFile}, "upload file")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	_, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, &service.InputError{Err: errMissingFile}, "upload file")
		return
	}
	if header.Size > h.maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	public, _ := strconv.ParseBool(r.FormValue("public"))
	file, err := h.fileService.Upload(ctxkeys.UserID(r.Context()), header, service.UploadInput{
		OwnerType: r.FormValue("ownerType"),
		OwnerID:   r.FormValue("ownerId"),
		Public:    public,
	})
	if err != nil {
		respondError(w, r, err, "upload file")
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		ID:       file.ID,
		Filename: file.Filename,
		URL:      file.URL,
		MimeType: file.MimeType,
		Size:     file.Size,
		Type:     file.Type,
		Public:   file.Public,
	})
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.Files(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err, "list files")
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.fileService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Serve streams /uploads/{filename} or redirects to a signed URL. Private files
// answer 404 to everyone but their owner.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	download, err := h.fileService.Open(ctxkeys.UserID(r.Context()), r.PathValue("filename"))
	if err != nil {
		respondError(w, r, err, "serve file")
		return
	}

	if download.RedirectURL != "" {
		http.Redirect(w, r, download.RedirectURL, http.StatusTemporaryRedirect)
		return
	}
	defer func() {
		closeErr := download.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close stored file", "error", closeErr, "filename", download.File.Filename)
		}
	}()

	cacheControl := "private, max-age=3600"
	if download.File.Public {
		cacheControl = "public, max-age=86400"
	}
	w.Header().Set("Content-Type", download.File.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(download.File.Size, 10))
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	_, err = io.Copy(w, download.Body)
	if err != nil {
		slog.Warn("failed to stream file", "error", err, "filename", download.File.Filename)
	}
}
