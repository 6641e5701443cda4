package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/storage"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/validation"
	"github.com/google/uuid"
)

// UploadsPrefix is the URL path uploaded files are served under.
const UploadsPrefix = "/uploads/"

var (
	ErrInvalidOwnerType = errors.New("owner type must be user, goal or transcription")
	ErrFileForbidden    = errors.New("file is private")
)

// UploadInput describes where an upload attaches. Empty owner fields attach it to the user.
type UploadInput struct {
	OwnerType string
	OwnerID   string
	Public    bool
}

// Download is either an open reader or a redirect to a signed URL.
type Download struct {
	File        *model.File
	Body        io.ReadCloser
	RedirectURL string
}

type FileService struct {
	fileRepo        repository.FileRepository
	goals           repository.GoalRepository
	transcriptions  repository.TranscriptionRepository
	storage         storage.Storage
	activityService *ActivityService
}

func NewFileService(
	fileRepo repository.FileRepository,
	goals repository.GoalRepository,
	transcriptions repository.TranscriptionRepository,
	store storage.Storage,
	activityService *ActivityService,
) *FileService {
	return &FileService{
		fileRepo:        fileRepo,
		goals:           goals,
		transcriptions:  transcriptions,
		storage:         store,
		activityService: activityService,
	}
}

// Upload validates the file by content, stores it and records it.
func (s *FileService) Upload(userID string, header *multipart.FileHeader, in UploadInput) (*model.File, error) {
	detected, err := validation.ValidateFile(header,
		validation.ImageConstraints,
		validation.AudioConstraints,
		validation.VideoConstraints,
		validation.DocumentConstraints,
	)
	if err != nil {
		return nil, invalid(err)
	}

	ownerType, ownerID, goalID, err := s.resolveOwner(userID, in)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext
	storagePath := path.Join(detected.Kind+"s", filename)

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	err = s.storage.Save(storagePath, src, header.Size, detected.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         detected.Kind,
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     detected.MimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       in.Public,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(file)
	if err != nil {
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	file.URL = s.URL(file)
	s.activityService.Log(userID, model.ActivityUpload, goalID, &file.ID, map[string]any{
		"type":     file.Type,
		"filename": file.Filename,
		"size":     file.Size,
	})
	return file, nil
}

func (s *FileService) resolveOwner(userID string, in UploadInput) (string, string, *string, error) {
	switch in.OwnerType {
	case "", model.OwnerTypeUser:
		return model.OwnerTypeUser, userID, nil, nil
	case model.OwnerTypeGoal:
		goal, err := s.goals.ByID(userID, in.OwnerID)
		if err != nil {
			return "", "", nil, err
		}
		return model.OwnerTypeGoal, goal.ID, &goal.ID, nil
	case model.OwnerTypeTranscription:
		t, err := s.transcriptions.ByID(userID, in.OwnerID)
		if err != nil {
			return "", "", nil, err
		}
		return model.OwnerTypeTranscription, t.ID, t.GoalID, nil
	default:
		return "", "", nil, invalid(ErrInvalidOwnerType)
	}
}

// URL is the stable app URL of a file. Remote backends redirect from it.
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}
	return UploadsPrefix + file.Filename
}

// Files lists a user's uploads, newest first.
func (s *FileService) Files(userID string) ([]*model.File, error) {
	files, err := s.fileRepo.AllUserFiles(userID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		f.URL = s.URL(f)
	}
	return files, nil
}

// Open resolves a served filename. Private files are only readable by their owner;
// viewerID is empty for anonymous requests.
func (s *FileService) Open(viewerID, filename string) (*Download, error) {
	file, err := s.fileRepo.ByFilename(filename)
	if err != nil {
		return nil, err
	}
	if !file.Public && file.UserID != viewerID {
		return nil, ErrFileForbidden
	}

	if presigner, ok := s.storage.(storage.Presigner); ok {
		url, err := presigner.SignedURL(file.StoragePath, file.Public)
		if err != nil {
			return nil, fmt.Errorf("failed to sign file url: %w", err)
		}
		return &Download{File: file, RedirectURL: url}, nil
	}

	body, err := s.storage.Open(file.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, repository.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Download{File: file, Body: body}, nil
}

// Delete removes the record, then the stored bytes on a best-effort basis.
func (s *FileService) Delete(userID, id string) error {
	file, err := s.fileRepo.ByID(id)
	if err != nil {
		return err
	}
	if file.UserID != userID {
		return repository.ErrFileNotFound
	}

	err = s.fileRepo.Delete(userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}
	return nil
}
