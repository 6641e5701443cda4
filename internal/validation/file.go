package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var ErrFileTooLarge = errors.New("file too large")

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	Kind              string
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	ImageConstraints = FileConstraints{
		Kind: "image",
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
			"image/gif":  true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
			".gif":  true,
		},
		MaxSize: 10 << 20, // 10MB
	}

	// Browser voice recordings arrive as webm or ogg
	AudioConstraints = FileConstraints{
		Kind: "audio",
		AllowedMimeTypes: map[string]bool{
			"audio/mpeg":      true,
			"audio/wave":      true,
			"audio/ogg":       true,
			"application/ogg": true,
			"video/webm":      true,
			"audio/aiff":      true,
		},
		AllowedExtensions: map[string]bool{
			".mp3":  true,
			".wav":  true,
			".ogg":  true,
			".oga":  true,
			".webm": true,
			".weba": true,
			".aiff": true,
		},
		MaxSize: 50 << 20, // 50MB
	}

	VideoConstraints = FileConstraints{
		Kind: "video",
		AllowedMimeTypes: map[string]bool{
			"video/mp4":  true,
			"video/webm": true,
		},
		AllowedExtensions: map[string]bool{
			".mp4":  true,
			".m4v":  true,
			".webm": true,
		},
		MaxSize: 50 << 20, // 50MB
	}

	DocumentConstraints = FileConstraints{
		Kind: "document",
		AllowedMimeTypes: map[string]bool{
			"application/pdf": true,
		},
		AllowedExtensions: map[string]bool{
			".pdf": true,
		},
		MaxSize: 10 << 20, // 10MB
	}
)

// Detected is the constraint set a file matched and its sniffed MIME type.
type Detected struct {
	Kind     string
	MimeType string
}

// ValidateFile validates a file upload against one or more constraint sets.
// The file must match at least one; the first match wins.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) (*Detected, error) {
	if len(constraints) == 0 {
		return nil, fmt.Errorf("no file constraints provided")
	}

	detectedType, err := sniff(header)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header.Size, detectedType, ext, constraint)
		if err == nil {
			return &Detected{Kind: constraint.Kind, MimeType: detectedType}, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// sniff reads the magic number of the upload. Content-Type headers are ignored.
func sniff(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	// Drop parameters such as "; charset=utf-8"
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	return detected, nil
}

func validateAgainstConstraint(size int64, detectedType, ext string, constraints FileConstraints) error {
	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	if !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %s", ext)
	}

	if size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, maxMB)
	}

	return nil
}
