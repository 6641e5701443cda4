package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
)

// Images above this size are linked instead of inlined.
const maxInlineImageSize = 5 << 20

const defaultImageTimeout = 5 * time.Second

const (
	blockImage   = "image"
	blockLink    = "link"
	blockMissing = "missing"
)

// MediaBlock is a media item prepared for the template.
type MediaBlock struct {
	Kind  string
	Type  string
	Label string
	Src   template.URL
	Href  string
}

func (s *Service) resolveMedia(ctx context.Context, userID string, items []model.MediaItem) []MediaBlock {
	blocks := make([]MediaBlock, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, s.resolveItem(ctx, userID, item))
	}
	return blocks
}

func (s *Service) resolveItem(ctx context.Context, userID string, item model.MediaItem) MediaBlock {
	mediaType := item.Type
	if mediaType == "" {
		mediaType = model.MediaTypeLink
	}
	block := MediaBlock{Kind: blockMissing, Type: mediaType, Label: mediaLabel(item)}

	filename, local := s.uploadFilename(item.URL)
	if local {
		block.Href = s.absoluteURL("/uploads/" + filename)
		if mediaType != model.MediaTypeImage {
			block.Kind = blockLink
			return block
		}
		src, ok := s.inlineImage(userID, filename)
		if !ok {
			return block
		}
		block.Kind = blockImage
		block.Src = src
		return block
	}

	u, err := url.Parse(item.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		slog.Debug("export skipping media with unusable url", "url", item.URL, "user_id", userID)
		return block
	}

	block.Href = u.String()
	if mediaType == model.MediaTypeImage {
		src, err := s.fetchImage(ctx, u.String())
		if err != nil {
			slog.Warn("export remote image unavailable", "error", err, "url", u.String(), "user_id", userID)
			return block
		}
		block.Kind = blockImage
		block.Src = src
		return block
	}
	block.Kind = blockLink
	return block
}

// uploadFilename reports whether a media URL points at our own /uploads route.
func (s *Service) uploadFilename(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	rest := raw
	if base := strings.TrimRight(s.opts.AppURL, "/"); base != "" && strings.HasPrefix(rest, base+"/") {
		rest = strings.TrimPrefix(rest, base)
	}
	if !strings.HasPrefix(rest, "/uploads/") {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	name := path.Base(rest)
	if name == "." || name == "/" || name == "uploads" {
		return "", false
	}
	return name, true
}

// inlineImage reads an uploaded image owned by the user into a data URI.
func (s *Service) inlineImage(userID, filename string) (template.URL, bool) {
	if s.files == nil || s.storage == nil {
		return "", false
	}

	file, err := s.files.ByFilename(filename)
	if err != nil {
		slog.Warn("export media record unavailable", "error", err, "filename", filename, "user_id", userID)
		return "", false
	}
	if file.UserID != userID && !file.Public {
		return "", false
	}
	if file.Size > maxInlineImageSize || !strings.HasPrefix(file.MimeType, "image/") {
		return "", false
	}

	rc, err := s.storage.Open(file.StoragePath)
	if err != nil {
		slog.Warn("export media unreadable", "error", err, "filename", filename, "user_id", userID)
		return "", false
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxInlineImageSize+1))
	if err != nil || len(data) == 0 || len(data) > maxInlineImageSize {
		return "", false
	}

	return template.URL("data:" + file.MimeType + ";base64," + base64.StdEncoding.EncodeToString(data)), true
}

// fetchImage downloads a remote image into a data URI within the image timeout.
func (s *Service) fetchImage(ctx context.Context, rawURL string) (template.URL, error) {
	timeout := s.opts.ImageTimeout
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxInlineImageSize {
		return "", fmt.Errorf("image is %d bytes", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineImageSize+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 || len(data) > maxInlineImageSize {
		return "", fmt.Errorf("image size %d out of range", len(data))
	}

	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("not an image: %s", mimeType)
	}

	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

func (s *Service) absoluteURL(p string) string {
	return strings.TrimRight(s.opts.AppURL, "/") + p
}

func mediaLabel(item model.MediaItem) string {
	if item.Name != "" {
		return item.Name
	}
	if item.URL != "" {
		return path.Base(item.URL)
	}
	return item.Type
}
