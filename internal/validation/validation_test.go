package validation

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidateFileSniffsContent(t *testing.T) {
	header := fileHeader(t, "photo.png", pngHeader)
	detected, err := ValidateFile(header, ImageConstraints, AudioConstraints)
	require.NoError(t, err)
	assert.Equal(t, "image", detected.Kind)
	assert.Equal(t, "image/png", detected.MimeType)
}

func TestValidateFileRejectsSpoofedExtension(t *testing.T) {
	header := fileHeader(t, "photo.png", []byte("#!/bin/sh\necho not an image\n"))
	_, err := ValidateFile(header, ImageConstraints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file type")
}

func TestValidateFileRejectsWrongExtension(t *testing.T) {
	header := fileHeader(t, "photo.exe", pngHeader)
	_, err := ValidateFile(header, ImageConstraints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file extension")
}

func TestValidateFileTooLarge(t *testing.T) {
	small := ImageConstraints
	small.MaxSize = 4
	header := fileHeader(t, "photo.png", pngHeader)
	_, err := ValidateFile(header, small)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestValidatePDF(t *testing.T) {
	header := fileHeader(t, "notes.pdf", []byte("%PDF-1.7\n%âãÏÓ\n"))
	detected, err := ValidateFile(header, ImageConstraints, DocumentConstraints)
	require.NoError(t, err)
	assert.Equal(t, "document", detected.Kind)
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("Password1"), ErrCommonPassword)
	assert.ErrorIs(t, ValidatePassword(string(bytes.Repeat([]byte("a"), 73))), ErrPasswordTooLong)
	assert.NoError(t, ValidatePassword("correct horse battery"))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ada.lovelace_1"))
	assert.ErrorIs(t, ValidateUsername("ab"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("has space"), ErrInvalidUsername)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail("Ada <ada@example.com>"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Run", 200))
	assert.Error(t, ValidateTitle("   ", 200))
	assert.Error(t, ValidateTitle("toolong", 3))
}
