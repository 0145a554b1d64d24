// Package upload stores question images uploaded through multipart forms.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// PublicPrefix is the URL path prefix under which stored images are served.
const PublicPrefix = "uploads"

// sniffLen is the number of leading bytes used for content type detection.
const sniffLen = 512

var (
	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = errors.New("image too large")
	// ErrImageTypeNotAllowed is returned when an upload is not one of the
	// accepted image content types.
	ErrImageTypeNotAllowed = errors.New("image type not allowed")
)

// Saver writes uploaded images into a content directory. File names are
// generated with xid so concurrent uploads never collide.
type Saver struct {
	dir          string
	maxBytes     int64
	allowedTypes map[string]struct{}
}

// NewSaver initializes a Saver over dir, creating the directory if needed.
func NewSaver(dir string, maxBytes int64, allowedTypes []string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir %s: %w", dir, err)
	}

	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	return &Saver{dir: dir, maxBytes: maxBytes, allowedTypes: allowed}, nil
}

// Dir returns the directory the Saver writes into.
func (s *Saver) Dir() string {
	return s.dir
}

// Save stores the uploaded file and returns its public relative path
// (PublicPrefix/<name>). The content type is sniffed from the file contents,
// not taken from the request header.
func (s *Saver) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, fh.Size, s.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if _, ok := s.allowedTypes[contentType]; !ok {
		return "", fmt.Errorf("%w: %q", ErrImageTypeNotAllowed, contentType)
	}

	name := xid.New().String() + safeExt(fh.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	_, err = io.Copy(dst, io.MultiReader(bytes.NewReader(head), src))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst.Name())

		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return path.Join(PublicPrefix, name), nil
}

// safeExt returns the lowercased extension of the client-supplied filename,
// stripped of any path components. Unknown extensions are dropped entirely.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ""
	}
}
