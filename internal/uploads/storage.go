// Package uploads manages the on-disk attachment store for materials.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/id"
)

// allowedMimeTypes is the upload allowlist: documents, slides, and images.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-powerpoint":                                           true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"image/jpeg": true,
	"image/png":  true,
}

const maxOriginalNameLength = 255

// SavedFile describes a stored upload.
type SavedFile struct {
	StoredName   string // Random on-disk name
	OriginalName string // Cleaned client-supplied name, for display and download
	URLPath      string // Server-relative retrieval path
	Size         int64
	MimeType     string
}

// Storage writes uploads under a single directory with random names.
// Thread-safe: concurrent saves never collide because names are random.
type Storage struct {
	dir     string
	maxSize int64
}

// NewStorage creates the uploads directory if needed.
func NewStorage(dir string, maxSize int64) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Storage{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the root uploads directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Allowed reports whether the MIME type is accepted for upload.
func Allowed(mimeType string) bool {
	return allowedMimeTypes[mimeType]
}

// Save streams an upload to disk under a random name, enforcing the MIME
// allowlist and size cap. The partial file is removed on any failure.
func (s *Storage) Save(originalName, mimeType string, r io.Reader) (*SavedFile, error) {
	if !Allowed(mimeType) {
		return nil, errors.Validationf("file type %q is not allowed", mimeType)
	}

	storedName, err := id.StoredFileName(originalName)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, storedName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	// Read one byte past the cap to distinguish "exactly at" from "over".
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return nil, errors.Validationf("file exceeds the %d byte limit", s.maxSize)
	}

	return &SavedFile{
		StoredName:   storedName,
		OriginalName: CleanOriginalName(originalName),
		URLPath:      "/uploads/" + storedName,
		Size:         written,
		MimeType:     mimeType,
	}, nil
}

// Path resolves a stored name to its absolute path, rejecting anything that
// would escape the uploads directory.
func (s *Storage) Path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", errors.Validation("invalid file name")
	}
	return filepath.Join(s.dir, storedName), nil
}

// Delete removes a stored file. Missing files are not an error; the row is
// what matters and orphan cleanup must stay idempotent.
func (s *Storage) Delete(storedName string) error {
	path, err := s.Path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// CleanOriginalName makes a client-supplied filename safe for display and
// Content-Disposition: base name only, control characters stripped,
// length-capped. Falls back to "file" when nothing survives.
func CleanOriginalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '"' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	if len(name) > maxOriginalNameLength {
		runes := []rune(name)
		if len(runes) > maxOriginalNameLength {
			name = string(runes[len(runes)-maxOriginalNameLength:])
		}
	}
	return name
}
