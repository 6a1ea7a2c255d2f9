// Package assets stores uploaded item photos on disk under generated names.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an asset name is invalid or the file is gone.
var ErrNotFound = errors.New("image not found")

// PathPrefix is prepended to asset IDs in stored item records.
const PathPrefix = "images/"

//go:embed placeholder.svg
var placeholder []byte

// PlaceholderMIME is the content type of Placeholder.
const PlaceholderMIME = "image/svg+xml"

var extensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
}

// Manager reads and writes image assets in one directory.
type Manager struct {
	dir string
}

// New returns a manager rooted at dir, creating the directory if needed.
func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the directory assets are written to.
func (m *Manager) Dir() string {
	return m.dir
}

// Store writes data under a fresh asset ID with the given extension and
// returns the ID.
func (m *Manager) Store(data []byte, ext string) (string, error) {
	norm, ok := extensions[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
	id := uuid.NewString() + norm

	tmp, err := os.CreateTemp(m.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp image: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing image: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("setting image permissions: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(m.dir, id)); err != nil {
		return "", fmt.Errorf("renaming image: %w", err)
	}
	return id, nil
}

// Path returns the relative path recorded in an item's imagePath.
func (m *Manager) Path(id string) string {
	return PathPrefix + id
}

// Resolve reads an asset given its ID or its stored relative path.
func (m *Manager) Resolve(idOrPath string) ([]byte, string, error) {
	id, ok := parseID(idOrPath)
	if !ok {
		return nil, "", ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(m.dir, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", id, err)
	}

	ctype := mime.TypeByExtension(path.Ext(id))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return data, ctype, nil
}

// Delete removes an asset. A missing file is not an error.
func (m *Manager) Delete(idOrPath string) error {
	id, ok := parseID(idOrPath)
	if !ok {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(m.dir, id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting image %s: %w", id, err)
	}
	return nil
}

// Placeholder returns the image shown for items whose photo is missing.
func Placeholder() ([]byte, string) {
	return placeholder, PlaceholderMIME
}

// parseID accepts "<uuid><ext>" or "images/<uuid><ext>" and rejects anything
// else, including traversal attempts.
func parseID(s string) (string, bool) {
	s = strings.TrimPrefix(s, PathPrefix)
	if strings.ContainsAny(s, `/\`) {
		return "", false
	}
	ext := path.Ext(s)
	if _, ok := extensions[ext]; !ok {
		return "", false
	}
	if _, err := uuid.Parse(strings.TrimSuffix(s, ext)); err != nil {
		return "", false
	}
	return s, true
}
