// Package document persists all wardrobes as a single JSON file mapping a
// user name to that user's items.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

// File is a JSON document repository. All read-modify-write cycles inside
// one process are serialised, and every save replaces the file atomically.
type File struct {
	path string
	mu   sync.Mutex
}

var _ wardrobe.Repository = (*File)(nil)

// Open returns a repository backed by the JSON file at path. The file does
// not need to exist yet; its directory is created on first save.
func Open(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// LoadDatabase reads the whole document. A missing or corrupt document is
// treated as empty.
func (f *File) LoadDatabase(ctx context.Context) (wardrobe.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// SaveDatabase replaces the whole document.
func (f *File) SaveDatabase(ctx context.Context, db wardrobe.Database) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(db)
}

// LoadUserStore returns one user's wardrobe.
func (f *File) LoadUserStore(ctx context.Context, name string) (*wardrobe.Store, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	db, err := f.load()
	if err != nil {
		return nil, false, err
	}
	items, ok := db[name]
	return wardrobe.StoreFromItems(items), ok, nil
}

// SaveUserStore re-reads the document and replaces one user's entry while
// holding the lock, so saves for different users never overwrite each other.
func (f *File) SaveUserStore(ctx context.Context, name string, s *wardrobe.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	db, err := f.load()
	if err != nil {
		return err
	}
	db[name] = s.All()
	return f.save(db)
}

func (f *File) load() (wardrobe.Database, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return wardrobe.Database{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading wardrobe document: %w", err)
	}

	db, err := decode(data)
	if err != nil {
		f.quarantine(err)
		return wardrobe.Database{}, nil
	}
	return db, nil
}

// Read parses the document at path without touching it. Unlike the
// repository, a malformed document is an error, so an import never
// silently succeeds on a damaged file.
func Read(path string) (wardrobe.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wardrobe document: %w", err)
	}
	db, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return db, nil
}

// decode parses a document. Blank input and a JSON null are an empty
// database; the result is never nil.
func decode(data []byte) (wardrobe.Database, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return wardrobe.Database{}, nil
	}

	var db wardrobe.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if db == nil {
		db = wardrobe.Database{}
	}

	for name, items := range db {
		if items == nil {
			db[name] = []model.Item{}
		}
	}
	return db, nil
}

// quarantine moves a corrupt document aside so the next save does not
// destroy what may still be recoverable by hand.
func (f *File) quarantine(cause error) {
	aside := fmt.Sprintf("%s.corrupt-%d", f.path, time.Now().Unix())
	if err := os.Rename(f.path, aside); err != nil {
		slog.Warn("wardrobe document is corrupt, treating as empty", "path", f.path, "error", cause, "rename_error", err)
		return
	}
	slog.Warn("wardrobe document is corrupt, treating as empty", "path", f.path, "error", cause, "moved_to", aside)
}

func (f *File) save(db wardrobe.Database) error {
	if db == nil {
		db = wardrobe.Database{}
	}
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding wardrobe document: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp document: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting document permissions: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing wardrobe document: %w", err)
	}
	return nil
}
