package document

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "wardrobe.json"))
}

func TestLoadMissingDocument(t *testing.T) {
	f := newTestFile(t)

	db, err := f.LoadDatabase(context.Background())
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if len(db) != 0 {
		t.Errorf("expected empty database, got %d users", len(db))
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	f := newTestFile(t)
	if err := os.WriteFile(f.Path(), []byte(`{"alice": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := f.LoadDatabase(context.Background())
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if len(db) != 0 {
		t.Errorf("expected empty database for corrupt document, got %v", db)
	}

	// The corrupt file is moved aside rather than overwritten.
	matches, _ := filepath.Glob(f.Path() + ".corrupt-*")
	if len(matches) != 1 {
		t.Errorf("expected one quarantined file, got %v", matches)
	}
}

func TestLoadNullDocument(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()
	if err := os.WriteFile(f.Path(), []byte("null\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := f.LoadDatabase(ctx)
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if db == nil || len(db) != 0 {
		t.Errorf("expected empty non-nil database, got %#v", db)
	}

	if err := f.SaveUserStore(ctx, "alice", wardrobe.NewStore(wardrobe.Defaults()...)); err != nil {
		t.Fatalf("SaveUserStore: %v", err)
	}
	s, found, err := f.LoadUserStore(ctx, "alice")
	if err != nil || !found || s.Len() != len(wardrobe.Defaults()) {
		t.Errorf("LoadUserStore = %v, %v; want %d items", found, err, len(wardrobe.Defaults()))
	}
}

func TestReadRejectsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	if err := os.WriteFile(path, []byte(`{"alice": [ {"name": "x",`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected source file left in place: %v", err)
	}
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 0 {
		t.Errorf("expected no quarantined copy, got %v", matches)
	}
}

func TestReadNullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	os.WriteFile(path, []byte("null"), 0o644)

	db, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if db == nil || len(db) != 0 {
		t.Errorf("expected empty non-nil database, got %#v", db)
	}
}

func TestUserStoreRoundTrip(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	s := wardrobe.NewStore(
		model.Item{Name: "white t-shirt", Category: model.CategoryTop, Color: "white", Material: "cotton", ImagePath: "images/a.jpg"},
		model.Item{Name: "jeans", Category: model.CategoryBottom, Color: "blue", Material: "denim"},
		model.Item{Name: "wool coat", Category: model.CategoryOuterwear, Color: "camel", Material: "wool", Tags: []string{"elegant"}},
	)

	if err := f.SaveUserStore(ctx, "alice", s); err != nil {
		t.Fatalf("SaveUserStore: %v", err)
	}

	loaded, found, err := f.LoadUserStore(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadUserStore: %v", err)
	}
	if !found {
		t.Fatal("expected user to be found")
	}
	if !reflect.DeepEqual(loaded.All(), s.All()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded.All(), s.All())
	}
}

func TestLoadUnknownUser(t *testing.T) {
	f := newTestFile(t)

	s, found, err := f.LoadUserStore(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadUserStore: %v", err)
	}
	if found {
		t.Error("expected unknown user not to be found")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d items", s.Len())
	}
}

func TestLoadDatabaseIdempotent(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	f.SaveUserStore(ctx, "alice", wardrobe.NewStore(wardrobe.Defaults()...))
	f.SaveUserStore(ctx, "bob", wardrobe.NewStore())

	first, err := f.LoadDatabase(ctx)
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	second, err := f.LoadDatabase(ctx)
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected equal documents, got %v and %v", first, second)
	}
}

func TestLegacyDocumentWithoutIDsOrImagePath(t *testing.T) {
	f := newTestFile(t)
	legacy := `{"alice": [{"name": "linen shirt", "category": "top", "color": "beige", "material": "linen"}]}`
	if err := os.WriteFile(f.Path(), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s, found, err := f.LoadUserStore(context.Background(), "alice")
	if err != nil || !found {
		t.Fatalf("LoadUserStore: found=%v err=%v", found, err)
	}
	item := s.All()[0]
	if item.ID == "" {
		t.Error("expected an ID to be assigned to a legacy item")
	}
	if item.ImagePath != "" {
		t.Errorf("expected absent imagePath, got %q", item.ImagePath)
	}
}

func TestSaveUserStoreKeepsOtherUsers(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s := wardrobe.NewStore(model.Item{Name: name + " shirt", Category: model.CategoryTop})
			if err := f.SaveUserStore(ctx, name, s); err != nil {
				t.Errorf("SaveUserStore(%s): %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	db, err := f.LoadDatabase(ctx)
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if len(db) != 4 {
		t.Errorf("expected 4 users after concurrent saves, got %d", len(db))
	}
}

func TestSaveDatabaseWritesDocumentFormat(t *testing.T) {
	f := newTestFile(t)
	db := wardrobe.Database{
		"alice": {{ID: "1", Name: "jeans", Category: model.CategoryBottom, Color: "blue", Material: "denim"}},
	}
	if err := f.SaveDatabase(context.Background(), db); err != nil {
		t.Fatalf("SaveDatabase: %v", err)
	}

	data, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "imagePath") {
		t.Errorf("absent imagePath should be omitted, got %s", data)
	}
	if !strings.Contains(string(data), `"alice"`) {
		t.Errorf("expected user key in document, got %s", data)
	}
}
