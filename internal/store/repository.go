package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/omara/internal/wardrobe"
)

// Repository stores wardrobes in SQLite, one row per item. Each user's save
// runs in its own transaction, so concurrent users never overwrite each
// other's wardrobes.
type Repository struct {
	DB *sql.DB
}

var _ wardrobe.Repository = (*Repository)(nil)

// NewRepository wraps an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// LoadDatabase returns every stored wardrobe.
func (r *Repository) LoadDatabase(ctx context.Context) (wardrobe.Database, error) {
	names, err := ListWardrobes(ctx, r.DB)
	if err != nil {
		return nil, err
	}

	db := wardrobe.Database{}
	for _, name := range names {
		items, _, err := GetWardrobeItems(ctx, r.DB, name)
		if err != nil {
			return nil, fmt.Errorf("loading wardrobe %q: %w", name, err)
		}
		db[name] = items
	}
	return db, nil
}

// SaveDatabase replaces all stored wardrobes with db.
func (r *Repository) SaveDatabase(ctx context.Context, db wardrobe.Database) error {
	return ReplaceAllWardrobes(ctx, r.DB, db)
}

// LoadUserStore returns one user's wardrobe.
func (r *Repository) LoadUserStore(ctx context.Context, name string) (*wardrobe.Store, bool, error) {
	items, found, err := GetWardrobeItems(ctx, r.DB, name)
	if err != nil {
		return nil, false, err
	}
	return wardrobe.StoreFromItems(items), found, nil
}

// SaveUserStore replaces one user's wardrobe.
func (r *Repository) SaveUserStore(ctx context.Context, name string, s *wardrobe.Store) error {
	return ReplaceWardrobeItems(ctx, r.DB, name, s.All())
}
