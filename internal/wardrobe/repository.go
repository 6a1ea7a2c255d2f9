package wardrobe

import (
	"context"

	"github.com/erazemk/omara/internal/model"
)

// Database maps a user name to that user's items in display order.
type Database map[string][]model.Item

// Repository persists all users' wardrobes.
type Repository interface {
	// LoadDatabase returns every user's wardrobe.
	LoadDatabase(ctx context.Context) (Database, error)

	// SaveDatabase replaces every stored wardrobe with db.
	SaveDatabase(ctx context.Context, db Database) error

	// LoadUserStore returns the user's wardrobe. The bool is false, and the
	// store empty, when the user has never been saved.
	LoadUserStore(ctx context.Context, name string) (*Store, bool, error)

	// SaveUserStore replaces one user's wardrobe without touching others.
	SaveUserStore(ctx context.Context, name string, s *Store) error
}

// StoreFromItems builds a store from persisted items. Items missing an ID
// (written before IDs existed) are assigned one.
func StoreFromItems(items []model.Item) *Store {
	return NewStore(items...)
}
