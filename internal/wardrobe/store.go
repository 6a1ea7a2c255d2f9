// Package wardrobe holds one user's ordered collection of clothing items and
// the persistence contract for all users' wardrobes.
package wardrobe

import (
	"errors"

	"github.com/google/uuid"

	"github.com/erazemk/omara/internal/model"
)

var (
	// ErrNotFound is returned when an item ID no longer exists in the store.
	ErrNotFound = errors.New("item no longer exists")

	// ErrOutOfRange is returned when a position no longer refers to an item.
	ErrOutOfRange = errors.New("item index out of range")
)

// ItemFields is a partial item update. Nil fields are left unchanged.
type ItemFields struct {
	Name      *string   `json:"name,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Color     *string   `json:"color,omitempty"`
	Material  *string   `json:"material,omitempty"`
	ImagePath *string   `json:"imagePath,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// apply returns item with the non-nil fields overwritten.
func (f ItemFields) apply(item model.Item) model.Item {
	if f.Name != nil {
		item.Name = *f.Name
	}
	if f.Category != nil {
		item.Category = *f.Category
	}
	if f.Color != nil {
		item.Color = *f.Color
	}
	if f.Material != nil {
		item.Material = *f.Material
	}
	if f.ImagePath != nil {
		item.ImagePath = *f.ImagePath
	}
	if f.Tags != nil {
		item.Tags = append([]string(nil), (*f.Tags)...)
	}
	return item
}

// Store is an insertion-ordered collection of one user's items. It is not
// safe for concurrent use; callers serialise access (see session.Session).
type Store struct {
	items []model.Item
}

// NewStore creates a store holding copies of items in the given order.
// Items without an ID are assigned one.
func NewStore(items ...model.Item) *Store {
	s := &Store{items: make([]model.Item, 0, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add appends an item and returns the stored copy.
func (s *Store) Add(item model.Item) model.Item {
	item = item.Clone()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items = append(s.items, item)
	return item.Clone()
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// All returns copies of all items in insertion order.
func (s *Store) All() []model.Item {
	out := make([]model.Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// ByCategory returns the items of one category in insertion order. Unknown
// categories yield an empty result.
func (s *Store) ByCategory(category string) []model.Item {
	out := []model.Item{}
	if !model.ValidCategory(category) {
		return out
	}
	for _, item := range s.items {
		if item.Category == category {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Get returns the item with the given ID.
func (s *Store) Get(id string) (model.Item, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	return s.items[i].Clone(), nil
}

// Update applies fields to the item with the given ID. The merged item is
// validated first; on error the store is unchanged.
func (s *Store) Update(id string, fields ItemFields) (model.Item, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	return s.UpdateAt(i, fields)
}

// UpdateAt applies fields to the item at position index.
func (s *Store) UpdateAt(index int, fields ItemFields) (model.Item, error) {
	if index < 0 || index >= len(s.items) {
		return model.Item{}, ErrOutOfRange
	}

	updated := fields.apply(s.items[index].Clone())
	updated.Normalize()
	if err := model.ValidateItem(updated); err != nil {
		return model.Item{}, err
	}

	s.items[index] = updated
	return updated.Clone(), nil
}

// Remove deletes the item with the given ID and returns it.
func (s *Store) Remove(id string) (model.Item, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	return s.RemoveAt(i)
}

// RemoveAt deletes the item at position index, preserving the order of the
// remaining items.
func (s *Store) RemoveAt(index int) (model.Item, error) {
	if index < 0 || index >= len(s.items) {
		return model.Item{}, ErrOutOfRange
	}
	removed := s.items[index]
	s.items = append(s.items[:index:index], s.items[index+1:]...)
	return removed, nil
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	return &Store{items: s.All()}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Defaults returns the items seeded into a wardrobe on first login.
func Defaults() []model.Item {
	return []model.Item{
		{Name: "white t-shirt", Category: model.CategoryTop, Color: "white", Material: "cotton", Tags: []string{"casual"}},
		{Name: "wide-leg jeans", Category: model.CategoryBottom, Color: "blue", Material: "denim", Tags: []string{"basic"}},
		{Name: "wool coat", Category: model.CategoryOuterwear, Color: "camel", Material: "wool", Tags: []string{"elegant"}},
	}
}
