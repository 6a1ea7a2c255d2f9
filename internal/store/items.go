package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/omara/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListWardrobes returns the names of all stored wardrobes.
func ListWardrobes(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM wardrobes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing wardrobes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning wardrobe: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetWardrobeItems returns a wardrobe's items in position order. The bool is
// false when the wardrobe does not exist.
func GetWardrobeItems(ctx context.Context, db *sql.DB, name string) ([]model.Item, bool, error) {
	return getWardrobeItems(ctx, db, name)
}

func getWardrobeItems(ctx context.Context, q queryer, name string) ([]model.Item, bool, error) {
	var exists int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wardrobes WHERE name = ?`, name,
	).Scan(&exists)
	if err != nil {
		return nil, false, fmt.Errorf("checking wardrobe: %w", err)
	}
	if exists == 0 {
		return []model.Item{}, false, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, category, color, material, image_path, tags
		 FROM items WHERE wardrobe = ? ORDER BY position`, name,
	)
	if err != nil {
		return nil, false, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		var imagePath, tags sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Color, &item.Material, &imagePath, &tags); err != nil {
			return nil, false, fmt.Errorf("scanning item: %w", err)
		}
		item.ImagePath = imagePath.String
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &item.Tags); err != nil {
				return nil, false, fmt.Errorf("decoding tags for item %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, true, rows.Err()
}

// ReplaceWardrobeItems stores items as the complete contents of one wardrobe,
// creating the wardrobe if needed. Other wardrobes are not touched.
func ReplaceWardrobeItems(ctx context.Context, db *sql.DB, name string, items []model.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceWardrobeItems(ctx, tx, name, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wardrobe: %w", err)
	}
	return nil
}

func replaceWardrobeItems(ctx context.Context, q queryer, name string, items []model.Item) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO wardrobes (name) VALUES (?)
		 ON CONFLICT (name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`,
		name,
	)
	if err != nil {
		return fmt.Errorf("upserting wardrobe: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE wardrobe = ?`, name); err != nil {
		return fmt.Errorf("clearing wardrobe items: %w", err)
	}

	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		var imagePath, tags sql.NullString
		if item.ImagePath != "" {
			imagePath = sql.NullString{String: item.ImagePath, Valid: true}
		}
		if len(item.Tags) > 0 {
			encoded, err := json.Marshal(item.Tags)
			if err != nil {
				return fmt.Errorf("encoding tags: %w", err)
			}
			tags = sql.NullString{String: string(encoded), Valid: true}
		}

		_, err := q.ExecContext(ctx,
			`INSERT INTO items (id, wardrobe, position, name, category, color, material, image_path, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, name, i, item.Name, item.Category, item.Color, item.Material, imagePath, tags,
		)
		if err != nil {
			return fmt.Errorf("inserting item %q: %w", item.Name, err)
		}
	}
	return nil
}

// ReplaceAllWardrobes makes the database hold exactly the given wardrobes.
func ReplaceAllWardrobes(ctx context.Context, db *sql.DB, wardrobes map[string][]model.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM wardrobes`); err != nil {
		return fmt.Errorf("clearing wardrobes: %w", err)
	}

	for name, items := range wardrobes {
		if err := replaceWardrobeItems(ctx, tx, name, items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wardrobes: %w", err)
	}
	return nil
}
