package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Item represents one owned garment.
type Item struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Color     string   `json:"color"`
	Material  string   `json:"material"`
	ImagePath string   `json:"imagePath,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Item categories.
const (
	CategoryTop       = "top"
	CategoryBottom    = "bottom"
	CategoryOuterwear = "outerwear"
	CategoryAccessory = "accessory"
	CategoryFootwear  = "footwear"
)

// Categories lists the accepted categories in display order.
var Categories = []string{
	CategoryTop,
	CategoryBottom,
	CategoryOuterwear,
	CategoryAccessory,
	CategoryFootwear,
}

// Materials offered to clients when creating an item. Material is free text,
// so anything else is accepted as well.
var Materials = []string{
	"cotton",
	"linen",
	"chiffon",
	"moisture-wicking",
	"polyester",
	"denim",
	"wool",
	"down",
	"fleece",
	"leather",
}

// MaxNameLength is the maximum item name length in runes.
const MaxNameLength = 100

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims whitespace from the free-text fields and lower-cases the
// category.
func (i *Item) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.Category = strings.ToLower(strings.TrimSpace(i.Category))
	i.Color = strings.TrimSpace(i.Color)
	i.Material = strings.TrimSpace(i.Material)

	var tags []string
	for _, t := range i.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	i.Tags = tags
}

// ValidateItem checks the fields a user must supply before an item is stored.
func ValidateItem(i Item) error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Message: "name required"}
	}
	if utf8.RuneCountInString(i.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	if !ValidCategory(i.Category) {
		return &ValidationError{Field: "category", Message: "category must be one of " + strings.Join(Categories, ", ")}
	}
	return nil
}

// Clone returns a copy that shares no slices with i.
func (i Item) Clone() Item {
	if i.Tags != nil {
		i.Tags = append([]string(nil), i.Tags...)
	}
	return i
}

// String formats the item for log lines.
func (i Item) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Material)
}
