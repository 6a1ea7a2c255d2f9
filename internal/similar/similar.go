// Package similar finds wardrobe items resembling a shopping query, so a user
// can spot duplicates before buying.
package similar

import (
	"strings"

	"github.com/erazemk/omara/internal/model"
)

// Find returns the items matching query in their original order. The query
// is split into lower-cased words; an item matches when any word occurs in
// its name, color, material or category. A blank query matches nothing.
func Find(query string, items []model.Item) []model.Item {
	tokens := strings.Fields(strings.ToLower(query))
	out := []model.Item{}
	if len(tokens) == 0 {
		return out
	}

	for _, item := range items {
		if matches(item, tokens) {
			out = append(out, item.Clone())
		}
	}
	return out
}

func matches(item model.Item, tokens []string) bool {
	haystack := strings.ToLower(strings.Join([]string{item.Name, item.Color, item.Material, item.Category}, " "))
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}
