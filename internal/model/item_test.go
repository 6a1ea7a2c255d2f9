package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidCategory(t *testing.T) {
	tests := []struct {
		category string
		expected bool
	}{
		{CategoryTop, true},
		{CategoryBottom, true},
		{CategoryOuterwear, true},
		{CategoryAccessory, true},
		{CategoryFootwear, true},
		// Unknown categories fail-closed.
		{"hat", false},
		{"Top", false},
		{"", false},
	}

	for _, tt := range tests {
		got := ValidCategory(tt.category)
		if got != tt.expected {
			t.Errorf("ValidCategory(%q) = %v, want %v", tt.category, got, tt.expected)
		}
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		item      Item
		wantField string
	}{
		{Item{Name: "white t-shirt", Category: CategoryTop}, ""},
		{Item{Name: "", Category: CategoryTop}, "name"},
		{Item{Name: "   ", Category: CategoryTop}, "name"},
		{Item{Name: strings.Repeat("a", MaxNameLength+1), Category: CategoryTop}, "name"},
		{Item{Name: "scarf", Category: "hat"}, "category"},
		{Item{Name: "scarf", Category: ""}, "category"},
	}

	for _, tt := range tests {
		err := ValidateItem(tt.item)
		if tt.wantField == "" {
			if err != nil {
				t.Errorf("ValidateItem(%+v) unexpected error: %v", tt.item, err)
			}
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ValidateItem(%+v) expected *ValidationError, got %v", tt.item, err)
			continue
		}
		if verr.Field != tt.wantField {
			t.Errorf("ValidateItem(%+v) field = %q, want %q", tt.item, verr.Field, tt.wantField)
		}
	}
}

func TestNormalize(t *testing.T) {
	item := Item{
		Name:     "  linen shirt ",
		Category: " TOP ",
		Color:    " beige",
		Material: "linen ",
		Tags:     []string{" casual", "", "  "},
	}
	item.Normalize()

	if item.Name != "linen shirt" || item.Category != CategoryTop || item.Color != "beige" || item.Material != "linen" {
		t.Errorf("unexpected normalized item: %+v", item)
	}
	if len(item.Tags) != 1 || item.Tags[0] != "casual" {
		t.Errorf("expected tags [casual], got %v", item.Tags)
	}
}

func TestCloneDoesNotShareTags(t *testing.T) {
	item := Item{Name: "jeans", Category: CategoryBottom, Tags: []string{"basic"}}
	clone := item.Clone()
	clone.Tags[0] = "changed"

	if item.Tags[0] != "basic" {
		t.Errorf("clone modified original tags: %v", item.Tags)
	}
}
