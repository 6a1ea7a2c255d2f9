package recommend

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/erazemk/omara/internal/model"
)

func seeded() *Recommender {
	return New(rand.New(rand.NewPCG(1, 2)))
}

func item(name, category, material string) model.Item {
	return model.Item{ID: name, Name: name, Category: category, Material: material}
}

func TestSuitable(t *testing.T) {
	tests := []struct {
		name     string
		item     model.Item
		celsius  float64
		suitable bool
	}{
		{"cotton top hot", item("t", model.CategoryTop, "cotton"), 30, true},
		{"wool top hot", item("t", model.CategoryTop, "wool"), 30, false},
		{"linen outerwear hot", item("o", model.CategoryOuterwear, "linen"), 30, false},
		{"band edge 28 is hot", item("t", model.CategoryTop, "wool"), 28, false},
		{"band edge 27.9 is comfortable", item("t", model.CategoryTop, "wool"), 27.9, true},
		{"down comfortable", item("o", model.CategoryOuterwear, "down"), 22, false},
		{"fleece comfortable", item("t", model.CategoryTop, "fleece"), 20, false},
		{"silk comfortable", item("t", model.CategoryTop, "silk"), 20, true},
		{"linen cool", item("t", model.CategoryTop, "linen"), 15, false},
		{"chiffon cool", item("t", model.CategoryTop, "chiffon"), 19.5, false},
		{"down cool", item("o", model.CategoryOuterwear, "down"), 15, true},
		{"wool cold", item("o", model.CategoryOuterwear, "wool"), 14.9, true},
		{"polyester cold", item("b", model.CategoryBottom, "polyester"), 5, false},
		{"material case", item("t", model.CategoryTop, " Cotton "), 30, true},
		{"empty material cold", item("t", model.CategoryTop, ""), 0, false},
		{"empty material comfortable", item("t", model.CategoryTop, ""), 22, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suitable(tt.item, tt.celsius); got != tt.suitable {
				t.Errorf("Suitable(%v, %v) = %v, want %v", tt.item, tt.celsius, got, tt.suitable)
			}
		})
	}
}

func TestEligibleSingleItem(t *testing.T) {
	if got := Eligible([]model.Item{item("t", model.CategoryTop, "cotton")}, 30); len(got) != 1 {
		t.Errorf("expected cotton top eligible at 30, got %v", got)
	}

	_, err := seeded().Recommend([]model.Item{item("t", model.CategoryTop, "wool")}, 30)
	if !errors.Is(err, ErrNoCombination) {
		t.Errorf("expected ErrNoCombination, got %v", err)
	}
}

func TestRecommendNoOuterwearWhenHot(t *testing.T) {
	items := []model.Item{
		item("tee", model.CategoryTop, "cotton"),
		item("jeans", model.CategoryBottom, "denim"),
		item("rain jacket", model.CategoryOuterwear, "polyester"),
	}
	r := seeded()
	for i := 0; i < 50; i++ {
		outfit, err := r.Recommend(items, 31)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if outfit.Outerwear != nil {
			t.Fatalf("expected no outerwear at 31, got %v", outfit.Outerwear)
		}
	}
}

func TestRecommendNoOuterwearWhenComfortable(t *testing.T) {
	items := []model.Item{
		item("tee", model.CategoryTop, "cotton"),
		item("jeans", model.CategoryBottom, "denim"),
		item("blazer", model.CategoryOuterwear, "wool"),
	}
	outfit, err := seeded().Recommend(items, 24)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if outfit.Outerwear != nil {
		t.Errorf("expected no outerwear at 24, got %v", outfit.Outerwear)
	}
}

func TestRecommendOuterwearWhenCold(t *testing.T) {
	items := []model.Item{
		item("tee", model.CategoryTop, "cotton"),
		item("jeans", model.CategoryBottom, "denim"),
		item("wool coat", model.CategoryOuterwear, "wool"),
		item("puffer", model.CategoryOuterwear, "down"),
		item("linen jacket", model.CategoryOuterwear, "linen"),
	}
	eligibleOuter := map[string]bool{"wool coat": true, "puffer": true}

	r := seeded()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		outfit, err := r.Recommend(items, 10)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if outfit.Outerwear == nil {
			t.Fatal("expected outerwear at 10")
		}
		if !eligibleOuter[outfit.Outerwear.Name] {
			t.Fatalf("ineligible outerwear chosen: %s", outfit.Outerwear.Name)
		}
		seen[outfit.Outerwear.Name] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both eligible coats to be chosen over 100 draws, got %v", seen)
	}
}

func TestRecommendColdWithoutOuterwear(t *testing.T) {
	items := []model.Item{
		item("sweater", model.CategoryTop, "wool"),
		item("jeans", model.CategoryBottom, "denim"),
	}
	outfit, err := seeded().Recommend(items, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if outfit.Outerwear != nil {
		t.Errorf("expected no outerwear, got %v", outfit.Outerwear)
	}
	if outfit.Top.Name != "sweater" || outfit.Bottom.Name != "jeans" {
		t.Errorf("unexpected outfit: %+v", outfit)
	}
	if outfit.Temperature != 5 {
		t.Errorf("expected temperature 5, got %v", outfit.Temperature)
	}
}

func TestRecommendNoCombination(t *testing.T) {
	tests := []struct {
		name  string
		items []model.Item
	}{
		{"empty", nil},
		{"no bottom", []model.Item{item("tee", model.CategoryTop, "cotton")}},
		{"bottom ineligible", []model.Item{
			item("tee", model.CategoryTop, "cotton"),
			item("slacks", model.CategoryBottom, "polyester"),
		}},
		{"unknown categories", []model.Item{
			item("tee", "shirt", "cotton"),
			item("jeans", "pants", "denim"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seeded().Recommend(tt.items, 5)
			if !errors.Is(err, ErrNoCombination) {
				t.Errorf("expected ErrNoCombination, got %v", err)
			}
		})
	}
}

func TestRecommendDeterministicWithSeed(t *testing.T) {
	var items []model.Item
	for _, n := range []string{"a", "b", "c", "d"} {
		items = append(items, item("top "+n, model.CategoryTop, "cotton"))
		items = append(items, item("bottom "+n, model.CategoryBottom, "cotton"))
	}

	first, _ := New(rand.New(rand.NewPCG(7, 7))).Recommend(items, 22)
	second, _ := New(rand.New(rand.NewPCG(7, 7))).Recommend(items, 22)
	if first.Top.Name != second.Top.Name || first.Bottom.Name != second.Bottom.Name {
		t.Errorf("same seed gave different outfits: %+v vs %+v", first, second)
	}
}
