// Package recommend picks an outfit from a wardrobe for a given temperature.
package recommend

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/erazemk/omara/internal/model"
)

// ErrNoCombination is returned when the wardrobe has no eligible top or no
// eligible bottom for the temperature.
var ErrNoCombination = errors.New("not enough suitable items for a complete outfit")

// Temperature band boundaries in °C. Each band includes its lower bound.
const (
	HotFrom         = 28.0
	ComfortableFrom = 20.0
	CoolFrom        = 15.0

	// OuterwearBelow is the temperature under which an outer layer is added.
	OuterwearBelow = 20.0
)

type materialSet map[string]bool

func newSet(materials ...string) materialSet {
	s := make(materialSet, len(materials))
	for _, m := range materials {
		s[m] = true
	}
	return s
}

var (
	hotOnly          = newSet("cotton", "linen", "chiffon", "moisture-wicking", "polyester", "denim")
	comfortableNever = newSet("down", "fleece")
	coolNever        = newSet("linen", "chiffon")
	coldOnly         = newSet("wool", "down", "fleece", "leather", "denim", "cotton")
)

// Outfit is one suggestion. Outerwear is nil when none was chosen.
type Outfit struct {
	Top         model.Item  `json:"top"`
	Bottom      model.Item  `json:"bottom"`
	Outerwear   *model.Item `json:"outerwear,omitempty"`
	Temperature float64     `json:"temperature"`
}

// Recommender chooses uniformly at random among eligible items. It is safe
// for concurrent use.
type Recommender struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a recommender drawing from rng. Pass a seeded generator for
// reproducible picks.
func New(rng *rand.Rand) *Recommender {
	return &Recommender{rng: rng}
}

// NewDefault returns a recommender with a randomly seeded generator.
func NewDefault() *Recommender {
	return New(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// Suitable reports whether an item may be worn at celsius.
func Suitable(item model.Item, celsius float64) bool {
	material := strings.ToLower(strings.TrimSpace(item.Material))
	switch {
	case celsius >= HotFrom:
		return hotOnly[material] && item.Category != model.CategoryOuterwear
	case celsius >= ComfortableFrom:
		return !comfortableNever[material]
	case celsius >= CoolFrom:
		return !coolNever[material]
	default:
		return coldOnly[material]
	}
}

// Eligible returns the items suitable for celsius in their original order.
func Eligible(items []model.Item, celsius float64) []model.Item {
	var out []model.Item
	for _, item := range items {
		if Suitable(item, celsius) {
			out = append(out, item)
		}
	}
	return out
}

// Recommend picks a top and a bottom, and an outer layer below
// OuterwearBelow when one is eligible. Items with unknown categories are
// ignored.
func (r *Recommender) Recommend(items []model.Item, celsius float64) (Outfit, error) {
	var tops, bottoms, outer []model.Item
	for _, item := range Eligible(items, celsius) {
		switch item.Category {
		case model.CategoryTop:
			tops = append(tops, item)
		case model.CategoryBottom:
			bottoms = append(bottoms, item)
		case model.CategoryOuterwear:
			outer = append(outer, item)
		}
	}

	if len(tops) == 0 || len(bottoms) == 0 {
		return Outfit{}, ErrNoCombination
	}

	outfit := Outfit{
		Top:         r.pick(tops),
		Bottom:      r.pick(bottoms),
		Temperature: celsius,
	}
	if celsius < OuterwearBelow && len(outer) > 0 {
		o := r.pick(outer)
		outfit.Outerwear = &o
	}
	return outfit, nil
}

func (r *Recommender) pick(items []model.Item) model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return items[r.rng.IntN(len(items))].Clone()
}
