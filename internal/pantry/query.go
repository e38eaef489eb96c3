package pantry

import (
	"errors"
	"strings"

	"pantrychef/internal/recipe"
)

// ErrNoIngredients is returned by Build when there is nothing to search with.
var ErrNoIngredients = errors.New("add at least one ingredient to search")

// Dietary preference names as sent to the generation service.
const (
	Vegetarian = "vegetarian"
	Vegan      = "vegan"
	GlutenFree = "gluten-free"
)

// PreferenceNames lists the dietary flags in display order.
var PreferenceNames = []string{Vegetarian, Vegan, GlutenFree}

// Preferences holds the three independent dietary flags.
type Preferences struct {
	Vegetarian bool
	Vegan      bool
	GlutenFree bool
}

func (p *Preferences) flag(name string) *bool {
	switch name {
	case Vegetarian:
		return &p.Vegetarian
	case Vegan:
		return &p.Vegan
	case GlutenFree:
		return &p.GlutenFree
	}
	return nil
}

// Set turns the named flag on or off. Unknown names are ignored.
func (p *Preferences) Set(name string, on bool) {
	if f := p.flag(name); f != nil {
		*f = on
	}
}

// Toggle flips the named flag. Unknown names are ignored.
func (p *Preferences) Toggle(name string) {
	if f := p.flag(name); f != nil {
		*f = !*f
	}
}

// IsSet reports whether the named flag is on.
func (p Preferences) IsSet(name string) bool {
	if f := p.flag(name); f != nil {
		return *f
	}
	return false
}

// Selected returns the names of the flags that are on, in display order.
func (p Preferences) Selected() []string {
	out := []string{}
	for _, name := range PreferenceNames {
		if p.IsSet(name) {
			out = append(out, name)
		}
	}
	return out
}

// DefaultServings is the initial servings count.
const DefaultServings = 2

// Servings is a counter that never drops below one.
type Servings struct {
	n int
}

// NewServings starts the counter at n, or at 1 if n is smaller.
func NewServings(n int) Servings {
	if n < 1 {
		n = 1
	}
	return Servings{n: n}
}

func (s *Servings) Increment() { s.n = s.Value() + 1 }

// Decrement lowers the count by one, stopping at 1.
func (s *Servings) Decrement() {
	if s.Value() > 1 {
		s.n--
	}
}

// Value returns the count. The zero Servings reads as 1.
func (s Servings) Value() int {
	if s.n < 1 {
		return 1
	}
	return s.n
}

// AnyCuisine places no restriction on cuisine.
const AnyCuisine = "Any"

// Cuisines lists the selectable cuisines.
var Cuisines = []string{
	AnyCuisine, "Italian", "Mexican", "Indian", "Chinese",
	"Japanese", "Thai", "French", "Mediterranean", "American",
}

// ParseCuisine returns the canonical spelling of name, or AnyCuisine when
// name is not one of Cuisines.
func ParseCuisine(name string) string {
	for _, c := range Cuisines {
		if strings.EqualFold(strings.TrimSpace(name), c) {
			return c
		}
	}
	return AnyCuisine
}

// Build freezes the current inputs into a Query. The query owns copies of
// every slice.
func Build(store *Store, prefs Preferences, servings Servings, cuisine string) (recipe.Query, error) {
	if store == nil || store.Empty() {
		return recipe.Query{}, ErrNoIngredients
	}
	return recipe.Query{
		Ingredients: store.Items(),
		Dietary:     prefs.Selected(),
		Servings:    servings.Value(),
		Cuisine:     ParseCuisine(cuisine),
	}, nil
}
