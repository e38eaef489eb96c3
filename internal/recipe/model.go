package recipe

import (
	"net/url"
	"strconv"
	"strings"
)

// Difficulty is the effort level reported for a recipe.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty matches s against the known difficulties, ignoring case.
func ParseDifficulty(s string) (Difficulty, bool) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, true
		}
	}
	return "", false
}

// Recipe is a generated recipe as shown to the user. ID is the position of
// the recipe in the batch it arrived in.
type Recipe struct {
	ID                      int        `json:"id"`
	Title                   string     `json:"title" validate:"required"`
	ImageURL                string     `json:"imageUrl,omitempty"`
	Ingredients             []string   `json:"ingredients" validate:"required"`
	CookingTime             int        `json:"cookingTime" validate:"gt=0"`
	Difficulty              Difficulty `json:"difficulty" validate:"oneof=Easy Medium Hard"`
	Dietary                 []string   `json:"dietary,omitempty"`
	Rating                  float64    `json:"rating" validate:"gte=0"`
	Description             string     `json:"description,omitempty"`
	Instructions            []string   `json:"instructions,omitempty"`
	NutritionalInfo         string     `json:"nutritionalInfo,omitempty"`
	Servings                string     `json:"servings,omitempty"`
	SubstitutionSuggestions []string   `json:"substitution_suggestions,omitempty"`
}

// PlaceholderImage returns an image URL rendered from the recipe title. The
// imageUrl sent by the service is not trusted for display.
func (r Recipe) PlaceholderImage() string {
	return "https://placehold.co/600x400/EEE/31343C?text=" + url.QueryEscape(r.Title)
}

// Query is one frozen set of search parameters. Build it with pantry.Build;
// the slices are never modified after that.
type Query struct {
	Ingredients []string `json:"ingredients"`
	Dietary     []string `json:"dietary"`
	Servings    int      `json:"servings"`
	Cuisine     string   `json:"cuisine"`
}

// Key identifies the combination of inputs. Two queries with the same key
// produce the same request.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(q.Ingredients, "\x1f"))
	b.WriteByte('\x1e')
	b.WriteString(strings.Join(q.Dietary, "\x1f"))
	b.WriteByte('\x1e')
	b.WriteString(strconv.Itoa(q.Servings))
	b.WriteByte('\x1e')
	b.WriteString(q.Cuisine)
	return b.String()
}
