package recipe

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CatalogIngredient is one line of a curated recipe's ingredient list.
type CatalogIngredient struct {
	Name     string     `json:"name"`
	Quantity FlexString `json:"quantity"`
}

// Nutrition holds the per-serving values of a curated recipe.
type Nutrition struct {
	Calories FlexString `json:"calories"`
	Protein  FlexString `json:"protein"`
}

// CatalogEntry is a curated recipe from the local recipe database.
type CatalogEntry struct {
	ID          int64               `json:"id,omitempty" db:"id"`
	Title       string              `json:"title" db:"title"`
	Description string              `json:"description,omitempty" db:"description"`
	Cuisine     string              `json:"cuisine" db:"cuisine"`
	Ingredients []CatalogIngredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	CookingTime int                 `json:"cooking_time" db:"cooking_time"`
	Difficulty  string              `json:"difficulty,omitempty" db:"difficulty"`
	Nutrition   Nutrition           `json:"nutrition"`
	Servings    int                 `json:"servings" db:"servings"`
}

var (
	meatWords  = []string{"chicken", "beef", "pork", "lamb", "shrimp", "fish", "salmon"}
	dairyWords = []string{"milk", "cheese", "butter", "yogurt", "cream", "eggs"}
)

// MaxMatches bounds how many curated recipes FindMatches returns.
const MaxMatches = 3

// FindMatches selects the curated recipes that use every one of the given
// ingredients, honour the vegetarian and vegan preferences and, unless
// cuisine is "any", belong to that cuisine. Recipes with more ingredients
// rank first. Entries without a positive cooking time are never matched.
func FindMatches(entries []CatalogEntry, ingredients, dietary []string, cuisine string) []CatalogEntry {
	cuisine = strings.ToLower(strings.TrimSpace(cuisine))
	if cuisine == "" {
		cuisine = "any"
	}
	vegetarian := containsFold(dietary, "vegetarian")
	vegan := containsFold(dietary, "vegan")

	var matches []CatalogEntry
	for _, e := range entries {
		if e.CookingTime <= 0 {
			continue
		}
		if cuisine != "any" && strings.ToLower(e.Cuisine) != cuisine {
			continue
		}

		names := make([]string, len(e.Ingredients))
		for i, ing := range e.Ingredients {
			names[i] = strings.ToLower(ing.Name)
		}
		if !usesAll(names, ingredients) {
			continue
		}

		joined := strings.Join(names, " ")
		isVeg := !containsAny(joined, meatWords)
		isVegan := isVeg && !containsAny(joined, dairyWords)
		if (vegetarian && !isVeg) || (vegan && !isVegan) {
			continue
		}
		matches = append(matches, e)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].Ingredients) > len(matches[j].Ingredients)
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

// Wire formats the entry the way the generation service reports curated
// recipes.
func (e CatalogEntry) Wire() Wire {
	description := e.Description
	if description == "" {
		description = fmt.Sprintf("A delicious %s recipe from our database.", e.Cuisine)
	}
	title := e.Title
	if title == "" {
		title = "N/A"
	}
	difficulty := e.Difficulty
	if difficulty == "" {
		difficulty = string(Medium)
	}

	ingredients := make([]string, len(e.Ingredients))
	for i, ing := range e.Ingredients {
		ingredients[i] = strings.TrimSpace(fmt.Sprintf("%s %s", ing.Quantity, ing.Name))
	}

	return Wire{
		Title:                   title,
		Description:             description,
		Ingredients:             ingredients,
		Instructions:            e.Steps,
		CookingTime:             numberOf(e.CookingTime),
		Difficulty:              difficulty,
		NutritionalInfo:         FlexString(fmt.Sprintf("Calories: %s, Protein: %sg", orNA(e.Nutrition.Calories), orNA(e.Nutrition.Protein))),
		Servings:                FlexString(fmt.Sprintf("Serves %s", orNA(FlexString(servingsText(e.Servings))))),
		SubstitutionSuggestions: []string{"This is a curated recipe from our database."},
	}
}

func usesAll(recipeIngredients, wanted []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(w)
		found := false
		for _, have := range recipeIngredients {
			if strings.Contains(have, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

func orNA(s FlexString) string {
	if s == "" {
		return "N/A"
	}
	return string(s)
}

func servingsText(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func numberOf(n int) json.Number {
	return json.Number(strconv.Itoa(n))
}
