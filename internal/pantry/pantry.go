// Package pantry collects the search inputs: the ingredients on hand, dietary
// preferences, servings and cuisine, and freezes them into a recipe.Query.
package pantry

import "strings"

// QuickPicks are the ingredients offered as one-click buttons.
var QuickPicks = []string{
	"chicken", "rice", "tomatoes", "onions", "garlic",
	"eggs", "cheese", "pasta", "potatoes", "spinach",
}

// Normalize trims and lowercases an ingredient.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Store is an insertion-ordered set of normalized ingredients. The zero
// value is an empty store.
type Store struct {
	items []string
}

// Add normalizes raw and appends it unless it is empty or already present.
// It reports whether the store changed.
func (s *Store) Add(raw string) bool {
	ing := Normalize(raw)
	if ing == "" || s.Contains(ing) {
		return false
	}
	s.items = append(s.items, ing)
	return true
}

// AddMany adds each item in order and returns how many were new.
func (s *Store) AddMany(raws []string) int {
	added := 0
	for _, raw := range raws {
		if s.Add(raw) {
			added++
		}
	}
	return added
}

// Remove deletes the exact normalized ingredient.
func (s *Store) Remove(ingredient string) bool {
	for i, x := range s.items {
		if x == ingredient {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the normalized form of ingredient is present.
func (s *Store) Contains(ingredient string) bool {
	ing := Normalize(ingredient)
	for _, x := range s.items {
		if x == ing {
			return true
		}
	}
	return false
}

// Items returns a copy of the ingredients in insertion order.
func (s *Store) Items() []string {
	return append([]string(nil), s.items...)
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Empty() bool { return len(s.items) == 0 }
