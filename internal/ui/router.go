package ui

import (
	"errors"

	"pantrychef/internal/recipe"
)

// Screen is one of the two top-level pages.
type Screen string

const (
	ScreenHome    Screen = "home"
	ScreenRecipes Screen = "recipes"
)

var (
	// ErrEmptyQuery is returned when submitting a query without ingredients.
	ErrEmptyQuery = errors.New("query has no ingredients")
	// ErrNotOnHome is returned when submitting from the recipes screen.
	ErrNotOnHome = errors.New("search can only be submitted from the home screen")
	// ErrNotOnRecipes is returned when selecting a recipe outside the recipes screen.
	ErrNotOnRecipes = errors.New("no recipe list is shown")
	// ErrUnknownRecipe is returned when selecting an id that is not in the current batch.
	ErrUnknownRecipe = errors.New("recipe not found")
)

// Router is the page state machine: home or recipes, plus an optional
// selected recipe shown as an overlay on the recipes screen. The zero value
// is on the home screen.
type Router struct {
	screen   Screen
	query    *recipe.Query
	selected *int
}

// Screen returns the current page.
func (r *Router) Screen() Screen {
	if r.screen == "" {
		return ScreenHome
	}
	return r.screen
}

// Query returns the submitted query while on the recipes screen.
func (r *Router) Query() (recipe.Query, bool) {
	if r.query == nil {
		return recipe.Query{}, false
	}
	return *r.query, true
}

// Selected returns the id of the recipe shown in the overlay.
func (r *Router) Selected() (int, bool) {
	if r.selected == nil {
		return 0, false
	}
	return *r.selected, true
}

// Submit moves from home to recipes with q.
func (r *Router) Submit(q recipe.Query) error {
	if r.Screen() != ScreenHome {
		return ErrNotOnHome
	}
	if len(q.Ingredients) == 0 {
		return ErrEmptyQuery
	}
	r.screen = ScreenRecipes
	r.query = &q
	r.selected = nil
	return nil
}

// Back returns to home, dropping the query and any open overlay. It reports
// whether the screen changed.
func (r *Router) Back() bool {
	if r.Screen() != ScreenRecipes {
		return false
	}
	r.screen = ScreenHome
	r.query = nil
	r.selected = nil
	return true
}

// Select opens the overlay for recipe id. The caller checks that id belongs
// to the batch being shown.
func (r *Router) Select(id int) error {
	if r.Screen() != ScreenRecipes {
		return ErrNotOnRecipes
	}
	r.selected = &id
	return nil
}

// Close hides the overlay.
func (r *Router) Close() {
	r.selected = nil
}
