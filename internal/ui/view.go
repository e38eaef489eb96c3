package ui

import (
	"pantrychef/internal/pantry"
	"pantrychef/internal/recipe"
)

// View is a point-in-time copy of a session, ready to be rendered.
type View struct {
	Screen Screen

	Ingredients []string
	QuickPicks  []QuickPick
	Preferences []Preference
	Servings    int
	Cuisine     string
	Cuisines    []string

	Recognizing    bool
	RecognizeError string
	PhotoName      string

	Query    recipe.Query
	Loading  bool
	Error    string
	Recipes  []recipe.Recipe
	Total    int
	Criteria recipe.Criteria
	Selected *recipe.Recipe
}

// QuickPick is one quick-add button. Added is set once the ingredient is in
// the list.
type QuickPick struct {
	Name  string
	Added bool
}

// Preference is one dietary checkbox.
type Preference struct {
	Name string
	On   bool
}

// DifficultyOption is one difficulty checkbox of the filter panel.
type DifficultyOption struct {
	Name string
	On   bool
}

// DifficultyOptions lists the difficulty checkboxes in display order.
func (v View) DifficultyOptions() []DifficultyOption {
	out := make([]DifficultyOption, 0, len(recipe.Difficulties))
	for _, d := range recipe.Difficulties {
		on := false
		for _, x := range v.Criteria.Difficulties {
			if x == d {
				on = true
			}
		}
		out = append(out, DifficultyOption{Name: string(d), On: on})
	}
	return out
}

// MinCookingTime and MaxCookingTime bound the time slider.
func (View) MinCookingTime() int { return recipe.MinCookingTime }

func (View) MaxCookingTime() int { return recipe.MaxCookingTime }

// View snapshots the session. Recipes holds the filtered batch and Total the
// size of the unfiltered one.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := make([]Preference, 0, len(pantry.PreferenceNames))
	for _, name := range pantry.PreferenceNames {
		prefs = append(prefs, Preference{Name: name, On: s.prefs.IsSet(name)})
	}

	picks := make([]QuickPick, 0, len(pantry.QuickPicks))
	for _, name := range pantry.QuickPicks {
		picks = append(picks, QuickPick{Name: name, Added: s.pantry.Contains(name)})
	}

	v := View{
		Screen:         s.router.Screen(),
		Ingredients:    s.pantry.Items(),
		QuickPicks:     picks,
		Preferences:    prefs,
		Servings:       s.servings.Value(),
		Cuisine:        s.cuisine,
		Cuisines:       pantry.Cuisines,
		Recognizing:    s.recognizing,
		RecognizeError: s.recognizeErr,
		PhotoName:      s.photoName,
		Loading:        s.loading,
		Error:          s.fetchErr,
		Total:          len(s.results),
		Criteria:       s.criteria,
	}
	if q, ok := s.router.Query(); ok {
		v.Query = q
	}
	v.Recipes = recipe.Filter(s.results, s.criteria)
	if id, ok := s.router.Selected(); ok {
		if r, found := findRecipe(s.results, id); found {
			v.Selected = &r
		}
	}
	return v
}
