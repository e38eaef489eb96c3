package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Wire is the JSON shape of one recipe as the generation service emits it.
// It carries no id.
type Wire struct {
	Title                   string      `json:"title"`
	Description             string      `json:"description,omitempty"`
	ImageURL                string      `json:"imageUrl,omitempty"`
	Ingredients             []string    `json:"ingredients"`
	Instructions            []string    `json:"instructions,omitempty"`
	CookingTime             json.Number `json:"cookingTime"`
	Difficulty              string      `json:"difficulty"`
	Dietary                 []string    `json:"dietary,omitempty"`
	Rating                  json.Number `json:"rating,omitempty"`
	NutritionalInfo         FlexString  `json:"nutritionalInfo,omitempty"`
	Servings                FlexString  `json:"servings,omitempty"`
	SubstitutionSuggestions []string    `json:"substitution_suggestions,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CleanResponse strips the fenced-code marker that models like to wrap JSON
// in: a leading ``` with an optional language tag and a trailing ```.
func CleanResponse(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = strings.TrimLeftFunc(rest, unicode.IsLetter)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseBatch cleans text and parses it as a JSON array of recipes. Each
// recipe gets its 0-based position as ID. A body that is not an array of
// structurally valid recipes is an error, never an empty batch.
func ParseBatch(text string) ([]Recipe, error) {
	cleaned := CleanResponse(text)
	if cleaned == "" {
		return nil, errors.New("empty recipe response")
	}

	var wires []Wire
	if err := json.Unmarshal([]byte(cleaned), &wires); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	if wires == nil {
		return nil, errors.New("recipe response is not a JSON array")
	}

	recipes := make([]Recipe, 0, len(wires))
	for i, w := range wires {
		r, err := w.toRecipe(i)
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i, err)
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func (w Wire) toRecipe(id int) (Recipe, error) {
	cookingTime, err := wholeMinutes(w.CookingTime)
	if err != nil {
		return Recipe{}, err
	}

	var rating float64
	if w.Rating != "" {
		if rating, err = w.Rating.Float64(); err != nil {
			return Recipe{}, fmt.Errorf("invalid rating %q: %w", w.Rating, err)
		}
	}

	difficulty := Difficulty(w.Difficulty)
	if d, ok := ParseDifficulty(w.Difficulty); ok {
		difficulty = d
	}

	r := Recipe{
		ID:                      id,
		Title:                   strings.TrimSpace(w.Title),
		ImageURL:                w.ImageURL,
		Ingredients:             w.Ingredients,
		CookingTime:             cookingTime,
		Difficulty:              difficulty,
		Dietary:                 w.Dietary,
		Rating:                  rating,
		Description:             w.Description,
		Instructions:            w.Instructions,
		NutritionalInfo:         string(w.NutritionalInfo),
		Servings:                string(w.Servings),
		SubstitutionSuggestions: w.SubstitutionSuggestions,
	}
	if err := validate.Struct(r); err != nil {
		return Recipe{}, formatValidationError(err)
	}
	return r, nil
}

func wholeMinutes(n json.Number) (int, error) {
	if n == "" {
		return 0, errors.New("cookingTime is required")
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid cookingTime %q: %w", n, err)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("cookingTime %q is not a whole number of minutes", n)
	}
	return int(f), nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", e.Field(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", e.Field(), e.Tag(), e.Param(), e.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
