package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"pantrychef/internal/recipe"
)

const recognitionPrompt = "Analyze the image and identify all food ingredients. Return them as a simple comma-separated list. Example: tomatoes, onions, chicken breast."

const recipeFields = `"title", "description", "ingredients" (list), "instructions" (list), "cookingTime" (integer), "difficulty", "nutritionalInfo", "servings", and "substitution_suggestions" (list of strings)`

// parseIngredientList turns the model's comma-separated answer into
// lower-cased, trimmed names. The result is never nil.
func parseIngredientList(text string) []string {
	out := []string{}
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(text)), ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func dietaryText(dietary []string) string {
	if len(dietary) == 0 {
		return "None"
	}
	return strings.Join(dietary, ", ")
}

// searchQuery builds the web query used when the catalog has nothing.
func searchQuery(ingredients, dietary []string, cuisine string) string {
	q := "recipes with " + strings.Join(ingredients, " ")
	if cuisine != "" && !strings.EqualFold(cuisine, anyCuisine) {
		q = cuisine + " " + q
	}
	if len(dietary) > 0 {
		q += " that are " + strings.Join(dietary, " ")
	}
	return q
}

func catalogPrompt(q recipe.Query, matches []recipe.CatalogEntry) (string, error) {
	matchesJSON, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog matches: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a creative recipe assistant. A user wants to cook with: %s.\n", strings.Join(q.Ingredients, ", "))
	fmt.Fprintf(&b, "They want a %s style recipe for %d people, with dietary preferences: %s.\n\n", q.Cuisine, q.Servings, dietaryText(q.Dietary))
	b.WriteString("I have already found these recipes in my database:\n--- DATABASE RECIPES ---\n")
	b.Write(matchesJSON)
	b.WriteString("\n--- END DATABASE RECIPES ---\n\n")
	b.WriteString("Please generate 1-2 NEW and DIFFERENT creative recipes that also fit the user's request. Do NOT repeat the recipes I provided above.\n\n")
	fmt.Fprintf(&b, "For each new recipe, provide: %s.\n", recipeFields)
	b.WriteString("Format the final output as a valid JSON array of recipe objects. Do not include markdown.")
	return b.String(), nil
}

func searchPrompt(q recipe.Query, results []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following web search results, generate 2-3 unique recipes for %d servings using these main ingredients: %s.\n", q.Servings, strings.Join(q.Ingredients, ", "))
	fmt.Fprintf(&b, "Cuisine: %s. Dietary preferences: %s.\n", q.Cuisine, dietaryText(q.Dietary))
	fmt.Fprintf(&b, "Adjust ingredient quantities for %d servings.\n\n", q.Servings)
	fmt.Fprintf(&b, "For each recipe, provide: %s.\n\n", recipeFields)
	b.WriteString("Search results for context:\n---\n")
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	b.WriteString("Format the output as a valid JSON array of recipe objects. Do not include markdown.")
	return b.String()
}
