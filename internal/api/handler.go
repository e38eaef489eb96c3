// Package api is the recipe service: ingredient recognition from a photo and
// recipe generation backed by a curated catalog, web search and a model.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pantrychef/internal/log"
	"pantrychef/internal/recipe"
)

const (
	msgNotConfigured  = "Gemini API key not configured on the server."
	msgNoImage        = "No image data provided."
	msgImageFailed    = "Failed to process the image."
	msgNoIngredients  = "Missing ingredients"
	msgNothingOnline  = "Could not find any information online for the given ingredients."
	msgGenerateFailed = "Failed to generate recipes."
)

const (
	defaultServings = 2
	anyCuisine      = "any"
)

const (
	modelTimeout   = 45 * time.Second
	catalogTimeout = 5 * time.Second
)

// Model is a generative model that can read images and write text.
type Model interface {
	DescribeImage(ctx context.Context, prompt string, format string, imageData []byte) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher finds web snippets for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Catalog lists the curated recipes.
type Catalog interface {
	All(ctx context.Context) ([]recipe.CatalogEntry, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Model    Model
	Searcher Searcher
	Catalog  Catalog
	Logger   *slog.Logger
}

// NewHandler creates a new Handler. model, searcher and catalog may be nil.
func NewHandler(model Model, searcher Searcher, catalog Catalog, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = log.NullLogger()
	}
	return &Handler{Model: model, Searcher: searcher, Catalog: catalog, Logger: logger}
}

type recognizeRequest struct {
	Image *string `json:"image"`
}

// RecognizeIngredients answers a data-URL image with the ingredient names
// the model sees in it.
func (h *Handler) RecognizeIngredients(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Model == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgNotConfigured})
		return
	}

	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoImage})
		return
	}

	names, err := h.recognize(ctx, *req.Image)
	if err != nil {
		h.Logger.ErrorContext(ctx, "image recognition failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgImageFailed})
		return
	}

	h.Logger.InfoContext(ctx, "ingredients recognized", slog.Any("ingredients", names))
	c.JSON(http.StatusOK, names)
}

func (h *Handler) recognize(ctx context.Context, dataURL string) ([]string, error) {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	format, img, err := prepareImage(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, modelTimeout)
	defer cancel()

	text, err := h.Model.DescribeImage(ctx, recognitionPrompt, format, img)
	if err != nil {
		return nil, fmt.Errorf("vision model: %w", err)
	}
	return parseIngredientList(text), nil
}

type generateRequest struct {
	Ingredients *[]string `json:"ingredients"`
	Dietary     []string  `json:"dietary"`
	Servings    int       `json:"servings"`
	Cuisine     string    `json:"cuisine"`
}

// GenerateRecipes answers a query with catalog matches followed by newly
// generated recipes, de-duplicated by title.
func (h *Handler) GenerateRecipes(c *gin.Context) {
	ctx := c.Request.Context()

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ingredients == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoIngredients})
		return
	}
	if req.Servings < 1 {
		req.Servings = defaultServings
	}
	if strings.TrimSpace(req.Cuisine) == "" {
		req.Cuisine = anyCuisine
	}
	q := recipe.Query{
		Ingredients: *req.Ingredients,
		Dietary:     req.Dietary,
		Servings:    req.Servings,
		Cuisine:     req.Cuisine,
	}

	h.Logger.InfoContext(ctx, "recipe request",
		slog.Any("ingredients", q.Ingredients),
		slog.Any("dietary", q.Dietary),
		slog.Int("servings", q.Servings),
		slog.String("cuisine", q.Cuisine),
	)

	if h.Model == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgNotConfigured})
		return
	}

	matches := recipe.FindMatches(h.catalog(ctx), q.Ingredients, q.Dietary, q.Cuisine)
	results := newBatch()
	for _, m := range matches {
		w := m.Wire()
		results.add(w.Title, w)
	}
	h.Logger.InfoContext(ctx, "catalog matches", slog.Int("count", len(matches)))

	var prompt string
	if len(matches) > 0 {
		p, err := catalogPrompt(q, matches)
		if err != nil {
			h.Logger.ErrorContext(ctx, "failed to build prompt", slog.Any("error", err))
			c.JSON(http.StatusOK, results.items)
			return
		}
		prompt = p
	} else {
		snippets := h.search(ctx, searchQuery(q.Ingredients, q.Dietary, q.Cuisine))
		if len(snippets) == 0 {
			if results.len() > 0 {
				c.JSON(http.StatusOK, results.items)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgNothingOnline})
			return
		}
		prompt = searchPrompt(q, snippets)
	}

	generated, err := h.generate(ctx, prompt)
	if err != nil {
		h.Logger.ErrorContext(ctx, "recipe generation failed", slog.Any("error", err))
		if results.len() == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenerateFailed})
			return
		}
	}
	for _, g := range generated {
		results.add(g.title, g.raw)
	}

	h.Logger.InfoContext(ctx, "returning recipes", slog.Int("count", results.len()))
	c.JSON(http.StatusOK, results.items)
}

func (h *Handler) catalog(ctx context.Context) []recipe.CatalogEntry {
	if h.Catalog == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	entries, err := h.Catalog.All(ctx)
	if err != nil {
		h.Logger.WarnContext(ctx, "catalog unavailable", slog.Any("error", err))
		return nil
	}
	return entries
}

func (h *Handler) search(ctx context.Context, query string) []string {
	if h.Searcher == nil {
		h.Logger.InfoContext(ctx, "web search not configured, skipping")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, modelTimeout)
	defer cancel()

	results, err := h.Searcher.Search(ctx, query)
	if err != nil {
		h.Logger.WarnContext(ctx, "web search failed", slog.String("query", query), slog.Any("error", err))
		return nil
	}
	h.Logger.InfoContext(ctx, "web search", slog.String("query", query), slog.Int("results", len(results)))
	return results
}

type generatedRecipe struct {
	title string
	raw   json.RawMessage
}

var errUntitledRecipe = errors.New("generated recipe has no title")

// generate asks the model for recipes and splits the answer into raw recipe
// objects. The objects are forwarded as the model wrote them.
func (h *Handler) generate(ctx context.Context, prompt string) ([]generatedRecipe, error) {
	ctx, cancel := context.WithTimeout(ctx, modelTimeout)
	defer cancel()

	text, err := h.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("text model: %w", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(recipe.CleanResponse(text)), &raws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generated recipes: %w", err)
	}

	out := make([]generatedRecipe, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Title *string `json:"title"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i, err)
		}
		if head.Title == nil {
			return nil, fmt.Errorf("recipe %d: %w", i, errUntitledRecipe)
		}
		out = append(out, generatedRecipe{title: *head.Title, raw: raw})
	}
	return out, nil
}

// batch collects response recipes, keeping the first of each title.
type batch struct {
	items  []any
	titles map[string]bool
}

func newBatch() *batch {
	return &batch{items: []any{}, titles: make(map[string]bool)}
}

func (b *batch) add(title string, item any) {
	key := strings.ToLower(title)
	if b.titles[key] {
		return
	}
	b.titles[key] = true
	b.items = append(b.items, item)
}

func (b *batch) len() int { return len(b.items) }
