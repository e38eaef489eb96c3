// Package chefclient talks to the recipe service: ingredient recognition
// from a photo and recipe generation from a query.
package chefclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pantrychef/internal/log"
	"pantrychef/internal/recipe"
)

// DefaultBaseURL is where the recipe service listens unless configured
// otherwise.
const DefaultBaseURL = "http://localhost:5001"

const genericRecognitionMessage = "Failed to recognize ingredients."

// RecognitionError is returned when the service could not recognize
// ingredients. Message is safe to show to the user.
type RecognitionError struct {
	Message string
	Status  int
	Err     error
}

func (e *RecognitionError) Error() string { return e.Message }

func (e *RecognitionError) Unwrap() error { return e.Err }

// FetchError is returned when recipes could not be generated or the
// response could not be parsed. Message is safe to show to the user.
type FetchError struct {
	Message string
	Status  int
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }

// Client is a client for the recipe service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.NullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recognizeRequest struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RecognizeIngredients sends a data-URL encoded image and returns the
// ingredient names the service found in it.
func (c *Client) RecognizeIngredients(ctx context.Context, dataURL string) ([]string, error) {
	resp, body, err := c.post(ctx, "/recognize_ingredients", recognizeRequest{Image: dataURL})
	if err != nil {
		c.logger.ErrorContext(ctx, "recognition request failed", slog.Any("error", err))
		return nil, &RecognitionError{Message: genericRecognitionMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := genericRecognitionMessage
		if m, ok := serviceError(body); ok {
			msg = m
		}
		c.logger.WarnContext(ctx, "recognition rejected",
			slog.Int("status", resp.StatusCode), slog.String("message", msg))
		return nil, &RecognitionError{Message: msg, Status: resp.StatusCode}
	}

	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, &RecognitionError{Message: genericRecognitionMessage, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode ingredients: %w", err)}
	}
	return names, nil
}

// GenerateRecipes asks the service for recipes matching q. Recipes carry
// their position in the response as ID.
func (c *Client) GenerateRecipes(ctx context.Context, q recipe.Query) ([]recipe.Recipe, error) {
	resp, body, err := c.post(ctx, "/generate_recipes", q)
	if err != nil {
		c.logger.ErrorContext(ctx, "generation request failed", slog.Any("error", err))
		return nil, &FetchError{Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, ok := serviceError(body)
		if !ok {
			msg = fmt.Sprintf("Request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		c.logger.WarnContext(ctx, "generation rejected",
			slog.Int("status", resp.StatusCode), slog.String("message", msg))
		return nil, &FetchError{Message: msg, Status: resp.StatusCode}
	}

	recipes, err := recipe.ParseBatch(string(body))
	if err != nil {
		c.logger.ErrorContext(ctx, "unparseable recipe response", slog.Any("error", err))
		return nil, &FetchError{Message: "Could not read the recipes returned by the service: " + err.Error(), Status: resp.StatusCode, Err: err}
	}

	c.logger.DebugContext(ctx, "recipes received", slog.Int("count", len(recipes)))
	return recipes, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, []byte, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, body, nil
}

// serviceError extracts the message of a {"error": "..."} body.
func serviceError(body []byte) (string, bool) {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return "", false
	}
	return e.Error, true
}
