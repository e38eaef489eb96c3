// Package localllm talks to a locally hosted model through an
// OpenAI-compatible chat completions endpoint.
package localllm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultURL   = "http://localhost:1234/v1/chat/completions"
	DefaultModel = "gemma-3-12b-it:2"
)

const (
	temperature = 1
	maxTokens   = 2048
)

// ErrNoChoices is returned when the endpoint answers without a completion.
var ErrNoChoices = errors.New("no content found in response")

// Client sends single-turn prompts to the local model.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a new client for the local LLM. Empty arguments fall back
// to DefaultURL and DefaultModel.
func NewClient(apiURL, model string) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		model:      model,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role  string `json:"role"`
	Parts []part `json:"content"`
}

// part is one element of a multimodal message: text or an image URL.
type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateContent sends one user message made of text and optional image
// URLs and returns the first choice.
func (c *Client) GenerateContent(ctx context.Context, text string, imageURLs ...string) (string, error) {
	parts := []part{{Type: "text", Text: text}}
	for _, u := range imageURLs {
		parts = append(parts, part{Type: "image_url", ImageURL: &imageRef{URL: u}})
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Parts: parts}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("received non-OK status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return out.Choices[0].Message.Content, nil
}

// DescribeImage sends the image as a data URL together with prompt.
func (c *Client) DescribeImage(ctx context.Context, prompt string, format string, imageData []byte) (string, error) {
	dataURL := "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(imageData)
	return c.GenerateContent(ctx, prompt, dataURL)
}

// Generate sends a text-only prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateContent(ctx, prompt)
}
