// Package websearch looks up recipe context on the web through the Google
// Custom Search JSON API.
package websearch

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// MaxResults is the number of results requested per query.
const MaxResults = 5

// Client runs queries against one programmable search engine.
type Client struct {
	cse      *customsearch.CseService
	engineID string
}

// NewClient creates a search client. Extra options are passed to the
// underlying service, after the API key.
func NewClient(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Client{cse: svc.Cse, engineID: engineID}, nil
}

// Search returns up to MaxResults snippets for query, each formatted as
// "<title>: <snippet>".
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	res, err := c.cse.List().Cx(c.engineID).Q(query).Num(MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search failed: %w", err)
	}

	results := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		results = append(results, item.Title+": "+item.Snippet)
	}
	return results, nil
}
