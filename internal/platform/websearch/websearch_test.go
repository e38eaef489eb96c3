package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "engine-1", q.Get("cx"))
		assert.Equal(t, "Thai recipes with chicken rice", q.Get("q"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "key-1", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Khao Man Gai","snippet":"Poached chicken over rice."},
			{"title":"Thai Fried Rice","snippet":"Ready in 20 minutes."}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "key-1", "engine-1", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "Thai recipes with chicken rice")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Khao Man Gai: Poached chicken over rice.",
		"Thai Fried Rice: Ready in 20 minutes.",
	}, results)
}

func TestSearch_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "k", "e", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "k", "e", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom search failed")
}
