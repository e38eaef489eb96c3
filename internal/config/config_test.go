package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWeb(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*testing.T) string
		wantError bool
		validate  func(*testing.T, Web)
	}{
		{
			name:  "defaults without a file",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
			validate: func(t *testing.T, c Web) {
				assert.Equal(t, ":8081", c.ListenAddr)
				assert.Equal(t, "http://localhost:5001", c.ServiceURL)
				assert.Equal(t, 90*time.Second, c.FetchTimeoutDuration())
				assert.Equal(t, 2*time.Hour, c.SessionTTLDuration())
			},
		},
		{
			name: "file then environment",
			setup: func(t *testing.T) string {
				t.Setenv("SESSION_TTL", "5")
				return writeFile(t, "config.json", `{"service_url":"http://chef:5001","fetch_timeout":10,"session_ttl":30}`)
			},
			validate: func(t *testing.T, c Web) {
				assert.Equal(t, "http://chef:5001", c.ServiceURL)
				assert.Equal(t, 10*time.Second, c.FetchTimeoutDuration())
				assert.Equal(t, 5*time.Minute, c.SessionTTLDuration())
			},
		},
		{
			name: "bad service url",
			setup: func(t *testing.T) string {
				t.Setenv("SERVICE_URL", "not a url")
				return ""
			},
			wantError: true,
		},
		{
			name: "bad timeout",
			setup: func(t *testing.T) string {
				t.Setenv("FETCH_TIMEOUT", "soon")
				return ""
			},
			wantError: true,
		},
		{
			name: "broken file",
			setup: func(t *testing.T) string {
				return writeFile(t, "config.json", `{"listen_addr":`)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			c, err := LoadWeb(path)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, c)
		})
	}
}

func TestLoadService(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*testing.T) string
		wantError bool
		validate  func(*testing.T, Service)
	}{
		{
			name:  "defaults",
			setup: func(*testing.T) string { return "" },
			validate: func(t *testing.T, c Service) {
				assert.Equal(t, ":5001", c.ListenAddr)
				assert.Equal(t, ProviderGemini, c.Provider)
				assert.Equal(t, "gemini-1.5-flash", c.GeminiModel)
				assert.Equal(t, "recipes.json", c.RecipesFile)
				assert.Equal(t, []string{"http://localhost:8081"}, c.AllowOrigins)
				assert.Empty(t, c.DatabaseURL)
			},
		},
		{
			name: "snake case and DATABASE_URL keys",
			setup: func(t *testing.T) string {
				return writeFile(t, "config.json", `{"gemini_api_key":"abc","DATABASE_URL":"postgres://u:p@db/chef"}`)
			},
			validate: func(t *testing.T, c Service) {
				assert.Equal(t, "abc", c.GeminiAPIKey)
				assert.Equal(t, "postgres://u:p@db/chef", c.DatabaseURL)
			},
		},
		{
			name: "environment overrides",
			setup: func(t *testing.T) string {
				t.Setenv("GEMINI_API_KEY", "from-env")
				t.Setenv("PROVIDER", "LOCAL")
				t.Setenv("ALLOW_ORIGINS", "http://a.test, http://b.test,")
				t.Setenv("RATE_LIMIT", "0.5")
				t.Setenv("RATE_BURST", "3")
				return writeFile(t, "config.json", `{"gemini_api_key":"from-file"}`)
			},
			validate: func(t *testing.T, c Service) {
				assert.Equal(t, "from-env", c.GeminiAPIKey)
				assert.Equal(t, ProviderLocal, c.Provider)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowOrigins)
				assert.InDelta(t, 0.5, c.RateLimit, 1e-9)
				assert.Equal(t, 3, c.RateBurst)
			},
		},
		{
			name: "unknown provider",
			setup: func(t *testing.T) string {
				t.Setenv("PROVIDER", "openai")
				return ""
			},
			wantError: true,
		},
		{
			name: "search key without engine",
			setup: func(t *testing.T) string {
				t.Setenv("SEARCH_API_KEY", "k")
				return ""
			},
			wantError: true,
		},
		{
			name: "negative rate",
			setup: func(t *testing.T) string {
				t.Setenv("RATE_LIMIT", "-1")
				return ""
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			c, err := LoadService(path)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, c)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "PANTRYCHEF_TEST_VALUE=from-dotenv\n")
	t.Setenv("PANTRYCHEF_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("PANTRYCHEF_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("PANTRYCHEF_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
