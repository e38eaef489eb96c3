// Package config loads the settings of the web front end and the recipe
// service from an optional config.json file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// DefaultFile is read when no other path is given.
const DefaultFile = "config.json"

// Web configures cmd/web.
type Web struct {
	ListenAddr string `json:"listen_addr" validate:"required"`
	ServiceURL string `json:"service_url" validate:"required,url"`
	// FetchTimeout is in seconds. Zero leaves the transport default.
	FetchTimeout int `json:"fetch_timeout" validate:"gte=0"`
	// SessionTTL is in minutes. Zero keeps sessions forever.
	SessionTTL int    `json:"session_ttl" validate:"gte=0"`
	LogLevel   string `json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

func (w Web) FetchTimeoutDuration() time.Duration {
	return time.Duration(w.FetchTimeout) * time.Second
}

func (w Web) SessionTTLDuration() time.Duration {
	return time.Duration(w.SessionTTL) * time.Minute
}

// Service configures cmd/api.
type Service struct {
	ListenAddr     string   `json:"listen_addr" validate:"required"`
	GeminiAPIKey   string   `json:"gemini_api_key"`
	GeminiModel    string   `json:"gemini_model" validate:"required"`
	Provider       string   `json:"provider" validate:"oneof=gemini local"`
	LocalLLMURL    string   `json:"local_llm_url" validate:"omitempty,url"`
	LocalLLMModel  string   `json:"local_llm_model" validate:"required_if=Provider local"`
	DatabaseURL    string   `json:"DATABASE_URL"`
	RecipesFile    string   `json:"recipes_file"`
	SearchAPIKey   string   `json:"search_api_key"`
	SearchEngineID string   `json:"search_engine_id" validate:"required_with=SearchAPIKey"`
	AllowOrigins   []string `json:"allow_origins" validate:"dive,url"`
	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64 `json:"rate_limit" validate:"gte=0"`
	RateBurst int     `json:"rate_burst" validate:"gte=0"`
	LogLevel  string  `json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

func defaultWeb() Web {
	return Web{
		ListenAddr:   ":8081",
		ServiceURL:   "http://localhost:5001",
		FetchTimeout: 90,
		SessionTTL:   120,
		LogLevel:     "info",
	}
}

func defaultService() Service {
	return Service{
		ListenAddr:    ":5001",
		GeminiModel:   "gemini-1.5-flash",
		Provider:      ProviderGemini,
		LocalLLMURL:   "http://localhost:1234/v1/chat/completions",
		LocalLLMModel: "gemma-3-12b-it:2",
		RecipesFile:   "recipes.json",
		AllowOrigins:  []string{"http://localhost:8081"},
		RateLimit:     2,
		RateBurst:     5,
		LogLevel:      "info",
	}
}

// LoadDotEnv loads a .env file into the environment when one exists.
// Variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// LoadWeb reads path over the defaults, then applies the environment.
func LoadWeb(path string) (Web, error) {
	conf := defaultWeb()
	if err := readFile(path, &conf); err != nil {
		return conf, err
	}

	conf.ListenAddr = loadWithDefault("LISTEN_ADDR", conf.ListenAddr)
	conf.ServiceURL = loadWithDefault("SERVICE_URL", conf.ServiceURL)
	conf.LogLevel = loadWithDefault("LOG_LEVEL", conf.LogLevel)

	var err error
	if conf.FetchTimeout, err = loadInt("FETCH_TIMEOUT", conf.FetchTimeout); err != nil {
		return conf, err
	}
	if conf.SessionTTL, err = loadInt("SESSION_TTL", conf.SessionTTL); err != nil {
		return conf, err
	}

	if err := validate(conf); err != nil {
		return conf, err
	}
	return conf, nil
}

// LoadService reads path over the defaults, then applies the environment.
func LoadService(path string) (Service, error) {
	conf := defaultService()
	if err := readFile(path, &conf); err != nil {
		return conf, err
	}

	conf.ListenAddr = loadWithDefault("LISTEN_ADDR", conf.ListenAddr)
	conf.GeminiAPIKey = loadWithDefault("GEMINI_API_KEY", conf.GeminiAPIKey)
	conf.GeminiModel = loadWithDefault("GEMINI_MODEL", conf.GeminiModel)
	conf.Provider = strings.ToLower(loadWithDefault("PROVIDER", conf.Provider))
	conf.LocalLLMURL = loadWithDefault("LOCAL_LLM_URL", conf.LocalLLMURL)
	conf.LocalLLMModel = loadWithDefault("LOCAL_LLM_MODEL", conf.LocalLLMModel)
	conf.DatabaseURL = loadWithDefault("DATABASE_URL", conf.DatabaseURL)
	conf.RecipesFile = loadWithDefault("RECIPES_FILE", conf.RecipesFile)
	conf.SearchAPIKey = loadWithDefault("SEARCH_API_KEY", conf.SearchAPIKey)
	conf.SearchEngineID = loadWithDefault("SEARCH_ENGINE_ID", conf.SearchEngineID)
	conf.LogLevel = loadWithDefault("LOG_LEVEL", conf.LogLevel)
	if v := os.Getenv("ALLOW_ORIGINS"); v != "" {
		conf.AllowOrigins = splitList(v)
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return conf, fmt.Errorf("invalid RATE_LIMIT (%q): %w", v, err)
		}
		conf.RateLimit = limit
	}
	var err error
	if conf.RateBurst, err = loadInt("RATE_BURST", conf.RateBurst); err != nil {
		return conf, err
	}

	if err := validate(conf); err != nil {
		return conf, err
	}
	return conf, nil
}

func readFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

func loadWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s (%q): %w", key, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validate(conf any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(conf); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q validation (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
