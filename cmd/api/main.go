package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pantrychef/internal/api"
	"pantrychef/internal/config"
	"pantrychef/internal/log"
	"pantrychef/internal/platform/gemini"
	"pantrychef/internal/platform/localllm"
	"pantrychef/internal/platform/websearch"
	"pantrychef/internal/recipe"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	conf, err := config.LoadService(config.DefaultFile)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	logger := log.New(&slog.HandlerOptions{Level: log.ParseLevel(conf.LogLevel)})
	if err := run(context.Background(), conf, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, conf config.Service, logger *slog.Logger) error {
	var model api.Model
	switch conf.Provider {
	case config.ProviderLocal:
		model = localllm.NewClient(conf.LocalLLMURL, conf.LocalLLMModel)
		logger.Info("using local model", slog.String("url", conf.LocalLLMURL), slog.String("model", conf.LocalLLMModel))
	default:
		if conf.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, recognition and generation are disabled")
			break
		}
		geminiClient, err := gemini.NewClient(ctx, conf.GeminiAPIKey, conf.GeminiModel)
		if err != nil {
			return fmt.Errorf("error creating gemini client: %w", err)
		}
		defer geminiClient.Close()
		model = geminiClient
	}

	var searcher api.Searcher
	if conf.SearchAPIKey != "" {
		searchClient, err := websearch.NewClient(ctx, conf.SearchAPIKey, conf.SearchEngineID)
		if err != nil {
			return fmt.Errorf("error creating search client: %w", err)
		}
		searcher = searchClient
	} else {
		logger.Info("web search not configured")
	}

	catalog, err := openCatalog(ctx, conf, logger)
	if err != nil {
		return err
	}
	if closer, ok := catalog.(io.Closer); ok {
		defer closer.Close()
	}

	handler := api.NewHandler(model, searcher, catalog, logger)

	routerConf := api.RouterConfig{AllowOrigins: conf.AllowOrigins}
	if conf.RateLimit > 0 {
		routerConf.Limiter = api.NewRateLimiter(conf.RateLimit, conf.RateBurst)
	}
	r := api.NewRouter(handler, logger, routerConf)

	logger.Info("recipe service listening", slog.String("addr", conf.ListenAddr))
	return r.Run(conf.ListenAddr)
}

// openCatalog loads the curated recipes file and, when a database is
// configured, serves the catalog from Postgres seeded with that file.
func openCatalog(ctx context.Context, conf config.Service, logger *slog.Logger) (api.Catalog, error) {
	file, err := recipe.LoadFileStore(conf.RecipesFile)
	switch {
	case errors.Is(err, recipe.ErrCatalogNotFound):
		logger.Warn("recipe catalog not found, starting empty", slog.String("path", conf.RecipesFile))
	case err != nil:
		logger.Error("failed to load recipe catalog", slog.Any("error", err))
	}

	if conf.DatabaseURL == "" {
		return file, nil
	}

	dbStore, err := recipe.NewPostgresStore(conf.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("error creating postgresstore: %w", err)
	}
	n, err := recipe.Seed(ctx, dbStore, file)
	if err != nil {
		dbStore.Close()
		return nil, fmt.Errorf("failed to seed recipe catalog: %w", err)
	}
	if n > 0 {
		logger.Info("seeded recipe catalog", slog.Int("recipes", n))
	}
	return dbStore, nil
}
