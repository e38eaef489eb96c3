package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"pantrychef/internal/chefclient"
	"pantrychef/internal/config"
	"pantrychef/internal/log"
	"pantrychef/internal/ui"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	conf, err := config.LoadWeb(config.DefaultFile)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	logger := log.New(&slog.HandlerOptions{Level: log.ParseLevel(conf.LogLevel)})

	client := chefclient.NewClient(conf.ServiceURL,
		chefclient.WithHTTPClient(&http.Client{Timeout: conf.FetchTimeoutDuration()}),
		chefclient.WithLogger(logger),
	)

	sessions := ui.NewSessions(conf.SessionTTLDuration())
	handler := ui.NewHandler(sessions, client, client, logger)
	handler.Timeout = conf.FetchTimeoutDuration()
	r := ui.NewRouter(handler, logger)

	logger.Info("web app listening", slog.String("addr", conf.ListenAddr), slog.String("service", conf.ServiceURL))
	if err := r.Run(conf.ListenAddr); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
