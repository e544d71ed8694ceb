package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/SteffMet/Surge-sub001/internal/server"
	"github.com/SteffMet/Surge-sub001/pkg/config"
	"github.com/SteffMet/Surge-sub001/pkg/logging"
	"github.com/SteffMet/Surge-sub001/pkg/provider"
)

func main() {
	bootLogger := logging.New(logging.LevelInfo)

	cfg, err := config.Load(bootLogger, "config")
	if err != nil {
		bootLogger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Development wiring: permissive collaborators. Production deployments
	// embed the server package and inject real ones.
	providers := server.Providers{
		Access:    provider.NewStaticAccess(),
		Documents: provider.NewStaticDocuments(),
		Store:     provider.NewMemoryStore(),
		Directory: provider.NewStaticDirectory(),
	}

	app := server.NewApp(logger, ctx, cfg, providers)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
