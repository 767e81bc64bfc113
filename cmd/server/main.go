package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/junnakarai/bankpocket/internal/config"
	"github.com/junnakarai/bankpocket/internal/core"
	"github.com/junnakarai/bankpocket/internal/csvio"
	"github.com/junnakarai/bankpocket/internal/logging"
	"github.com/junnakarai/bankpocket/internal/store"
	"github.com/junnakarai/bankpocket/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"database", cfg.Database.Path,
		"import_max_file_size", cfg.Import.MaxFileSize,
	)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	service := core.NewService(st)
	engine := csvio.NewEngine(st)

	// Seed the built-in tags; names already present are skipped.
	ctx := context.Background()
	created, err := service.SeedDefaultTags(ctx)
	if err != nil {
		slog.Error("failed to seed default tags", "error", err)
		os.Exit(1)
	}
	if created > 0 {
		slog.Info("seeded default tags", "created", created)
	}

	server := web.NewServer(service, engine, cfg)

	// Handle shutdown signals
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
