// Command searchnav-server serves the demo search page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/syntrixbase/searchnav/internal/config"
	"github.com/syntrixbase/searchnav/internal/logging"
	"github.com/syntrixbase/searchnav/internal/searchserver"
	"github.com/syntrixbase/searchnav/internal/server"
)

func main() {
	configDir := flag.String("config", "configs", "configuration directory")
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Shutdown() }()

	cat := searchserver.SampleCatalogue()
	if cfg.Search.CataloguePath != "" {
		if cat, err = searchserver.LoadCatalogue(cfg.Search.CataloguePath); err != nil {
			return err
		}
	}
	logger.Info("Catalogue loaded", "items", len(cat.Items), "tags", len(cat.Tags))

	svc := server.New(cfg.Server, logger)
	searchserver.NewHandler(cat, cfg.Search, logger).Register(svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
		return err
	}
	return nil
}
