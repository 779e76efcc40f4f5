//go:build js && wasm

// Command searchnav-wasm enhances a search page in the browser. Build with
// GOOS=js GOARCH=wasm and load it next to wasm_exec.js.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/syntrixbase/searchnav/internal/autosubmit"
	"github.com/syntrixbase/searchnav/internal/config"
	"github.com/syntrixbase/searchnav/internal/eventloop"
	"github.com/syntrixbase/searchnav/internal/fetch"
	"github.com/syntrixbase/searchnav/internal/history"
	"github.com/syntrixbase/searchnav/internal/logging"
	"github.com/syntrixbase/searchnav/internal/navigator"
	"github.com/syntrixbase/searchnav/internal/page/jsdom"
)

func main() {
	cfg := config.DefaultNavigatorConfig()
	logCfg := config.DefaultLoggingConfig()
	logCfg.ApplyDefaults()
	logger, err := logging.NewLogger(logCfg, os.Stdout)
	if err != nil {
		logger = slog.Default()
	}

	loop := eventloop.New()
	doc := jsdom.New(cfg.Selectors, loop, logger)

	// Browsers without the required APIs keep the plain form behaviour.
	if !jsdom.Supported() {
		logger.Info("Search navigation unsupported, page left as is")
		return
	}

	fetcher := fetch.NewHTTPFetcher(http.DefaultClient, fetch.Config{
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Selectors:    cfg.Selectors,
	}, logger)

	nav := navigator.New(doc, history.NewAdapter(history.NewBrowserHistory(loop), logger), fetcher, loop,
		navigator.WithLogger(logger),
		navigator.WithErrorMessage(cfg.ErrorMessage),
	)

	loop.Post(func() {
		if err := nav.Initialise(); err != nil {
			logger.Error("Failed to initialise search navigation", "error", err)
			return
		}
		autosubmit.Attach(doc, loop, autosubmit.Config{Debounce: cfg.Debounce}, logger)
	})

	// Runs for the page's lifetime.
	if err := loop.Run(context.Background()); err != nil {
		logger.Error("Event loop stopped", "error", err)
	}
	doc.Release()
}
