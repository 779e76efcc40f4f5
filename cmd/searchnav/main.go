// Command searchnav drives a search page headlessly. Each argument after the
// flags is one step:
//
//	fill:NAME=VALUE   type into a control
//	check:VALUE       tick a filter checkbox
//	uncheck:VALUE     clear a filter checkbox
//	submit            submit the first form
//	back, forward     move through the session history
//	wait              wait for refreshes to settle
//	print             print the location, summary and results
//
// Example:
//
//	searchnav -url http://localhost:8080/search check:news wait print back wait print
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/antchfx/htmlquery"

	"github.com/syntrixbase/searchnav/internal/browser"
	"github.com/syntrixbase/searchnav/internal/config"
	"github.com/syntrixbase/searchnav/internal/logging"
)

func main() {
	configDir := flag.String("config", "configs", "configuration directory")
	target := flag.String("url", "http://localhost:8080/search", "search page to open")
	noPush := flag.Bool("no-push-state", false, "simulate a browser without history push support")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, *target, *noPush, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configDir, target string, noPush bool, steps []string, out io.Writer) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Shutdown() }()

	nav := cfg.Navigator
	tab, err := browser.Open(ctx, target, browser.Options{
		Selectors:        nav.Selectors,
		FetchTimeout:     nav.FetchTimeout,
		MaxBodyBytes:     nav.MaxBodyBytes,
		ErrorMessage:     nav.ErrorMessage,
		Debounce:         nav.Debounce,
		WithoutPushState: noPush,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tab.Close() }()

	for _, step := range steps {
		if err := runStep(ctx, tab, step, out); err != nil {
			return fmt.Errorf("step %q: %w", step, err)
		}
	}
	return nil
}

var errUnknownStep = errors.New("unknown step")

func runStep(ctx context.Context, tab *browser.Tab, step string, out io.Writer) error {
	verb, arg, _ := strings.Cut(step, ":")
	switch verb {
	case "fill":
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("fill wants NAME=VALUE")
		}
		return tab.Fill(ctx, name, value)
	case "check", "uncheck":
		return tab.Check(ctx, arg, verb == "check")
	case "submit":
		return tab.Submit(ctx, 0)
	case "back", "forward":
		move := tab.Back
		if verb == "forward" {
			move = tab.Forward
		}
		moved, err := move(ctx)
		if err == nil && !moved {
			fmt.Fprintf(out, "(no %s entry)\n", verb)
		}
		return err
	case "wait":
		return tab.Wait(ctx)
	case "print":
		return printPage(ctx, tab, out)
	default:
		return errUnknownStep
	}
}

func printPage(ctx context.Context, tab *browser.Tab, out io.Writer) error {
	loc, err := tab.Location(ctx)
	if err != nil {
		return err
	}
	summary, err := tab.Summary(ctx)
	if err != nil {
		return err
	}
	results, err := tab.Results(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n  %s\n", loc, text(summary))
	doc, err := htmlquery.Parse(strings.NewReader(results))
	if err != nil {
		return err
	}
	items := htmlquery.Find(doc, "//li//h2")
	if len(items) == 0 {
		fmt.Fprintf(out, "  %s\n", text(results))
	}
	for _, n := range items {
		fmt.Fprintf(out, "  - %s\n", strings.TrimSpace(htmlquery.InnerText(n)))
	}
	return nil
}

func text(markup string) string {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(doc)), " ")
}
