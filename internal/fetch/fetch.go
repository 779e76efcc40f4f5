// Package fetch retrieves a results page in the background and extracts the
// fragments the navigator swaps into the live page.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/syntrixbase/searchnav/internal/page"
)

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("fetch: unexpected status")
	// ErrNoResults is returned when the fetched page has no results region.
	ErrNoResults = errors.New("fetch: results region not found")
	// ErrTooLarge is returned when the body exceeds Config.MaxBodyBytes.
	ErrTooLarge = errors.New("fetch: response body too large")
)

// Fragment is the markup extracted from a fetched results page.
type Fragment struct {
	Results    string
	Summary    string
	Pagination string
}

// Fetcher retrieves the fragments for a results URL.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*Fragment, error)
}

// Result is the outcome of an asynchronous fetch: a fragment or a reason.
type Result struct {
	URL      string
	Fragment *Fragment
	Err      error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Fragment != nil
}

// Go runs f.Fetch on its own goroutine and hands the result to deliver. It
// never blocks the caller.
func Go(ctx context.Context, f Fetcher, target string, deliver func(Result)) {
	go func() {
		frag, err := f.Fetch(ctx, target)
		if err == nil && frag == nil {
			err = ErrNoResults
		}
		deliver(Result{URL: target, Fragment: frag, Err: err})
	}()
}

// Config tunes HTTPFetcher.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	Selectors    page.Selectors
}

// HTTPFetcher fetches pages with GET, sending and storing cookies and
// following redirects.
type HTTPFetcher struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher. A nil client gets a fresh one with its own
// cookie jar.
func NewHTTPFetcher(client *http.Client, cfg Config, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		jar, _ := cookiejar.New(nil)
		client = &http.Client{Jar: jar}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	cfg.Selectors.ApplyDefaults()
	return &HTTPFetcher{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "fetch"),
	}
}

// Client returns the underlying HTTP client.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Fragment, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", target, err)
	}
	platformHeaders(req.Header)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", target, err)
	}
	defer resp.Body.Close()

	f.logger.Debug("Fetched results page",
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w %d for %q", ErrStatus, resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", target, err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: over %d bytes from %q", ErrTooLarge, f.cfg.MaxBodyBytes, target)
	}

	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", target, err)
	}
	return Extract(root, f.cfg.Selectors)
}

// Extract pulls the results, summary and pagination markup out of a parsed
// page. Only the results region is required.
func Extract(root *html.Node, sel page.Selectors) (*Fragment, error) {
	sel.ApplyDefaults()

	results, err := htmlquery.Query(root, sel.Results)
	if err != nil {
		return nil, fmt.Errorf("results selector: %w", err)
	}
	if results == nil {
		return nil, ErrNoResults
	}
	frag := &Fragment{Results: innerHTML(results)}

	if summary, err := htmlquery.Query(root, sel.Summary); err == nil && summary != nil {
		frag.Summary = innerHTML(summary)
	}

	if container, err := htmlquery.Query(root, sel.Pagination); err == nil && container != nil {
		if nav, err := htmlquery.Query(container, sel.PaginationContent); err == nil && nav != nil {
			frag.Pagination = htmlquery.OutputHTML(nav, true)
		}
	}
	return frag, nil
}

func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}
