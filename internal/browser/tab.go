// Package browser drives a search page without a browser: it loads the page,
// enhances it with the navigator and exposes the interactions a user has.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/syntrixbase/searchnav/internal/autosubmit"
	"github.com/syntrixbase/searchnav/internal/eventloop"
	"github.com/syntrixbase/searchnav/internal/fetch"
	"github.com/syntrixbase/searchnav/internal/filterstate"
	"github.com/syntrixbase/searchnav/internal/history"
	"github.com/syntrixbase/searchnav/internal/navigator"
	"github.com/syntrixbase/searchnav/internal/page"
	"github.com/syntrixbase/searchnav/internal/page/htmldoc"
)

var (
	// ErrClosed is returned by operations on a closed Tab.
	ErrClosed = errors.New("browser: tab closed")
	// ErrNoControl is returned when no control matches a Fill or Check.
	ErrNoControl = errors.New("browser: no such control")
	// ErrNoForm is returned by Submit on a page without managed forms.
	ErrNoForm = errors.New("browser: no managed form")
)

// Options configures a Tab. Zero values take the navigator defaults.
type Options struct {
	Client       *http.Client
	Selectors    page.Selectors
	FetchTimeout time.Duration
	MaxBodyBytes int64
	ErrorMessage string
	Debounce     time.Duration
	// WithoutPushState simulates a browser without history push support.
	// Submissions then fall back to full page loads.
	WithoutPushState bool
	Logger           *slog.Logger
}

// Tab is one loaded search page. Its methods are safe for concurrent use;
// every page interaction is serialised through the tab's event loop.
type Tab struct {
	opts    Options
	logger  *slog.Logger
	client  *http.Client
	fetcher *fetch.HTTPFetcher

	loop     *eventloop.Loop
	stopLoop context.CancelFunc

	// Touched only on the loop.
	doc      *htmldoc.Document
	stack    *history.SessionStack
	nav      *navigator.Controller
	stopAuto func()
	settled  int
}

// Open loads rawURL and enhances the page.
func Open(ctx context.Context, rawURL string, opts Options) (*Tab, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Selectors.ApplyDefaults()
	if err := opts.Selectors.Validate(); err != nil {
		return nil, fmt.Errorf("selectors: %w", err)
	}

	client := opts.Client
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		client = &http.Client{Jar: jar}
	}

	t := &Tab{
		opts:   opts,
		logger: opts.Logger.With("component", "browser"),
		client: client,
		loop:   eventloop.New(),
	}
	t.fetcher = fetch.NewHTTPFetcher(client, fetch.Config{
		Timeout:      opts.FetchTimeout,
		MaxBodyBytes: opts.MaxBodyBytes,
		Selectors:    opts.Selectors,
	}, opts.Logger)

	loopCtx, stop := context.WithCancel(context.Background())
	t.stopLoop = stop
	go func() {
		if err := t.loop.Run(loopCtx); err != nil {
			t.logger.Error("Event loop failed", "error", err)
		}
	}()

	if err := t.Navigate(ctx, rawURL); err != nil {
		t.shutdown()
		return nil, err
	}
	return t, nil
}

// Navigate performs a full page load of rawURL, replacing the document and
// starting a fresh session history.
func (t *Tab) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("load %q: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("load %q: %w %d", rawURL, fetch.ErrStatus, resp.StatusCode)
	}

	doc, err := htmldoc.Parse(resp.Body, t.opts.Selectors, t.opts.Logger)
	if err != nil {
		return fmt.Errorf("parse %q: %w", rawURL, err)
	}

	// Redirects land the page at the final URL.
	final := resp.Request.URL
	return t.run(ctx, func() error {
		t.teardown()
		return t.install(doc, final)
	})
}

func (t *Tab) install(doc *htmldoc.Document, loc *url.URL) error {
	var stackOpts []history.StackOption
	if t.opts.WithoutPushState {
		stackOpts = append(stackOpts, history.WithoutPushState())
	}
	t.doc = doc
	t.stack = history.NewSessionStack(loc, stackOpts...)

	// Feature detection comes before enhancement: without push support the
	// page keeps its plain form behaviour.
	if !t.stack.Supported() {
		t.logger.Info("History push unsupported, page not enhanced", "url", loc.String())
		for _, f := range doc.Forms() {
			f.OnSubmit(t.fullSubmit)
		}
		t.stopAuto = autosubmit.Attach(doc, t.loop, autosubmit.Config{Debounce: t.opts.Debounce}, t.opts.Logger)
		return nil
	}

	navOpts := []navigator.Option{
		navigator.WithLogger(t.opts.Logger),
		navigator.WithSettledHook(func(string, error) { t.settled++ }),
	}
	if t.opts.ErrorMessage != "" {
		navOpts = append(navOpts, navigator.WithErrorMessage(t.opts.ErrorMessage))
	}
	t.nav = navigator.New(doc, history.NewAdapter(t.stack, t.opts.Logger), t.fetcher, t.loop, navOpts...)
	if err := t.nav.Initialise(); err != nil {
		return fmt.Errorf("initialise navigator: %w", err)
	}
	t.stopAuto = autosubmit.Attach(doc, t.loop, autosubmit.Config{Debounce: t.opts.Debounce}, t.opts.Logger)
	return nil
}

func (t *Tab) teardown() {
	if t.stopAuto != nil {
		t.stopAuto()
		t.stopAuto = nil
	}
	if t.nav != nil {
		t.nav.Close()
		t.nav = nil
	}
}

// fullSubmit is the plain form submission: a GET of the form's fields. It runs
// on the loop, so the load itself is started on a new goroutine.
func (t *Tab) fullSubmit(form page.Form) {
	target := t.stack.Location()
	target.RawQuery = formValues(form).Encode()
	go func() {
		if err := t.Navigate(context.Background(), target.String()); err != nil {
			t.logger.Error("Full page submission failed", "url", target.String(), "error", err)
		}
	}()
}

// formValues collects what a browser would submit for form.
func formValues(form page.Form) url.Values {
	values := url.Values{}
	for _, ctl := range form.Controls() {
		if ctl.Name() == "" {
			continue
		}
		switch ctl.Type() {
		case page.TypeCheckbox, page.TypeRadio:
			if !ctl.Checked() {
				continue
			}
		}
		values.Add(ctl.Name(), ctl.Value())
	}
	return values
}

// Fill types value into the first control named name.
func (t *Tab) Fill(ctx context.Context, name, value string) error {
	return t.run(ctx, func() error {
		c := t.doc.FindControl(name, "")
		if c == nil {
			return fmt.Errorf("%w: %s", ErrNoControl, name)
		}
		c.Input(value)
		return nil
	})
}

// Check ticks or clears the filter checkbox with the given value.
func (t *Tab) Check(ctx context.Context, value string, checked bool) error {
	return t.run(ctx, func() error {
		c := t.doc.FindControl(filterstate.FilterField, value)
		if c == nil {
			return fmt.Errorf("%w: %s=%s", ErrNoControl, filterstate.FilterField, value)
		}
		c.Toggle(checked)
		return nil
	})
}

// Submit submits the managed form at index i.
func (t *Tab) Submit(ctx context.Context, i int) error {
	return t.run(ctx, func() error {
		f := t.doc.FormAt(i)
		if f == nil {
			return fmt.Errorf("%w at index %d", ErrNoForm, i)
		}
		f.RequestSubmit()
		return nil
	})
}

// Back moves one entry back in the session history. It reports false at the
// first entry.
func (t *Tab) Back(ctx context.Context) (bool, error) {
	var moved bool
	err := t.run(ctx, func() error {
		moved = t.stack.Back()
		return nil
	})
	return moved, err
}

// Forward moves one entry forward in the session history.
func (t *Tab) Forward(ctx context.Context) (bool, error) {
	var moved bool
	err := t.run(ctx, func() error {
		moved = t.stack.Forward()
		return nil
	})
	return moved, err
}

// Location returns the current URL.
func (t *Tab) Location(ctx context.Context) (string, error) {
	var loc string
	err := t.run(ctx, func() error {
		loc = t.stack.Location().String()
		return nil
	})
	return loc, err
}

// Current returns the navigator's filter state, or the state decoded from the
// location when the page is not enhanced.
func (t *Tab) Current(ctx context.Context) (filterstate.State, error) {
	var s filterstate.State
	err := t.run(ctx, func() error {
		if t.nav != nil {
			s = t.nav.Current()
		} else {
			s = filterstate.Decode(t.stack.Location().RawQuery)
		}
		return nil
	})
	return s, err
}

// HistoryLen returns the number of session history entries.
func (t *Tab) HistoryLen(ctx context.Context) (int, error) {
	var n int
	err := t.run(ctx, func() error {
		n = t.stack.Len()
		return nil
	})
	return n, err
}

// Results returns the results region markup.
func (t *Tab) Results(ctx context.Context) (string, error) {
	return t.region(ctx, func() page.Region { return t.doc.Results() })
}

// Summary returns the results summary markup.
func (t *Tab) Summary(ctx context.Context) (string, error) {
	return t.region(ctx, func() page.Region { return t.doc.Summary() })
}

// Pagination returns the pagination region markup.
func (t *Tab) Pagination(ctx context.Context) (string, error) {
	return t.region(ctx, func() page.Region { return t.doc.Pagination() })
}

func (t *Tab) region(ctx context.Context, get func() page.Region) (string, error) {
	var out string
	err := t.run(ctx, func() error {
		if r := get(); r != nil {
			out = r.HTML()
		}
		return nil
	})
	return out, err
}

// HTML renders the whole document.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	var out string
	err := t.run(ctx, func() error {
		out = t.doc.Render()
		return nil
	})
	return out, err
}

// Settled returns how many refreshes have been applied to the page.
func (t *Tab) Settled(ctx context.Context) (int, error) {
	var n int
	err := t.run(ctx, func() error {
		n = t.settled
		return nil
	})
	return n, err
}

// Wait blocks until no refresh is in flight. Debounced submissions that have
// not fired yet are not waited for.
func (t *Tab) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		idle := false
		if err := t.run(ctx, func() error {
			idle = t.nav == nil || t.nav.InFlight() == 0
			return nil
		}); err != nil {
			return err
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the tab. In-flight refreshes are cancelled.
func (t *Tab) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := t.loop.Do(ctx, t.teardown)
	t.shutdown()
	if errors.Is(err, eventloop.ErrStopped) {
		return nil
	}
	return err
}

func (t *Tab) shutdown() {
	t.stopLoop()
	<-t.loop.Done()
}

func (t *Tab) run(ctx context.Context, fn func() error) error {
	var err error
	if doErr := t.loop.Do(ctx, func() { err = fn() }); doErr != nil {
		if errors.Is(doErr, eventloop.ErrStopped) {
			return ErrClosed
		}
		return doErr
	}
	return err
}
