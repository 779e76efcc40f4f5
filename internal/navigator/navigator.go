// Package navigator turns filter-form submissions on a search page into
// in-page result refreshes and keeps the session history in step, so that
// back and forward restore earlier result sets and form state.
package navigator

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/syntrixbase/searchnav/internal/fetch"
	"github.com/syntrixbase/searchnav/internal/filterstate"
	"github.com/syntrixbase/searchnav/internal/history"
	"github.com/syntrixbase/searchnav/internal/page"
)

// DefaultErrorMessage replaces the results when a refresh fails.
const DefaultErrorMessage = "<div><p>Sorry, something went wrong whilst trying to get your search results.</p></div>"

// ErrAlreadyInitialised is returned by a second Initialise call.
var ErrAlreadyInitialised = errors.New("navigator: already initialised")

// Scheduler runs tasks on the page's event loop.
type Scheduler interface {
	Post(fn func()) bool
}

// SettledFunc observes the end of a results refresh: err is nil when the
// regions were filled, non-nil when the error message was shown.
type SettledFunc func(target string, err error)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithErrorMessage sets the markup shown when a refresh fails.
func WithErrorMessage(markup string) Option {
	return func(c *Controller) { c.errorMessage = markup }
}

// WithSettledHook registers fn to run on the loop after every refresh that
// was applied to the page.
func WithSettledHook(fn SettledFunc) Option {
	return func(c *Controller) { c.settled = fn }
}

// Controller owns the current filter state of one page. All methods must be
// called from the event loop that loop schedules onto; Initialise must be
// called once.
type Controller struct {
	doc     page.Document
	history *history.Adapter
	fetcher fetch.Fetcher
	loop    Scheduler

	logger       *slog.Logger
	errorMessage string
	settled      SettledFunc

	initialised bool
	closed      bool
	current     filterstate.State

	// Refresh sequencing: only the most recently issued refresh may touch
	// the page.
	latest   uint64
	cancel   context.CancelFunc
	inFlight atomic.Int64
}

// New creates a controller for doc.
func New(doc page.Document, hist *history.Adapter, fetcher fetch.Fetcher, loop Scheduler, opts ...Option) *Controller {
	c := &Controller{
		doc:          doc,
		history:      hist,
		fetcher:      fetcher,
		loop:         loop,
		logger:       slog.Default(),
		errorMessage: DefaultErrorMessage,
		current:      filterstate.Empty(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "navigator")
	return c
}

// Initialise enhances the page: it seeds the current state from the location,
// records it on the current history entry, listens for restores and takes
// over every managed form's submission. Pages without managed forms are left
// alone.
func (c *Controller) Initialise() error {
	if c.initialised {
		return ErrAlreadyInitialised
	}
	c.initialised = true

	forms := c.doc.Forms()
	if len(forms) == 0 {
		c.logger.Debug("No managed forms, page left unenhanced")
		return nil
	}

	loc := c.history.Location()
	c.current = filterstate.Decode(loc.RawQuery)

	if err := c.history.Initialise(c.handleRestore); err != nil {
		return err
	}

	// Give the first entry a state so going all the way back still restores.
	c.history.Replace(locationURL(loc), c.current)

	for _, f := range forms {
		f.OnSubmit(c.handleSubmit)
	}
	c.logger.Info("Search navigation enabled", "forms", len(forms), "url", locationURL(loc))
	return nil
}

// Current returns a copy of the current filter state.
func (c *Controller) Current() filterstate.State {
	return c.current.Clone()
}

// InFlight returns the number of refreshes whose fetch has not completed.
func (c *Controller) InFlight() int {
	return int(c.inFlight.Load())
}

// Close cancels any in-flight refresh and stops listening for restores.
// Refreshes completing after Close leave the page untouched.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.latest++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if r := c.doc.Results(); r != nil {
		r.SetBusy(false)
	}
	c.history.Close()
}

func (c *Controller) handleSubmit(form page.Form) {
	if c.closed {
		return
	}
	state := c.ReadFormState(form)
	loc := c.history.Location()
	next := loc.EscapedPath() + filterstate.Encode(state)

	shown := locationURL(loc)
	if !c.history.Supported() {
		// The location never moves without push support; compare against
		// the state the regions were last refreshed for.
		shown = loc.EscapedPath() + filterstate.Encode(c.current)
	}
	if next == shown {
		c.logger.Debug("Filters unchanged, submission ignored", "url", next)
		return
	}

	c.history.Push(next, state)
	c.UpdateResults(next)
	c.current = state
}

// ReadFormState builds the state a form's controls describe, starting from the
// current state so fields the form does not expose keep their values.
func (c *Controller) ReadFormState(form page.Form) filterstate.State {
	state := c.current.Clone()
	var filters []string
	sawFilter := false

	for _, ctl := range form.Controls() {
		name := ctl.Name()
		if name == "" || ctl.Type() == page.TypeHidden {
			continue
		}
		if name == filterstate.FilterField {
			sawFilter = true
			if ctl.Checked() && ctl.Value() != "" {
				filters = append(filters, ctl.Value())
			}
			continue
		}
		if !filterstate.IsField(name) {
			continue
		}
		if ctl.Type() == page.TypeRadio && !ctl.Checked() {
			continue
		}
		state.Set(name, ctl.Value())
	}

	if sawFilter {
		state.Filters = filters
	}
	return state.Normalize()
}

func (c *Controller) handleRestore(entry *history.Entry, err error) {
	if err != nil {
		c.logger.Error("Cannot restore search state", "error", err)
		return
	}

	restored := entry.CurrentQueries.Clone()
	c.UpdateResults(entry.URL)

	changed := filterstate.DiffFilters(restored.Filters, c.current.Filters)
	for _, value := range changed {
		checked := slices.Contains(restored.Filters, value)
		if !c.doc.SetFilterChecked(value, checked) {
			c.logger.Debug("No checkbox for filter", "filter", value)
		}
	}

	for _, name := range filterstate.Fields() {
		want := restored.Get(name)
		if want == c.current.Get(name) {
			continue
		}
		if !c.doc.SetFieldValue(name, want) {
			c.logger.Debug("No control for field", "field", name)
		}
	}

	c.current = restored
}

// UpdateResults refreshes the results, summary and pagination regions from
// target. The fetch runs off the loop; its outcome is applied on the loop
// unless a newer refresh has been issued meanwhile.
func (c *Controller) UpdateResults(target string) {
	if c.closed {
		return
	}
	abs := c.resolve(target)

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.latest++
	token := c.latest
	c.inFlight.Add(1)

	requestID := uuid.NewString()
	c.logger.Debug("Refreshing results", "url", abs, "request_id", requestID, "token", token)
	if r := c.doc.Results(); r != nil {
		r.SetBusy(true)
	}

	fetch.Go(ctx, c.fetcher, abs, func(res fetch.Result) {
		posted := c.loop.Post(func() {
			c.inFlight.Add(-1)
			if c.closed {
				c.logger.Debug("Dropping results after close", "url", res.URL, "request_id", requestID)
				return
			}
			if token != c.latest {
				c.logger.Debug("Dropping stale results", "url", res.URL, "request_id", requestID, "token", token)
				return
			}
			cancel()
			c.cancel = nil
			c.apply(res, requestID)
		})
		if !posted {
			c.inFlight.Add(-1)
			cancel()
		}
	})
}

func (c *Controller) apply(res fetch.Result, requestID string) {
	results, summary, pagination := c.doc.Results(), c.doc.Summary(), c.doc.Pagination()
	if results != nil {
		results.SetBusy(false)
	}

	var err error
	if res.OK() {
		c.clearRegions(results, summary, pagination)
		err = errors.Join(
			appendHTML(results, res.Fragment.Results),
			appendHTML(summary, res.Fragment.Summary),
			appendHTML(pagination, res.Fragment.Pagination),
		)
		if err != nil {
			c.logger.Warn("Failed to insert fetched results", "url", res.URL, "request_id", requestID, "error", err)
		}
	} else {
		err = res.Err
		c.clearRegions(results, summary, pagination)
		if appendErr := appendHTML(results, c.errorMessage); appendErr != nil {
			c.logger.Warn("Failed to insert error message", "error", appendErr)
		}
		c.logger.Error("Error whilst fetching results", "url", res.URL, "request_id", requestID, "error", err)
	}

	if c.settled != nil {
		c.settled(res.URL, err)
	}
}

func (c *Controller) clearRegions(regions ...page.Region) {
	for _, r := range regions {
		if r != nil {
			r.Clear()
		}
	}
}

func appendHTML(r page.Region, markup string) error {
	if r == nil || markup == "" {
		return nil
	}
	return r.AppendHTML(markup)
}

func (c *Controller) resolve(target string) string {
	ref, err := url.Parse(target)
	if err != nil {
		return target
	}
	return c.history.Location().ResolveReference(ref).String()
}

// locationURL is the path plus query of loc, the form the navigator compares
// and stores URLs in.
func locationURL(loc *url.URL) string {
	if loc.RawQuery == "" {
		return loc.EscapedPath()
	}
	return loc.EscapedPath() + "?" + loc.RawQuery
}
