// Package autosubmit submits filter forms as soon as one of their marked
// inputs changes, debouncing free-text search inputs so a submission only
// happens once the user stops typing.
package autosubmit

import (
	"log/slog"
	"time"

	"github.com/syntrixbase/searchnav/internal/eventloop"
	"github.com/syntrixbase/searchnav/internal/page"
)

// DefaultDebounce is how long a search input must stay unchanged before its
// form is submitted.
const DefaultDebounce = 500 * time.Millisecond

// Timers schedules work back onto the page's event loop.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) *eventloop.Timer
}

// Config tunes the debounce window.
type Config struct {
	Debounce time.Duration
}

// Attach wires every managed form of doc. It returns a func that cancels any
// pending debounced submission. Pages without managed forms are left alone.
// Attach and the handlers it installs run on the event loop.
func Attach(doc page.Document, timers Timers, cfg Config, logger *slog.Logger) (stop func()) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "autosubmit")

	forms := doc.Forms()
	if len(forms) == 0 {
		return func() {}
	}

	// One timer for the whole page: typing in any search box restarts it.
	var pending *eventloop.Timer
	cancel := func() {
		if pending != nil {
			pending.Stop()
			pending = nil
		}
	}

	for _, form := range forms {
		form := form
		for _, input := range form.AutoSubmitInputs() {
			input.OnChange(func(ctl page.Control) {
				cancel()
				if ctl.Type() == page.TypeSearch {
					pending = timers.AfterFunc(cfg.Debounce, func() {
						pending = nil
						logger.Debug("Submitting after search input settled", "input", ctl.Name())
						form.RequestSubmit()
					})
					return
				}
				logger.Debug("Submitting after input change", "input", ctl.Name())
				form.RequestSubmit()
			})
		}
	}
	return cancel
}
