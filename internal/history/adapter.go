// Package history wraps the page's session history stack: pushing and
// replacing entries that carry navigation state, and delivering that state
// back when the user moves through the stack.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/syntrixbase/searchnav/internal/filterstate"
)

var (
	// ErrMissingState is reported for a restored entry that carries no
	// navigation state, such as one created before the adapter existed.
	ErrMissingState = errors.New("history: entry has no navigation state")
	// ErrMalformedState is reported for state that cannot be decoded. It
	// wraps ErrMissingState.
	ErrMalformedState = fmt.Errorf("%w: malformed", ErrMissingState)
	// ErrAlreadyInitialised is returned by a second Initialise call.
	ErrAlreadyInitialised = errors.New("history: already initialised")
)

// Entry is the state attached to a history entry.
type Entry struct {
	URL            string            `json:"url"`
	CurrentQueries filterstate.State `json:"currentQueries"`
}

// Backend is one session history stack. There is exactly one per page.
type Backend interface {
	// Location returns the URL of the current entry.
	Location() *url.URL
	// Supported reports whether entries can be pushed and replaced.
	Supported() bool
	PushState(state json.RawMessage, rawURL string) error
	ReplaceState(state json.RawMessage, rawURL string) error
	// Subscribe registers fn for restore notifications. A nil state means the
	// entry has none. The returned func cancels the subscription.
	Subscribe(fn func(state json.RawMessage)) (unsubscribe func())
}

// RestoreFunc receives the entry delivered by a restore notification, or an
// error wrapping ErrMissingState when there is none. The adapter does not log
// the error; reporting it is up to the receiver.
type RestoreFunc func(entry *Entry, err error)

// Adapter pushes and restores navigation entries on a Backend. Initialise it
// once per page.
type Adapter struct {
	backend Backend
	logger  *slog.Logger

	mu          sync.Mutex
	initialised bool
	supported   bool
	unsubscribe func()
}

// NewAdapter creates an adapter over backend.
func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend: backend,
		logger:  logger.With("component", "history"),
	}
}

// Initialise detects push support and, when present, subscribes onRestore to
// restore notifications.
func (a *Adapter) Initialise(onRestore RestoreFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialised {
		return ErrAlreadyInitialised
	}
	a.initialised = true
	a.supported = a.backend.Supported()
	if !a.supported {
		return nil
	}

	a.unsubscribe = a.backend.Subscribe(func(state json.RawMessage) {
		entry, err := decodeEntry(state)
		if err != nil {
			onRestore(nil, err)
			return
		}
		onRestore(entry, nil)
	})
	return nil
}

// Supported reports whether Initialise found push support.
func (a *Adapter) Supported() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.supported
}

// Location returns the URL of the current entry.
func (a *Adapter) Location() *url.URL {
	return a.backend.Location()
}

// Push adds a new entry for rawURL carrying queries. Without push support it
// does nothing.
func (a *Adapter) Push(rawURL string, queries filterstate.State) {
	a.write("push", a.backend.PushState, rawURL, queries)
}

// Replace overwrites the current entry with rawURL and queries. Without push
// support it does nothing.
func (a *Adapter) Replace(rawURL string, queries filterstate.State) {
	a.write("replace", a.backend.ReplaceState, rawURL, queries)
}

func (a *Adapter) write(op string, fn func(json.RawMessage, string) error, rawURL string, queries filterstate.State) {
	if !a.Supported() {
		return
	}
	state, err := json.Marshal(Entry{URL: rawURL, CurrentQueries: queries.Clone()})
	if err != nil {
		a.logger.Error("Failed to encode history state", "op", op, "url", rawURL, "error", err)
		return
	}
	if err := fn(state, rawURL); err != nil {
		a.logger.Error("Failed to update history", "op", op, "url", rawURL, "error", err)
	}
}

// Close cancels the restore subscription.
func (a *Adapter) Close() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func decodeEntry(state json.RawMessage) (*Entry, error) {
	if len(state) == 0 || string(state) == "null" {
		return nil, ErrMissingState
	}
	var entry Entry
	if err := json.Unmarshal(state, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if entry.URL == "" {
		return nil, fmt.Errorf("%w: no url", ErrMalformedState)
	}
	entry.CurrentQueries = entry.CurrentQueries.Normalize()
	return &entry, nil
}
