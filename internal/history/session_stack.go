package history

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"sync"
)

// SessionStack is an in-memory Backend for pages driven without a browser.
// Back, Forward and Go deliver restore notifications synchronously.
type SessionStack struct {
	mu        sync.Mutex
	entries   []stackEntry
	index     int
	listener  func(json.RawMessage)
	listenerN int
	noPush    bool
}

type stackEntry struct {
	url   *url.URL
	state json.RawMessage
}

// StackOption configures a SessionStack.
type StackOption func(*SessionStack)

// WithoutPushState simulates a browser without push/replace support.
func WithoutPushState() StackOption {
	return func(s *SessionStack) { s.noPush = true }
}

// NewSessionStack creates a stack whose only entry is initial, with no state.
func NewSessionStack(initial *url.URL, opts ...StackOption) *SessionStack {
	s := &SessionStack{
		entries: []stackEntry{{url: cloneURL(initial)}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location implements Backend.
func (s *SessionStack) Location() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneURL(s.entries[s.index].url)
}

// Supported implements Backend.
func (s *SessionStack) Supported() bool {
	return !s.noPush
}

// PushState implements Backend. Entries after the current one are discarded.
func (s *SessionStack) PushState(state json.RawMessage, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.resolve(rawURL)
	if err != nil {
		return err
	}
	s.entries = append(s.entries[:s.index+1], stackEntry{url: u, state: slices.Clone(state)})
	s.index++
	return nil
}

// ReplaceState implements Backend.
func (s *SessionStack) ReplaceState(state json.RawMessage, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.resolve(rawURL)
	if err != nil {
		return err
	}
	s.entries[s.index] = stackEntry{url: u, state: slices.Clone(state)}
	return nil
}

func (s *SessionStack) resolve(rawURL string) (*url.URL, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse history url %q: %w", rawURL, err)
	}
	return s.entries[s.index].url.ResolveReference(ref), nil
}

// Subscribe implements Backend. A new subscription replaces the previous one.
func (s *SessionStack) Subscribe(fn func(json.RawMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = fn
	s.listenerN++
	id := s.listenerN
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.listenerN == id {
			s.listener = nil
		}
	}
}

// Back moves one entry back. It reports false at the start of the stack.
func (s *SessionStack) Back() bool {
	return s.Go(-1)
}

// Forward moves one entry forward. It reports false at the end of the stack.
func (s *SessionStack) Forward() bool {
	return s.Go(1)
}

// Go moves delta entries and notifies the subscriber with the new entry's
// state. It reports false if the target is out of range.
func (s *SessionStack) Go(delta int) bool {
	s.mu.Lock()
	target := s.index + delta
	if delta == 0 || target < 0 || target >= len(s.entries) {
		s.mu.Unlock()
		return false
	}
	s.index = target
	state := slices.Clone(s.entries[target].state)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(state)
	}
	return true
}

// Len returns the number of entries.
func (s *SessionStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Index returns the position of the current entry.
func (s *SessionStack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// State returns the raw state of the current entry.
func (s *SessionStack) State() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries[s.index].state)
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{Path: "/"}
	}
	c := *u
	return &c
}
