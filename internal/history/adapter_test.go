package history

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/searchnav/internal/filterstate"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type restore struct {
	entry *Entry
	err   error
}

func newTestAdapter(t *testing.T, opts ...StackOption) (*Adapter, *SessionStack, *[]restore) {
	t.Helper()
	stack := NewSessionStack(mustURL(t, "http://example.test/search"), opts...)
	a := NewAdapter(stack, nil)
	var got []restore
	require.NoError(t, a.Initialise(func(e *Entry, err error) {
		got = append(got, restore{e, err})
	}))
	t.Cleanup(a.Close)
	return a, stack, &got
}

func TestAdapter_PushAndRestore(t *testing.T) {
	a, stack, got := newTestAdapter(t)

	a.Replace("/search", filterstate.Empty())
	a.Push("/search?q=cats", filterstate.State{Q: "cats", Filters: []string{"x"}})

	assert.Equal(t, 2, stack.Len())
	assert.Equal(t, "/search?q=cats", a.Location().RequestURI())
	assert.Equal(t, "example.test", a.Location().Host)

	require.True(t, stack.Back())
	require.Len(t, *got, 1)
	r := (*got)[0]
	require.NoError(t, r.err)
	assert.Equal(t, "/search", r.entry.URL)
	assert.NotNil(t, r.entry.CurrentQueries.Filters)
	assert.Empty(t, r.entry.CurrentQueries.Filters)

	require.True(t, stack.Forward())
	r = (*got)[1]
	require.NoError(t, r.err)
	assert.Equal(t, "/search?q=cats", r.entry.URL)
	assert.Equal(t, "cats", r.entry.CurrentQueries.Q)
	assert.Equal(t, []string{"x"}, r.entry.CurrentQueries.Filters)
}

func TestAdapter_EntryJSON(t *testing.T) {
	a, stack, _ := newTestAdapter(t)
	a.Push("/search?q=a", filterstate.State{Q: "a"})

	assert.JSONEq(t, `{"url":"/search?q=a","currentQueries":{"q":"a","filters":[]}}`, string(stack.State()))
}

func TestAdapter_MissingState(t *testing.T) {
	a, stack, got := newTestAdapter(t)
	a.Push("/search?q=cats", filterstate.State{Q: "cats"})

	// The initial entry predates the adapter and carries nothing.
	require.True(t, stack.Back())
	require.Len(t, *got, 1)
	assert.Nil(t, (*got)[0].entry)
	assert.ErrorIs(t, (*got)[0].err, ErrMissingState)
}

func TestAdapter_MalformedState(t *testing.T) {
	_, stack, got := newTestAdapter(t)
	require.NoError(t, stack.PushState(json.RawMessage(`{"url":`), "/a"))
	require.NoError(t, stack.PushState(json.RawMessage(`{"currentQueries":{}}`), "/b"))
	require.NoError(t, stack.PushState(json.RawMessage(`{}`), "/c"))

	require.True(t, stack.Back())
	require.True(t, stack.Back())
	require.Len(t, *got, 2)
	for _, r := range *got {
		assert.ErrorIs(t, r.err, ErrMalformedState)
		assert.ErrorIs(t, r.err, ErrMissingState)
	}
}

func TestAdapter_Unsupported(t *testing.T) {
	a, stack, got := newTestAdapter(t, WithoutPushState())

	assert.False(t, a.Supported())
	a.Replace("/search?q=x", filterstate.Empty())
	a.Push("/search?q=y", filterstate.Empty())

	assert.Equal(t, 1, stack.Len())
	assert.Equal(t, "/search", a.Location().RequestURI())
	assert.Nil(t, stack.State())
	assert.Empty(t, *got)
}

func TestAdapter_InitialiseTwice(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	assert.ErrorIs(t, a.Initialise(func(*Entry, error) {}), ErrAlreadyInitialised)
}

func TestAdapter_CloseStopsNotifications(t *testing.T) {
	a, stack, got := newTestAdapter(t)
	a.Push("/search?q=1", filterstate.Empty())
	a.Close()

	require.True(t, stack.Back())
	assert.Empty(t, *got)
}
