package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStack_PushTruncatesForward(t *testing.T) {
	s := NewSessionStack(mustURL(t, "http://example.test/search"))
	require.NoError(t, s.PushState(json.RawMessage(`1`), "?q=a"))
	require.NoError(t, s.PushState(json.RawMessage(`2`), "?q=b"))
	require.True(t, s.Back())

	require.NoError(t, s.PushState(json.RawMessage(`3`), "/search?q=c"))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Index())
	assert.Equal(t, "/search?q=c", s.Location().RequestURI())
	assert.False(t, s.Forward())
}

func TestSessionStack_Go(t *testing.T) {
	s := NewSessionStack(mustURL(t, "http://example.test/"))
	require.NoError(t, s.PushState(nil, "/a"))
	require.NoError(t, s.PushState(nil, "/b"))

	var delivered int
	s.Subscribe(func(json.RawMessage) { delivered++ })

	assert.False(t, s.Go(0))
	assert.False(t, s.Go(-3))
	assert.True(t, s.Go(-2))
	assert.Equal(t, "/", s.Location().Path)
	assert.False(t, s.Back())
	assert.Equal(t, 1, delivered)
}

func TestSessionStack_ReplaceKeepsPosition(t *testing.T) {
	s := NewSessionStack(mustURL(t, "http://example.test/search?q=a"))
	require.NoError(t, s.ReplaceState(json.RawMessage(`{"x":1}`), "/search?q=b"))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "q=b", s.Location().RawQuery)
	assert.JSONEq(t, `{"x":1}`, string(s.State()))
}

func TestSessionStack_LocationIsCopy(t *testing.T) {
	s := NewSessionStack(mustURL(t, "http://example.test/search"))
	s.Location().Path = "/changed"
	assert.Equal(t, "/search", s.Location().Path)
}

func TestSessionStack_StaleUnsubscribe(t *testing.T) {
	s := NewSessionStack(mustURL(t, "http://example.test/"))
	require.NoError(t, s.PushState(nil, "/a"))

	first := s.Subscribe(func(json.RawMessage) {})
	var second int
	s.Subscribe(func(json.RawMessage) { second++ })
	first()

	require.True(t, s.Back())
	assert.Equal(t, 1, second)
}
