package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/searchnav/internal/filterstate"
	"github.com/syntrixbase/searchnav/internal/searchserver"
	"github.com/syntrixbase/searchnav/internal/server"
)

type backend struct {
	*httptest.Server
	requests atomic.Int64
	fail     atomic.Bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	svc := server.New(server.Config{DisableMetrics: true}, nil)
	searchserver.NewHandler(searchserver.SampleCatalogue(), searchserver.Config{DefaultSize: 5, MaxSize: 5}, nil).Register(svc)
	h := svc.Handler()
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		if b.fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func openTab(t *testing.T, rawURL string, opts Options) *Tab {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	tab, err := Open(testCtx(t), rawURL, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tab.Close() })
	return tab
}

func must[T any](t *testing.T) func(T, error) T {
	return func(v T, err error) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func TestTab_SubmitRefreshesInPlace(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)
	tab := openTab(t, b.URL+"/search?filter=news", Options{})

	assert.Contains(t, must[string](t)(tab.Results(ctx)), "Drought status update")
	loads := b.requests.Load()

	require.NoError(t, tab.Check(ctx, "research", true))
	require.NoError(t, tab.Wait(ctx))

	loc := must[string](t)(tab.Location(ctx))
	assert.Contains(t, loc, "filter=news&filter=research")
	assert.Contains(t, must[string](t)(tab.Results(ctx)), "Wetland restoration")
	assert.Equal(t, 2, must[int](t)(tab.HistoryLen(ctx)))
	assert.Equal(t, loads+1, b.requests.Load(), "one fetch, no full reload")

	html := must[string](t)(tab.HTML(ctx))
	assert.Contains(t, html, `class="js-auto-submit__form"`, "form survives the refresh")
}

func TestTab_BackRestoresFormAndResults(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)
	tab := openTab(t, b.URL+"/search?filter=news", Options{})
	initial := must[string](t)(tab.Results(ctx))

	require.NoError(t, tab.Check(ctx, "statistics", true))
	require.NoError(t, tab.Wait(ctx))
	after := must[string](t)(tab.Results(ctx))
	require.NotEqual(t, initial, after)

	settled := must[int](t)(tab.Settled(ctx))
	moved := must[bool](t)(tab.Back(ctx))
	require.True(t, moved)
	require.Eventually(t, func() bool {
		n, err := tab.Settled(ctx)
		return err == nil && n > settled
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, tab.Wait(ctx))

	assert.Equal(t, initial, must[string](t)(tab.Results(ctx)))
	cur := must[filterstate.State](t)(tab.Current(ctx))
	assert.Equal(t, []string{"news"}, cur.Filters)

	html := must[string](t)(tab.HTML(ctx))
	assert.Regexp(t, `value="news" checked`, html)
	assert.NotRegexp(t, `value="statistics" checked`, html)

	moved = must[bool](t)(tab.Forward(ctx))
	require.True(t, moved)
	require.Eventually(t, func() bool {
		r, err := tab.Results(ctx)
		return err == nil && r == after
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTab_SearchInputIsDebounced(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)
	tab := openTab(t, b.URL+"/search", Options{Debounce: 50 * time.Millisecond})
	loads := b.requests.Load()

	for _, v := range []string{"f", "fl", "flo", "flood"} {
		require.NoError(t, tab.Fill(ctx, "q", v))
	}

	require.Eventually(t, func() bool {
		loc, err := tab.Location(ctx)
		return err == nil && strings.Contains(loc, "q=flood")
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, tab.Wait(ctx))

	assert.Equal(t, loads+1, b.requests.Load(), "burst collapsed into one refresh")
	assert.Contains(t, must[string](t)(tab.Summary(ctx)), "<strong>flood</strong>")
}

func TestTab_FetchFailureShowsMessage(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)
	tab := openTab(t, b.URL+"/search", Options{ErrorMessage: "<p>unavailable</p>"})

	b.fail.Store(true)
	require.NoError(t, tab.Check(ctx, "news", true))
	require.NoError(t, tab.Wait(ctx))

	assert.Equal(t, "<p>unavailable</p>", must[string](t)(tab.Results(ctx)))
	assert.Empty(t, must[string](t)(tab.Summary(ctx)))

	b.fail.Store(false)
	require.NoError(t, tab.Check(ctx, "research", true))
	require.NoError(t, tab.Wait(ctx))
	assert.Contains(t, must[string](t)(tab.Results(ctx)), "results__list", "page stays interactive")
}

func TestTab_WithoutPushStateFallsBackToFullLoads(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)
	tab := openTab(t, b.URL+"/search", Options{WithoutPushState: true})

	require.NoError(t, tab.Check(ctx, "research", true))
	require.Eventually(t, func() bool {
		loc, err := tab.Location(ctx)
		return err == nil && strings.Contains(loc, "filter=research")
	}, 2*time.Second, 5*time.Millisecond)

	cur := must[filterstate.State](t)(tab.Current(ctx))
	assert.Equal(t, []string{"research"}, cur.Filters)
	assert.Contains(t, must[string](t)(tab.Results(ctx)), "Coastal erosion")
	assert.Equal(t, 1, must[int](t)(tab.HistoryLen(ctx)))
}

func TestTab_Errors(t *testing.T) {
	b := newBackend(t)
	ctx := testCtx(t)

	_, err := Open(ctx, b.URL+"/missing", Options{})
	assert.Error(t, err)

	tab := openTab(t, b.URL+"/search", Options{})
	assert.ErrorIs(t, tab.Fill(ctx, "nope", "x"), ErrNoControl)
	assert.ErrorIs(t, tab.Check(ctx, "ghost", true), ErrNoControl)
	assert.ErrorIs(t, tab.Submit(ctx, 3), ErrNoForm)

	moved, err := tab.Back(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	require.NoError(t, tab.Close())
	require.NoError(t, tab.Close())
	_, err = tab.Location(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
