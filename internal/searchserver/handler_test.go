package searchserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/searchnav/internal/fetch"
	"github.com/syntrixbase/searchnav/internal/page"
	"github.com/syntrixbase/searchnav/internal/server"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	svc := server.New(server.Config{DisableMetrics: true}, nil)
	NewHandler(SampleCatalogue(), cfg, nil).Register(svc)
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandler_RendersMarkedUpPage(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp, body := get(t, ts.URL+"/search?q=flood&filter=guidance&sortBy=newest")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	doc, err := htmlquery.Parse(strings.NewReader(body))
	require.NoError(t, err)

	sel := page.DefaultSelectors()
	assert.Len(t, htmlquery.Find(doc, sel.Forms), 1)
	assert.NotNil(t, htmlquery.FindOne(doc, `//input[@name="q" and @value="flood"]`))
	assert.NotNil(t, htmlquery.FindOne(doc, `//input[@name="filter" and @value="guidance" and @checked]`))
	assert.Nil(t, htmlquery.FindOne(doc, `//input[@name="filter" and @value="news" and @checked]`))
	assert.NotNil(t, htmlquery.FindOne(doc, `//select[@name="sortBy"]/option[@value="newest" and @selected]`))

	frag, err := fetch.Extract(doc, sel)
	require.NoError(t, err)
	assert.Contains(t, frag.Results, "Preparing your home for flooding")
	assert.NotContains(t, frag.Results, "River levels")
	assert.Contains(t, frag.Summary, "for <strong>flood</strong>")
	assert.Empty(t, frag.Pagination, "single page has no nav")
}

func TestHandler_Pagination(t *testing.T) {
	ts := newTestServer(t, Config{DefaultSize: 5, MaxSize: 5})

	_, body := get(t, ts.URL+"/search?filter=news&filter=guidance&page=2")
	doc, err := htmlquery.Parse(strings.NewReader(body))
	require.NoError(t, err)

	frag, err := fetch.Extract(doc, page.DefaultSelectors())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frag.Pagination, "<nav"))
	assert.Contains(t, frag.Pagination, `href="/search?filter=news&amp;filter=guidance&amp;page=1"`)
	assert.Contains(t, frag.Pagination, `aria-current="page"`)
}

func TestHandler_NoResults(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	_, body := get(t, ts.URL+"/search?q=volcano")
	assert.Contains(t, body, "No results match your search.")
	assert.Contains(t, body, "0 results")
}

func TestHandler_RootRedirectsAndHealth(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/search", resp.Header.Get("Location"))

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
}

func TestHandler_Assets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loader.js"), []byte("// loader"), 0o644))

	ts := newTestServer(t, Config{AssetsDir: dir})

	_, body := get(t, ts.URL+"/search")
	assert.Contains(t, body, `src="/assets/loader.js"`)

	resp, js := get(t, ts.URL+"/assets/loader.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "// loader", js)
}

func TestConfig_Lifecycle(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("SEARCHNAV_CATALOGUE", "catalogue.yml")
	cfg.ApplyEnvOverrides()
	cfg.ResolvePaths("/etc/searchnav")
	assert.Equal(t, filepath.Join("/etc/searchnav", "catalogue.yml"), cfg.CataloguePath)
	assert.NoError(t, cfg.Validate())

	cfg.MaxSize = 1
	assert.Error(t, cfg.Validate())
}

func TestLoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yml")
	require.NoError(t, os.WriteFile(path, []byte("tags: [{value: x, label: X}]\nitems: [{id: i, title: T, tags: [x], published: 2024-01-01}]\n"), 0o644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, 2024, cat.Items[0].Published.Year())

	_, err = LoadCatalogue(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
