// Package searchserver is a demo search backend whose results page carries
// the markup the navigator enhances.
package searchserver

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/syntrixbase/searchnav/internal/filterstate"
	"github.com/syntrixbase/searchnav/internal/server"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageParam selects the results page. It is not part of the filter state.
const PageParam = "page"

var (
	sortOptions = []option{
		{SortRelevance, "Most relevant"},
		{SortNewest, "Newest"},
		{SortOldest, "Oldest"},
		{SortTitle, "Title"},
	}
	sizeOptions = []string{"10", "20", "50"}
)

type option struct {
	Value string
	Label string
}

type pageLink struct {
	Label   string
	Href    string
	Current bool
}

type pageData struct {
	Title   string
	State   filterstate.State
	Tags    []Tag
	Sorts   []option
	Sizes   []string
	Results Results
	Links   []pageLink
	Assets  bool
}

// Handler serves the search page.
type Handler struct {
	cat    *Catalogue
	cfg    Config
	tmpl   *template.Template
	logger *slog.Logger
}

// NewHandler creates a Handler over cat.
func NewHandler(cat *Catalogue, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	tmpl := template.Must(template.New("page").Funcs(template.FuncMap{
		"has": slices.Contains[[]string],
	}).ParseFS(templateFS, "templates/*.tmpl"))

	return &Handler{
		cat:    cat,
		cfg:    cfg,
		tmpl:   tmpl,
		logger: logger.With("component", "searchserver"),
	}
}

// Register mounts the search routes on svc.
func (h *Handler) Register(svc server.Service) {
	svc.RegisterHTTPHandler("GET /search", h)
	svc.RegisterHTTPHandler("GET /{$}", http.RedirectHandler("/search", http.StatusFound))
	svc.RegisterHTTPHandler("GET /healthz", http.HandlerFunc(healthz))
	if h.cfg.AssetsDir != "" {
		svc.RegisterHTTPHandler("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(h.cfg.AssetsDir))))
	}
}

// ServeHTTP renders the full results page. Enhanced and plain navigations
// receive the same markup.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := filterstate.FromValues(query)
	pageNo, _ := strconv.Atoi(query.Get(PageParam))

	res := h.cat.Search(Request{State: state, Page: pageNo}, h.cfg.DefaultSize, h.cfg.MaxSize)

	data := pageData{
		Title:   h.cfg.Title,
		State:   state,
		Tags:    h.cat.Tags,
		Sorts:   sortOptions,
		Sizes:   sizeOptions,
		Results: res,
		Links:   paginationLinks(r.URL.Path, state, res),
		Assets:  h.cfg.AssetsDir != "",
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page.html.tmpl", data); err != nil {
		h.logger.Error("Failed to render search page", "error", err, "request_id", server.GetRequestID(r.Context()))
		server.WriteError(w, http.StatusInternalServerError, "RENDER_ERROR", "Failed to render page")
		return
	}

	h.logger.Debug("Search served",
		"terms", res.Terms,
		"filters", state.Filters,
		"total", res.Total,
		"page", res.Page,
		"request_id", server.GetRequestID(r.Context()),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// paginationLinks returns previous, numbered and next links, or nothing for a
// single page.
func paginationLinks(path string, state filterstate.State, res Results) []pageLink {
	if res.Pages <= 1 {
		return nil
	}
	href := func(n int) string {
		q := filterstate.Encode(state)
		if q == "" {
			return path + "?" + PageParam + "=" + strconv.Itoa(n)
		}
		return path + q + "&" + PageParam + "=" + strconv.Itoa(n)
	}

	var links []pageLink
	if res.Page > 1 {
		links = append(links, pageLink{Label: "Previous", Href: href(res.Page - 1)})
	}
	for n := 1; n <= res.Pages; n++ {
		links = append(links, pageLink{Label: strconv.Itoa(n), Href: href(n), Current: n == res.Page})
	}
	if res.Page < res.Pages {
		links = append(links, pageLink{Label: "Next", Href: href(res.Page + 1)})
	}
	return links
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
