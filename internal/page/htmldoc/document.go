// Package htmldoc implements page bindings over a parsed HTML document, for
// driving a search page without a browser.
package htmldoc

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/syntrixbase/searchnav/internal/page"
)

// Document is a parsed search page. Wrappers handed out for forms, controls
// and regions are stable: asking twice for the same element returns the same
// value, so registered handlers survive repeated lookups.
type Document struct {
	root   *html.Node
	sel    page.Selectors
	logger *slog.Logger

	forms    map[*html.Node]*Form
	controls map[*html.Node]*Control
	regions  map[*html.Node]*Region
}

var _ page.Document = (*Document)(nil)

// Parse reads an HTML page.
func Parse(r io.Reader, sel page.Selectors, logger *slog.Logger) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return New(root, sel, logger), nil
}

// New wraps an already parsed document.
func New(root *html.Node, sel page.Selectors, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	sel.ApplyDefaults()
	return &Document{
		root:     root,
		sel:      sel,
		logger:   logger.With("component", "htmldoc"),
		forms:    make(map[*html.Node]*Form),
		controls: make(map[*html.Node]*Control),
		regions:  make(map[*html.Node]*Region),
	}
}

// Root returns the underlying node tree.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serialises the whole document.
func (d *Document) Render() string {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		d.logger.Warn("Failed to render document", "error", err)
	}
	return sb.String()
}

func (d *Document) queryAll(top *html.Node, expr string) []*html.Node {
	nodes, err := htmlquery.QueryAll(top, expr)
	if err != nil {
		d.logger.Warn("Invalid selector", "selector", expr, "error", err)
		return nil
	}
	return nodes
}

func (d *Document) query(top *html.Node, expr string) *html.Node {
	nodes := d.queryAll(top, expr)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Forms implements page.Document.
func (d *Document) Forms() []page.Form {
	var forms []page.Form
	for _, n := range d.queryAll(d.root, d.sel.Forms) {
		forms = append(forms, d.form(n))
	}
	return forms
}

// FormAt returns the i-th managed form, or nil.
func (d *Document) FormAt(i int) *Form {
	nodes := d.queryAll(d.root, d.sel.Forms)
	if i < 0 || i >= len(nodes) {
		return nil
	}
	return d.form(nodes[i])
}

func (d *Document) form(n *html.Node) *Form {
	if f, ok := d.forms[n]; ok {
		return f
	}
	f := &Form{doc: d, node: n}
	d.forms[n] = f
	return f
}

func (d *Document) control(n *html.Node) *Control {
	if c, ok := d.controls[n]; ok {
		return c
	}
	c := &Control{node: n}
	d.controls[n] = c
	return c
}

func (d *Document) region(expr string) *Region {
	n := d.query(d.root, expr)
	if n == nil {
		return nil
	}
	if r, ok := d.regions[n]; ok {
		return r
	}
	r := &Region{node: n, logger: d.logger}
	d.regions[n] = r
	return r
}

// Results implements page.Document.
func (d *Document) Results() page.Region {
	return nilableRegion(d.region(d.sel.Results))
}

// Summary implements page.Document.
func (d *Document) Summary() page.Region {
	return nilableRegion(d.region(d.sel.Summary))
}

// Pagination implements page.Document.
func (d *Document) Pagination() page.Region {
	return nilableRegion(d.region(d.sel.Pagination))
}

// nilableRegion keeps a nil *Region from turning into a non-nil interface.
func nilableRegion(r *Region) page.Region {
	if r == nil {
		return nil
	}
	return r
}

// Controls returns every named input and select in the document.
func (d *Document) Controls() []*Control {
	var out []*Control
	for _, n := range controlNodes(d.root) {
		if _, ok := getAttr(n, "name"); ok {
			out = append(out, d.control(n))
		}
	}
	return out
}

// controlNodes walks top in document order collecting input and select
// elements. XPath unions do not guarantee document order.
func controlNodes(top *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c, atom.Input) || isElement(c, atom.Select) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(top)
	return out
}

// FindControl returns the first control with the given name, restricted to
// the given value when value is not empty.
func (d *Document) FindControl(name, value string) *Control {
	for _, c := range d.Controls() {
		if c.Name() != name {
			continue
		}
		if value != "" && c.attr("value") != value {
			continue
		}
		return c
	}
	return nil
}

// SetFilterChecked implements page.Document.
func (d *Document) SetFilterChecked(value string, checked bool) bool {
	found := false
	for _, c := range d.Controls() {
		if c.Name() == "filter" && c.Type() == page.TypeCheckbox && c.attr("value") == value {
			c.SetChecked(checked)
			found = true
		}
	}
	return found
}

// SetFieldValue implements page.Document. Radio groups select the radio whose
// value matches; other controls take the value directly.
func (d *Document) SetFieldValue(name, value string) bool {
	var radios []*Control
	for _, c := range d.Controls() {
		if c.Name() != name {
			continue
		}
		switch c.Type() {
		case page.TypeHidden, page.TypeCheckbox:
			continue
		case page.TypeRadio:
			radios = append(radios, c)
			continue
		}
		c.SetValue(value)
		return true
	}
	for _, r := range radios {
		r.SetChecked(r.attr("value") == value)
	}
	return len(radios) > 0
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}
