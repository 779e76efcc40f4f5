package htmldoc

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/syntrixbase/searchnav/internal/page"
)

// Form is a managed form element.
type Form struct {
	doc      *Document
	node     *html.Node
	handlers []func(page.Form)
}

var _ page.Form = (*Form)(nil)

// Controls implements page.Form.
func (f *Form) Controls() []page.Control {
	var out []page.Control
	for _, n := range controlNodes(f.node) {
		out = append(out, f.doc.control(n))
	}
	return out
}

// AutoSubmitInputs implements page.Form.
func (f *Form) AutoSubmitInputs() []page.Control {
	var out []page.Control
	for _, n := range f.doc.queryAll(f.node, f.doc.sel.AutoSubmitInput) {
		if isElement(n, atom.Input) || isElement(n, atom.Select) {
			out = append(out, f.doc.control(n))
		}
	}
	return out
}

// OnSubmit implements page.Form.
func (f *Form) OnSubmit(fn func(page.Form)) {
	f.handlers = append(f.handlers, fn)
}

// RequestSubmit implements page.Form. Without handlers there is no browser to
// fall back to, so the submission is dropped.
func (f *Form) RequestSubmit() {
	if len(f.handlers) == 0 {
		f.doc.logger.Debug("Form submitted without handlers")
		return
	}
	for _, h := range f.handlers {
		h(f)
	}
}

// Control is an input or select element.
type Control struct {
	node     *html.Node
	handlers []func(page.Control)
}

var _ page.Control = (*Control)(nil)

func (c *Control) attr(key string) string {
	v, _ := getAttr(c.node, key)
	return v
}

// Name implements page.Control.
func (c *Control) Name() string {
	return c.attr("name")
}

// Type implements page.Control.
func (c *Control) Type() string {
	if isElement(c.node, atom.Select) {
		return page.TypeSelect
	}
	t := strings.ToLower(strings.TrimSpace(c.attr("type")))
	if t == "" {
		return "text"
	}
	return t
}

// Value implements page.Control.
func (c *Control) Value() string {
	if c.Type() != page.TypeSelect {
		return c.attr("value")
	}
	opt := c.selectedOption()
	if opt == nil {
		return ""
	}
	if v, ok := getAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(htmlquery.InnerText(opt))
}

// Checked implements page.Control.
func (c *Control) Checked() bool {
	_, ok := getAttr(c.node, "checked")
	return ok
}

// OnChange implements page.Control.
func (c *Control) OnChange(fn func(page.Control)) {
	c.handlers = append(c.handlers, fn)
}

// SetValue changes the value without dispatching change events, like a
// script assigning to the element's value.
func (c *Control) SetValue(v string) {
	if c.Type() != page.TypeSelect {
		setAttr(c.node, "value", v)
		return
	}
	for _, opt := range c.options() {
		ov, ok := getAttr(opt, "value")
		if !ok {
			ov = strings.TrimSpace(htmlquery.InnerText(opt))
		}
		if ov == v {
			setAttr(opt, "selected", "")
		} else {
			removeAttr(opt, "selected")
		}
	}
}

// SetChecked changes the checked state without dispatching change events.
func (c *Control) SetChecked(checked bool) {
	if checked {
		setAttr(c.node, "checked", "")
		return
	}
	removeAttr(c.node, "checked")
}

// Input sets the value the way a user would and dispatches change.
func (c *Control) Input(v string) {
	c.SetValue(v)
	c.dispatch()
}

// Toggle sets the checked state the way a user would and dispatches change.
func (c *Control) Toggle(checked bool) {
	c.SetChecked(checked)
	c.dispatch()
}

func (c *Control) dispatch() {
	for _, h := range c.handlers {
		h(c)
	}
}

func (c *Control) options() []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if isElement(child, atom.Option) {
				out = append(out, child)
				continue
			}
			walk(child)
		}
	}
	walk(c.node)
	return out
}

func (c *Control) selectedOption() *html.Node {
	opts := c.options()
	for _, opt := range opts {
		if _, ok := getAttr(opt, "selected"); ok {
			return opt
		}
	}
	if len(opts) > 0 {
		return opts[0]
	}
	return nil
}
