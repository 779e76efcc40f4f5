//go:build js && wasm

// Package jsdom binds the navigator to the live browser DOM through
// syscall/js. Event callbacks are handed to a Poster so that page state is
// only touched from the event loop.
package jsdom

import (
	"log/slog"
	"strings"
	"syscall/js"

	"github.com/syntrixbase/searchnav/internal/page"
)

// orderedSnapshot is XPathResult.ORDERED_NODE_SNAPSHOT_TYPE.
const orderedSnapshot = 7

// Poster schedules work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

// Supported reports whether the browser offers everything the navigator
// needs: XPath evaluation, history push and fetch.
func Supported() bool {
	g := js.Global()
	doc := g.Get("document")
	hist := g.Get("history")
	return doc.Truthy() &&
		doc.Get("evaluate").Type() == js.TypeFunction &&
		hist.Truthy() &&
		hist.Get("pushState").Type() == js.TypeFunction &&
		g.Get("fetch").Type() == js.TypeFunction
}

// Document is the browser's document.
type Document struct {
	doc    js.Value
	sel    page.Selectors
	loop   Poster
	logger *slog.Logger

	// Every js.Func handed to the DOM, released by Release.
	funcs []js.Func
}

var _ page.Document = (*Document)(nil)

// New binds the global document.
func New(sel page.Selectors, loop Poster, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	sel.ApplyDefaults()
	return &Document{
		doc:    js.Global().Get("document"),
		sel:    sel,
		loop:   loop,
		logger: logger.With("component", "jsdom"),
	}
}

// Release removes nothing from the DOM but frees every callback. Call it
// once the page is torn down.
func (d *Document) Release() {
	for _, fn := range d.funcs {
		fn.Release()
	}
	d.funcs = nil
}

// listen attaches handler for each event type on target. The handler runs on
// the loop; prevent, when set, runs synchronously inside the event.
func (d *Document) listen(target js.Value, events []string, prevent bool, handler func()) {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		if prevent && len(args) > 0 {
			args[0].Call("preventDefault")
		}
		if !d.loop.Post(handler) {
			d.logger.Debug("Event dropped, loop stopped")
		}
		return nil
	})
	d.funcs = append(d.funcs, fn)
	for _, ev := range events {
		target.Call("addEventListener", ev, fn)
	}
}

func (d *Document) evaluate(expr string, ctx js.Value) []js.Value {
	res := d.doc.Call("evaluate", expr, ctx, js.Null(), orderedSnapshot, js.Null())
	n := res.Get("snapshotLength").Int()
	out := make([]js.Value, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, res.Call("snapshotItem", i))
	}
	return out
}

func (d *Document) first(expr string) js.Value {
	if nodes := d.evaluate(expr, d.doc); len(nodes) > 0 {
		return nodes[0]
	}
	return js.Null()
}

// Forms implements page.Document.
func (d *Document) Forms() []page.Form {
	var out []page.Form
	for _, n := range d.evaluate(d.sel.Forms, d.doc) {
		out = append(out, &Form{doc: d, el: n})
	}
	return out
}

func (d *Document) region(expr string) page.Region {
	el := d.first(expr)
	if !el.Truthy() {
		return nil
	}
	return &Region{el: el}
}

// Results implements page.Document.
func (d *Document) Results() page.Region { return d.region(d.sel.Results) }

// Summary implements page.Document.
func (d *Document) Summary() page.Region { return d.region(d.sel.Summary) }

// Pagination implements page.Document.
func (d *Document) Pagination() page.Region { return d.region(d.sel.Pagination) }

// SetFilterChecked implements page.Document.
func (d *Document) SetFilterChecked(value string, checked bool) bool {
	found := false
	for _, el := range d.named("filter") {
		if strings.EqualFold(el.Get("type").String(), page.TypeCheckbox) && el.Get("value").String() == value {
			el.Set("checked", checked)
			found = true
		}
	}
	return found
}

// SetFieldValue implements page.Document.
func (d *Document) SetFieldValue(name, value string) bool {
	var radios []js.Value
	for _, el := range d.named(name) {
		switch controlType(el) {
		case page.TypeHidden, page.TypeCheckbox:
			continue
		case page.TypeRadio:
			radios = append(radios, el)
			continue
		case "":
			continue
		}
		el.Set("value", value)
		return true
	}
	for _, r := range radios {
		r.Set("checked", r.Get("value").String() == value)
	}
	return len(radios) > 0
}

func (d *Document) named(name string) []js.Value {
	list := d.doc.Call("getElementsByName", name)
	n := list.Length()
	out := make([]js.Value, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, list.Index(i))
	}
	return out
}

// controlType maps an element to a page control type, or "" for elements
// that are not inputs or selects.
func controlType(el js.Value) string {
	switch strings.ToLower(el.Get("tagName").String()) {
	case "input":
		t := strings.ToLower(el.Get("type").String())
		if t == "" {
			return "text"
		}
		return t
	case "select":
		return page.TypeSelect
	default:
		return ""
	}
}
