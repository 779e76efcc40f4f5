//go:build js && wasm

package jsdom

import (
	"syscall/js"

	"github.com/syntrixbase/searchnav/internal/page"
)

// Form wraps a form element.
type Form struct {
	doc *Document
	el  js.Value
}

var _ page.Form = (*Form)(nil)

// Controls implements page.Form.
func (f *Form) Controls() []page.Control {
	elements := f.el.Get("elements")
	n := elements.Length()
	out := make([]page.Control, 0, n)
	for i := 0; i < n; i++ {
		el := elements.Index(i)
		if controlType(el) == "" {
			continue
		}
		out = append(out, &Control{doc: f.doc, el: el})
	}
	return out
}

// AutoSubmitInputs implements page.Form.
func (f *Form) AutoSubmitInputs() []page.Control {
	var out []page.Control
	for _, el := range f.doc.evaluate(f.doc.sel.AutoSubmitInput, f.el) {
		if controlType(el) == "" {
			continue
		}
		out = append(out, &Control{doc: f.doc, el: el})
	}
	return out
}

// OnSubmit implements page.Form. The browser's own submission is always
// prevented.
func (f *Form) OnSubmit(fn func(page.Form)) {
	f.doc.listen(f.el, []string{"submit"}, true, func() { fn(f) })
}

// RequestSubmit presses the form's submit button, falling back to
// requestSubmit when there is none.
func (f *Form) RequestSubmit() {
	btn := f.el.Call("querySelector", `input[type="submit"], button[type="submit"]`)
	if btn.Truthy() {
		btn.Call("click")
		return
	}
	f.el.Call("requestSubmit")
}

// Control wraps an input or select element.
type Control struct {
	doc *Document
	el  js.Value
}

var _ page.Control = (*Control)(nil)

func (c *Control) Name() string  { return c.el.Get("name").String() }
func (c *Control) Type() string  { return controlType(c.el) }
func (c *Control) Value() string { return c.el.Get("value").String() }

func (c *Control) Checked() bool {
	v := c.el.Get("checked")
	return v.Type() == js.TypeBoolean && v.Bool()
}

// OnChange implements page.Control.
func (c *Control) OnChange(fn func(page.Control)) {
	c.doc.listen(c.el, []string{"change", "paste", "search"}, false, func() { fn(c) })
}

// Region wraps a container element.
type Region struct {
	el js.Value
}

var _ page.Region = (*Region)(nil)

func (r *Region) Clear() { r.el.Set("innerHTML", "") }

// AppendHTML inserts fragment after the region's last child.
func (r *Region) AppendHTML(fragment string) error {
	r.el.Call("insertAdjacentHTML", "beforeend", fragment)
	return nil
}

func (r *Region) HTML() string { return r.el.Get("innerHTML").String() }

func (r *Region) SetBusy(busy bool) {
	if busy {
		r.el.Call("setAttribute", "aria-busy", "true")
		return
	}
	r.el.Call("removeAttribute", "aria-busy")
}
