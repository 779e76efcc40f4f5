// Package page defines the bindings between the navigator and a rendered
// search page: its managed forms, their controls and the regions that hold
// results. Implementations exist for a parsed HTML document (htmldoc) and for
// the browser DOM (jsdom).
//
// Bindings are not safe for concurrent use; callers touch them only from the
// event loop.
package page

// Control is one named input or select element.
type Control interface {
	Name() string
	// Type is the lower-cased input type ("text", "checkbox", "hidden", ...)
	// or "select" for select elements.
	Type() string
	// Value is the input's value, or the selected option's value for a
	// select.
	Value() string
	Checked() bool
	// OnChange registers fn for change, paste and search events.
	OnChange(fn func(Control))
}

// Form is a managed filter form.
type Form interface {
	// Controls returns the form's input and select elements in document
	// order.
	Controls() []Control
	// AutoSubmitInputs returns the controls marked for automatic submission.
	AutoSubmitInputs() []Control
	// OnSubmit intercepts submission: the default full-page navigation is
	// prevented and fn runs instead. Handlers run in registration order.
	OnSubmit(fn func(Form))
	// RequestSubmit submits the form as if its submit button was pressed.
	RequestSubmit()
}

// Region is a container whose children are swapped wholesale.
type Region interface {
	Clear()
	AppendHTML(fragment string) error
	HTML() string
	// SetBusy marks the region as loading.
	SetBusy(busy bool)
}

// Document gives typed access to the known parts of a search page.
type Document interface {
	// Forms returns the managed filter forms.
	Forms() []Form
	Results() Region
	Summary() Region
	// Pagination returns nil when the page has no pagination container.
	Pagination() Region
	// SetFilterChecked sets the checked state of the filter checkbox with the
	// given value. It reports false if no such checkbox exists.
	SetFilterChecked(value string, checked bool) bool
	// SetFieldValue writes value into the first visible control with the given
	// name. It reports false if no such control exists.
	SetFieldValue(name, value string) bool
}

// Control types with special handling.
const (
	TypeCheckbox = "checkbox"
	TypeRadio    = "radio"
	TypeHidden   = "hidden"
	TypeSearch   = "search"
	TypeSelect   = "select"
)
