// Package filterstate holds the search page's filter selections and maps them
// to and from URL query strings.
package filterstate

import "slices"

// Query-string names of the scalar fields, in the order Encode emits them.
const (
	FieldQ             = "q"
	FieldQuery         = "query"
	FieldSortBy        = "sortBy"
	FieldSize          = "size"
	FieldFromDateDay   = "fromDateDay"
	FieldFromDateMonth = "fromDateMonth"
	FieldFromDateYear  = "fromDateYear"
	FieldToDateDay     = "toDateDay"
	FieldToDateMonth   = "toDateMonth"
	FieldToDateYear    = "toDateYear"
)

// FilterField is the query-string and form-control name shared by all filter
// checkboxes.
const FilterField = "filter"

// State is the set of filter, sort and pagination selections behind one
// results page. An empty string means the field is absent. Filters is never
// nil once a State has passed through Normalize, Decode or Clone.
type State struct {
	Q             string   `json:"q,omitempty" schema:"q,omitempty"`
	Query         string   `json:"query,omitempty" schema:"query,omitempty"`
	Filters       []string `json:"filters" schema:"filter,omitempty"`
	SortBy        string   `json:"sortBy,omitempty" schema:"sortBy,omitempty"`
	Size          string   `json:"size,omitempty" schema:"size,omitempty"`
	FromDateDay   string   `json:"fromDateDay,omitempty" schema:"fromDateDay,omitempty"`
	FromDateMonth string   `json:"fromDateMonth,omitempty" schema:"fromDateMonth,omitempty"`
	FromDateYear  string   `json:"fromDateYear,omitempty" schema:"fromDateYear,omitempty"`
	ToDateDay     string   `json:"toDateDay,omitempty" schema:"toDateDay,omitempty"`
	ToDateMonth   string   `json:"toDateMonth,omitempty" schema:"toDateMonth,omitempty"`
	ToDateYear    string   `json:"toDateYear,omitempty" schema:"toDateYear,omitempty"`
}

type accessor func(*State) *string

var fieldOrder = []string{
	FieldQ,
	FieldQuery,
	FieldSortBy,
	FieldSize,
	FieldFromDateDay,
	FieldFromDateMonth,
	FieldFromDateYear,
	FieldToDateDay,
	FieldToDateMonth,
	FieldToDateYear,
}

var accessors = map[string]accessor{
	FieldQ:             func(s *State) *string { return &s.Q },
	FieldQuery:         func(s *State) *string { return &s.Query },
	FieldSortBy:        func(s *State) *string { return &s.SortBy },
	FieldSize:          func(s *State) *string { return &s.Size },
	FieldFromDateDay:   func(s *State) *string { return &s.FromDateDay },
	FieldFromDateMonth: func(s *State) *string { return &s.FromDateMonth },
	FieldFromDateYear:  func(s *State) *string { return &s.FromDateYear },
	FieldToDateDay:     func(s *State) *string { return &s.ToDateDay },
	FieldToDateMonth:   func(s *State) *string { return &s.ToDateMonth },
	FieldToDateYear:    func(s *State) *string { return &s.ToDateYear },
}

// Empty returns a state with no scalar fields and no filters.
func Empty() State {
	return State{Filters: []string{}}
}

// Fields returns the scalar field names in encoding order.
func Fields() []string {
	return slices.Clone(fieldOrder)
}

// IsField reports whether name is a scalar field of State.
func IsField(name string) bool {
	_, ok := accessors[name]
	return ok
}

// IsKnown reports whether name is any form-control name State understands,
// including the filter checkbox name.
func IsKnown(name string) bool {
	return name == FilterField || IsField(name)
}

// Get returns the value of the named scalar field, or "" for an absent or
// unknown field.
func (s State) Get(name string) string {
	acc, ok := accessors[name]
	if !ok {
		return ""
	}
	return *acc(&s)
}

// Set assigns the named scalar field. Unknown names are ignored and reported
// as false.
func (s *State) Set(name, value string) bool {
	acc, ok := accessors[name]
	if !ok {
		return false
	}
	*acc(s) = value
	return true
}

// IsZero reports whether no field is present.
func (s State) IsZero() bool {
	if len(s.Filters) > 0 {
		return false
	}
	for _, name := range fieldOrder {
		if s.Get(name) != "" {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := s
	out.Filters = slices.Clone(s.Filters)
	if out.Filters == nil {
		out.Filters = []string{}
	}
	return out
}

// Normalize returns a copy with empty filter values removed and Filters
// guaranteed non-nil.
func (s State) Normalize() State {
	out := s
	out.Filters = make([]string, 0, len(s.Filters))
	for _, f := range s.Filters {
		if f != "" {
			out.Filters = append(out.Filters, f)
		}
	}
	return out
}

// Equal reports whether both states carry the same scalar values and the same
// filters in the same order.
func (s State) Equal(other State) bool {
	for _, name := range fieldOrder {
		if s.Get(name) != other.Get(name) {
			return false
		}
	}
	return slices.Equal(s.Filters, other.Filters)
}

// DiffFilters returns the symmetric difference of a and b: values only in a,
// in a's order, followed by values only in b, in b's order.
func DiffFilters(a, b []string) []string {
	var changed []string
	for _, f := range a {
		if !slices.Contains(b, f) && !slices.Contains(changed, f) {
			changed = append(changed, f)
		}
	}
	for _, f := range b {
		if !slices.Contains(a, f) && !slices.Contains(changed, f) {
			changed = append(changed, f)
		}
	}
	return changed
}
