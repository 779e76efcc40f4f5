package filterstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_GetSet(t *testing.T) {
	var s State

	assert.True(t, s.Set(FieldSortBy, "newest"))
	assert.Equal(t, "newest", s.SortBy)
	assert.Equal(t, "newest", s.Get(FieldSortBy))

	assert.False(t, s.Set("page", "2"))
	assert.Equal(t, "", s.Get("page"))
	assert.False(t, s.Set(FilterField, "x"))
}

func TestState_CloneDoesNotAlias(t *testing.T) {
	s := State{Filters: []string{"a"}}
	c := s.Clone()
	c.Filters[0] = "z"

	assert.Equal(t, "a", s.Filters[0])
	assert.NotNil(t, State{}.Clone().Filters)
}

func TestState_Equal(t *testing.T) {
	a := State{Q: "x", Filters: []string{"1", "2"}}

	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(State{Q: "x", Filters: []string{"2", "1"}}))
	assert.False(t, a.Equal(State{Q: "y", Filters: []string{"1", "2"}}))
	assert.True(t, State{}.Equal(Empty()))
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("filter"))
	assert.True(t, IsKnown("toDateMonth"))
	assert.False(t, IsKnown("filters"))
	assert.False(t, IsField("filter"))
	assert.Len(t, Fields(), 10)
}

func TestDiffFilters(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"identical", []string{"a", "b"}, []string{"b", "a"}, nil},
		{"added", []string{"A", "B"}, []string{"A"}, []string{"B"}},
		{"removed", []string{"A"}, []string{"A", "B"}, []string{"B"}},
		{"both", []string{"a", "c"}, []string{"b", "c"}, []string{"a", "b"}},
		{"empty", nil, []string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffFilters(tt.a, tt.b))
		})
	}
}
