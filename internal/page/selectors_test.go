package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSelectors_Valid(t *testing.T) {
	assert.NoError(t, DefaultSelectors().Validate())
}

func TestSelectors_ApplyDefaults(t *testing.T) {
	s := Selectors{Results: "//main"}
	s.ApplyDefaults()

	assert.Equal(t, "//main", s.Results)
	assert.Equal(t, DefaultSelectors().Forms, s.Forms)
	assert.NoError(t, s.Validate())
}

func TestSelectors_Validate(t *testing.T) {
	s := DefaultSelectors()
	s.Summary = "//div[@class="
	s.Pagination = ""

	err := s.Validate()
	assert.ErrorContains(t, err, "selector summary")
	assert.ErrorContains(t, err, "selector pagination is empty")
}

func TestHasClass(t *testing.T) {
	assert.Equal(t, "contains(concat(' ', normalize-space(@class), ' '), ' results ')", HasClass("results"))
}
