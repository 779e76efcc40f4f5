package page

import (
	"errors"
	"fmt"

	"github.com/antchfx/xpath"
)

// Selectors locate the known parts of a search page. They are XPath
// expressions; the defaults match the markup the search server renders.
type Selectors struct {
	Forms           string `yaml:"forms"`
	AutoSubmitInput string `yaml:"auto_submit_input"`
	Results         string `yaml:"results"`
	Summary         string `yaml:"summary"`
	Pagination      string `yaml:"pagination"`
	// PaginationContent is evaluated relative to the pagination container of
	// a fetched page.
	PaginationContent string `yaml:"pagination_content"`
}

// HasClass returns an XPath predicate matching elements carrying class.
func HasClass(class string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", class)
}

// DefaultSelectors returns selectors for form.js-auto-submit__form,
// .js-auto-submit__input, .results, .search-page__results-text and
// #js-pagination-container.
func DefaultSelectors() Selectors {
	return Selectors{
		Forms:             "//form[" + HasClass("js-auto-submit__form") + "]",
		AutoSubmitInput:   ".//*[" + HasClass("js-auto-submit__input") + "]",
		Results:           "//*[" + HasClass("results") + "]",
		Summary:           "//*[" + HasClass("search-page__results-text") + "]",
		Pagination:        "//*[@id='js-pagination-container']",
		PaginationContent: ".//nav",
	}
}

// ApplyDefaults fills empty selectors.
func (s *Selectors) ApplyDefaults() {
	d := DefaultSelectors()
	if s.Forms == "" {
		s.Forms = d.Forms
	}
	if s.AutoSubmitInput == "" {
		s.AutoSubmitInput = d.AutoSubmitInput
	}
	if s.Results == "" {
		s.Results = d.Results
	}
	if s.Summary == "" {
		s.Summary = d.Summary
	}
	if s.Pagination == "" {
		s.Pagination = d.Pagination
	}
	if s.PaginationContent == "" {
		s.PaginationContent = d.PaginationContent
	}
}

// Validate compiles every selector.
func (s Selectors) Validate() error {
	var errs []error
	for name, expr := range map[string]string{
		"forms":              s.Forms,
		"auto_submit_input":  s.AutoSubmitInput,
		"results":            s.Results,
		"summary":            s.Summary,
		"pagination":         s.Pagination,
		"pagination_content": s.PaginationContent,
	} {
		if expr == "" {
			errs = append(errs, fmt.Errorf("selector %s is empty", name))
			continue
		}
		if _, err := xpath.Compile(expr); err != nil {
			errs = append(errs, fmt.Errorf("selector %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
