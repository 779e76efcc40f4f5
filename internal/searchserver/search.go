package searchserver

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/syntrixbase/searchnav/internal/filterstate"
)

// Sort orders accepted in sortBy.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitle     = "title"
)

// Request is a decoded search.
type Request struct {
	State filterstate.State
	Page  int
}

// Hit is one matched item.
type Hit struct {
	Item
	score int
}

// Results is one page of hits.
type Results struct {
	Hits  []Hit
	Total int
	Page  int
	Pages int
	Size  int
	Sort  string
	Terms string
}

// Search runs req against the catalogue.
func (c *Catalogue) Search(req Request, defaultSize, maxSize int) Results {
	s := req.State.Normalize()
	terms := searchTerms(s)
	from, hasFrom := partialDate(s.FromDateYear, s.FromDateMonth, s.FromDateDay, false)
	to, hasTo := partialDate(s.ToDateYear, s.ToDateMonth, s.ToDateDay, true)

	var hits []Hit
	for _, item := range c.Items {
		if len(s.Filters) > 0 && !hasAnyTag(item, s.Filters) {
			continue
		}
		if hasFrom && item.Published.Before(from) {
			continue
		}
		if hasTo && item.Published.After(to) {
			continue
		}
		score := 0
		if len(terms) > 0 {
			score = relevance(item, terms)
			if score == 0 {
				continue
			}
		}
		hits = append(hits, Hit{Item: item, score: score})
	}

	sortBy := s.SortBy
	switch sortBy {
	case SortNewest, SortOldest, SortTitle:
	default:
		sortBy = SortRelevance
	}
	sortHits(hits, sortBy)

	size := pageSize(s.Size, defaultSize, maxSize)
	pages := max(1, (len(hits)+size-1)/size)
	page := min(max(req.Page, 1), pages)
	lo := min((page-1)*size, len(hits))
	hi := min(lo+size, len(hits))

	return Results{
		Hits:  hits[lo:hi],
		Total: len(hits),
		Page:  page,
		Pages: pages,
		Size:  size,
		Sort:  sortBy,
		Terms: strings.Join(terms, " "),
	}
}

// searchTerms prefers q and falls back to query.
func searchTerms(s filterstate.State) []string {
	text := s.Q
	if strings.TrimSpace(text) == "" {
		text = s.Query
	}
	return strings.Fields(strings.ToLower(text))
}

func hasAnyTag(item Item, tags []string) bool {
	for _, t := range item.Tags {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}

// relevance scores title matches double. Every term must match somewhere.
func relevance(item Item, terms []string) int {
	title := strings.ToLower(item.Title)
	summary := strings.ToLower(item.Summary)
	score := 0
	for _, term := range terms {
		t := 2*strings.Count(title, term) + strings.Count(summary, term)
		if t == 0 {
			return 0
		}
		score += t
	}
	return score
}

func sortHits(hits []Hit, sortBy string) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch sortBy {
		case SortNewest:
			return b.Published.Compare(a.Published)
		case SortOldest:
			return a.Published.Compare(b.Published)
		case SortTitle:
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
			return b.Published.Compare(a.Published)
		}
	})
}

func pageSize(raw string, def, limit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return min(n, limit)
}

// partialDate builds a bound from day/month/year fields. The year is
// required; a missing month or day widens the bound to the start or end of
// the year or month.
func partialDate(year, month, day string, end bool) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		if end {
			return time.Date(y, time.December, 31, 23, 59, 59, 0, time.UTC), true
		}
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		if end {
			return time.Date(y, time.Month(m)+1, 0, 23, 59, 59, 0, time.UTC), true
		}
		return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), true
	}
	if end {
		return time.Date(y, time.Month(m), d, 23, 59, 59, 0, time.UTC), true
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
