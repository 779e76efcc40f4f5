package filterstate

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

var (
	decoder = newDecoder()
	encoder = schema.NewEncoder()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// Decode parses a query string, with or without its leading '?', into a
// State. Unknown keys are dropped, repeated filter keys accumulate in order and
// empty values count as absent. Pairs that fail to unescape are skipped.
func Decode(query string) State {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return Empty()
	}

	known := url.Values{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || !IsKnown(key) {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil || value == "" {
			continue
		}
		known.Add(key, value)
	}

	var s State
	if err := decoder.Decode(&s, known); err != nil {
		return Empty()
	}
	return s.Normalize()
}

// Encode renders s as a query string. Scalar fields come first in Fields()
// order, then one filter pair per filter in sequence order. A state with no
// fields encodes to "" rather than "?".
func Encode(s State) string {
	values := url.Values{}
	if err := encoder.Encode(s.Normalize(), values); err != nil {
		return ""
	}

	pairs := make([]string, 0, len(fieldOrder)+len(s.Filters))
	for _, name := range fieldOrder {
		v := values.Get(name)
		if v == "" {
			continue
		}
		pairs = append(pairs, name+"="+url.QueryEscape(v))
	}
	for _, f := range values[FilterField] {
		pairs = append(pairs, FilterField+"="+url.QueryEscape(f))
	}

	if len(pairs) == 0 {
		return ""
	}
	return "?" + strings.Join(pairs, "&")
}

// FromValues builds a State from already-parsed form or query values, as
// delivered by net/http.
func FromValues(values url.Values) State {
	known := url.Values{}
	for key, vs := range values {
		if !IsKnown(key) {
			continue
		}
		for _, v := range vs {
			if v != "" {
				known.Add(key, v)
			}
		}
	}
	var s State
	if err := decoder.Decode(&s, known); err != nil {
		return Empty()
	}
	return s.Normalize()
}
