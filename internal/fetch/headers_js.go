//go:build js

package fetch

import "net/http"

// platformHeaders sets the options the wasm transport passes to the browser's
// fetch. They are consumed by the transport and never sent.
func platformHeaders(h http.Header) {
	h.Set("js.fetch:credentials", "include")
	h.Set("js.fetch:redirect", "follow")
}
