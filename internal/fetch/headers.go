//go:build !js

package fetch

import "net/http"

// platformHeaders is a no-op outside the browser: the cookie jar and the
// client's default redirect policy already match fetch's credentials and
// redirect modes.
func platformHeaders(http.Header) {}
