package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP used for rate limiting. It trusts
// r.RemoteAddr only; traffic reaches the app directly, so proxy headers
// would be spoofable.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
