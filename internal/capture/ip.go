package capture

import (
	"net"
	"net/http"
	"strings"
)

// clientIP extracts the caller's address. The recorder usually sits behind a
// reverse proxy, so X-Forwarded-For wins when it carries a parseable entry;
// otherwise the transport's remote address is used as-is.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
