package middleware

import (
	"net"
	"net/http"

	authkit "github.com/Unfeir/authkit"
)

// WithRequestMetadata stamps the caller's IP and user agent into the request
// context so engine audit events carry them. Mount it outside [RequireAuth]
// so rejected requests are attributed too.
//
// The IP is taken from RemoteAddr. Deployments behind a proxy must resolve
// the real client address themselves before this middleware runs.
func WithRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ip := clientIP(r); ip != "" {
			ctx = authkit.WithClientIP(ctx, ip)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = authkit.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
