package security

import (
	"fmt"
	"net/http"
	"strings"
)

const defaultHSTSMaxAge = 365 * 24 * 60 * 60

// Headers sets response hardening headers. Catalog reads stay cacheable;
// writes and admin responses are marked no-store.
type Headers struct {
	Enable     bool
	EnableHSTS bool
	HSTSMaxAge int
	// TrustProxy lets X-Forwarded-Proto mark a request as HTTPS.
	TrustProxy bool
}

func (h Headers) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.TrustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func private(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	return strings.Contains(r.URL.Path, "/admin") || strings.Contains(r.URL.Path, "/carts") ||
		strings.Contains(r.URL.Path, "/orders")
}

// Middleware attaches the headers before the handler writes.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := fmt.Sprintf("max-age=%d; includeSubDomains", maxAge)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		if private(r) {
			headers.Set("Cache-Control", "no-store")
		}
		if h.EnableHSTS && h.secure(r) {
			headers.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
