// Package security holds HTTP hardening middleware shared by the storefront
// and admin routes.
package security

import (
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// BodyLimit caps request payloads. Cart and checkout bodies are small JSON
// documents, so anything larger is rejected before decoding.
type BodyLimit struct {
	Max int64
}

// Middleware rejects declared oversize bodies with 413 and bounds the reader
// for chunked ones.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", map[string]any{"limit": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
