package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// BasicAuth guards admin and debug routes with a single shared credential.
// An empty User disables the check.
type BasicAuth struct {
	User  string
	Pass  string
	Realm string
}

// Enabled reports whether credentials are configured.
func (b BasicAuth) Enabled() bool {
	return strings.TrimSpace(b.User) != ""
}

// Middleware answers 401 with a challenge when credentials do not match.
func (b BasicAuth) Middleware(next http.Handler) http.Handler {
	if !b.Enabled() {
		return next
	}
	realm := b.Realm
	if realm == "" {
		realm = "restricted"
	}
	user := []byte(strings.TrimSpace(b.User))
	pass := []byte(strings.TrimSpace(b.Pass))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), user) != 1 || subtle.ConstantTimeCompare([]byte(p), pass) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
