package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler := Headers{Enable: true, EnableHSTS: true}.Middleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "https://shop.example/api/v1/store", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Empty(t, rr.Header().Get("Cache-Control"), "public reads stay cacheable")
	require.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareMarksPrivateResponses(t *testing.T) {
	handler := Headers{Enable: true}.Middleware(okHandler)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/carts/abc", nil),
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, "no-store", rr.Header().Get("Cache-Control"), req.URL.Path)
	}
}

func TestHeadersMiddlewareTrustsForwardedProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rr := httptest.NewRecorder()
	Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600}.Middleware(okHandler).ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	rr = httptest.NewRecorder()
	Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, TrustProxy: true}.Middleware(okHandler).ServeHTTP(rr, req)
	require.Equal(t, "max-age=600; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSWithoutTLS(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{Enable: true, EnableHSTS: true}.Middleware(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	rr = httptest.NewRecorder()
	Headers{}.Middleware(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rr.Header().Get("X-Frame-Options"))
}

func TestBasicAuth(t *testing.T) {
	guard := BasicAuth{User: "admin", Pass: "s3cret"}.Middleware(okHandler)

	rr := httptest.NewRecorder()
	guard.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, `Basic realm="restricted"`, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.SetBasicAuth("admin", "wrong")
	rr = httptest.NewRecorder()
	guard.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req.SetBasicAuth("admin", "s3cret")
	rr = httptest.NewRecorder()
	guard.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	BasicAuth{}.Middleware(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
