package common

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	require.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	require.Equal(t, "203.0.113.7", ClientIP(req))
}

func TestQueryInt(t *testing.T) {
	q := url.Values{"page": {"3"}, "limit": {"abc"}, "days": {" 7 "}}
	require.Equal(t, 3, QueryInt(q, "page", 1))
	require.Equal(t, 20, QueryInt(q, "limit", 20))
	require.Equal(t, 7, QueryInt(q, "days", 0))
	require.Equal(t, 5, QueryInt(q, "missing", 5))
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page=-2&limit=500", nil)
	page, perPage := ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 100, perPage)
	require.Equal(t, 0, Offset(page, perPage))
	require.Equal(t, 40, Offset(3, 20))
}
