package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerList(t *testing.T) {
	st := &stubStore{}
	rr := httptest.NewRecorder()
	Handler{Store: st}.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs?limit=25&page=3", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 25, st.limit)
	require.Equal(t, 50, st.offset)

	var payload struct {
		Data []struct {
			Entry    map[string]any `json:"entry"`
			Metadata map[string]any `json:"metadata"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, "PATCH", payload.Data[0].Entry["method"])
	require.Equal(t, "shipped", payload.Data[0].Metadata["status"])
}

func TestHandlerListNotConfigured(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler{}.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
