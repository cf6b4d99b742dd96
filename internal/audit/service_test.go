package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/store"
)

type stubStore struct {
	inserted []store.AuditLog
	limit    int
	offset   int
	err      error
}

func (s *stubStore) InsertAuditLog(_ context.Context, l store.AuditLog) error {
	s.inserted = append(s.inserted, l)
	return s.err
}

func (s *stubStore) ListAuditLogs(_ context.Context, limit, offset int) ([]store.AuditLog, error) {
	s.limit, s.offset = limit, offset
	return []store.AuditLog{{Action: "PATCH /api/v1/admin/orders/{id}", Method: "PATCH", Metadata: []byte(`{"status":"shipped"}`)}}, nil
}

func TestServiceRecord(t *testing.T) {
	st := &stubStore{}
	svc := Service{Store: st, Enabled: true, SamplingRate: 1}

	req := httptest.NewRequest(http.MethodPut, "https://api.test/api/v1/admin/settings?dry=1", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/admin/settings"))

	require.NoError(t, svc.Record(req.Context(), "admin:sara", "", "", "", req, http.StatusOK, nil))
	require.Len(t, st.inserted, 1)
	got := st.inserted[0]
	require.NotEmpty(t, got.ID)
	require.Equal(t, "admin:sara", got.Actor)
	require.Equal(t, "PUT /api/v1/admin/settings", got.Action)
	require.Equal(t, "admin.settings", got.ResourceType)
	require.Nil(t, got.ResourceID)
	require.Equal(t, "10.0.0.2", *got.IP)
	require.Equal(t, "req-123", *got.RequestID)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(got.Metadata, &meta))
	require.Equal(t, "dry=1", meta["query"])
}

func TestServiceRecordDisabled(t *testing.T) {
	st := &stubStore{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, Service{Store: st}.Record(req.Context(), "", "", "", "", req, http.StatusOK, nil))
	require.Empty(t, st.inserted)
}

func TestMiddlewareRecordsOrderPatch(t *testing.T) {
	st := &stubStore{err: errors.New("db down")}
	var reported error
	rec := HTTPRecorder{Service: Service{Store: st, Enabled: true}, OnError: func(err error) { reported = err }}

	r := chi.NewRouter()
	r.Use(obs.RoutePatternMiddleware)
	r.With(rec.Middleware(HTTPConfig{
		Action:          "order.patch",
		ResourceType:    "order",
		ResourceIDParam: "id",
		MetadataFunc: func(_ *http.Request, status int) map[string]any {
			return map[string]any{"status": status}
		},
	})).Patch("/api/v1/admin/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/abc", nil)
	req.SetBasicAuth("sara", "pw")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, st.inserted, 1)
	got := st.inserted[0]
	require.Equal(t, "admin:sara", got.Actor)
	require.Equal(t, "order.patch", got.Action)
	require.Equal(t, "order", got.ResourceType)
	require.Equal(t, "abc", *got.ResourceID)
	require.Equal(t, http.StatusConflict, got.Status)
	require.JSONEq(t, `{"status":409}`, string(got.Metadata))
	require.EqualError(t, reported, "db down")
}

func TestActorDefaultsToAnonymous(t *testing.T) {
	require.Equal(t, AnonymousActor, Actor(httptest.NewRequest(http.MethodGet, "/", nil)))
}
