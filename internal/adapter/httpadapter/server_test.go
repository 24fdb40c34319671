package httpadapter_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/crash-data-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/crash-data-etl/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSummary struct {
	sum pipeline.Summary
	ok  bool
}

func (s stubSummary) LastSummary() (pipeline.Summary, bool) { return s.sum, s.ok }

func newTestServer(readyErr error, collection http.Handler) *httpadapter.Server {
	var routes []httpadapter.Route
	if collection != nil {
		routes = append(routes, httpadapter.CollectionRoute(collection))
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, discardLogger(), routes...)
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(errors.New("no run has completed"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no run has completed")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCollectionEndpoint(t *testing.T) {
	collection := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})

	rec := serve(newTestServer(nil, collection), httpadapter.CollectionPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, rec.Body.String())
}

func TestCollectionEndpointAbsentWithoutHandler(t *testing.T) {
	rec := serve(newTestServer(nil, nil), httpadapter.CollectionPath)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownMethodRejected(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		reporter   stubSummary
		wantStatus int
		wantBody   string
	}{
		{
			name:       "before first run",
			reporter:   stubSummary{},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "after a run",
			reporter: stubSummary{ok: true, sum: pipeline.Summary{
				RowsRead: 4, RowsSkipped: 1, Records: 3, Located: 2, Unlocated: 1,
				Duration: 1500 * time.Millisecond,
			}},
			wantStatus: http.StatusOK,
			wantBody: `{"rows_read":4,"rows_skipped":1,"records":3,"located":2,
				"unlocated":1,"malformed_causes":0,"duration_seconds":1.5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httpadapter.NewServer(":0", &mockReadiness{}, discardLogger(), httpadapter.SummaryRoute(tt.reporter))
			rec := serve(srv, httpadapter.SummaryPath)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
