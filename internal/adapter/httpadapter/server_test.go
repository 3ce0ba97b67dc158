package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/couchcryptid/rockfall-risk-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/rockfall-risk-service/internal/chart"
	"github.com/couchcryptid/rockfall-risk-service/internal/display"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/monitor"
	"github.com/couchcryptid/rockfall-risk-service/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type submission struct{ lat, lon string }

type mockMonitor struct {
	mu      sync.Mutex
	calls   []submission
	outcome monitor.Outcome
	stopped bool
}

func (m *mockMonitor) Submit(_ context.Context, lat, lon string) monitor.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, submission{lat, lon})
	return m.outcome
}

func (m *mockMonitor) Stop() bool { return m.stopped }

type mockSession struct{ session poller.Session }

func (m mockSession) Snapshot() poller.Session { return m.session }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error, mon *mockMonitor, board *display.Board) *httpadapter.Server {
	api := httpadapter.API{
		Monitor: mon,
		Board:   board,
		Session: mockSession{session: poller.Session{Status: poller.StatusIdle, Chart: []chart.Point{}}},
	}
	return httpadapter.NewServer(":0", api, &mockReadiness{err: readyErr}, discardLogger())
}

func acceptedOutcome() monitor.Outcome {
	coord := domain.Coordinate{Latitude: 12.9, Longitude: 77.6}
	return monitor.Outcome{
		Accepted:   true,
		Coordinate: &coord,
		Assessment: domain.RiskAssessment{Level: domain.LevelHigh, CompositeScore: 0.75},
	}
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("backend unreachable"), &mockMonitor{}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLocation_JSONStringsAndNumbers(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLat string
		wantLon string
	}{
		{"strings", `{"lat":"12.9","lon":"77.6"}`, "12.9", "77.6"},
		{"numbers", `{"lat":12.9,"lon":77.6}`, "12.9", "77.6"},
		{"null lon", `{"lat":"12.9","lon":null}`, "12.9", ""},
		{"missing lon", `{"lat":" 12.9 "}`, " 12.9 ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := &mockMonitor{outcome: acceptedOutcome()}
			srv := newTestServer(nil, mon, display.NewBoard())
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/location", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, mon.calls, 1)
			assert.Equal(t, submission{tt.wantLat, tt.wantLon}, mon.calls[0])
		})
	}
}

func TestLocation_FormPost(t *testing.T) {
	mon := &mockMonitor{outcome: acceptedOutcome()}
	srv := newTestServer(nil, mon, display.NewBoard())
	form := url.Values{"lat": {"-33.86"}, "lon": {"151.2"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/location", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mon.calls, 1)
	assert.Equal(t, submission{"-33.86", "151.2"}, mon.calls[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["accepted"])
	assessment := body["assessment"].(map[string]any)
	assert.Equal(t, "high", assessment["level"])
}

func TestLocation_RejectedIs422(t *testing.T) {
	mon := &mockMonitor{outcome: monitor.Outcome{Error: "invalid coordinate: coordinate must not be (0, 0)"}}
	srv := newTestServer(nil, mon, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/location", strings.NewReader(`{"lat":0,"lon":0}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["accepted"])
	assert.Contains(t, body["error"], "(0, 0)")
}

func TestLocation_MalformedBody(t *testing.T) {
	mon := &mockMonitor{}
	srv := newTestServer(nil, mon, display.NewBoard())

	for _, body := range []string{`{not json`, `{"lat":true,"lon":1}`, `{"lat":1,"lon":2,"alt":3}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/location", strings.NewReader(body))
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, mon.calls, "malformed bodies never reach the monitor")
}

func TestStop(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{stopped: true}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stop", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stopped":true}`, rec.Body.String())
}

func TestState(t *testing.T) {
	board := display.NewBoard()
	board.RenderChart([]chart.Point{{Label: "5s", ElapsedSeconds: 5, Value: 0.4}})
	srv := newTestServer(nil, &mockMonitor{}, board)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Display struct {
			Assessment struct {
				Level string `json:"level"`
			} `json:"assessment"`
			Chart []chart.Point `json:"chart"`
		} `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idle", body.Session.Status)
	assert.Equal(t, "unknown", body.Display.Assessment.Level)
	require.Len(t, body.Display.Chart, 1)
	assert.Equal(t, "5s", body.Display.Chart[0].Label)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, display.NewBoard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/location", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
