package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCoord = domain.Coordinate{Latitude: 12.9, Longitude: 77.6}

func newTestClient(t *testing.T, handler http.Handler) (*Client, clockwork.Clock) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	clk := clockwork.NewFakeClockAt(time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC))
	return NewClient(srv.URL, 2*time.Second, discardLogger(), WithClock(clk)), clk
}

func TestClient_FetchWeather(t *testing.T) {
	var gotPath string
	c, clk := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"nasa_power":{},"summary":{"temperature":31.5,"humidity":72,"rainfall":0,"wind_speed":18.2}}`))
	}))

	got, err := c.FetchWeather(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, "/weather/12.9/77.6", gotPath)
	assert.Equal(t, domain.WeatherSample{
		Temperature: 31.5,
		Humidity:    72,
		Rainfall:    0,
		WindSpeed:   18.2,
		ObservedAt:  clk.Now(),
	}, got)
}

func TestClient_FetchWeather_MissingFieldsDefault(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"summary":{"temperature":null,"rainfall":50}}`))
	}))

	got, err := c.FetchWeather(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTemperature, got.Temperature)
	assert.Equal(t, domain.DefaultHumidity, got.Humidity)
	assert.Equal(t, 50.0, got.Rainfall)
	assert.Equal(t, domain.DefaultWindSpeed, got.WindSpeed)
}

func TestClient_FetchSensor(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sensors/vibration", r.URL.Path)
		w.Write([]byte(`{"vibration":1.8}`))
	}))

	got, err := c.FetchSensor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.8, got.Vibration)
	assert.Equal(t, domain.DefaultDisplacement, got.Displacement)
	assert.Equal(t, domain.DefaultPorePressure, got.PorePressure)
}

func TestClient_Predict(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]float64{"lat": 12.9, "lon": 77.6}, body)

		w.Write([]byte(`{"features":{},"prediction":{"risk":"high","probability":0.82},"alert":"HIGH RISK"}`))
	}))

	got, err := c.Predict(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelHigh, got.Level)
	assert.Equal(t, "high", got.RawRisk)
	assert.Equal(t, "HIGH RISK", got.Alert)
}

func TestClient_ErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Model not loaded"}`, http.StatusServiceUnavailable)
	}))

	_, err := c.Predict(context.Background(), testCoord)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>`))
	}))

	_, err := c.FetchSensor(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		_, err := c.FetchSensor(context.Background())
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	_, err := c.FetchSensor(context.Background())
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "got %v", err)
	assert.Equal(t, int64(5), hits.Load())
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, discardLogger(), WithRateLimit(0.001, 1))
	_, err := c.FetchSensor(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchSensor(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestClient_CheckReadiness(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	require.NoError(t, c.CheckReadiness(context.Background()))
}
