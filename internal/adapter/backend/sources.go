package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
)

// Backend response shapes. Pointer fields distinguish absent/null values,
// which take the declared defaults, from real zeros.

type weatherResponse struct {
	Summary struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		Rainfall    *float64 `json:"rainfall"`
		WindSpeed   *float64 `json:"wind_speed"`
	} `json:"summary"`
}

type sensorResponse struct {
	Displacement *float64 `json:"displacement"`
	Vibration    *float64 `json:"vibration"`
	PorePressure *float64 `json:"pore_pressure"`
}

type predictRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FetchWeather implements domain.WeatherSource.
func (c *Client) FetchWeather(ctx context.Context, coord domain.Coordinate) (domain.WeatherSample, error) {
	path := fmt.Sprintf("/weather/%s/%s", formatAxis(coord.Latitude), formatAxis(coord.Longitude))
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.WeatherSample{}, err
	}

	var resp weatherResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.WeatherSample{}, fmt.Errorf("decode weather: %w: %w", ErrMalformedResponse, err)
	}
	return domain.WeatherSample{
		Temperature: valueOr(resp.Summary.Temperature, domain.DefaultTemperature),
		Humidity:    valueOr(resp.Summary.Humidity, domain.DefaultHumidity),
		Rainfall:    valueOr(resp.Summary.Rainfall, domain.DefaultRainfall),
		WindSpeed:   valueOr(resp.Summary.WindSpeed, domain.DefaultWindSpeed),
		ObservedAt:  c.clock.Now(),
	}, nil
}

// FetchSensor implements domain.SensorSource.
func (c *Client) FetchSensor(ctx context.Context) (domain.SensorReading, error) {
	data, err := c.do(ctx, http.MethodGet, "/sensors/vibration", nil)
	if err != nil {
		return domain.SensorReading{}, err
	}

	var resp sensorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.SensorReading{}, fmt.Errorf("decode sensors: %w: %w", ErrMalformedResponse, err)
	}
	return domain.SensorReading{
		Vibration:    valueOr(resp.Vibration, domain.DefaultVibration),
		Displacement: valueOr(resp.Displacement, domain.DefaultDisplacement),
		PorePressure: valueOr(resp.PorePressure, domain.DefaultPorePressure),
		ObservedAt:   c.clock.Now(),
	}, nil
}

// Predict implements domain.Predictor.
func (c *Client) Predict(ctx context.Context, coord domain.Coordinate) (domain.Prediction, error) {
	data, err := c.do(ctx, http.MethodPost, "/predict", predictRequest{Lat: coord.Latitude, Lon: coord.Longitude})
	if err != nil {
		return domain.Prediction{}, err
	}
	return ParsePrediction(data)
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
