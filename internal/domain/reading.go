package domain

import (
	"context"
	"time"
)

// SensorReading is one poll of the site's slope sensors.
type SensorReading struct {
	Vibration    float64   `json:"vibration"`     // Hz
	Displacement float64   `json:"displacement"`  // mm
	PorePressure float64   `json:"pore_pressure"` // kPa
	ObservedAt   time.Time `json:"observed_at"`
}

// WeatherSample is the weather summary for a site coordinate.
type WeatherSample struct {
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
	Rainfall    float64   `json:"rainfall"`    // mm
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	ObservedAt  time.Time `json:"observed_at"`
}

// Declared fallbacks used when a source is unavailable or omits a field.
const (
	DefaultVibration    = 0.0
	DefaultDisplacement = 0.0
	DefaultPorePressure = 0.0

	DefaultTemperature = 28.0
	DefaultHumidity    = 60.0
	DefaultRainfall    = 2.0
	DefaultWindSpeed   = 12.0
)

// DefaultSensorReading returns the reading substituted for a failed sensor fetch.
func DefaultSensorReading() SensorReading {
	return SensorReading{
		Vibration:    DefaultVibration,
		Displacement: DefaultDisplacement,
		PorePressure: DefaultPorePressure,
		ObservedAt:   clock.Now(),
	}
}

// DefaultWeatherSample returns the sample substituted for a failed weather fetch.
func DefaultWeatherSample() WeatherSample {
	return WeatherSample{
		Temperature: DefaultTemperature,
		Humidity:    DefaultHumidity,
		Rainfall:    DefaultRainfall,
		WindSpeed:   DefaultWindSpeed,
		ObservedAt:  clock.Now(),
	}
}

// SensorSource fetches the latest slope sensor reading.
type SensorSource interface {
	FetchSensor(ctx context.Context) (SensorReading, error)
}

// WeatherSource fetches the weather summary for a coordinate.
type WeatherSource interface {
	FetchWeather(ctx context.Context, coord Coordinate) (WeatherSample, error)
}

// Predictor asks the backend for its risk classification of a coordinate.
type Predictor interface {
	Predict(ctx context.Context, coord Coordinate) (Prediction, error)
}

// Prediction is the backend's classification, already parsed into a Level.
type Prediction struct {
	Level   Level  `json:"level"`
	RawRisk string `json:"raw_risk,omitempty"`
	Alert   string `json:"alert,omitempty"`
}
