package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate bounds.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// ErrInvalidCoordinate is wrapped by every gate rejection.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidationError describes why a coordinate was rejected.
type ValidationError struct {
	Field  string // "latitude", "longitude" or "coordinate"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidCoordinate, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidCoordinate }

// Coordinate is a validated WGS-84 site location. The zero value is not valid;
// obtain one through ParseCoordinate or NewCoordinate.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// ParseCoordinate validates raw user input. Whitespace is trimmed; empty or
// non-numeric values are rejected along with everything NewCoordinate rejects.
func ParseCoordinate(latRaw, lonRaw string) (Coordinate, error) {
	lat, err := parseAxis("latitude", latRaw)
	if err != nil {
		return Coordinate{}, err
	}
	lon, err := parseAxis("longitude", lonRaw)
	if err != nil {
		return Coordinate{}, err
	}
	return NewCoordinate(lat, lon)
}

// NewCoordinate validates numeric input.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if !isFinite(lat) {
		return Coordinate{}, &ValidationError{Field: "latitude", Reason: "must be a finite number"}
	}
	if !isFinite(lon) {
		return Coordinate{}, &ValidationError{Field: "longitude", Reason: "must be a finite number"}
	}
	if lat == 0 && lon == 0 {
		return Coordinate{}, &ValidationError{Field: "coordinate", Reason: "must not be (0, 0)"}
	}
	if lat < MinLat || lat > MaxLat {
		return Coordinate{}, &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%g outside [%g, %g]", lat, MinLat, MaxLat)}
	}
	if lon < MinLon || lon > MaxLon {
		return Coordinate{}, &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%g outside [%g, %g]", lon, MinLon, MaxLon)}
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

func parseAxis(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be numeric"}
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
