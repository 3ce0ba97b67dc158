// Package display keeps the live view model that the HTTP API serves. Board
// implements every rendering port in the service, so the core never touches
// presentation state directly.
package display

import (
	"sync"

	"github.com/couchcryptid/rockfall-risk-service/internal/alert"
	"github.com/couchcryptid/rockfall-risk-service/internal/chart"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
)

// State is a copy of everything currently on the board.
type State struct {
	Assessment domain.RiskAssessment `json:"assessment"`
	Weather    *domain.WeatherSample `json:"weather,omitempty"`
	Reading    *domain.SensorReading `json:"reading,omitempty"`
	Site       domain.SiteLabel      `json:"site"`
	Chart      []chart.Point         `json:"chart"`
	Alert      *alert.Alert          `json:"alert,omitempty"`
}

// Board is safe for concurrent use by the poller, the dispatcher and the
// monitor service.
type Board struct {
	mu    sync.RWMutex
	state State
}

// NewBoard returns a board showing no assessment.
func NewBoard() *Board {
	return &Board{state: State{
		Assessment: domain.UnknownAssessment(),
		Site:       domain.SiteLabel{Source: "none"},
		Chart:      []chart.Point{},
	}}
}

// RenderAssessment replaces the displayed assessment.
func (b *Board) RenderAssessment(a domain.RiskAssessment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Assessment = a
}

// RenderWeather shows the weather sample fetched for the site.
func (b *Board) RenderWeather(w domain.WeatherSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Weather = &w
}

// RenderSite shows the site label.
func (b *Board) RenderSite(label domain.SiteLabel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Site = label
}

// RenderReading shows the latest sensor reading.
func (b *Board) RenderReading(r domain.SensorReading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Reading = &r
}

// RenderChart replaces the vibration chart with a copy of points.
func (b *Board) RenderChart(points []chart.Point) {
	cp := make([]chart.Point, len(points))
	copy(cp, points)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Chart = cp
}

// ShowAlert displays a newly raised alert.
func (b *Board) ShowAlert(a alert.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Alert = &a
}

// UpdateAlert ignores updates for an alert that is no longer shown.
func (b *Board) UpdateAlert(a alert.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Alert != nil && b.state.Alert.ID == a.ID {
		b.state.Alert = &a
	}
}

// RemoveAlert clears the alert if it is still the one shown.
func (b *Board) RemoveAlert(a alert.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Alert != nil && b.state.Alert.ID == a.ID {
		b.state.Alert = nil
	}
}

// Reset clears the readouts shown for a site. The alert is left alone.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Assessment = domain.UnknownAssessment()
	b.state.Weather = nil
	b.state.Reading = nil
	b.state.Site = domain.SiteLabel{Source: "none"}
	b.state.Chart = []chart.Point{}
}

// Snapshot returns a deep enough copy that callers may encode it freely.
func (b *Board) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := b.state
	s.Chart = append([]chart.Point(nil), b.state.Chart...)
	if s.Chart == nil {
		s.Chart = []chart.Point{}
	}
	contributions := make(map[domain.Factor]domain.FactorScore, len(b.state.Assessment.Contributions))
	for k, v := range b.state.Assessment.Contributions {
		contributions[k] = v
	}
	s.Assessment.Contributions = contributions
	if b.state.Weather != nil {
		w := *b.state.Weather
		s.Weather = &w
	}
	if b.state.Reading != nil {
		r := *b.state.Reading
		s.Reading = &r
	}
	if b.state.Alert != nil {
		a := *b.state.Alert
		s.Alert = &a
	}
	return s
}
