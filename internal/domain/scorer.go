package domain

import (
	"fmt"
	"math"
	"time"
)

// Factor names one scored input.
type Factor string

const (
	FactorVibration    Factor = "vibration"
	FactorDisplacement Factor = "displacement"
	FactorPorePressure Factor = "pore_pressure"
	FactorTemperature  Factor = "temperature"
	FactorHumidity     Factor = "humidity"
	FactorRainfall     Factor = "rainfall"
	FactorWindSpeed    Factor = "wind_speed"
)

// FactorScore is one row of an assessment's breakdown.
type FactorScore struct {
	Value        float64 `json:"value"`
	SubScore     float64 `json:"sub_score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Defaulted    bool    `json:"defaulted,omitempty"`
}

// RiskAssessment is the scored state of a site. A new assessment supersedes
// the previous one; assessments are never merged.
type RiskAssessment struct {
	Level          Level                  `json:"level"`
	ScoredLevel    Level                  `json:"scored_level"`
	ReportedLevel  Level                  `json:"reported_level"`
	CompositeScore float64                `json:"composite_score"`
	Contributions  map[Factor]FactorScore `json:"factor_contributions"`
	Message        string                 `json:"message,omitempty"`
	EvaluatedAt    time.Time              `json:"evaluated_at"`
}

// UnknownAssessment is the "no assessment" state shown after a reset.
func UnknownAssessment() RiskAssessment {
	return RiskAssessment{
		Level:         LevelUnknown,
		Contributions: map[Factor]FactorScore{},
		EvaluatedAt:   clock.Now(),
	}
}

type curvePoint struct{ x, y float64 }

// curve is a piecewise-linear map from a raw value to a sub-score. Points are
// sorted by x; values outside the first and last point clamp to their y.
type curve []curvePoint

func (c curve) eval(v float64) float64 {
	if v <= c[0].x {
		return c[0].y
	}
	last := c[len(c)-1]
	if v >= last.x {
		return last.y
	}
	for i := 1; i < len(c); i++ {
		lo, hi := c[i-1], c[i]
		if v <= hi.x {
			return lo.y + (v-lo.x)*(hi.y-lo.y)/(hi.x-lo.x)
		}
	}
	return last.y
}

type factorModel struct {
	factor   Factor
	weight   float64
	fallback float64
	curve    curve
	value    func(SensorReading, WeatherSample) float64
}

// Scorer is the weighted threshold model. It is stateless and safe for
// concurrent use.
type Scorer struct {
	factors []factorModel
}

// NewScorer returns a Scorer with the site's factor curves and weights.
func NewScorer() *Scorer {
	return &Scorer{factors: []factorModel{
		{
			factor: FactorVibration, weight: 0.25, fallback: DefaultVibration,
			curve: curve{{0.2, 0}, {2.0, 1}},
			value: func(s SensorReading, _ WeatherSample) float64 { return s.Vibration },
		},
		{
			factor: FactorDisplacement, weight: 0.20, fallback: DefaultDisplacement,
			curve: curve{{0, 0}, {5, 1}},
			value: func(s SensorReading, _ WeatherSample) float64 { return s.Displacement },
		},
		{
			factor: FactorPorePressure, weight: 0.15, fallback: DefaultPorePressure,
			curve: curve{{20, 0}, {100, 1}},
			value: func(s SensorReading, _ WeatherSample) float64 { return s.PorePressure },
		},
		{
			factor: FactorRainfall, weight: 0.20, fallback: DefaultRainfall,
			curve: curve{{5, 0}, {50, 1}},
			value: func(_ SensorReading, w WeatherSample) float64 { return w.Rainfall },
		},
		{
			// Freeze-thaw below 5 °C and thermal expansion above 30 °C.
			factor: FactorTemperature, weight: 0.05, fallback: DefaultTemperature,
			curve: curve{{-10, 1}, {5, 0}, {30, 0}, {50, 1}},
			value: func(_ SensorReading, w WeatherSample) float64 { return w.Temperature },
		},
		{
			factor: FactorHumidity, weight: 0.05, fallback: DefaultHumidity,
			curve: curve{{60, 0}, {100, 1}},
			value: func(_ SensorReading, w WeatherSample) float64 { return w.Humidity },
		},
		{
			factor: FactorWindSpeed, weight: 0.10, fallback: DefaultWindSpeed,
			curve: curve{{20, 0}, {80, 1}},
			value: func(_ SensorReading, w WeatherSample) float64 { return w.WindSpeed },
		},
	}}
}

// Factors returns the scored factors in evaluation order.
func (s *Scorer) Factors() []Factor {
	out := make([]Factor, len(s.factors))
	for i, f := range s.factors {
		out[i] = f.factor
	}
	return out
}

// SubScore evaluates a single factor's curve.
func (s *Scorer) SubScore(factor Factor, value float64) (float64, error) {
	for _, f := range s.factors {
		if f.factor == factor {
			if !isFinite(value) {
				value = f.fallback
			}
			return f.curve.eval(value), nil
		}
	}
	return 0, fmt.Errorf("unknown factor %q", factor)
}

// Score converts a reading bundle into an assessment. The returned Level is
// the scored level; callers reconcile it with the backend prediction through
// Reconcile.
func (s *Scorer) Score(sensor SensorReading, weather WeatherSample) RiskAssessment {
	contributions := make(map[Factor]FactorScore, len(s.factors))
	composite := 0.0
	for _, f := range s.factors {
		v := f.value(sensor, weather)
		defaulted := false
		if !isFinite(v) {
			v = f.fallback
			defaulted = true
		}
		sub := f.curve.eval(v)
		contribution := f.weight * sub
		composite += contribution
		contributions[f.factor] = FactorScore{
			Value:        v,
			SubScore:     sub,
			Weight:       f.weight,
			Contribution: contribution,
			Defaulted:    defaulted,
		}
	}
	composite = math.Max(0, math.Min(1, composite))
	level := LevelForScore(composite)

	return RiskAssessment{
		Level:          level,
		ScoredLevel:    level,
		CompositeScore: composite,
		Contributions:  contributions,
		EvaluatedAt:    clock.Now(),
	}
}

// Reconcile folds the backend prediction into a scored assessment. A failed
// call or an unrecognized risk token leaves the site at LevelUnknown; a
// recognized token escalates the scored level, never lowers it.
func Reconcile(a RiskAssessment, p Prediction, predictErr error) RiskAssessment {
	if predictErr != nil {
		a.Level = LevelUnknown
		a.ReportedLevel = LevelUnknown
		a.Message = ""
		return a
	}
	a.ReportedLevel = p.Level
	if p.Level == LevelUnknown {
		a.Level = LevelUnknown
		a.Message = ""
		return a
	}
	a.Level = MaxLevel(a.ScoredLevel, p.Level)
	a.Message = p.Alert
	return a
}
