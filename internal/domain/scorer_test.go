package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T) clockwork.Clock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.July, 14, 9, 30, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })
	return fake
}

func calmWeather() WeatherSample {
	return WeatherSample{Temperature: 20, Humidity: 40, Rainfall: 0, WindSpeed: 5}
}

func TestScorer_WeightsSumToOne(t *testing.T) {
	s := NewScorer()
	total := 0.0
	for _, f := range s.factors {
		assert.GreaterOrEqual(t, f.weight, 0.0, "factor %s", f.factor)
		total += f.weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Len(t, s.Factors(), 7)
}

func TestScorer_Score_Calm(t *testing.T) {
	clk := freezeClock(t)

	a := NewScorer().Score(SensorReading{}, calmWeather())
	assert.Equal(t, LevelLow, a.Level)
	assert.Equal(t, LevelLow, a.ScoredLevel)
	assert.InDelta(t, 0.0, a.CompositeScore, 1e-9)
	assert.Len(t, a.Contributions, 7)
	assert.Equal(t, clk.Now(), a.EvaluatedAt)
}

func TestScorer_Score_HighRiskSite(t *testing.T) {
	freezeClock(t)

	sensor := SensorReading{Vibration: 1.8, Displacement: 5, PorePressure: 90}
	weather := WeatherSample{
		Temperature: DefaultTemperature,
		Humidity:    DefaultHumidity,
		Rainfall:    50,
		WindSpeed:   DefaultWindSpeed,
	}

	a := NewScorer().Score(sensor, weather)
	assert.GreaterOrEqual(t, a.CompositeScore, HighCutoff)
	assert.Equal(t, LevelHigh, a.Level)

	assert.InDelta(t, 1.6/1.8, a.Contributions[FactorVibration].SubScore, 1e-9)
	assert.InDelta(t, 1.0, a.Contributions[FactorDisplacement].SubScore, 1e-9)
	assert.InDelta(t, 0.875, a.Contributions[FactorPorePressure].SubScore, 1e-9)
	assert.InDelta(t, 1.0, a.Contributions[FactorRainfall].SubScore, 1e-9)
	assert.InDelta(t, 0.0, a.Contributions[FactorTemperature].SubScore, 1e-9)
}

func TestScorer_ContributionsSumToComposite(t *testing.T) {
	a := NewScorer().Score(
		SensorReading{Vibration: 0.9, Displacement: 2, PorePressure: 55},
		WeatherSample{Temperature: 38, Humidity: 85, Rainfall: 20, WindSpeed: 40},
	)
	sum := 0.0
	for _, fs := range a.Contributions {
		assert.InDelta(t, fs.Weight*fs.SubScore, fs.Contribution, 1e-12)
		assert.GreaterOrEqual(t, fs.SubScore, 0.0)
		assert.LessOrEqual(t, fs.SubScore, 1.0)
		sum += fs.Contribution
	}
	assert.InDelta(t, sum, a.CompositeScore, 1e-9)
}

func TestScorer_NonFiniteInputsUseDefaults(t *testing.T) {
	a := NewScorer().Score(
		SensorReading{Vibration: math.NaN(), Displacement: math.Inf(1)},
		WeatherSample{Temperature: math.NaN(), Humidity: 60, Rainfall: math.Inf(-1), WindSpeed: 12},
	)

	vib := a.Contributions[FactorVibration]
	assert.True(t, vib.Defaulted)
	assert.Equal(t, DefaultVibration, vib.Value)

	rain := a.Contributions[FactorRainfall]
	assert.True(t, rain.Defaulted)
	assert.Equal(t, DefaultRainfall, rain.Value)

	assert.False(t, a.Contributions[FactorHumidity].Defaulted)
	assert.Equal(t, LevelLow, a.Level)
	assert.False(t, math.IsNaN(a.CompositeScore))
}

func TestScorer_TemperatureCurveIsTwoSided(t *testing.T) {
	s := NewScorer()
	for _, tt := range []struct {
		temp float64
		want float64
	}{
		{-20, 1}, {-10, 1}, {-2.5, 0.5}, {5, 0}, {20, 0}, {30, 0}, {40, 0.5}, {60, 1},
	} {
		got, err := s.SubScore(FactorTemperature, tt.temp)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "temp %v", tt.temp)
	}

	_, err := s.SubScore(Factor("slope"), 30)
	assert.Error(t, err)
}

// Raising vibration with everything else fixed must never lower the
// composite score or demote the level.
func TestScorer_MonotonicInVibration(t *testing.T) {
	s := NewScorer()

	weathers := []WeatherSample{}
	for _, rain := range []float64{0, 10, 30, 50, 80} {
		for _, temp := range []float64{-15, 0, 28, 45} {
			for _, wind := range []float64{0, 30, 90} {
				weathers = append(weathers, WeatherSample{Temperature: temp, Humidity: 70, Rainfall: rain, WindSpeed: wind})
			}
		}
	}
	sensors := []SensorReading{
		{Displacement: 0, PorePressure: 0},
		{Displacement: 2.5, PorePressure: 60},
		{Displacement: 6, PorePressure: 120},
	}

	for _, w := range weathers {
		for _, base := range sensors {
			prev := RiskAssessment{CompositeScore: -1, Level: LevelUnknown}
			for vib := 0.0; vib <= 3.0; vib += 0.05 {
				r := base
				r.Vibration = vib
				a := s.Score(r, w)
				require.GreaterOrEqual(t, a.CompositeScore, prev.CompositeScore, "vib=%v weather=%+v sensor=%+v", vib, w, base)
				require.GreaterOrEqual(t, a.Level, prev.Level, "vib=%v weather=%+v sensor=%+v", vib, w, base)
				prev = a
			}
		}
	}
}

func TestReconcile(t *testing.T) {
	scored := RiskAssessment{Level: LevelMedium, ScoredLevel: LevelMedium, CompositeScore: 0.5}

	t.Run("prediction failed", func(t *testing.T) {
		a := Reconcile(scored, Prediction{}, errors.New("connection refused"))
		assert.Equal(t, LevelUnknown, a.Level)
		assert.Equal(t, LevelMedium, a.ScoredLevel)
		assert.InDelta(t, 0.5, a.CompositeScore, 1e-9)
	})

	t.Run("unrecognized risk", func(t *testing.T) {
		a := Reconcile(scored, Prediction{Level: LevelUnknown, RawRisk: "elevated"}, nil)
		assert.Equal(t, LevelUnknown, a.Level)
		assert.Empty(t, a.Message)
	})

	t.Run("reported lower keeps scored", func(t *testing.T) {
		a := Reconcile(scored, Prediction{Level: LevelLow}, nil)
		assert.Equal(t, LevelMedium, a.Level)
		assert.Equal(t, LevelLow, a.ReportedLevel)
	})

	t.Run("reported higher escalates", func(t *testing.T) {
		a := Reconcile(scored, Prediction{Level: LevelHigh, Alert: "evacuate bench 4"}, nil)
		assert.Equal(t, LevelHigh, a.Level)
		assert.Equal(t, "evacuate bench 4", a.Message)
	})
}

func TestDefaults(t *testing.T) {
	clk := freezeClock(t)

	w := DefaultWeatherSample()
	assert.Equal(t, WeatherSample{Temperature: 28, Humidity: 60, Rainfall: 2, WindSpeed: 12, ObservedAt: clk.Now()}, w)

	r := DefaultSensorReading()
	assert.Equal(t, SensorReading{ObservedAt: clk.Now()}, r)

	u := UnknownAssessment()
	assert.Equal(t, LevelUnknown, u.Level)
	assert.Empty(t, u.Contributions)
}
