// Package domain models rockfall risk assessment for a monitored mine site.
//
// # Readings
//
// Two kinds of physical readings feed the model:
//
//	SensorReading  vibration (Hz), displacement (mm), pore pressure (kPa)
//	WeatherSample  temperature (°C), humidity (%), rainfall (mm), wind speed (km/h)
//
// Sensor readings arrive every poll tick; weather is fetched once per accepted
// site coordinate. Both are ephemeral and never persisted.
//
// # Coordinate gate
//
// No data flows until a coordinate passes [ParseCoordinate]: both values
// present and finite, not the degenerate (0, 0) pair, latitude in [-90, 90]
// and longitude in [-180, 180].
//
// # Scoring
//
// [Scorer] is a weighted threshold model. Each of the seven factors maps its
// raw value through a piecewise-linear curve to a sub-score in [0, 1], where a
// higher sub-score always means more danger:
//
//	vibration      0.2 Hz -> 0      2.0 Hz -> 1       weight 0.25
//	displacement   0 mm   -> 0      5 mm   -> 1       weight 0.20
//	pore pressure  20 kPa -> 0      100 kPa -> 1      weight 0.15
//	rainfall       5 mm   -> 0      50 mm  -> 1       weight 0.20
//	temperature    -10 °C -> 1, 5..30 °C -> 0, 50 °C -> 1   weight 0.05
//	humidity       60 %   -> 0      100 %  -> 1       weight 0.05
//	wind speed     20 km/h -> 0     80 km/h -> 1      weight 0.10
//
// The composite score is the weighted sum of the sub-scores. Levels come from
// two cutoffs:
//
//	score < 0.33         Low
//	0.33 <= score < 0.66 Medium
//	score >= 0.66        High
//
// Weights are non-negative, so raising any one sub-score can never lower the
// composite or demote the level. A non-finite input is replaced with the
// factor's declared default instead of failing the assessment.
//
// # Prediction
//
// The backend prediction returns a free-form risk string. It is parsed once,
// at the adapter boundary, into the closed [Level] enum by [ParseLevel];
// anything unrecognized becomes [LevelUnknown], which is displayed as a
// neutral state and raises no alert.
package domain
