package domain

import "strings"

// Level is the categorical risk classification. The zero value is
// LevelUnknown, meaning no assessment is available, which is distinct from
// an assessment of LevelLow.
type Level int

const (
	LevelUnknown Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

// Score cutoffs between levels.
const (
	MediumCutoff = 0.33
	HighCutoff   = 0.66
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText encodes the level as its lowercase name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts exactly the tokens ParseLevel recognizes; anything else
// decodes to LevelUnknown.
func (l *Level) UnmarshalText(b []byte) error {
	*l = ParseLevel(string(b))
	return nil
}

// ParseLevel maps a backend risk token to a Level. Matching is exact after
// trimming and lowercasing; "moderate" is accepted as a synonym of "medium".
// Unrecognized input, including strings that merely contain a level name,
// yields LevelUnknown.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow
	case "medium", "moderate":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// LevelForScore maps a composite score onto a level using the fixed cutoffs.
func LevelForScore(score float64) Level {
	switch {
	case score >= HighCutoff:
		return LevelHigh
	case score >= MediumCutoff:
		return LevelMedium
	default:
		return LevelLow
	}
}

// MaxLevel returns the more severe of two levels. LevelUnknown never wins
// against a known level.
func MaxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}
