// Package alert shows at most one user-facing notification at a time.
package alert

import (
	"strings"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
)

// Kind classifies an alert.
type Kind string

const (
	KindLow      Kind = "low"
	KindModerate Kind = "moderate"
	KindHigh     Kind = "high"
	KindWarning  Kind = "warning"
	KindInfo     Kind = "info"
)

// InvalidLocationMessage is shown when the coordinate gate rejects input.
const InvalidLocationMessage = "Please enter a valid latitude and longitude to start monitoring."

// Default per-level messages used when the backend supplies none.
const (
	HighRiskMessage     = "HIGH RISK of rockfall detected! Immediate action required."
	ModerateRiskMessage = "MODERATE RISK - monitor site closely."
	LowRiskMessage      = "LOW RISK - conditions stable."
)

// Style is the presentation class a renderer applies to the alert.
func (k Kind) Style() string {
	switch k {
	case KindHigh:
		return "danger"
	case KindModerate:
		return "warning"
	case KindLow:
		return "success"
	case KindWarning:
		return "notice"
	case KindInfo:
		return "info"
	default:
		return ""
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool { return k.Style() != "" }

// ParseKind maps a kind name to a Kind, reporting false for anything else.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// ForLevel returns the alert kind and default message for a risk level.
// LevelUnknown has no alert.
func ForLevel(level domain.Level) (Kind, string, bool) {
	switch level {
	case domain.LevelHigh:
		return KindHigh, HighRiskMessage, true
	case domain.LevelMedium:
		return KindModerate, ModerateRiskMessage, true
	case domain.LevelLow:
		return KindLow, LowRiskMessage, true
	default:
		return "", "", false
	}
}
