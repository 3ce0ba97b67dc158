package domain

import (
	"context"
	"log/slog"
)

// SiteLabel is a human-readable place description for a coordinate.
type SiteLabel struct {
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"` // 0.0–1.0 provider confidence score
	Source           string  `json:"source"`               // "reverse", "none", "failed", "disabled"
}

// SiteLocator reverse-geocodes a coordinate into a place description.
type SiteLocator interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (SiteLabel, error)
}

// LabelSite looks up a display label for coord. A nil locator or a lookup
// failure yields a label with only Source set; the caller never sees an error.
func LabelSite(ctx context.Context, coord Coordinate, locator SiteLocator, logger *slog.Logger) SiteLabel {
	if locator == nil {
		return SiteLabel{Source: "disabled"}
	}

	label, err := locator.ReverseGeocode(ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", coord.Latitude,
			"lon", coord.Longitude,
			"error", err,
		)
		return SiteLabel{Source: "failed"}
	}
	if label.FormattedAddress == "" {
		return SiteLabel{Source: "none"}
	}
	label.Source = "reverse"
	return label
}
