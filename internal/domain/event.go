package domain

import "time"

// AssessmentEvent is the record published for every completed submission.
type AssessmentEvent struct {
	ID          string         `json:"id"`
	Coordinate  Coordinate     `json:"coordinate"`
	Site        SiteLabel      `json:"site"`
	Sensor      SensorReading  `json:"sensor"`
	Weather     WeatherSample  `json:"weather"`
	Assessment  RiskAssessment `json:"assessment"`
	PublishedAt time.Time      `json:"published_at"`
}
