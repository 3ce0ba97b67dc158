// Command score runs the risk model offline over a JSON file of site
// scenarios and writes the resulting assessments. It uses the service's own
// gate, scorer and reconciliation so the output matches live behavior.
//
// Usage:
//
//	go run ./cmd/score \
//	  -in data/fixtures/scenarios.json \
//	  -out data/fixtures/assessments.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// evaluatedAt pins EvaluatedAt so fixtures are reproducible.
var evaluatedAt = time.Date(2025, time.July, 14, 6, 0, 0, 0, time.UTC)

// scenario is one input row. Missing sensor or weather blocks mean the source
// was unavailable and its defaults apply. Risk is the raw backend token; an
// empty or null risk means the prediction call failed.
type scenario struct {
	Name    string                `json:"name"`
	Lat     string                `json:"lat"`
	Lon     string                `json:"lon"`
	Sensor  *domain.SensorReading `json:"sensor"`
	Weather *domain.WeatherSample `json:"weather"`
	Risk    *string               `json:"risk"`
	Alert   string                `json:"alert"`
}

type result struct {
	Name       string                 `json:"name"`
	Coordinate *domain.Coordinate     `json:"coordinate,omitempty"`
	Rejected   string                 `json:"rejected,omitempty"`
	Assessment *domain.RiskAssessment `json:"assessment,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to the scenario JSON file")
	out := flag.String("out", "", "output path for assessments (stdout when empty)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return errors.New("missing required flag: -in")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read scenarios: %w", err)
	}
	var scenarios []scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return fmt.Errorf("decode scenarios: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(evaluatedAt))
	defer domain.SetClock(nil)

	results := scoreAll(domain.NewScorer(), scenarios)
	log.Printf("scored %d scenarios", len(results))

	if *out == "" {
		return encode(os.Stdout, results)
	}
	if err := writeJSON(*out, results); err != nil {
		return fmt.Errorf("writing assessments: %w", err)
	}
	log.Printf("wrote assessments: %s", *out)
	printStats(results)
	return nil
}

func scoreAll(scorer *domain.Scorer, scenarios []scenario) []result {
	results := make([]result, 0, len(scenarios))
	for _, sc := range scenarios {
		coord, err := domain.ParseCoordinate(sc.Lat, sc.Lon)
		if err != nil {
			results = append(results, result{Name: sc.Name, Rejected: err.Error()})
			continue
		}

		sensor := domain.DefaultSensorReading()
		if sc.Sensor != nil {
			sensor = *sc.Sensor
		}
		weather := domain.DefaultWeatherSample()
		if sc.Weather != nil {
			weather = *sc.Weather
		}

		var predictErr error
		var prediction domain.Prediction
		if sc.Risk == nil {
			predictErr = errors.New("no prediction")
		} else {
			prediction = domain.Prediction{Level: domain.ParseLevel(*sc.Risk), RawRisk: *sc.Risk, Alert: sc.Alert}
		}

		a := domain.Reconcile(scorer.Score(sensor, weather), prediction, predictErr)
		results = append(results, result{Name: sc.Name, Coordinate: &coord, Assessment: &a})
	}
	return results
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(results []result) {
	counts := map[string]int{}
	for _, r := range results {
		if r.Assessment == nil {
			counts["rejected"]++
			continue
		}
		counts[r.Assessment.Level.String()]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("  %-8s %d", k, counts[k])
	}
}
