// Package monitor orchestrates one site submission: it gates the coordinate,
// fetches weather, prediction and sensor state together, scores them, updates
// the display, raises the matching alert and hands the site to the poller.
package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/rockfall-risk-service/internal/alert"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/observability"
	"github.com/couchcryptid/rockfall-risk-service/internal/poller"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// StoppedMessage is the info alert raised when monitoring is stopped on request.
const StoppedMessage = "Monitoring stopped."

// Renderer presents the result of a submission.
type Renderer interface {
	RenderAssessment(a domain.RiskAssessment)
	RenderWeather(w domain.WeatherSample)
	RenderReading(r domain.SensorReading)
	RenderSite(label domain.SiteLabel)
	// Reset returns the readouts to the no-assessment state.
	Reset()
}

// Publisher receives every assessment the service renders.
type Publisher interface {
	Publish(ctx context.Context, event domain.AssessmentEvent) error
}

// ReadinessChecker reports whether an upstream dependency can serve requests.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Sources bundles the upstream data providers. Locator may be nil, in which
// case sites are not labelled.
type Sources struct {
	Sensor    domain.SensorSource
	Weather   domain.WeatherSource
	Predictor domain.Predictor
	Locator   domain.SiteLocator
}

// Outcome is the result of one Submit call.
type Outcome struct {
	Accepted   bool                  `json:"accepted"`
	Superseded bool                  `json:"superseded,omitempty"`
	Error      string                `json:"error,omitempty"`
	Coordinate *domain.Coordinate    `json:"coordinate,omitempty"`
	Site       domain.SiteLabel      `json:"site"`
	Assessment domain.RiskAssessment `json:"assessment"`
	Alert      *alert.Alert          `json:"alert,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes every rendered assessment.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithReadiness delegates CheckReadiness to an upstream checker.
func WithReadiness(r ReadinessChecker) Option {
	return func(s *Service) { s.readiness = r }
}

// Service is safe for concurrent use. Submissions race freely over the
// network; only the most recent one is allowed to render.
type Service struct {
	sources    Sources
	scorer     *domain.Scorer
	poller     *poller.Controller
	dispatcher *alert.Dispatcher
	renderer   Renderer
	publisher  Publisher
	readiness  ReadinessChecker
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	// ctx outlives individual requests and bounds every polling session.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
}

// New creates a Service. Polling sessions it starts run until Stop, the next
// submission, or Close.
func New(sources Sources, scorer *domain.Scorer, p *poller.Controller, d *alert.Dispatcher, r Renderer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		sources:    sources,
		scorer:     scorer,
		poller:     p,
		dispatcher: d,
		renderer:   r,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the pipeline for raw user input. It never returns an error:
// rejections and upstream failures are reported in the Outcome and the
// display.
func (s *Service) Submit(ctx context.Context, latRaw, lonRaw string) Outcome {
	coord, err := domain.ParseCoordinate(latRaw, lonRaw)
	if err != nil {
		return s.reject(err)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	// A new site always starts from a clean session.
	s.poller.Stop()

	s.logger.Info("location submitted",
		"lat", coord.Latitude,
		"lon", coord.Longitude,
		"generation", gen,
	)

	b := s.fetch(ctx, coord)
	assessment := domain.Reconcile(s.scorer.Score(b.sensor, b.weather), b.prediction, b.predictErr)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.StaleResults.Inc()
		s.metrics.Submissions.WithLabelValues("superseded").Inc()
		s.logger.Debug("discarding superseded submission", "generation", gen)
		return Outcome{Accepted: true, Superseded: true, Coordinate: &coord, Site: b.site, Assessment: assessment}
	}

	s.renderer.RenderWeather(b.weather)
	s.renderer.RenderReading(b.sensor)
	s.renderer.RenderSite(b.site)
	s.renderer.RenderAssessment(assessment)

	out := Outcome{Accepted: true, Coordinate: &coord, Site: b.site, Assessment: assessment}
	if a, ok := s.dispatcher.NotifyLevel(assessment.Level, assessment.Message); ok {
		out.Alert = &a
	}
	s.poller.Start(s.ctx, coord)
	s.mu.Unlock()

	s.metrics.Submissions.WithLabelValues("accepted").Inc()
	s.metrics.AssessmentsBy.WithLabelValues(assessment.Level.String()).Inc()
	s.metrics.CompositeScore.Set(assessment.CompositeScore)
	s.logger.Info("site assessed",
		"lat", coord.Latitude,
		"lon", coord.Longitude,
		"level", assessment.Level.String(),
		"scored_level", assessment.ScoredLevel.String(),
		"reported_level", assessment.ReportedLevel.String(),
		"composite_score", assessment.CompositeScore,
	)

	s.publish(ctx, coord, b, assessment)
	return out
}

// Stop ends monitoring on request. It reports whether a session was active.
func (s *Service) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	wasActive := s.poller.Stop()
	if wasActive {
		s.dispatcher.Notify(alert.KindInfo, StoppedMessage)
	}
	return wasActive
}

// Close stops polling for good. Submissions after Close still assess but
// their polling sessions end immediately.
func (s *Service) Close() {
	s.cancel()
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.poller.Stop()
}

// CheckReadiness reports the upstream checker's state, or nil when none is set.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.readiness == nil {
		return nil
	}
	return s.readiness.CheckReadiness(ctx)
}

func (s *Service) reject(err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.poller.Stop()
	s.renderer.Reset()

	s.metrics.Submissions.WithLabelValues("rejected").Inc()
	s.metrics.AssessmentsBy.WithLabelValues(domain.LevelUnknown.String()).Inc()
	s.logger.Info("location rejected", "error", err)

	out := Outcome{Error: err.Error(), Site: domain.SiteLabel{Source: "none"}, Assessment: domain.UnknownAssessment()}
	if a, ok := s.dispatcher.Notify(alert.KindWarning, alert.InvalidLocationMessage); ok {
		out.Alert = &a
	}
	return out
}

// bundle is everything fetched for one submission.
type bundle struct {
	weather    domain.WeatherSample
	sensor     domain.SensorReading
	prediction domain.Prediction
	predictErr error
	site       domain.SiteLabel
}

// fetch queries every source concurrently and waits for all of them. Each
// fetch falls back on its own, so the group never fails.
func (s *Service) fetch(ctx context.Context, coord domain.Coordinate) bundle {
	var b bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := s.clock.Now()
		w, err := s.sources.Weather.FetchWeather(gctx, coord)
		s.metrics.SourceFetchDuration.WithLabelValues("weather").Observe(s.clock.Since(start).Seconds())
		if err != nil {
			s.sourceFailed("weather", coord, err)
			w = domain.DefaultWeatherSample()
		}
		b.weather = w
		return nil
	})
	g.Go(func() error {
		start := s.clock.Now()
		p, err := s.sources.Predictor.Predict(gctx, coord)
		s.metrics.SourceFetchDuration.WithLabelValues("predict").Observe(s.clock.Since(start).Seconds())
		if err != nil {
			s.sourceFailed("predict", coord, err)
		}
		b.prediction, b.predictErr = p, err
		return nil
	})
	g.Go(func() error {
		start := s.clock.Now()
		r, err := s.sources.Sensor.FetchSensor(gctx)
		s.metrics.SourceFetchDuration.WithLabelValues("sensor").Observe(s.clock.Since(start).Seconds())
		if err != nil {
			s.sourceFailed("sensor", coord, err)
			r = domain.DefaultSensorReading()
		}
		b.sensor = r
		return nil
	})
	g.Go(func() error {
		b.site = domain.LabelSite(gctx, coord, s.sources.Locator, s.logger)
		if b.site.Source == "failed" {
			s.metrics.SourceFailures.WithLabelValues("site").Inc()
		}
		return nil
	})

	_ = g.Wait()
	return b
}

func (s *Service) sourceFailed(source string, coord domain.Coordinate, err error) {
	s.metrics.SourceFailures.WithLabelValues(source).Inc()
	s.logger.Warn("source fetch failed, using defaults",
		"source", source,
		"lat", coord.Latitude,
		"lon", coord.Longitude,
		"error", err,
	)
}

func (s *Service) publish(ctx context.Context, coord domain.Coordinate, b bundle, a domain.RiskAssessment) {
	if s.publisher == nil {
		return
	}
	event := domain.AssessmentEvent{
		ID:          uuid.NewString(),
		Coordinate:  coord,
		Site:        b.site,
		Sensor:      b.sensor,
		Weather:     b.weather,
		Assessment:  a,
		PublishedAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish assessment failed", "event_id", event.ID, "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("ok").Inc()
}
