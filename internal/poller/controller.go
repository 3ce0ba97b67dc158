// Package poller runs the repeated sensor fetch-and-buffer cycle for one site.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/chart"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the fixed poll period.
const DefaultInterval = 5 * time.Second

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
)

// Renderer receives the instantaneous reading and the chart after every tick.
type Renderer interface {
	RenderReading(r domain.SensorReading)
	RenderChart(points []chart.Point)
}

// Session is a point-in-time view of the polling session.
type Session struct {
	Status     Status             `json:"status"`
	Coordinate *domain.Coordinate `json:"coordinate,omitempty"`
	Interval   time.Duration      `json:"interval"`
	Generation uint64             `json:"generation"`
	Chart      []chart.Point      `json:"chart"`
}

// Controller owns the single polling session and its chart window. At most
// one ticker is live at any time. Results from fetches that complete after
// the session they belong to has ended are discarded.
type Controller struct {
	source   domain.SensorSource
	renderer Renderer
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	status     Status
	coord      *domain.Coordinate
	generation uint64
	window     *chart.Window
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates an idle Controller. A non-positive interval uses DefaultInterval.
func New(source domain.SensorSource, renderer Renderer, window *chart.Window, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		source:   source,
		renderer: renderer,
		clock:    clock,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		status:   StatusIdle,
		window:   window,
	}
}

// Start moves Idle -> Active for coord: it fetches a reading immediately and
// then once per interval until Stop or ctx is cancelled. Starting an active
// session is a no-op and reports false.
func (c *Controller) Start(ctx context.Context, coord domain.Coordinate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusActive {
		return false
	}

	c.generation++
	gen := c.generation
	c.status = StatusActive
	c.coord = &coord

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done

	ticker := c.clock.NewTicker(c.interval)
	go c.run(runCtx, gen, ticker, done)

	c.metrics.PollingActive.Set(1)
	c.logger.Info("polling started",
		"lat", coord.Latitude,
		"lon", coord.Longitude,
		"interval", c.interval,
		"generation", gen,
	)
	return true
}

// Stop moves Active -> Idle: future ticks are cancelled, the chart and its
// elapsed counter are cleared. Fetches already in flight are not aborted;
// their results are dropped. Stop on an idle session still clears the chart
// and reports false.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasActive := c.status == StatusActive
	if wasActive {
		c.cancel()
		c.cancel = nil
		c.generation++
		c.logger.Info("polling stopped", "generation", c.generation)
	}
	c.status = StatusIdle
	c.coord = nil
	c.window.Clear()
	c.renderer.RenderChart(c.window.Snapshot())
	c.metrics.PollingActive.Set(0)
	return wasActive
}

// Wait blocks until the current session's loop has exited or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Coordinate returns the coordinate being polled, if a session is active.
func (c *Controller) Coordinate() (domain.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coord == nil {
		return domain.Coordinate{}, false
	}
	return *c.coord, true
}

// Snapshot returns the session state and a copy of the chart.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{
		Status:     c.status,
		Interval:   c.interval,
		Generation: c.generation,
		Chart:      c.window.Snapshot(),
	}
	if c.coord != nil {
		coord := *c.coord
		s.Coordinate = &coord
	}
	return s
}

func (c *Controller) run(ctx context.Context, gen uint64, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	c.poll(ctx, gen)
	for {
		select {
		case <-ctx.Done():
			c.expire(gen)
			return
		case <-ticker.Chan():
			c.poll(ctx, gen)
		}
	}
}

// expire returns the session to Idle when its parent context ends without a
// Stop. Sessions already stopped or replaced are left alone.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.status != StatusActive {
		return
	}
	c.cancel()
	c.cancel = nil
	c.generation++
	c.status = StatusIdle
	c.coord = nil
	c.window.Clear()
	c.renderer.RenderChart(c.window.Snapshot())
	c.metrics.PollingActive.Set(0)
	c.logger.Info("polling ended with parent context", "generation", c.generation)
}

// poll performs one fetch-and-buffer cycle for generation gen.
func (c *Controller) poll(ctx context.Context, gen uint64) {
	c.metrics.PollTicks.Inc()

	start := c.clock.Now()
	reading, err := c.source.FetchSensor(ctx)
	c.metrics.SourceFetchDuration.WithLabelValues("sensor").Observe(c.clock.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("sensor fetch failed, using defaults", "error", err, "generation", gen)
		c.metrics.SourceFailures.WithLabelValues("sensor").Inc()
		reading = domain.DefaultSensorReading()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.status != StatusActive {
		c.metrics.StaleResults.Inc()
		c.logger.Debug("discarding stale sensor reading", "generation", gen, "current", c.generation)
		return
	}

	c.window.Push(reading.Vibration)
	c.renderer.RenderReading(reading)
	c.renderer.RenderChart(c.window.Snapshot())
}
