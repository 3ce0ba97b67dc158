package alert

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Display timing defaults.
const (
	DefaultVisible = 4500 * time.Millisecond
	DefaultFade    = 500 * time.Millisecond
)

// State is the lifecycle stage of a displayed alert.
type State string

const (
	StateVisible State = "visible"
	StateFading  State = "fading"
)

// Alert is one user-facing notification.
type Alert struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Style    string    `json:"style"`
	Message  string    `json:"message"`
	State    State     `json:"state"`
	RaisedAt time.Time `json:"raised_at"`
}

// Renderer presents alerts. Calls arrive serialized per Dispatcher.
type Renderer interface {
	ShowAlert(a Alert)
	UpdateAlert(a Alert)
	RemoveAlert(a Alert)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDurations overrides how long an alert stays visible and how long it fades.
func WithDurations(visible, fade time.Duration) Option {
	return func(d *Dispatcher) {
		if visible > 0 {
			d.visible = visible
		}
		if fade >= 0 {
			d.fade = fade
		}
	}
}

// Dispatcher keeps at most one alert active. A new dispatch removes the
// current alert before showing the next, and each alert dismisses itself on
// its own timer.
type Dispatcher struct {
	renderer Renderer
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	visible  time.Duration
	fade     time.Duration

	mu     sync.Mutex
	active *Alert
	timer  clockwork.Timer
}

// NewDispatcher creates a Dispatcher that renders through r.
func NewDispatcher(r Renderer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		renderer: r,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		visible:  DefaultVisible,
		fade:     DefaultFade,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify shows a new alert, replacing any active one. It reports false and
// shows nothing for an unrecognized kind.
func (d *Dispatcher) Notify(kind Kind, message string) (Alert, bool) {
	if !kind.Valid() {
		d.logger.Debug("ignoring alert with unknown kind", "kind", string(kind))
		return Alert{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked()

	a := Alert{
		ID:       uuid.NewString(),
		Kind:     kind,
		Style:    kind.Style(),
		Message:  message,
		State:    StateVisible,
		RaisedAt: d.clock.Now(),
	}
	d.active = &a
	d.renderer.ShowAlert(a)

	id := a.ID
	d.timer = d.clock.AfterFunc(d.visible, func() { d.beginFade(id) })

	d.metrics.Alerts.WithLabelValues(string(kind)).Inc()
	d.logger.Info("alert raised", "kind", string(kind), "alert_id", id)
	return a, true
}

// NotifyLevel raises the alert for a risk level. An empty message uses the
// level's default text; LevelUnknown raises nothing.
func (d *Dispatcher) NotifyLevel(level domain.Level, message string) (Alert, bool) {
	kind, fallback, ok := ForLevel(level)
	if !ok {
		return Alert{}, false
	}
	if message == "" {
		message = fallback
	}
	return d.Notify(kind, message)
}

// Active returns the currently displayed alert, if any.
func (d *Dispatcher) Active() (Alert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return Alert{}, false
	}
	return *d.active, true
}

// Dismiss removes the active alert immediately. It is a no-op when nothing is shown.
func (d *Dispatcher) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked()
}

func (d *Dispatcher) beginFade(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil || d.active.ID != id {
		return
	}
	if d.fade == 0 {
		d.removeLocked()
		return
	}
	d.active.State = StateFading
	d.renderer.UpdateAlert(*d.active)
	d.timer = d.clock.AfterFunc(d.fade, func() { d.expire(id) })
}

func (d *Dispatcher) expire(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil || d.active.ID != id {
		return
	}
	d.removeLocked()
}

func (d *Dispatcher) removeLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.active == nil {
		return
	}
	d.renderer.RemoveAlert(*d.active)
	d.active = nil
}
