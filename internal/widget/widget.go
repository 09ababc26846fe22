// Package widget holds the per-session view state of the weather lookup widget:
// the current reading, the error banner and the single in-flight lookup.
package widget

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultErrorClearDelay is how long a city lookup error stays on screen.
const DefaultErrorClearDelay = 5 * time.Second

// ErrFlowInProgress is returned when a lookup is requested while another one
// is still loading. The widget state is left untouched.
var ErrFlowInProgress = errors.New("a weather lookup is already in progress")

var tracer = otel.Tracer("weather-lookup/widget")

// Status is the in-flight status of a widget.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// ErrorState is the user-facing error banner.
type ErrorState struct {
	Kind    string       `json:"kind"`
	Message string       `json:"message"`
	Asset   weather.Icon `json:"asset,omitempty"`

	// id binds auto-clear tasks to this instance.
	id uint64
}

// View is what the renderer gets. Reading is omitted whenever Error is set.
type View struct {
	Status  Status                  `json:"status"`
	Reading *weather.WeatherReading `json:"reading,omitempty"`
	Error   *ErrorState             `json:"error,omitempty"`
}

// Lookup is the part of weather.Service a widget drives.
type Lookup interface {
	ResolveFromDevice(ctx context.Context, locator weather.DeviceLocator) (weather.Coordinates, error)
	ResolveFromCityName(ctx context.Context, name string) (weather.Coordinates, error)
	CurrentReading(ctx context.Context, c weather.Coordinates) (weather.WeatherReading, error)
}

// TaskScheduler schedules cancellable one-shot tasks.
type TaskScheduler interface {
	AfterFunc(delay time.Duration, fn func()) (scheduler.Task, error)
}

// Widget is the view state of one browser session. It is safe for concurrent use.
type Widget struct {
	lookup     Lookup
	timers     TaskScheduler
	clearDelay time.Duration

	mu         sync.Mutex
	status     Status
	reading    *weather.WeatherReading
	errState   *ErrorState
	generation uint64
	clearTask  scheduler.Task
	lastActive time.Time
}

// New creates an idle widget. A non-positive clearDelay selects DefaultErrorClearDelay.
func New(lookup Lookup, timers TaskScheduler, clearDelay time.Duration) *Widget {
	if clearDelay <= 0 {
		clearDelay = DefaultErrorClearDelay
	}
	return &Widget{
		lookup:     lookup,
		timers:     timers,
		clearDelay: clearDelay,
		status:     StatusIdle,
		lastActive: time.Now(),
	}
}

// Start runs the device flow: current position, then current conditions.
func (w *Widget) Start(ctx context.Context, locator weather.DeviceLocator) (View, error) {
	return w.run(ctx, "device", func(ctx context.Context) (weather.WeatherReading, error) {
		coords, err := w.lookup.ResolveFromDevice(ctx, locator)
		if err != nil {
			return weather.WeatherReading{}, err
		}
		return w.lookup.CurrentReading(ctx, coords)
	})
}

// Search runs the city flow. Empty input is ignored; anything else, including
// whitespace, is sent to the lookup as typed.
func (w *Widget) Search(ctx context.Context, city string) (View, error) {
	if city == "" {
		return w.View(), nil
	}
	return w.run(ctx, "city", func(ctx context.Context) (weather.WeatherReading, error) {
		coords, err := w.lookup.ResolveFromCityName(ctx, city)
		if err != nil {
			return weather.WeatherReading{}, err
		}
		return w.lookup.CurrentReading(ctx, coords)
	})
}

// View returns a snapshot of the current state.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// LastActive reports when a flow last started or finished.
func (w *Widget) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// Close cancels any pending auto-clear task.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelClearLocked()
}

func (w *Widget) run(ctx context.Context, flow string, fn func(context.Context) (weather.WeatherReading, error)) (View, error) {
	if err := w.begin(); err != nil {
		return w.View(), err
	}

	ctx, span := tracer.Start(ctx, "widget: "+flow+"-flow")
	defer span.End()
	span.SetAttributes(attribute.String("flow", flow))

	reading, err := fn(ctx)
	if err != nil {
		fe := weather.AsFlowError(err, weather.ErrWeatherFetchFailed)
		log.Printf("ERROR: widget %s flow failed: %v", flow, fe)
		span.RecordError(fe)
		span.SetStatus(codes.Error, fe.Message)
		return w.fail(fe), fe
	}
	return w.commit(reading), nil
}

func (w *Widget) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == StatusLoading {
		return ErrFlowInProgress
	}
	w.status = StatusLoading
	w.lastActive = time.Now()
	return nil
}

func (w *Widget) commit(reading weather.WeatherReading) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancelClearLocked()
	w.reading = &reading
	w.errState = nil
	w.status = StatusIdle
	w.lastActive = time.Now()
	return w.viewLocked()
}

func (w *Widget) fail(fe *weather.FlowError) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancelClearLocked()
	w.generation++
	es := &ErrorState{
		Kind:    kindName(fe.Kind),
		Message: fe.Message,
		id:      w.generation,
	}
	w.errState = es
	w.status = StatusError
	w.lastActive = time.Now()

	if fe.Kind == weather.ErrCityLookupFailed {
		// The banner reverts to a blank view, not to the previous reading.
		es.Asset = weather.IconError
		w.reading = nil
		w.scheduleClearLocked(es.id)
	}
	return w.viewLocked()
}

func (w *Widget) scheduleClearLocked(id uint64) {
	if w.timers == nil {
		return
	}
	task, err := w.timers.AfterFunc(w.clearDelay, func() { w.expire(id) })
	if err != nil {
		log.Printf("ERROR: widget: failed to schedule error auto-clear: %v", err)
		return
	}
	w.clearTask = task
}

// expire clears the error banner if it is still the instance id.
func (w *Widget) expire(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.errState == nil || w.errState.id != id {
		return
	}
	w.errState = nil
	w.clearTask = nil
	if w.status == StatusError {
		w.status = StatusIdle
	}
}

func (w *Widget) cancelClearLocked() {
	if w.clearTask != nil {
		w.clearTask.Cancel()
		w.clearTask = nil
	}
}

func (w *Widget) viewLocked() View {
	v := View{Status: w.status}
	if w.errState != nil {
		e := *w.errState
		v.Error = &e
		return v
	}
	if w.reading != nil {
		r := *w.reading
		v.Reading = &r
	}
	return v
}

func kindName(kind error) string {
	switch kind {
	case weather.ErrLocationUnavailable:
		return "LocationUnavailable"
	case weather.ErrCityLookupFailed:
		return "CityLookupFailed"
	case weather.ErrWeatherFetchFailed:
		return "WeatherFetchFailed"
	case weather.ErrProjectionFailed:
		return "ProjectionFailed"
	case weather.ErrFormattingFailed:
		return "FormattingFailed"
	default:
		return "Unknown"
	}
}
