// Package chart holds the bounded vibration history shown on the live display.
package chart

import (
	"strconv"
	"time"
)

// Defaults for the vibration chart.
const (
	DefaultCapacity = 20
	DefaultStep     = 5 * time.Second
)

// Point is one labeled sample on the chart.
type Point struct {
	Label          string  `json:"label"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	Value          float64 `json:"value"`
}

// Window is a fixed-capacity FIFO of chart points. Each push advances an
// elapsed-time counter by the step, so the x-axis reads 5s, 10s, 15s, ...
// Window is not safe for concurrent use; its owner serializes access.
type Window struct {
	capacity int
	step     int // seconds
	elapsed  int
	points   []Point
}

// NewWindow creates a Window. Non-positive arguments fall back to the defaults.
func NewWindow(capacity int, step time.Duration) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	secs := int(step / time.Second)
	if secs <= 0 {
		secs = int(DefaultStep / time.Second)
	}
	return &Window{
		capacity: capacity,
		step:     secs,
		points:   make([]Point, 0, capacity),
	}
}

// Push appends a value, evicting the oldest point once capacity is reached.
func (w *Window) Push(value float64) {
	w.elapsed += w.step
	if len(w.points) == w.capacity {
		copy(w.points, w.points[1:])
		w.points = w.points[:len(w.points)-1]
	}
	w.points = append(w.points, Point{
		Label:          strconv.Itoa(w.elapsed) + "s",
		ElapsedSeconds: w.elapsed,
		Value:          value,
	})
}

// Clear empties the window and resets the elapsed counter to zero.
func (w *Window) Clear() {
	w.elapsed = 0
	w.points = w.points[:0]
}

// Snapshot returns a copy of the points, oldest first.
func (w *Window) Snapshot() []Point {
	out := make([]Point, len(w.points))
	copy(out, w.points)
	return out
}

// Len reports the number of buffered points.
func (w *Window) Len() int { return len(w.points) }

// Capacity reports the maximum number of points kept.
func (w *Window) Capacity() int { return w.capacity }
