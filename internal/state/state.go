// Package state provides thread-safe state management for the application.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/scene"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventDatasetLoaded  EventType = "DATASET_LOADED"
	EventDateChanged    EventType = "DATE_CHANGED"
	EventOptionChanged  EventType = "OPTION_CHANGED"
	EventAssetsReloaded EventType = "ASSETS_RELOADED"
	EventShadingSkipped EventType = "SHADING_SKIPPED"
)

// Event represents a state change in the viewer.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current selection
	target    time.Time
	opts      scene.Options
	record    phase.Record
	hasRecord bool

	// Last render
	frame          *scene.Frame
	lastRender     time.Time
	lastError      error
	renderDuration time.Duration
	renders        int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
	Options   scene.Options
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50, // Last 50 events
		Options:   scene.DefaultOptions(),
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		opts:      cfg.Options,
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// SetTarget changes the target date. It reports whether the date changed.
func (m *Manager) SetTarget(t time.Time) bool {
	day := phase.Day(t)

	m.mu.Lock()
	defer m.mu.Unlock()

	if day.Equal(m.target) {
		return false
	}
	prev := m.target
	m.target = day
	detail := day.Format("01/02/2006")
	if !prev.IsZero() {
		detail = prev.Format("01/02/2006") + " -> " + detail
	}
	m.addEvent(EventDateChanged, detail)
	return true
}

// Target returns the target date.
func (m *Manager) Target() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.target
}

// SetOptions replaces the render options and logs what changed.
func (m *Manager) SetOptions(o scene.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range diffOptions(m.opts, o) {
		m.addEvent(EventOptionChanged, d)
	}
	m.opts = o
}

// Options returns the render options.
func (m *Manager) Options() scene.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// SetRecord stores the record selected for the target date.
func (m *Manager) SetRecord(r phase.Record, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record, m.hasRecord = r, ok
}

// Update atomically records a finished render.
func (m *Manager) Update(f scene.Frame, renderDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRender = time.Now()
	m.lastError = err
	m.renderDuration = renderDuration
	m.renders++

	if !f.Shaded && f.Reason != "" {
		// Only log a skip when the reason changes, not on every redraw.
		if m.frame == nil || m.frame.Shaded || m.frame.Reason != f.Reason {
			m.addEvent(EventShadingSkipped, f.Reason)
		}
	}
	m.frame = &f
}

// Record logs an event that happened outside the manager, such as a
// dataset or asset reload.
func (m *Manager) Record(t EventType, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEvent(t, detail)
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(t EventType, detail string) {
	e := Event{Type: t, Timestamp: time.Now(), Detail: detail}
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func diffOptions(a, b scene.Options) []string {
	var out []string
	if a.Hemisphere != b.Hemisphere {
		out = append(out, "hemisphere "+b.Hemisphere.String())
	}
	if a.ShadeFace != b.ShadeFace {
		out = append(out, fmt.Sprintf("shade face %t", b.ShadeFace))
	}
	if a.Softness != b.Softness {
		out = append(out, fmt.Sprintf("softness %.1f", b.Softness))
	}
	if a.Oversample != b.Oversample {
		out = append(out, fmt.Sprintf("oversample %d", b.Oversample))
	}
	return out
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Target         time.Time
	Options        scene.Options
	Record         phase.Record
	HasRecord      bool
	Frame          *scene.Frame
	LastRender     time.Time
	LastError      error
	RenderDuration time.Duration
	Renders        int
	Events         []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var frame *scene.Frame
	if m.frame != nil {
		f := *m.frame
		frame = &f
	}

	return Snapshot{
		Target:         m.target,
		Options:        m.opts,
		Record:         m.record,
		HasRecord:      m.hasRecord,
		Frame:          frame,
		LastRender:     m.lastRender,
		LastError:      m.lastError,
		RenderDuration: m.renderDuration,
		Renders:        m.renders,
		Events:         m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasFrame returns true once at least one render has been recorded.
func (m *Manager) HasFrame() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame != nil
}
