// Package render draws the state map: base geometry, heat glow, selection
// highlights and story-recency markers, layered in a fixed order each frame.
package render

import (
	"errors"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/statewatch/statewatch/internal/activity"
	"github.com/statewatch/statewatch/internal/geo"
)

// Phase is the renderer lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseGeometryLoading
	PhaseGeometryReady
	PhaseGeometryFailed
)

// pulsePeriodDivisor sets the sinusoidal pulse phase: sin(t_ms / 700),
// giving a period of roughly 1.4 seconds.
const pulsePeriodDivisor = 700.0

// Renderer owns the projected geometry and draws frames onto a Surface.
// A failed geometry load is terminal: the renderer keeps drawing the
// placeholder until the process restarts.
type Renderer struct {
	width   float64
	height  float64
	padding float64
	theme   Theme

	mu      sync.Mutex
	phase   Phase
	paths   []geo.StatePath
	failure string
}

// New creates a renderer in the Uninitialized phase.
func New(width, height, padding int, theme Theme) *Renderer {
	return &Renderer{
		width:   float64(width),
		height:  float64(height),
		padding: float64(padding),
		theme:   theme,
		phase:   PhaseUninitialized,
	}
}

// LoadGeometry reads the geometry resource and projects it. On success the
// renderer is ready for per-frame drawing; on failure it settles into the
// placeholder phase with a message naming the likely cause. There is no
// automatic retry.
func (r *Renderer) LoadGeometry(path string) error {
	r.mu.Lock()
	r.phase = PhaseGeometryLoading
	r.mu.Unlock()

	states, err := geo.Load(path)
	if err != nil {
		r.fail(classifyGeoFailure(err))
		return err
	}

	pr := geo.NewProjection(states, r.width, r.height, r.padding)
	paths := geo.BuildPaths(states, pr)

	r.mu.Lock()
	r.paths = paths
	r.phase = PhaseGeometryReady
	r.mu.Unlock()

	log.Printf("Geometry ready: %d states projected at scale %.3f", len(paths), pr.Scale)
	return nil
}

// SetGeometry installs pre-parsed geometry directly, projecting it for this
// renderer's canvas.
func (r *Renderer) SetGeometry(states []geo.State) {
	pr := geo.NewProjection(states, r.width, r.height, r.padding)
	paths := geo.BuildPaths(states, pr)

	r.mu.Lock()
	r.paths = paths
	r.phase = PhaseGeometryReady
	r.mu.Unlock()
}

func (r *Renderer) fail(msg string) {
	r.mu.Lock()
	r.phase = PhaseGeometryFailed
	r.failure = msg
	r.mu.Unlock()
	log.Printf("Geometry load failed: %s", msg)
}

func classifyGeoFailure(err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "MAP OFFLINE: geometry resource missing"
	case errors.Is(err, geo.ErrNoFeatures):
		return "MAP OFFLINE: geometry has no features"
	default:
		return "MAP OFFLINE: geometry unreadable"
	}
}

// Size returns the configured frame dimensions.
func (r *Renderer) Size() (width, height int) {
	return int(r.width), int(r.height)
}

// Phase returns the current lifecycle state.
func (r *Renderer) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Paths returns the projected state paths for hit testing. Nil until the
// geometry is ready.
func (r *Renderer) Paths() []geo.StatePath {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths
}

// Frame draws one frame. The layer order is fixed: background, heat glows,
// state borders, selection highlights, story markers. In the failed phase
// only the placeholder is drawn.
func (r *Renderer) Frame(s Surface, heat map[string]activity.StateActivity, selection []string, decayWindow time.Duration, now time.Time) {
	r.mu.Lock()
	phase := r.phase
	paths := r.paths
	failure := r.failure
	r.mu.Unlock()

	if phase != PhaseGeometryReady {
		r.drawPlaceholder(s, failure)
		return
	}

	pulse := pulsePhase(now)

	// 1. background
	s.Clear(r.theme.Background)

	// 2. heat glow per state
	for _, sp := range paths {
		a, ok := heat[sp.ID]
		if !ok || a.NormalizedHeat <= 0 {
			continue
		}
		alpha := a.NormalizedHeat * (0.35 + 0.25*pulse)
		s.FillPath(sp.Rings, r.theme.Glow.WithAlpha(alpha))
	}

	// 3. borders
	for _, sp := range paths {
		s.StrokePath(sp.Rings, r.theme.Border, 1)
	}

	// 4. selection highlight
	selected := make(map[string]struct{}, len(selection))
	for _, id := range selection {
		selected[id] = struct{}{}
	}
	for _, sp := range paths {
		if _, ok := selected[sp.ID]; !ok {
			continue
		}
		s.FillPath(sp.Rings, r.theme.Highlight.WithAlpha(0.18))
		s.StrokePath(sp.Rings, r.theme.Highlight, 2)
	}

	// 5. story markers at centroids
	for _, sp := range paths {
		a, ok := heat[sp.ID]
		if !ok || a.LastStoryTime.IsZero() {
			continue
		}
		age := now.Sub(a.LastStoryTime)
		if age >= decayWindow {
			continue
		}
		strength := 1 - float64(age)/float64(decayWindow)
		radius := 3 + 5*strength*(0.6+0.4*pulse)
		s.FillCircle(sp.Centroid, radius, r.theme.Marker.WithAlpha(strength*(0.5+0.5*pulse)))
	}
}

func (r *Renderer) drawPlaceholder(s Surface, msg string) {
	if msg == "" {
		msg = "MAP LOADING"
	}
	s.Clear(r.theme.Background)
	s.FillText(msg, geo.Point{X: r.width / 2, Y: r.height / 2}, r.theme.Text)
}

// pulsePhase maps the frame timestamp onto [0,1] with a ~1.4s period.
func pulsePhase(now time.Time) float64 {
	ms := float64(now.UnixMilli())
	return (math.Sin(ms/pulsePeriodDivisor) + 1) / 2
}
