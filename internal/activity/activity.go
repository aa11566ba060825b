// Package activity computes the decayed per-state heat scores that drive
// the map's glow rendering.
package activity

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/story"
)

// StateActivity is the derived heat record for one state.
type StateActivity struct {
	StoryCount     int       `json:"storyCount"`
	FeedCount      int       `json:"feedCount"`
	NormalizedHeat float64   `json:"normalizedHeat"`
	LastStoryTime  time.Time `json:"lastStoryTime"`
	WeightedScore  float64   `json:"weightedScore"`
}

// Compute scores every state from the story list and feed configuration.
// A story younger than decayWindow contributes weight 1 - age/window; a
// story with an unparseable date ages as zero (treated as published now).
// NormalizedHeat is the weighted score divided by the state's configured
// feed count (minimum 1) and clamped to 1.
func Compute(stories []story.Story, feeds []appdata.Feed, decayWindow time.Duration, now time.Time) map[string]StateActivity {
	feedCounts := make(map[string]int, len(feeds))
	for _, f := range feeds {
		if f.State != "" {
			feedCounts[f.State]++
		}
	}

	result := make(map[string]StateActivity)
	for _, s := range stories {
		if s.State == "" {
			continue
		}

		pub := story.ParseTime(s.PubDate)
		if pub.IsZero() {
			pub = now
		}
		age := now.Sub(pub)
		if age >= decayWindow {
			continue
		}
		if age < 0 {
			age = 0
		}

		a := result[s.State]
		a.StoryCount++
		a.WeightedScore += 1 - float64(age)/float64(decayWindow)
		if pub.After(a.LastStoryTime) {
			a.LastStoryTime = pub
		}
		result[s.State] = a
	}

	for state, a := range result {
		a.FeedCount = feedCounts[state]
		if a.FeedCount < 1 {
			a.FeedCount = 1
		}
		a.NormalizedHeat = a.WeightedScore / float64(a.FeedCount)
		if a.NormalizedHeat > 1 {
			a.NormalizedHeat = 1
		}
		result[state] = a
	}

	return result
}

// Scorer memoizes Compute for a short window so the render loop does not
// recompute on every frame. The cache is invalidated by wall-clock age, not
// by story-list identity: once the window elapses the next Snapshot call
// recomputes even if nothing changed.
type Scorer struct {
	clock      clockwork.Clock
	memoWindow time.Duration

	mu       sync.Mutex
	cached   map[string]StateActivity
	cachedAt time.Time
	valid    bool
}

// NewScorer creates a scorer. A zero memoWindow defaults to 1.5 seconds;
// a nil clock uses real time.
func NewScorer(memoWindow time.Duration, clock clockwork.Clock) *Scorer {
	if memoWindow <= 0 {
		memoWindow = 1500 * time.Millisecond
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scorer{clock: clock, memoWindow: memoWindow}
}

// Snapshot returns the current per-state activity, recomputing only when
// the memo window has elapsed since the last computation.
func (sc *Scorer) Snapshot(stories []story.Story, feeds []appdata.Feed, decayWindow time.Duration) map[string]StateActivity {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.clock.Now()
	if sc.valid && now.Sub(sc.cachedAt) <= sc.memoWindow {
		return sc.cached
	}

	sc.cached = Compute(stories, feeds, decayWindow, now)
	sc.cachedAt = now
	sc.valid = true
	return sc.cached
}

// Invalidate drops the memoized snapshot. The refresh pipeline calls this
// after merging new stories so heat updates ahead of the window expiring.
func (sc *Scorer) Invalidate() {
	sc.mu.Lock()
	sc.valid = false
	sc.mu.Unlock()
}
