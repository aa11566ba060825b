// Package board holds the shared application snapshot and the selection
// state, and notifies other components of changes through a small event bus.
package board

import (
	"sync"
	"time"

	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/geo"
	"github.com/statewatch/statewatch/internal/story"
)

// Snapshot is a copy of the full application state at one point in time.
type Snapshot struct {
	Feeds       []appdata.Feed
	Groups      []appdata.Group
	Keywords    []appdata.Keyword
	Settings    appdata.Settings
	Stories     []story.Story
	Selection   []string
	ActiveGroup string
	ZoomedState string
	LastRefresh time.Time
}

// Board is the shared state all components read from and the selection
// controller writes to. All access goes through the mutex.
type Board struct {
	mu sync.RWMutex

	bus *Bus

	feeds    []appdata.Feed
	groups   []appdata.Group
	keywords []appdata.Keyword
	settings appdata.Settings

	stories     []story.Story
	selection   []string
	activeGroup string
	zoomedState string
	lastRefresh time.Time
}

func New(bus *Bus) *Board {
	return &Board{
		bus:      bus,
		settings: appdata.DefaultSettings(),
	}
}

// SetData replaces the configuration portion of the snapshot. Called once at
// startup after loading baseline files and overrides.
func (b *Board) SetData(d appdata.Data) {
	b.mu.Lock()
	b.feeds = d.Feeds
	b.groups = d.Groups
	b.keywords = d.Keywords
	b.settings = d.Settings
	b.mu.Unlock()
}

// UpdateSettings replaces the settings portion of the snapshot. Called by
// the settings endpoint after persisting an override.
func (b *Board) UpdateSettings(s appdata.Settings) {
	b.mu.Lock()
	b.settings = s
	b.mu.Unlock()
}

// UpdateGroups replaces the group list.
func (b *Board) UpdateGroups(groups []appdata.Group) {
	b.mu.Lock()
	b.groups = groups
	b.mu.Unlock()
}

// SetStories replaces the merged story list and marks the refresh time.
// Publishes a DataReady event after the snapshot is updated.
func (b *Board) SetStories(stories []story.Story, at time.Time) {
	b.mu.Lock()
	b.stories = stories
	b.lastRefresh = at
	count := len(stories)
	b.mu.Unlock()

	b.bus.Publish(DataReady{StoryCount: count, At: at})
}

// Snapshot returns a copy of the current application state. Slices are
// copied so callers can read them without holding the board's lock.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Feeds:       append([]appdata.Feed(nil), b.feeds...),
		Groups:      append([]appdata.Group(nil), b.groups...),
		Keywords:    append([]appdata.Keyword(nil), b.keywords...),
		Settings:    b.settings,
		Stories:     append([]story.Story(nil), b.stories...),
		Selection:   append([]string(nil), b.selection...),
		ActiveGroup: b.activeGroup,
		ZoomedState: b.zoomedState,
		LastRefresh: b.lastRefresh,
	}
}

func (b *Board) Stories() []story.Story {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]story.Story(nil), b.stories...)
}

func (b *Board) Feeds() []appdata.Feed {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]appdata.Feed(nil), b.feeds...)
}

func (b *Board) Keywords() []appdata.Keyword {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]appdata.Keyword(nil), b.keywords...)
}

func (b *Board) Settings() appdata.Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

// Selection returns the selected state ids in insertion order.
func (b *Board) Selection() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.selection...)
}

// HandleClick hit-tests a canvas-space point against the rendered paths and
// updates the selection. A miss clears the selection. A hit on a state
// toggles it: a plain click makes it the sole selection (or empties the
// selection if it already was), a modifier click adds or removes it without
// touching the rest. Returns the hit state id, or "" on a miss.
func (b *Board) HandleClick(paths []geo.StatePath, p geo.Point, modifier bool) string {
	id, ok := geo.HitTest(paths, p)
	if !ok {
		b.ClearSelection()
		return ""
	}
	b.ToggleState(id, modifier)
	return id
}

// ToggleState flips a state id's membership in the selection. Ids are not
// validated here; whatever hit-testing produced is trusted.
func (b *Board) ToggleState(id string, modifier bool) {
	b.mu.Lock()
	if modifier {
		b.selection = toggle(b.selection, id)
	} else {
		if len(b.selection) == 1 && b.selection[0] == id {
			b.selection = nil
		} else {
			b.selection = []string{id}
		}
	}
	changed := append([]string(nil), b.selection...)
	b.mu.Unlock()

	b.bus.Publish(SelectionChanged{States: changed})
}

// SetSelection replaces the selection wholesale, preserving the given order.
func (b *Board) SetSelection(ids []string) {
	b.mu.Lock()
	b.selection = append([]string(nil), ids...)
	changed := append([]string(nil), b.selection...)
	b.mu.Unlock()

	b.bus.Publish(SelectionChanged{States: changed})
}

func (b *Board) ClearSelection() {
	b.mu.Lock()
	had := len(b.selection) > 0
	b.selection = nil
	b.mu.Unlock()

	if had {
		b.bus.Publish(SelectionChanged{States: nil})
	}
}

// ActivateGroup sets the active group id, or clears it when id is empty.
// The active group overrides the selection for ticker filtering.
func (b *Board) ActivateGroup(id string) {
	b.mu.Lock()
	b.activeGroup = id
	b.mu.Unlock()
}

func (b *Board) ActiveGroup() (appdata.Group, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.activeGroup == "" {
		return appdata.Group{}, false
	}
	for _, g := range b.groups {
		if g.ID == b.activeGroup {
			return g, true
		}
	}
	return appdata.Group{}, false
}

// RequestZoom records the zoom target and notifies subscribers.
func (b *Board) RequestZoom(id, name string) {
	b.mu.Lock()
	b.zoomedState = id
	b.mu.Unlock()

	b.bus.Publish(ZoomRequested{StateID: id, StateName: name})
}

func toggle(sel []string, id string) []string {
	for i, s := range sel {
		if s == id {
			return append(sel[:i:i], sel[i+1:]...)
		}
	}
	return append(sel, id)
}
