// Package ticker builds the scrolling headline line-up from the board
// snapshot: filtering by the active group or selection, relative timestamps,
// and a placeholder entry before the first refresh lands.
package ticker

import (
	"fmt"
	"time"

	"github.com/statewatch/statewatch/internal/board"
	"github.com/statewatch/statewatch/internal/story"
)

// Line is one rendered ticker entry.
type Line struct {
	State    string `json:"state"`
	Source   string `json:"source"`
	Headline string `json:"headline"`
	TimeAgo  string `json:"timeAgo"`
	Defcon   bool   `json:"defcon"`
}

// FormatTimeAgo renders a pubDate as a compact relative age. Unparseable
// dates read as "now"; anything under an hour is minutes with a floor of 1.
func FormatTimeAgo(pubDate string, now time.Time) string {
	t := story.ParseTime(pubDate)
	if t.IsZero() {
		return "now"
	}
	minutes := int(now.Sub(t).Minutes())
	if minutes < 60 {
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh", minutes/60)
}

// ActiveStates resolves the state filter: an active group overrides the
// selection entirely, even when the group's state list is empty.
func ActiveStates(snap board.Snapshot) []string {
	if snap.ActiveGroup != "" {
		for _, g := range snap.Groups {
			if g.ID == snap.ActiveGroup {
				return g.States
			}
		}
		return nil
	}
	return snap.Selection
}

// Stories returns the ticker's story list. With no stories at all a single
// placeholder entry stands in; an active filter that matches nothing yields
// an empty list, not the placeholder.
func Stories(snap board.Snapshot, now time.Time) []story.Story {
	if len(snap.Stories) == 0 {
		return []story.Story{{
			ID:      "placeholder-1",
			State:   "TX",
			Source:  "Statesman",
			Title:   "Headline placeholder for the scrolling ticker",
			PubDate: now.Format(time.RFC3339),
		}}
	}

	active := ActiveStates(snap)
	if len(active) == 0 {
		return snap.Stories
	}

	allowed := make(map[string]bool, len(active))
	for _, s := range active {
		allowed[s] = true
	}
	var out []story.Story
	for _, s := range snap.Stories {
		if allowed[s.State] {
			out = append(out, s)
		}
	}
	return out
}

// Lines renders the full ticker line-up for the snapshot.
func Lines(snap board.Snapshot, now time.Time) []Line {
	stories := Stories(snap, now)
	lines := make([]Line, 0, len(stories))
	for _, s := range stories {
		lines = append(lines, Line{
			State:    s.State,
			Source:   s.Source,
			Headline: s.Title,
			TimeAgo:  FormatTimeAgo(s.PubDate, now),
			Defcon:   s.IsDefcon,
		})
	}
	return lines
}
