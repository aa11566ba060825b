package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/geo"
	"github.com/statewatch/statewatch/internal/story"
)

func testPaths() []geo.StatePath {
	square := func(minX, minY, maxX, maxY float64) [][]geo.Point {
		return [][]geo.Point{{
			{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}, {X: minX, Y: minY},
		}}
	}
	return []geo.StatePath{
		{ID: "TX", Name: "Texas", Rings: square(0, 0, 10, 10)},
		{ID: "OK", Name: "Oklahoma", Rings: square(10, 0, 20, 10)},
	}
}

func drain(ch <-chan Event) []Event {
	var evs []Event
	for {
		select {
		case ev := <-ch:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestPlainClickSelectsExclusively(t *testing.T) {
	b := New(NewBus())

	hit := b.HandleClick(testPaths(), geo.Point{X: 5, Y: 5}, false)
	assert.Equal(t, "TX", hit)
	assert.Equal(t, []string{"TX"}, b.Selection())

	// plain click on another state replaces the selection
	b.HandleClick(testPaths(), geo.Point{X: 15, Y: 5}, false)
	assert.Equal(t, []string{"OK"}, b.Selection())
}

func TestPlainClickTogglesOff(t *testing.T) {
	b := New(NewBus())

	b.HandleClick(testPaths(), geo.Point{X: 5, Y: 5}, false)
	b.HandleClick(testPaths(), geo.Point{X: 5, Y: 5}, false)
	assert.Empty(t, b.Selection())
}

func TestModifierClickKeepsOthers(t *testing.T) {
	b := New(NewBus())

	b.HandleClick(testPaths(), geo.Point{X: 5, Y: 5}, false)
	b.HandleClick(testPaths(), geo.Point{X: 15, Y: 5}, true)
	assert.Equal(t, []string{"TX", "OK"}, b.Selection())

	// modifier click removes without clearing the rest
	b.HandleClick(testPaths(), geo.Point{X: 5, Y: 5}, true)
	assert.Equal(t, []string{"OK"}, b.Selection())
}

func TestMissClearsSelection(t *testing.T) {
	b := New(NewBus())

	b.SetSelection([]string{"TX", "OK"})
	hit := b.HandleClick(testPaths(), geo.Point{X: 50, Y: 50}, false)
	assert.Equal(t, "", hit)
	assert.Empty(t, b.Selection())
}

func TestSelectionInsertionOrder(t *testing.T) {
	b := New(NewBus())

	b.ToggleState("OK", true)
	b.ToggleState("TX", true)
	b.ToggleState("CA", true)
	assert.Equal(t, []string{"OK", "TX", "CA"}, b.Selection())

	b.ToggleState("TX", true)
	assert.Equal(t, []string{"OK", "CA"}, b.Selection())
}

func TestUnknownIDTrusted(t *testing.T) {
	b := New(NewBus())

	b.ToggleState("ZZ", false)
	assert.Equal(t, []string{"ZZ"}, b.Selection())
}

func TestSelectionChangedEvents(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(8)
	b := New(bus)

	b.ToggleState("TX", false)
	b.ClearSelection()
	b.ClearSelection() // already empty, no event

	evs := drain(ch)
	require.Len(t, evs, 2)
	assert.Equal(t, SelectionChanged{States: []string{"TX"}}, evs[0])
	assert.Equal(t, SelectionChanged{States: nil}, evs[1])
}

func TestSetStoriesPublishesDataReady(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(8)
	b := New(bus)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b.SetStories([]story.Story{{ID: "1"}, {ID: "2"}}, at)

	evs := drain(ch)
	require.Len(t, evs, 1)
	assert.Equal(t, DataReady{StoryCount: 2, At: at}, evs[0])
	assert.Len(t, b.Stories(), 2)
	assert.Equal(t, at, b.Snapshot().LastRefresh)
}

func TestRequestZoom(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(8)
	b := New(bus)

	b.RequestZoom("TX", "Texas")

	evs := drain(ch)
	require.Len(t, evs, 1)
	assert.Equal(t, ZoomRequested{StateID: "TX", StateName: "Texas"}, evs[0])
	assert.Equal(t, "TX", b.Snapshot().ZoomedState)
}

func TestActiveGroup(t *testing.T) {
	b := New(NewBus())
	b.SetData(appdata.Data{
		Groups: []appdata.Group{{ID: "gulf", Name: "Gulf Coast", States: []string{"TX", "LA", "FL"}}},
	})

	_, ok := b.ActiveGroup()
	assert.False(t, ok)

	b.ActivateGroup("gulf")
	g, ok := b.ActiveGroup()
	require.True(t, ok)
	assert.Equal(t, []string{"TX", "LA", "FL"}, g.States)

	b.ActivateGroup("")
	_, ok = b.ActiveGroup()
	assert.False(t, ok)
}

func TestSnapshotIsCopy(t *testing.T) {
	b := New(NewBus())
	b.SetSelection([]string{"TX"})

	snap := b.Snapshot()
	snap.Selection[0] = "XX"
	assert.Equal(t, []string{"TX"}, b.Selection())
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(1)

	bus.Publish(DataReady{StoryCount: 1})
	bus.Publish(DataReady{StoryCount: 2}) // dropped, buffer full

	evs := drain(ch)
	require.Len(t, evs, 1)
	assert.Equal(t, DataReady{StoryCount: 1}, evs[0])
}
