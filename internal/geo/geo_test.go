package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoStateGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Texas", "abbr": "TX"},
      "geometry": {"type": "Polygon", "coordinates": [[[-106,26],[-94,26],[-94,36],[-106,36],[-106,26]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Michigan", "abbr": "MI"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[-90,41],[-82,41],[-82,46],[-90,46],[-90,41]]],
        [[[-91,45],[-84,45],[-84,48],[-91,48],[-91,45]]]
      ]}
    }
  ]
}`

func TestParse(t *testing.T) {
	states, err := Parse([]byte(twoStateGeoJSON))
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "TX", states[0].ID)
	assert.Equal(t, "Texas", states[0].Name)
	assert.Len(t, states[0].Rings, 1)

	// MultiPolygon flattens into multiple rings
	assert.Equal(t, "MI", states[1].ID)
	assert.Len(t, states[1].Rings, 2)
}

func TestParseIDFallbacks(t *testing.T) {
	doc := `{"features":[
	  {"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"id":"X1"}},
	  {"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"name":"ohio"}}
	]}`
	states, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "X1", states[0].ID)
	assert.Equal(t, "OHIO", states[1].ID)
}

func TestParseNoFeatures(t *testing.T) {
	_, err := Parse([]byte(`{"features":[]}`))
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestParseUnsupportedGeometrySkipped(t *testing.T) {
	doc := `{"features":[
	  {"geometry":{"type":"Point","coordinates":[0,0]},"properties":{"abbr":"PT"}},
	  {"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{"abbr":"OK"}}
	]}`
	states, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "OK", states[0].ID)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"features":`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.geojson")
	require.NoError(t, os.WriteFile(path, []byte(twoStateGeoJSON), 0o644))

	states, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func square(id string, minX, minY, maxX, maxY float64) State {
	return State{
		ID: id,
		Rings: [][]Point{{
			{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
		}},
	}
}

func TestProjectionScale(t *testing.T) {
	// lon span 40, lat span 10; canvas 440x120 with padding 20 gives
	// avail 400x80, so scale = min(400/40, 80/10) = 8 exactly.
	states := []State{square("A", -100, 30, -60, 40)}
	pr := NewProjection(states, 440, 120, 20)
	assert.Equal(t, 8.0, pr.Scale)
}

func TestProjectionCornersInsidePadding(t *testing.T) {
	states := []State{square("A", -100, 30, -60, 40)}
	pr := NewProjection(states, 440, 120, 20)

	// Bounding box corners land inside the canvas, at or beyond padding on
	// the constrained axis.
	nw := pr.Project(Point{-100, 40})
	se := pr.Project(Point{-60, 30})

	assert.GreaterOrEqual(t, nw.X, 20.0)
	assert.GreaterOrEqual(t, nw.Y, 20.0)
	assert.LessOrEqual(t, se.X, 420.0)
	assert.LessOrEqual(t, se.Y, 100.0)
}

func TestProjectionFlipsLatitude(t *testing.T) {
	states := []State{square("A", 0, 0, 10, 10)}
	pr := NewProjection(states, 100, 100, 0)

	north := pr.Project(Point{5, 10})
	south := pr.Project(Point{5, 0})
	assert.Less(t, north.Y, south.Y, "north must render above south")
}

func TestProjectionCentersBounds(t *testing.T) {
	// Wide geometry in a square canvas: vertical whitespace splits evenly.
	states := []State{square("A", 0, 0, 20, 10)}
	pr := NewProjection(states, 200, 200, 0)

	top := pr.Project(Point{0, 10})
	bottom := pr.Project(Point{0, 0})
	assert.InDelta(t, top.Y, 200-bottom.Y, 1e-9)
}

func TestBuildPathsCentroid(t *testing.T) {
	states := []State{square("A", 0, 0, 10, 10)}
	pr := NewProjection(states, 100, 100, 0)
	paths := BuildPaths(states, pr)

	require.Len(t, paths, 1)
	// The ring repeats its first point, pulling the mean toward it; the
	// centroid is the unweighted mean of all projected points.
	assert.InDelta(t, 40.0, paths[0].Centroid.X, 1e-9)
	assert.InDelta(t, 60.0, paths[0].Centroid.Y, 1e-9)
}

func TestContains(t *testing.T) {
	states := []State{square("A", 0, 0, 10, 10)}
	pr := NewProjection(states, 100, 100, 0)
	paths := BuildPaths(states, pr)

	assert.True(t, paths[0].Contains(Point{50, 50}))
	assert.False(t, paths[0].Contains(Point{-5, 50}))
}

func TestHitTestOrder(t *testing.T) {
	// Overlapping squares: the first feature in geometry order wins.
	states := []State{square("FIRST", 0, 0, 10, 10), square("SECOND", 0, 0, 10, 10)}
	pr := NewProjection(states, 100, 100, 0)
	paths := BuildPaths(states, pr)

	id, ok := HitTest(paths, Point{50, 50})
	require.True(t, ok)
	assert.Equal(t, "FIRST", id)
}

func TestHitTestMiss(t *testing.T) {
	states := []State{square("A", 0, 0, 10, 10)}
	pr := NewProjection(states, 100, 100, 10)
	paths := BuildPaths(states, pr)

	_, ok := HitTest(paths, Point{1, 1})
	assert.False(t, ok)
}
