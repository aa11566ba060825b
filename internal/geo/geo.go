// Package geo loads the states geometry resource and projects it into
// canvas space for rendering and hit testing.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoFeatures indicates the geometry document parsed but holds nothing
// drawable, which the renderer treats as an invalid-structure failure.
var ErrNoFeatures = errors.New("geometry has no usable features")

// Point is a coordinate pair, lon/lat before projection and x/y after.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is one state's geometry in lon/lat space.
type State struct {
	ID    string
	Name  string
	Rings [][]Point
}

// featureCollection mirrors the GeoJSON document shape. Coordinates stay
// raw until the geometry type is known.
type featureCollection struct {
	Features []struct {
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name string `json:"name"`
			Abbr string `json:"abbr"`
			ID   string `json:"id"`
		} `json:"properties"`
	} `json:"features"`
}

// Load reads and parses the states geometry file. It fails with
// ErrNoFeatures when the document contains no Polygon/MultiPolygon
// features, and with a wrapped parse error on malformed input.
func Load(path string) ([]State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry: %w", err)
	}
	return Parse(data)
}

// Parse decodes a GeoJSON feature collection into state geometries,
// preserving document order (hit testing depends on it).
func Parse(data []byte) ([]State, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing geometry: %w", err)
	}

	var states []State
	for i, f := range fc.Features {
		rings, err := decodeRings(f.Geometry.Type, f.Geometry.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if len(rings) == 0 {
			continue
		}

		id := f.Properties.Abbr
		if id == "" {
			id = f.Properties.ID
		}
		if id == "" {
			id = strings.ToUpper(f.Properties.Name)
		}

		states = append(states, State{
			ID:    id,
			Name:  f.Properties.Name,
			Rings: rings,
		})
	}

	if len(states) == 0 {
		return nil, ErrNoFeatures
	}
	return states, nil
}

func decodeRings(geomType string, coords json.RawMessage) ([][]Point, error) {
	switch geomType {
	case "Polygon":
		var poly [][][]float64
		if err := json.Unmarshal(coords, &poly); err != nil {
			return nil, fmt.Errorf("decoding polygon coordinates: %w", err)
		}
		return toRings(poly), nil
	case "MultiPolygon":
		var multi [][][][]float64
		if err := json.Unmarshal(coords, &multi); err != nil {
			return nil, fmt.Errorf("decoding multipolygon coordinates: %w", err)
		}
		var rings [][]Point
		for _, poly := range multi {
			rings = append(rings, toRings(poly)...)
		}
		return rings, nil
	default:
		// Unsupported geometry types are skipped rather than fatal.
		return nil, nil
	}
}

func toRings(poly [][][]float64) [][]Point {
	var rings [][]Point
	for _, ring := range poly {
		pts := make([]Point, 0, len(ring))
		for _, pair := range ring {
			if len(pair) < 2 {
				continue
			}
			pts = append(pts, Point{X: pair[0], Y: pair[1]})
		}
		if len(pts) >= 3 {
			rings = append(rings, pts)
		}
	}
	return rings
}
