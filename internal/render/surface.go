package render

import "github.com/statewatch/statewatch/internal/geo"

// Color is an RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// WithAlpha returns the color with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Surface is the drawing capability the renderer needs: paths, fills,
// strokes and text. Production uses a raster implementation; tests record
// calls to assert layering.
type Surface interface {
	// Clear fills the whole surface with a single color.
	Clear(c Color)
	// FillPath fills a multi-ring path.
	FillPath(rings [][]geo.Point, c Color)
	// StrokePath outlines a multi-ring path.
	StrokePath(rings [][]geo.Point, c Color, width float64)
	// FillCircle draws a filled disc.
	FillCircle(center geo.Point, radius float64, c Color)
	// FillText draws a text label anchored at the given point.
	FillText(text string, at geo.Point, c Color)
	// Size reports the surface dimensions.
	Size() (width, height float64)
}

// Theme is the palette for one dashboard color scheme.
type Theme struct {
	Background Color
	Border     Color
	Glow       Color
	Highlight  Color
	Marker     Color
	Text       Color
}

var themes = map[string]Theme{
	"green": {
		Background: Color{0.02, 0.04, 0.02, 1},
		Border:     Color{0.25, 0.30, 0.25, 1},
		Glow:       Color{0.0, 1.0, 0.25, 1},
		Highlight:  Color{0.6, 1.0, 0.6, 1},
		Marker:     Color{0.3, 1.0, 0.4, 1},
		Text:       Color{0.0, 1.0, 0.25, 1},
	},
	"amber": {
		Background: Color{0.05, 0.03, 0.0, 1},
		Border:     Color{0.35, 0.28, 0.15, 1},
		Glow:       Color{1.0, 0.69, 0.0, 1},
		Highlight:  Color{1.0, 0.85, 0.5, 1},
		Marker:     Color{1.0, 0.75, 0.2, 1},
		Text:       Color{1.0, 0.69, 0.0, 1},
	},
}

// ThemeByName returns the named palette, defaulting to green.
func ThemeByName(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["green"]
}
