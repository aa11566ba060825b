package render

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/statewatch/statewatch/internal/geo"
)

// RasterSurface renders onto an in-memory RGBA image via gg. It backs the
// /map.png endpoint and the one-shot render command.
type RasterSurface struct {
	dc     *gg.Context
	width  float64
	height float64
}

// NewRasterSurface creates a raster surface of the given pixel size.
func NewRasterSurface(width, height int) *RasterSurface {
	return &RasterSurface{
		dc:     gg.NewContext(width, height),
		width:  float64(width),
		height: float64(height),
	}
}

func (r *RasterSurface) Clear(c Color) {
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
	r.dc.Clear()
}

func (r *RasterSurface) FillPath(rings [][]geo.Point, c Color) {
	r.tracePath(rings)
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
	r.dc.Fill()
}

func (r *RasterSurface) StrokePath(rings [][]geo.Point, c Color, width float64) {
	r.tracePath(rings)
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
	r.dc.SetLineWidth(width)
	r.dc.Stroke()
}

func (r *RasterSurface) FillCircle(center geo.Point, radius float64, c Color) {
	r.dc.DrawCircle(center.X, center.Y, radius)
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
	r.dc.Fill()
}

func (r *RasterSurface) FillText(text string, at geo.Point, c Color) {
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
	r.dc.DrawStringAnchored(text, at.X, at.Y, 0.5, 0.5)
}

func (r *RasterSurface) Size() (float64, float64) {
	return r.width, r.height
}

// Image returns the rendered frame.
func (r *RasterSurface) Image() image.Image {
	return r.dc.Image()
}

// SavePNG writes the rendered frame to a file.
func (r *RasterSurface) SavePNG(path string) error {
	return r.dc.SavePNG(path)
}

func (r *RasterSurface) tracePath(rings [][]geo.Point) {
	for _, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		r.dc.MoveTo(ring[0].X, ring[0].Y)
		for _, p := range ring[1:] {
			r.dc.LineTo(p.X, p.Y)
		}
		r.dc.ClosePath()
	}
}
