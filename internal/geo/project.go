package geo

// Projection maps lon/lat coordinates into canvas space with a uniform
// scale, centered bounds, fixed padding, and the latitude axis flipped so
// north is up.
type Projection struct {
	Scale   float64
	offsetX float64
	offsetY float64
	minLon  float64
	maxLat  float64
}

// NewProjection computes the projection for the given geometries and canvas
// size. Scale is min(availWidth/lonSpan, availHeight/latSpan), where the
// available area is the canvas minus padding on each side; aspect ratio is
// preserved and the projected bounds are centered.
func NewProjection(states []State, width, height, padding float64) Projection {
	minLon, minLat := 180.0, 90.0
	maxLon, maxLat := -180.0, -90.0
	for _, s := range states {
		for _, ring := range s.Rings {
			for _, p := range ring {
				if p.X < minLon {
					minLon = p.X
				}
				if p.X > maxLon {
					maxLon = p.X
				}
				if p.Y < minLat {
					minLat = p.Y
				}
				if p.Y > maxLat {
					maxLat = p.Y
				}
			}
		}
	}

	lonSpan := maxLon - minLon
	latSpan := maxLat - minLat
	// Degenerate geometry (single point or empty) gets a unit span so the
	// projection stays finite.
	if lonSpan <= 0 {
		lonSpan = 1
	}
	if latSpan <= 0 {
		latSpan = 1
	}

	availW := width - 2*padding
	availH := height - 2*padding
	scale := availW / lonSpan
	if s := availH / latSpan; s < scale {
		scale = s
	}

	return Projection{
		Scale:   scale,
		offsetX: (width - lonSpan*scale) / 2,
		offsetY: (height - latSpan*scale) / 2,
		minLon:  minLon,
		maxLat:  maxLat,
	}
}

// Project maps one lon/lat point into canvas coordinates.
func (pr Projection) Project(p Point) Point {
	return Point{
		X: pr.offsetX + (p.X-pr.minLon)*pr.Scale,
		Y: pr.offsetY + (pr.maxLat-p.Y)*pr.Scale,
	}
}

// StatePath is one state's geometry projected into canvas space, with a
// centroid computed as the unweighted mean of all projected ring points.
type StatePath struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Rings    [][]Point `json:"rings"`
	Centroid Point     `json:"centroid"`
}

// BuildPaths projects every state, preserving geometry order.
func BuildPaths(states []State, pr Projection) []StatePath {
	paths := make([]StatePath, 0, len(states))
	for _, s := range states {
		sp := StatePath{ID: s.ID, Name: s.Name}

		var sumX, sumY float64
		var n int
		for _, ring := range s.Rings {
			projected := make([]Point, len(ring))
			for i, p := range ring {
				projected[i] = pr.Project(p)
				sumX += projected[i].X
				sumY += projected[i].Y
				n++
			}
			sp.Rings = append(sp.Rings, projected)
		}
		if n > 0 {
			sp.Centroid = Point{X: sumX / float64(n), Y: sumY / float64(n)}
		}

		paths = append(paths, sp)
	}
	return paths
}

// Contains reports whether the point falls inside the path, using even-odd
// ray casting across all rings.
func (sp StatePath) Contains(p Point) bool {
	inside := false
	for _, ring := range sp.Rings {
		j := len(ring) - 1
		for i := 0; i < len(ring); i++ {
			pi, pj := ring[i], ring[j]
			if (pi.Y > p.Y) != (pj.Y > p.Y) &&
				p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
				inside = !inside
			}
			j = i
		}
	}
	return inside
}

// HitTest resolves a canvas point to the first state in geometry order
// whose path contains it.
func HitTest(paths []StatePath, p Point) (string, bool) {
	for _, sp := range paths {
		if sp.Contains(p) {
			return sp.ID, true
		}
	}
	return "", false
}
