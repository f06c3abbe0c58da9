package geom

// Rect is an axis-aligned rectangle identified by its minimum corner and size.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether the point lies inside the rectangle.
// Points on the maximum edges are outside, matching half-open semantics.
func (r Rect) Contains(p Vector2) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Overlaps reports whether two rectangles intersect. Touching edges do not
// count as overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vector2 {
	return Vector2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ClampPoint returns the closest point to p inside the rectangle.
func (r Rect) ClampPoint(p Vector2) Vector2 {
	return Vector2{
		X: Clamp(p.X, r.X, r.X+r.Width),
		Y: Clamp(p.Y, r.Y, r.Y+r.Height),
	}
}
