// Package geom provides the 2D vector and rectangle primitives used by the
// combat simulation. All types are plain values; operations return new
// values and never mutate the receiver.
package geom

import "math"

// Vector2 represents a 2D vector with x and y components.
type Vector2 struct {
	X float64
	Y float64
}

// Add returns the sum of two vectors.
func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference between two vectors.
func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies the vector by a scalar value.
func (v Vector2) Scale(factor float64) Vector2 {
	return Vector2{X: v.X * factor, Y: v.Y * factor}
}

// Length returns the magnitude of the vector.
func (v Vector2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared returns the magnitude squared, avoiding the square root
// when only comparisons are needed.
func (v Vector2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction. A zero-length
// vector normalizes to the zero vector rather than producing NaN.
func (v Vector2) Normalize() Vector2 {
	length := v.Length()
	if length == 0 {
		return Vector2{}
	}
	return Vector2{X: v.X / length, Y: v.Y / length}
}

// Distance returns the distance between two points.
func (v Vector2) Distance(other Vector2) float64 {
	return v.Sub(other).Length()
}

// Angle returns the angle of the vector in radians.
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// AngleTo returns the signed angle of the line from v to other.
func (v Vector2) AngleTo(other Vector2) float64 {
	return math.Atan2(other.Y-v.Y, other.X-v.X)
}

// Dot returns the dot product of two vectors.
func (v Vector2) Dot(other Vector2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Rotate rotates the vector by angle (in radians).
func (v Vector2) Rotate(angle float64) Vector2 {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Vector2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// FromAngle creates a vector from an angle and magnitude.
func FromAngle(angle, magnitude float64) Vector2 {
	return Vector2{
		X: magnitude * math.Cos(angle),
		Y: magnitude * math.Sin(angle),
	}
}

// NormalizeAngle maps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDiff returns the signed shortest rotation from a to b, in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// Clamp limits v to the interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
