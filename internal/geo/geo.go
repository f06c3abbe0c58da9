package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/armorclash/engine/pkg/geom"
	sfgeom "github.com/peterstace/simplefeatures/geom"
)

// GEO POINTS
// Arena positions live on an abstract 2D plane with the origin at the map center. Points are stored in the WKB format because SQLite has no spatial awareness and we need to be able to interpret point data from strings during migrations using inherent Scan function.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// VectorFromString parses a string in the format "x,y" into an arena vector
func VectorFromString(coords string) (geom.Vector2, error) {
	// split the string into its components
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return geom.Vector2{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return geom.Vector2{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return geom.Vector2{}, ErrInvalidCoordinates
	}
	return geom.Vector2{X: x, Y: y}, nil
}

// VectorToString formats an arena vector as "x,y"
func VectorToString(v geom.Vector2) string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + "," + strconv.FormatFloat(v.Y, 'g', -1, 64)
}

// PointFromString parses a string in the format "x,y" into a database point
func PointFromString(coords string) (point sfgeom.Point, err error) {
	v, err := VectorFromString(coords)
	if err != nil {
		return sfgeom.NewEmptyPoint(sfgeom.DimXY), err
	}
	return PointFromVector(v), nil
}

// PointFromVector converts an arena vector to a database point
func PointFromVector(v geom.Vector2) sfgeom.Point {
	return sfgeom.NewPoint(
		sfgeom.Coordinates{
			XY: sfgeom.XY{X: v.X, Y: v.Y},
		},
	)
}

// VectorFromPoint converts a database point back to an arena vector.
// Empty points map to the origin.
func VectorFromPoint(p sfgeom.Point) geom.Vector2 {
	coords, ok := p.Coordinates()
	if !ok {
		return geom.Vector2{}
	}
	return geom.Vector2{X: coords.XY.X, Y: coords.XY.Y}
}
