package geo

import (
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/record"
	sfgeom "github.com/peterstace/simplefeatures/geom"
)

// Projectile trajectories are stored as XYM line strings with the capture
// frame in the measure coordinate, so one geometry column holds the whole
// flight.

// TrajectoryLineString converts trajectory samples into a line string.
// Fewer than two samples produce an empty line.
func TrajectoryLineString(traj []record.TrajectoryPoint) sfgeom.LineString {
	if len(traj) < 2 {
		return sfgeom.LineString{}
	}

	coords := make([]float64, 0, len(traj)*3)
	for _, tp := range traj {
		coords = append(coords, tp.Position.X, tp.Position.Y, float64(tp.Frame))
	}

	seq := sfgeom.NewSequence(coords, sfgeom.DimXYM)
	return sfgeom.NewLineString(seq)
}

// TrajectoryFromGeometry recovers trajectory samples from a stored line
// string. Empty or non-line geometries yield nil.
func TrajectoryFromGeometry(g sfgeom.Geometry) []record.TrajectoryPoint {
	if g.IsEmpty() {
		return nil
	}
	ls, ok := g.AsLineString()
	if !ok {
		return nil
	}

	seq := ls.Coordinates()
	traj := make([]record.TrajectoryPoint, 0, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		c := seq.Get(i)
		traj = append(traj, record.TrajectoryPoint{
			Position: geom.Vector2{X: c.X, Y: c.Y},
			Frame:    uint(c.M),
		})
	}
	return traj
}
