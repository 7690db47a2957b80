package sexp

import "math"

// CoordTolerance is the spatial matching tolerance in schematic units
// (millimetres). It absorbs rounding noise from the file format's
// fixed-precision decimals while staying far below the 1.27mm grid, so
// genuinely distinct grid points never merge.
const CoordTolerance = 0.02

// Position is a 2D point in KiCad schematic coordinates (mm).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XY reads the 2nd and 3rd elements of a tagged node, e.g. (at 10 20)
// or (xy 10 20). Missing elements default to 0.
func XY(n Node) Position {
	return Position{
		X: n.FloatAt(1, 0),
		Y: n.FloatAt(2, 0),
	}
}

// XYRotation reads position plus the optional 4th element as a rotation
// in degrees, e.g. (at 10 20 90).
func XYRotation(n Node) (Position, float64) {
	return XY(n), n.FloatAt(3, 0)
}

// PointsMatch reports whether two points coincide within CoordTolerance
// on both axes.
func PointsMatch(a, b Position) bool {
	return math.Abs(a.X-b.X) < CoordTolerance && math.Abs(a.Y-b.Y) < CoordTolerance
}

// RotatePoint rotates (x, y) about the origin by angleDeg degrees.
// Angle 0 short-circuits to avoid cos/sin float noise feeding the
// tolerance comparisons downstream.
func RotatePoint(x, y, angleDeg float64) (float64, float64) {
	if angleDeg == 0 {
		return x, y
	}
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return x*cos - y*sin, x*sin + y*cos
}
