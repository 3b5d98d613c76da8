package geom

import "math"

// Vec is a position or direction in world space. Fields are exported so
// vectors can go straight onto the wire.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewVec(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec) Mul(k float64) Vec { return Vec{v.X * k, v.Y * k, v.Z * k} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize scales v to unit length. The zero vector stays zero.
func (v Vec) Normalize() Vec {
	mag := v.Magnitude()
	if mag < 1e-9 {
		return Vec{}
	}
	return v.Mul(1 / mag)
}

// Lerp interpolates between a and b by t in [0, 1].
func Lerp(a, b Vec, t float64) Vec {
	return Vec{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func Distance(from, to Vec) float64 {
	return from.Sub(to).Magnitude()
}

// IsFinite reports whether every component is a real number.
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
