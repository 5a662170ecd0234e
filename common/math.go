package common

import "math"

// Epsilon is the squared-length floor below which a direction is treated as
// degenerate.
const Epsilon = 0.0001

// Up is the world up axis. The ground plane is X/Z.
var Up = Vec3{Y: 1}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Vec3 is a 3-D vector in world units.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) SqrLen() float64 {
	return v.Dot(v)
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.SqrLen())
}

// Normalized returns the unit vector along v, or the zero vector when v is
// degenerate.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func Distance(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

// AngleDegrees returns the unsigned angle between a and b in [0, 180].
// Degenerate inputs yield 0.
func AngleDegrees(a, b Vec3) float64 {
	denom := math.Sqrt(a.SqrLen() * b.SqrLen())
	if denom < 1e-15 {
		return 0
	}
	c := a.Dot(b) / denom
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * 180 / math.Pi
}

// RotateY rotates v about the up axis by degrees. Positive angles turn +Z
// toward +X, matching a left-handed yaw.
func RotateY(v Vec3, degrees float64) Vec3 {
	rad := degrees * math.Pi / 180
	s, c := math.Sincos(rad)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// YawDegrees returns the heading of the horizontal part of v, measured from +Z
// toward +X.
func YawDegrees(v Vec3) float64 {
	return math.Atan2(v.X, v.Z) * 180 / math.Pi
}

// ForwardFromYaw returns the unit horizontal forward vector for a yaw in degrees.
func ForwardFromYaw(degrees float64) Vec3 {
	return RotateY(Vec3{Z: 1}, degrees)
}

// LayerMask is a collision layer bitmask. Bit n set means layer n.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers LayerMask = ^LayerMask(0)

// LayerBit returns the mask containing only layer n. Out of range layers map
// to an empty mask.
func LayerBit(n int) LayerMask {
	if n < 0 || n > 31 {
		return 0
	}
	return LayerMask(1) << uint(n)
}

// Intersects reports whether the two masks share any layer.
func (m LayerMask) Intersects(o LayerMask) bool {
	return m&o != 0
}
