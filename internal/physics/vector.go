package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// normalizeEpsilon is the length below which a vector is treated as having no direction.
const normalizeEpsilon = 1e-5

// angleEpsilon guards the denominator of the unsigned angle computation.
const angleEpsilon = 1e-15

// Zero is the zero vector, returned whenever a direction cannot be derived.
var Zero = mgl64.Vec3{}

// One is the unit scale vector.
var One = mgl64.Vec3{1, 1, 1}

// Normalize returns the unit vector of v, or the zero vector when v is too short to carry a direction.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	//1.- Refuse to divide by a vanishing length so callers never observe NaN components.
	length := v.Len()
	if length < normalizeEpsilon || math.IsNaN(length) || math.IsInf(length, 0) {
		return Zero
	}
	return v.Mul(1 / length)
}

// Reflect mirrors v across the plane whose normal is axis. A zero axis leaves v unchanged.
func Reflect(v, axis mgl64.Vec3) mgl64.Vec3 {
	n := Normalize(axis)
	if n == Zero {
		return v
	}
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// ScaleVec multiplies two vectors component-wise.
func ScaleVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// RotateAbout rotates v by degrees around axis using the right-handed convention.
func RotateAbout(v mgl64.Vec3, degrees float64, axis mgl64.Vec3) mgl64.Vec3 {
	//1.- A missing axis leaves the vector untouched rather than producing garbage.
	unit := Normalize(axis)
	if unit == Zero {
		return v
	}
	//2.- Build the quaternion from the normalised axis and rotate the vector.
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), unit).Rotate(v)
}

// ProjectOnPlane removes the component of v along normal, flattening v onto the plane with that normal.
func ProjectOnPlane(v, normal mgl64.Vec3) mgl64.Vec3 {
	unit := Normalize(normal)
	if unit == Zero {
		return v
	}
	return v.Sub(unit.Mul(v.Dot(unit)))
}

// Angle returns the unsigned angle in degrees between from and to, zero when either is degenerate.
func Angle(from, to mgl64.Vec3) float64 {
	denominator := math.Sqrt(from.LenSqr() * to.LenSqr())
	if denominator < angleEpsilon {
		return 0
	}
	cosine := mgl64.Clamp(from.Dot(to)/denominator, -1, 1)
	return mgl64.RadToDeg(math.Acos(cosine))
}

// SignedAngle returns the angle in degrees from from to to, signed by the rotation sense about axis.
func SignedAngle(from, to, axis mgl64.Vec3) float64 {
	unsigned := Angle(from, to)
	return unsigned * Sign(axis.Dot(from.Cross(to)))
}

// Sign returns 1 for non-negative values and -1 otherwise.
func Sign(value float64) float64 {
	if value >= 0 {
		return 1
	}
	return -1
}

// ClampMagnitude scales v down uniformly so its length does not exceed limit; a non-positive limit disables the guard.
func ClampMagnitude(v mgl64.Vec3, limit float64) mgl64.Vec3 {
	//1.- Skip clamping when the limit disables the guard or the vector is already within bounds.
	if !(limit > 0) {
		return v
	}
	magnitudeSq := v.LenSqr()
	if magnitudeSq == 0 || magnitudeSq <= limit*limit {
		return v
	}
	//2.- Scale each axis uniformly so the resulting magnitude matches the limit.
	return v.Mul(limit / math.Sqrt(magnitudeSq))
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// EulerDeg converts Euler angles in degrees into a rotation applied Z first, then X, then Y.
func EulerDeg(angles mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(angles[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(angles[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(angles[2]), mgl64.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

// Axis names one of the three local axes of a vehicle: X pitch, Y yaw, Z roll.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Vector returns the unit vector for the axis.
func (a Axis) Vector() mgl64.Vec3 {
	switch a {
	case AxisX:
		return mgl64.Vec3{1, 0, 0}
	case AxisY:
		return mgl64.Vec3{0, 1, 0}
	default:
		return mgl64.Vec3{0, 0, 1}
	}
}

// String returns the lowercase axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis converts an axis letter, or its pitch/yaw/roll alias, into an Axis.
func ParseAxis(raw string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "x", "pitch":
		return AxisX, nil
	case "y", "yaw":
		return AxisY, nil
	case "z", "roll":
		return AxisZ, nil
	default:
		return AxisX, fmt.Errorf("unknown axis %q", raw)
	}
}

// UnmarshalText lets axes be authored as strings in configuration payloads.
func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText renders the axis letter.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
