package physics

import "github.com/go-gl/mathgl/mgl64"

// Frame is a rigid reference frame with an optional per-axis scale.
//
// The zero Frame behaves as the identity: a zero quaternion is read as no rotation
// and a zero scale is read as unit scale.
type Frame struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Identity returns the frame that maps every point onto itself.
func Identity() Frame {
	return Frame{Rotation: mgl64.QuatIdent(), Scale: One}
}

// NewFrame builds a unit-scale frame from a position and a rotation.
func NewFrame(position mgl64.Vec3, rotation mgl64.Quat) Frame {
	return Frame{Position: position, Rotation: rotation, Scale: One}
}

// Orientation returns the normalised rotation, substituting the identity for a zero quaternion.
func (f Frame) Orientation() mgl64.Quat {
	if f.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return f.Rotation.Normalize()
}

func (f Frame) scale() mgl64.Vec3 {
	if f.Scale == Zero {
		return One
	}
	return f.Scale
}

// Right is the frame's +X axis in parent space.
func (f Frame) Right() mgl64.Vec3 { return f.Orientation().Rotate(mgl64.Vec3{1, 0, 0}) }

// Up is the frame's +Y axis in parent space.
func (f Frame) Up() mgl64.Vec3 { return f.Orientation().Rotate(mgl64.Vec3{0, 1, 0}) }

// Forward is the frame's +Z axis in parent space.
func (f Frame) Forward() mgl64.Vec3 { return f.Orientation().Rotate(mgl64.Vec3{0, 0, 1}) }

// TransformPoint maps a local point into parent space, honouring position, rotation and scale.
func (f Frame) TransformPoint(point mgl64.Vec3) mgl64.Vec3 {
	return f.Position.Add(f.Orientation().Rotate(ScaleVec(point, f.scale())))
}

// TransformDirection rotates a local direction into parent space, ignoring position and scale.
func (f Frame) TransformDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return f.Orientation().Rotate(direction)
}

// TransformVector maps a local vector into parent space, honouring rotation and scale.
func (f Frame) TransformVector(vector mgl64.Vec3) mgl64.Vec3 {
	return f.Orientation().Rotate(ScaleVec(vector, f.scale()))
}

// InverseTransformPoint maps a parent-space point into the frame's local space.
func (f Frame) InverseTransformPoint(point mgl64.Vec3) mgl64.Vec3 {
	local := f.Orientation().Inverse().Rotate(point.Sub(f.Position))
	return divideScale(local, f.scale())
}

// InverseTransformDirection rotates a parent-space direction into the frame's local space.
func (f Frame) InverseTransformDirection(direction mgl64.Vec3) mgl64.Vec3 {
	return f.Orientation().Inverse().Rotate(direction)
}

// InverseTransformVector maps a parent-space vector into local space, honouring rotation and scale.
func (f Frame) InverseTransformVector(vector mgl64.Vec3) mgl64.Vec3 {
	return divideScale(f.Orientation().Inverse().Rotate(vector), f.scale())
}

// Compose places child, expressed in this frame, into this frame's parent space.
func (f Frame) Compose(child Frame) Frame {
	return Frame{
		Position: f.TransformPoint(child.Position),
		Rotation: f.Orientation().Mul(child.Orientation()).Normalize(),
		Scale:    ScaleVec(f.scale(), child.scale()),
	}
}

func divideScale(v, scale mgl64.Vec3) mgl64.Vec3 {
	//1.- Collapse axes with zero scale instead of producing infinities.
	var out mgl64.Vec3
	for i := range v {
		if scale[i] == 0 {
			continue
		}
		out[i] = v[i] / scale[i]
	}
	return out
}

// RecontextualizeDirection re-expresses a direction given in from's local space in to's local space.
func RecontextualizeDirection(direction mgl64.Vec3, from, to Frame) mgl64.Vec3 {
	return to.InverseTransformDirection(from.TransformDirection(direction))
}

// RecontextualizePoint re-expresses a point given in from's local space in to's local space.
func RecontextualizePoint(point mgl64.Vec3, from, to Frame) mgl64.Vec3 {
	return to.InverseTransformPoint(from.TransformPoint(point))
}

// RecontextualizeVector re-expresses a scaled vector given in from's local space in to's local space.
func RecontextualizeVector(vector mgl64.Vec3, from, to Frame) mgl64.Vec3 {
	return to.InverseTransformVector(from.TransformVector(vector))
}

// ChildVelocity returns the velocity of a point rigidly attached to a parent moving with
// linear velocity and angular velocity (radians per second) about parentPosition.
func ChildVelocity(parentPosition, velocity, angularVelocity, point mgl64.Vec3) mgl64.Vec3 {
	return velocity.Add(angularVelocity.Cross(point.Sub(parentPosition)))
}
