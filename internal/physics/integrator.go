package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// wrapAngleDeg normalizes an angle to the [-180, 180) range.
func wrapAngleDeg(angle float64) float64 {
	//1.- Use math.Mod to keep values bounded across many integration steps.
	wrapped := math.Mod(angle+180.0, 360.0)
	if wrapped < 0 {
		wrapped += 360.0
	}
	return wrapped - 180.0
}

// WrapAngleDeg exposes the [-180, 180) normalisation for callers pinning orientations.
func WrapAngleDeg(angle float64) float64 {
	return wrapAngleDeg(angle)
}

// AngularAcceleration converts a world torque into angular acceleration using the principal
// moments expressed in the frame rotated by bodyRotation*inertiaRotation. Axes with a zero
// moment contribute nothing.
func AngularAcceleration(torque mgl64.Vec3, bodyRotation, inertiaRotation mgl64.Quat, principal mgl64.Vec3) mgl64.Vec3 {
	//1.- Express the torque in principal-axis space.
	rotation := bodyRotation.Mul(inertiaRotation).Normalize()
	local := rotation.Inverse().Rotate(torque)
	//2.- Divide per axis by the matching moment, skipping axes without inertia.
	var accel mgl64.Vec3
	for i := range local {
		if principal[i] == 0 {
			continue
		}
		accel[i] = local[i] / principal[i]
	}
	//3.- Rotate the result back into world space.
	return rotation.Rotate(accel)
}

// integrateLinear advances velocity and the centre of mass position.
func (b *RigidBody) integrateLinear(step float64, gravity mgl64.Vec3) mgl64.Vec3 {
	//1.- Accumulated forces and gravity change the centre of mass velocity.
	accel := gravity
	if b.mass > 0 {
		accel = accel.Add(b.force.Mul(1 / b.mass))
	}
	b.velocity = b.velocity.Add(accel.Mul(step))
	//2.- Advance the centre of mass using semi-implicit Euler integration.
	return b.WorldCenterOfMass().Add(b.velocity.Mul(step))
}

// integrateAngular advances angular velocity and orientation.
func (b *RigidBody) integrateAngular(step float64) {
	//1.- Apply the torque through the principal moments.
	accel := AngularAcceleration(b.torque, b.frame.Orientation(), b.inertiaRotation, b.inertia)
	b.angularVelocity = b.angularVelocity.Add(accel.Mul(step))
	//2.- Clamp the angular speed when a cap is configured.
	b.angularVelocity = ClampMagnitude(b.angularVelocity, b.MaxAngularSpeed)
	//3.- Integrate the orientation quaternion with the first order derivative q' = 0.5*ω*q.
	q := b.frame.Orientation()
	omega := mgl64.Quat{W: 0, V: b.angularVelocity}
	derivative := omega.Mul(q).Scale(0.5 * step)
	b.frame.Rotation = q.Add(derivative).Normalize()
}

// Integrate advances the body by step seconds under gravity and clears accumulated forces.
// Kinematic bodies keep their pose and velocity untouched.
func (b *RigidBody) Integrate(step float64, gravity mgl64.Vec3) {
	//1.- Guard against nil or invalid timesteps for robustness.
	if b == nil || step <= 0 {
		return
	}
	defer b.ClearForces()
	if b.kinematic {
		return
	}
	//2.- Integrate translation about the centre of mass.
	center := b.integrateLinear(step, gravity)
	//3.- Integrate rotation, then re-anchor the body origin so it spins about the centre of mass.
	b.integrateAngular(step)
	b.frame.Position = center.Sub(b.frame.Orientation().Rotate(b.centerOfMass))
	//4.- Reject diverged states by freezing the body instead of propagating NaNs.
	if !IsFinite(b.velocity) || !IsFinite(b.angularVelocity) || !IsFinite(b.frame.Position) {
		b.velocity = Zero
		b.angularVelocity = Zero
		b.kinematic = true
	}
}

// EulerAnglesDeg returns pitch (X), yaw (Y) and roll (Z) in degrees for the rotation composed
// as EulerDeg does, each wrapped to [-180, 180).
func EulerAnglesDeg(q mgl64.Quat) mgl64.Vec3 {
	//1.- Recover the angles from the rotated basis vectors.
	q = q.Normalize()
	forward := q.Rotate(mgl64.Vec3{0, 0, 1})
	up := q.Rotate(mgl64.Vec3{0, 1, 0})
	right := q.Rotate(mgl64.Vec3{1, 0, 0})
	pitch := mgl64.RadToDeg(math.Asin(mgl64.Clamp(-forward[1], -1, 1)))
	yaw := mgl64.RadToDeg(math.Atan2(forward[0], forward[2]))
	roll := mgl64.RadToDeg(math.Atan2(right[1], up[1]))
	//2.- Wrap each component for stable comparisons.
	return mgl64.Vec3{wrapAngleDeg(pitch), wrapAngleDeg(yaw), wrapAngleDeg(roll)}
}
