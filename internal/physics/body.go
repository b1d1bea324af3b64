package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Body is the simulated rigid body shared by every part of a vehicle.
//
// Angular quantities are in radians per second. Forces accumulate until the owner integrates.
type Body interface {
	Frame() Frame
	Mass() float64
	CenterOfMass() mgl64.Vec3
	WorldCenterOfMass() mgl64.Vec3
	InertiaTensor() mgl64.Vec3
	InertiaTensorRotation() mgl64.Quat
	Velocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	PointVelocity(worldPoint mgl64.Vec3) mgl64.Vec3
	Kinematic() bool

	AddForce(force mgl64.Vec3)
	AddTorque(torque mgl64.Vec3)
	AddForceAtPosition(force, worldPoint mgl64.Vec3)

	SetMass(mass float64)
	SetCenterOfMass(local mgl64.Vec3)
	SetInertia(principal mgl64.Vec3, rotation mgl64.Quat)
	SetKinematic(kinematic bool)
}

// RigidBody is the in-process Body implementation integrated by the simulation world.
type RigidBody struct {
	frame           Frame
	mass            float64
	centerOfMass    mgl64.Vec3
	inertia         mgl64.Vec3
	inertiaRotation mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	kinematic       bool

	force  mgl64.Vec3
	torque mgl64.Vec3

	// MaxAngularSpeed caps |ω| in radians per second after integration; zero disables the cap.
	MaxAngularSpeed float64
}

// NewRigidBody creates a dynamic body at the provided pose with unit mass and inertia.
func NewRigidBody(frame Frame) *RigidBody {
	return &RigidBody{
		frame:           Frame{Position: frame.Position, Rotation: frame.Orientation(), Scale: One},
		mass:            1,
		inertia:         One,
		inertiaRotation: mgl64.QuatIdent(),
	}
}

var _ Body = (*RigidBody)(nil)

// Frame returns the body pose.
func (b *RigidBody) Frame() Frame {
	if b == nil {
		return Identity()
	}
	return b.frame
}

// SetFrame teleports the body.
func (b *RigidBody) SetFrame(frame Frame) {
	if b == nil {
		return
	}
	b.frame = Frame{Position: frame.Position, Rotation: frame.Orientation(), Scale: One}
}

// Mass returns the body mass in kilograms.
func (b *RigidBody) Mass() float64 {
	if b == nil {
		return 0
	}
	return b.mass
}

// CenterOfMass returns the centre of mass in body-local space.
func (b *RigidBody) CenterOfMass() mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return b.centerOfMass
}

// WorldCenterOfMass returns the centre of mass in world space.
func (b *RigidBody) WorldCenterOfMass() mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return b.frame.TransformPoint(b.centerOfMass)
}

// InertiaTensor returns the principal moments of inertia.
func (b *RigidBody) InertiaTensor() mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return b.inertia
}

// InertiaTensorRotation returns the rotation of the principal axes relative to the body.
func (b *RigidBody) InertiaTensorRotation() mgl64.Quat {
	if b == nil {
		return mgl64.QuatIdent()
	}
	return b.inertiaRotation
}

// Velocity returns the linear velocity of the centre of mass.
func (b *RigidBody) Velocity() mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return b.velocity
}

// SetVelocity overwrites the linear velocity.
func (b *RigidBody) SetVelocity(velocity mgl64.Vec3) {
	if b == nil {
		return
	}
	b.velocity = velocity
}

// AngularVelocity returns the world-space angular velocity.
func (b *RigidBody) AngularVelocity() mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return b.angularVelocity
}

// SetAngularVelocity overwrites the angular velocity.
func (b *RigidBody) SetAngularVelocity(angularVelocity mgl64.Vec3) {
	if b == nil {
		return
	}
	b.angularVelocity = angularVelocity
}

// PointVelocity returns the velocity of a world-space point attached to the body.
func (b *RigidBody) PointVelocity(worldPoint mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return Zero
	}
	return ChildVelocity(b.WorldCenterOfMass(), b.velocity, b.angularVelocity, worldPoint)
}

// Kinematic reports whether the body ignores forces.
func (b *RigidBody) Kinematic() bool {
	if b == nil {
		return true
	}
	return b.kinematic
}

// SetKinematic toggles force response. Entering kinematic mode drops pending forces.
func (b *RigidBody) SetKinematic(kinematic bool) {
	if b == nil {
		return
	}
	b.kinematic = kinematic
	if kinematic {
		b.ClearForces()
	}
}

// SetMass assigns the body mass.
func (b *RigidBody) SetMass(mass float64) {
	if b == nil {
		return
	}
	b.mass = mass
}

// SetCenterOfMass assigns the body-local centre of mass.
func (b *RigidBody) SetCenterOfMass(local mgl64.Vec3) {
	if b == nil {
		return
	}
	b.centerOfMass = local
}

// SetInertia assigns the principal moments and their orientation.
func (b *RigidBody) SetInertia(principal mgl64.Vec3, rotation mgl64.Quat) {
	if b == nil {
		return
	}
	b.inertia = principal
	if rotation == (mgl64.Quat{}) {
		rotation = mgl64.QuatIdent()
	}
	b.inertiaRotation = rotation.Normalize()
}

// AddForce accumulates a world-space force through the centre of mass.
func (b *RigidBody) AddForce(force mgl64.Vec3) {
	if b == nil || b.kinematic || !IsFinite(force) {
		return
	}
	b.force = b.force.Add(force)
}

// AddTorque accumulates a world-space torque.
func (b *RigidBody) AddTorque(torque mgl64.Vec3) {
	if b == nil || b.kinematic || !IsFinite(torque) {
		return
	}
	b.torque = b.torque.Add(torque)
}

// AddForceAtPosition accumulates a force applied at a world point, inducing torque about the centre of mass.
func (b *RigidBody) AddForceAtPosition(force, worldPoint mgl64.Vec3) {
	if b == nil || b.kinematic || !IsFinite(force) || !IsFinite(worldPoint) {
		return
	}
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(worldPoint.Sub(b.WorldCenterOfMass()).Cross(force))
}

// PendingForces returns the forces accumulated since the last integration.
func (b *RigidBody) PendingForces() ForceAndTorque {
	if b == nil {
		return ForceAndTorque{}
	}
	return ForceAndTorque{Force: b.force, Torque: b.torque}
}

// ClearForces drops accumulated force and torque.
func (b *RigidBody) ClearForces() {
	if b == nil {
		return
	}
	b.force = Zero
	b.torque = Zero
}
