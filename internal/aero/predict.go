package aero

import (
	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/physics"
)

// predictionFraction is how far into the step the second sample looks.
const predictionFraction = 0.5

// PredictVelocity extrapolates the body velocity fraction*dt seconds ahead under force.
func PredictVelocity(body physics.Body, force mgl64.Vec3, dt, fraction float64) mgl64.Vec3 {
	mass := body.Mass()
	if !(mass > 0) {
		return body.Velocity()
	}
	return body.Velocity().Add(force.Mul(dt * fraction / mass))
}

// PredictAngularVelocity extrapolates the body angular velocity fraction*dt seconds ahead
// under torque, resolving the torque through the principal moments of inertia.
func PredictAngularVelocity(body physics.Body, torque mgl64.Vec3, dt, fraction float64) mgl64.Vec3 {
	accel := physics.AngularAcceleration(torque, body.Frame().Orientation(), body.InertiaTensorRotation(), body.InertiaTensor())
	return body.AngularVelocity().Add(accel.Mul(dt * fraction))
}

// Predict computes the current and half-step-ahead samples for part and returns the pair
// to apply according to the calculator's mode.
func (c *Calculator) Predict(part Airframe, angle, dt float64) (applied, current, predicted physics.ForceAndTorque) {
	env := part.Environment()
	body := env.Body()
	//1.- Sample the forces at the body's current motion.
	current = c.ComputeForces(part, angle, body.Velocity(), body.AngularVelocity())
	recorded := c.Last()
	//2.- Push the body half a step forward under every force acting on it.
	external := current.Force.Add(env.TotalThrust()).Add(env.Gravity().Mul(body.Mass()))
	velocity := PredictVelocity(body, external, dt, predictionFraction)
	angularVelocity := PredictAngularVelocity(body, current.Torque, dt, predictionFraction)
	//3.- Sample again at the predicted motion and blend according to the mode.
	predicted = c.ComputeForces(part, angle, velocity, angularVelocity)
	applied = current
	if c == nil || c.Mode != ModeCurrent {
		applied = physics.Midpoint(current, predicted)
	}
	//4.- Keep the recorded sample describing the present rather than the prediction.
	if c != nil {
		c.last = recorded
	}
	return applied, current, predicted
}

// Execute computes the blended sample for part and adds it to the vehicle body.
func (c *Calculator) Execute(part Airframe, angle, dt float64) physics.ForceAndTorque {
	if part == nil || part.AerodynamicsData() == nil || part.Environment() == nil {
		return physics.ForceAndTorque{}
	}
	body := part.Environment().Body()
	if body == nil || body.Kinematic() {
		return physics.ForceAndTorque{}
	}
	applied, _, _ := c.Predict(part, angle, dt)
	body.AddForce(applied.Force)
	body.AddTorque(applied.Torque)
	return applied
}
