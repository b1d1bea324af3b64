package vehicle

import (
	"fmt"

	"driftpursuit/vehicles/internal/physics"
)

// RecomputeMassProperties sums part weights and their mass-weighted centres of mass in the
// vehicle's local frame and writes both to the body. Calling it again without changes to the
// parts or the body pose yields the same result.
func (v *Vehicle) RecomputeMassProperties() {
	frame := v.body.Frame()
	center := physics.Zero
	mass := 0.0
	//1.- Accumulate every part's adjusted centre of mass weighted by its mass.
	for _, part := range v.parts {
		weight := part.Weight()
		local := frame.InverseTransformPoint(part.AdjustedWorldCenterOfMass())
		center = center.Add(local.Mul(weight))
		mass += weight
	}
	//2.- Massless vehicles keep the origin instead of dividing by zero.
	if mass > 0 {
		center = center.Mul(1 / mass)
	} else {
		center = physics.Zero
	}
	v.mass = mass
	v.centerOfMass = center
	v.body.SetCenterOfMass(center)
	v.body.SetMass(mass)
	v.updateDynamics()
}

// RecomputeInertia approximates every collider as a box in vehicle space, spreads the
// vehicle mass over them by volume and assigns the resulting principal moments. It is only
// needed when parts are attached or removed.
func (v *Vehicle) RecomputeInertia() error {
	if len(v.parts) == 0 {
		v.inertiaDegenerate = false
		v.updateDynamics()
		return nil
	}
	var boxes []physics.Box
	for _, part := range v.parts {
		boxes = append(boxes, part.colliderBoxes()...)
	}
	inertia, err := physics.InertiaFromBoxes(boxes, v.mass)
	//1.- A degenerate tensor freezes the vehicle instead of letting it diverge.
	v.inertiaDegenerate = err != nil
	defer v.updateDynamics()
	if err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	v.body.SetInertia(inertia.Principal, inertia.Rotation)
	return nil
}

// Dynamic reports whether the body currently responds to forces.
func (v *Vehicle) Dynamic() bool {
	return !v.body.Kinematic()
}

// updateDynamics freezes the body whenever its mass properties cannot be trusted.
func (v *Vehicle) updateDynamics() {
	frozen := len(v.parts) == 0 || !(v.mass > 0) || v.inertiaDegenerate || v.diverged
	if frozen != v.body.Kinematic() {
		v.body.SetKinematic(frozen)
	}
}
