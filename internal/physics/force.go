package physics

import "github.com/go-gl/mathgl/mgl64"

// ForceAndTorque pairs a world-space force with the torque it induces about a centre of mass.
type ForceAndTorque struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// Add returns the component-wise sum of both samples.
func (f ForceAndTorque) Add(other ForceAndTorque) ForceAndTorque {
	return ForceAndTorque{Force: f.Force.Add(other.Force), Torque: f.Torque.Add(other.Torque)}
}

// Scale multiplies force and torque uniformly.
func (f ForceAndTorque) Scale(factor float64) ForceAndTorque {
	return ForceAndTorque{Force: f.Force.Mul(factor), Torque: f.Torque.Mul(factor)}
}

// IsZero reports whether neither component carries any magnitude.
func (f ForceAndTorque) IsZero() bool {
	return f.Force == Zero && f.Torque == Zero
}

// Midpoint averages two samples.
func Midpoint(a, b ForceAndTorque) ForceAndTorque {
	return a.Add(b).Scale(0.5)
}
