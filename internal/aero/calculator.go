package aero

import (
	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/physics"
)

// Environment is the vehicle-level context a part needs to compute aerodynamic forces.
type Environment interface {
	Body() physics.Body
	AirDensity() float64
	Gravity() mgl64.Vec3
	TotalThrust() mgl64.Vec3
}

// Airframe is a part that can be flown through the air.
type Airframe interface {
	AerodynamicsData() *Data
	Mirror(v mgl64.Vec3) mgl64.Vec3
	LocalRight() mgl64.Vec3
	LocalForward() mgl64.Vec3
	WorldFrame() physics.Frame
	Environment() Environment
}

// Sample is the last non-forced evaluation kept for overlays and telemetry.
type Sample struct {
	AoA                float64
	Lift               mgl64.Vec3
	Drag               mgl64.Vec3
	LiftDirection      mgl64.Vec3
	VelocityDirection  mgl64.Vec3
	TangentialVelocity mgl64.Vec3
}

// Calculator evaluates one part's aerodynamics. Each part owns its calculator so the
// recorded sample always belongs to that part.
type Calculator struct {
	Mode Mode
	last Sample
}

// NewCalculator creates a calculator using mode, defaulting to ModeMidpoint.
func NewCalculator(mode Mode) *Calculator {
	if mode == "" {
		mode = ModeMidpoint
	}
	return &Calculator{Mode: mode}
}

// Last returns the most recent recorded sample.
func (c *Calculator) Last() Sample {
	if c == nil {
		return Sample{}
	}
	return c.last
}

// AdjustedLocalAerodynamicCenter mirrors the configured aerodynamic centre for the part instance.
func AdjustedLocalAerodynamicCenter(part Airframe) mgl64.Vec3 {
	data := part.AerodynamicsData()
	if data == nil {
		return physics.Zero
	}
	return part.Mirror(data.LocalAerodynamicCenter)
}

// AdjustedWorldAerodynamicCenter places the mirrored aerodynamic centre in world space.
func AdjustedWorldAerodynamicCenter(part Airframe) mgl64.Vec3 {
	frame := part.WorldFrame()
	return frame.Position.Add(frame.TransformDirection(AdjustedLocalAerodynamicCenter(part)))
}

// ComputeForces returns the aerodynamic force and its torque about the body's centre of mass
// for a hypothetical body velocity and angular velocity.
func (c *Calculator) ComputeForces(part Airframe, angle float64, velocity, angularVelocity mgl64.Vec3) physics.ForceAndTorque {
	if part == nil || part.AerodynamicsData() == nil || part.Environment() == nil {
		return physics.ForceAndTorque{}
	}
	body := part.Environment().Body()
	//1.- Locate the aerodynamic centre relative to the body's centre of mass.
	worldAC := AdjustedWorldAerodynamicCenter(part)
	worldCOM := body.WorldCenterOfMass()
	relative := worldAC.Sub(worldCOM)
	//2.- Derive the airflow at that point from the rigid body motion.
	pointVelocity := physics.ChildVelocity(worldCOM, velocity, angularVelocity, worldAC)
	if c != nil {
		c.last.TangentialVelocity = pointVelocity.Sub(velocity)
	}
	//3.- Sum lift and drag and take the moment about the centre of mass.
	force := c.LiftVector(part, angle, pointVelocity, nil).Add(c.DragVector(part, angle, pointVelocity, nil))
	return physics.ForceAndTorque{Force: force, Torque: relative.Cross(force)}
}

// AngleOfAttack returns the signed angle in degrees between the part's forward direction,
// deflected by angle about its right axis, and the airflow projected into the part's plane.
// Everything is measured in the vehicle frame so the vehicle's world placement has no effect.
func AngleOfAttack(part Airframe, angle float64, worldVelocity mgl64.Vec3) float64 {
	vehicleFrame := part.Environment().Body().Frame()
	partFrame := part.WorldFrame()
	//1.- Express the airflow and the part's right axis in the vehicle frame.
	velocity := vehicleFrame.InverseTransformDirection(worldVelocity)
	right := physics.Normalize(physics.RecontextualizeDirection(part.LocalRight(), partFrame, vehicleFrame))
	//2.- Flatten the airflow onto the plane the part's profile lives in.
	velocity = physics.ProjectOnPlane(velocity, right)
	//3.- Deflect the default forward direction and measure about the right axis.
	forward := physics.Normalize(physics.RecontextualizeDirection(part.LocalForward(), partFrame, vehicleFrame))
	forward = physics.RotateAbout(forward, angle, right)
	return physics.SignedAngle(forward, velocity, right)
}

// LiftVector returns the world-space lift for the airflow at the part. A non-nil forcedAoA
// bypasses the angle of attack computation and leaves the recorded sample untouched.
func (c *Calculator) LiftVector(part Airframe, angle float64, worldVelocity mgl64.Vec3, forcedAoA *float64) mgl64.Vec3 {
	data := part.AerodynamicsData()
	env := part.Environment()
	if data == nil || env == nil {
		return physics.Zero
	}
	//1.- Resolve the angle of attack and the lift coefficient.
	aoa := resolveAoA(part, angle, worldVelocity, forcedAoA)
	magnitude := Magnitude(data.LiftCoefficient(aoa), env.AirDensity(), worldVelocity.LenSqr(), data.Area) * data.LiftMultiplier
	//2.- Lift acts perpendicular to the airflow and the part's right axis.
	direction := physics.Normalize(worldVelocity.Cross(part.WorldFrame().TransformDirection(part.LocalRight())))
	lift := direction.Mul(magnitude)
	if forcedAoA == nil && c != nil {
		c.last.AoA = aoa
		c.last.Lift = lift
		c.last.LiftDirection = direction
		c.last.VelocityDirection = physics.Normalize(worldVelocity)
	}
	return lift
}

// DragVector returns the world-space drag opposing the airflow at the part. A non-nil
// forcedAoA bypasses the angle of attack computation and leaves the recorded sample untouched.
func (c *Calculator) DragVector(part Airframe, angle float64, worldVelocity mgl64.Vec3, forcedAoA *float64) mgl64.Vec3 {
	data := part.AerodynamicsData()
	env := part.Environment()
	if data == nil || env == nil {
		return physics.Zero
	}
	aoa := resolveAoA(part, angle, worldVelocity, forcedAoA)
	magnitude := Magnitude(data.DragCoefficient(aoa), env.AirDensity(), worldVelocity.LenSqr(), data.Area) * data.DragMultiplier
	drag := physics.Normalize(worldVelocity).Mul(-magnitude)
	if forcedAoA == nil && c != nil {
		c.last.AoA = aoa
		c.last.Drag = drag
	}
	return drag
}

func resolveAoA(part Airframe, angle float64, worldVelocity mgl64.Vec3, forcedAoA *float64) float64 {
	if forcedAoA != nil {
		return *forcedAoA
	}
	return AngleOfAttack(part, angle, worldVelocity)
}
