package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/control"
	"driftpursuit/vehicles/internal/debug"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/physics"
)

const (
	// relaxRate is the fraction per second an unattended surface moves back towards neutral.
	relaxRate = 10.0
	// torqueAlignmentGain scales how strongly the predicted torque direction signs the error.
	torqueAlignmentGain = 20.0
)

// ControlSurface deflects under manual input or stability assist and feeds its angle into
// the part's aerodynamics.
type ControlSurface struct {
	part  *Part
	cfg   SurfaceConfig
	pid   *control.PID
	angle float64

	speedDamping float64
}

func newControlSurface(part *Part, cfg SurfaceConfig) *ControlSurface {
	cfg = cfg.withDefaults()
	return &ControlSurface{
		part:         part,
		cfg:          cfg,
		pid:          control.NewPID(cfg.PID.Kp, cfg.PID.Ki, cfg.PID.Kd),
		speedDamping: 1,
	}
}

// Angle returns the deflection in degrees.
func (s *ControlSurface) Angle() float64 { return s.angle }

// SetAngle overrides the deflection, clamped to the configured limit.
func (s *ControlSurface) SetAngle(angle float64) {
	s.angle = mgl64.Clamp(angle, -s.cfg.Limit, s.cfg.Limit)
}

// SpeedDamping returns the authority factor computed on the last update.
func (s *ControlSurface) SpeedDamping() float64 { return s.speedDamping }

// PID exposes the assist controller.
func (s *ControlSurface) PID() *control.PID { return s.pid }

// MoveInput reads the surface's two deflection keys.
func (s *ControlSurface) MoveInput(in input.Source) [2]bool {
	if in == nil {
		return [2]bool{}
	}
	return [2]bool{in.Held(s.cfg.Keys[0]), in.Held(s.cfg.Keys[1])}
}

// VisualRotation orients the surface model: the rest rotation followed by the deflection
// about the part's right axis.
func (s *ControlSurface) VisualRotation() mgl64.Quat {
	axis := physics.Normalize(s.part.LocalRight())
	deflection := mgl64.QuatRotate(mgl64.DegToRad(s.angle), axis)
	return physics.EulerDeg(s.cfg.DefaultLocalRotation).Mul(deflection).Normalize()
}

// damping returns the limit and rate authority factors at speed: 0.05 + 0.95 * base^-speed.
func (s *ControlSurface) damping(speed float64) (float64, float64) {
	limit := 0.05 + 0.95*math.Pow(s.cfg.Damping, -speed)
	rate := 0.05 + 0.95*math.Pow(s.cfg.RotationDamping, -speed)
	return limit, rate
}

// UpdateDeflection applies manual input first. With no key held the surface either runs
// stability assist or relaxes towards neutral.
func (s *ControlSurface) UpdateDeflection(keys [2]bool, sasEnabled bool, strength, dt float64) {
	if !(dt > 0) {
		return
	}
	sasEnabled = sasEnabled && !s.cfg.SASDisabled
	s.updateManual(keys, dt)
	if keys[0] || keys[1] {
		return
	}
	if sasEnabled {
		s.updateAssisted(strength, dt)
		return
	}
	s.angle *= 1 - mgl64.Clamp(relaxRate*dt, 0, 1)
}

func (s *ControlSurface) updateManual(keys [2]bool, dt float64) {
	body := s.part.vehicle.body
	worldAC := aero.AdjustedWorldAerodynamicCenter(s.part)
	limitDamping, rateDamping := s.damping(body.PointVelocity(worldAC).Len())
	s.speedDamping = limitDamping
	//1.- Each held key moves the surface at the damped rate.
	if keys[0] {
		s.angle += s.cfg.Rate * dt * rateDamping
	}
	if keys[1] {
		s.angle -= s.cfg.Rate * dt * rateDamping
	}
	//2.- Authority shrinks with airspeed.
	maxAngle := s.cfg.Limit * limitDamping
	s.angle = mgl64.Clamp(s.angle, -maxAngle, maxAngle)
	s.publishDamping()
}

func (s *ControlSurface) updateAssisted(strength, dt float64) {
	v := s.part.vehicle
	body := v.body
	data := s.part.AerodynamicsData()
	worldAC := aero.AdjustedWorldAerodynamicCenter(s.part)
	velocity := body.PointVelocity(worldAC)
	limitDamping, rateDamping := s.damping(velocity.Len())
	s.speedDamping = limitDamping
	maxAngle := s.cfg.Limit * limitDamping

	//1.- Find the strongest lift within reach; its sign orients the correction.
	step := 1 / aero.CurveScale
	x, y := data.LiftCurve.Extreme(-maxAngle/aero.CurveScale, maxAngle/aero.CurveScale, step)
	forcedAoA := x * aero.CurveScale
	sign := physics.Sign(y)

	//2.- Predict the torque that deflection would produce about the centre of mass.
	calc := s.part.calc
	force := calc.LiftVector(s.part, 0, velocity, &forcedAoA).Add(calc.DragVector(s.part, 0, velocity, &forcedAoA))
	relative := worldAC.Sub(body.WorldCenterOfMass())
	vehicleFrame := body.Frame()
	predicted := vehicleFrame.InverseTransformDirection(relative.Cross(force))

	//3.- Sign the angular rate about the control axis by the predicted torque alignment.
	angularVelocity := vehicleFrame.InverseTransformDirection(body.AngularVelocity())
	current := angularVelocity[int(s.cfg.Axis)%3]
	alignment := physics.Normalize(predicted).Dot(s.cfg.Axis.Vector()) * torqueAlignmentGain
	correction := mgl64.Clamp(s.pid.Update(current*alignment, dt), -1, 1)

	//4.- Move the surface against the error and keep it within authority.
	s.angle += sign * s.cfg.Rate * dt * correction * strength * rateDamping
	s.angle = mgl64.Clamp(s.angle, -maxAngle, maxAngle)
	s.publishDamping()
}

func (s *ControlSurface) publishDamping() {
	v := s.part.vehicle
	if !v.debugCfg.Enabled || v.services.Debug == nil {
		return
	}
	v.services.Debug.SetItem(debug.OverlayItem{Name: "speedDamping", Value: s.speedDamping, Prefix: ": "}, 1)
}
