// Package vehicle assembles parts onto a single rigid body and drives their aerodynamic,
// thrust and control contributions every physics step.
package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/physics"
)

// integrator is implemented by bodies the vehicle advances itself.
type integrator interface {
	Integrate(step float64, gravity mgl64.Vec3)
}

// poser is implemented by bodies that can be teleported.
type poser interface {
	SetFrame(frame physics.Frame)
}

// velocitySetter is implemented by bodies whose velocity can be overwritten.
type velocitySetter interface {
	SetVelocity(velocity mgl64.Vec3)
}

// Vehicle owns an ordered set of parts attached to one rigid body.
type Vehicle struct {
	ID string

	body     physics.Body
	parts    []*Part
	byID     map[PartID]*Part
	services Services
	log      *logging.Logger

	mass         float64
	centerOfMass mgl64.Vec3
	airDensity   float64
	gravity      mgl64.Vec3
	aeroMode     aero.Mode
	debugCfg     config.DebugConfig

	inertiaDegenerate bool
	diverged          bool
}

// Option customises vehicle construction.
type Option func(*Vehicle)

// WithServices injects the collaborators the vehicle calls into.
func WithServices(services Services) Option {
	return func(v *Vehicle) { v.services = services }
}

// WithEnvironment sets air density and downward gravity from configuration. Zero values
// are honoured, so a vacuum or weightless run is expressible.
func WithEnvironment(env config.EnvironmentConfig) Option {
	return func(v *Vehicle) {
		v.airDensity = env.AirDensity
		v.gravity = mgl64.Vec3{0, -env.Gravity, 0}
	}
}

// WithGravity overrides the gravity vector.
func WithGravity(gravity mgl64.Vec3) Option {
	return func(v *Vehicle) { v.gravity = gravity }
}

// WithAeroMode selects how each part blends its force samples.
func WithAeroMode(mode aero.Mode) Option {
	return func(v *Vehicle) {
		if mode != "" {
			v.aeroMode = mode
		}
	}
}

// WithDebug enables overlays, force vectors and the air tunnel.
func WithDebug(cfg config.DebugConfig) Option {
	return func(v *Vehicle) { v.debugCfg = cfg }
}

// New creates an empty vehicle on body. A nil body gets an in-process rigid body at the origin.
func New(id string, body physics.Body, opts ...Option) *Vehicle {
	if body == nil {
		body = physics.NewRigidBody(physics.Identity())
	}
	v := &Vehicle{
		ID:         id,
		body:       body,
		byID:       make(map[PartID]*Part),
		airDensity: config.DefaultAirDensity,
		gravity:    mgl64.Vec3{0, -config.DefaultGravity, 0},
		aeroMode:   aero.ModeMidpoint,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	v.services = v.services.withDefaults()
	v.log = v.services.Logger.With(logging.String("vehicle", id))
	//1.- Debug flights may start with a launch velocity.
	if v.debugCfg.Enabled {
		if setter, ok := body.(velocitySetter); ok {
			setter.SetVelocity(mgl64.Vec3(v.debugCfg.InitialVelocity))
		}
	}
	//2.- Until parts arrive the body must not respond to forces.
	v.updateDynamics()
	return v
}

// Body implements aero.Environment.
func (v *Vehicle) Body() physics.Body { return v.body }

// AirDensity implements aero.Environment.
func (v *Vehicle) AirDensity() float64 { return v.airDensity }

// Gravity implements aero.Environment.
func (v *Vehicle) Gravity() mgl64.Vec3 { return v.gravity }

// Mass returns the total mass from the last recomputation.
func (v *Vehicle) Mass() float64 { return v.mass }

// CenterOfMass returns the vehicle-local centre of mass from the last recomputation.
func (v *Vehicle) CenterOfMass() mgl64.Vec3 { return v.centerOfMass }

// Services returns the collaborators the vehicle was built with.
func (v *Vehicle) Services() Services { return v.services }

// Logger returns the vehicle-scoped logger.
func (v *Vehicle) Logger() *logging.Logger { return v.log }

// Parts returns the attached parts in assembly order.
func (v *Vehicle) Parts() []*Part {
	out := make([]*Part, len(v.parts))
	copy(out, v.parts)
	return out
}

// PartCount returns how many parts are attached.
func (v *Vehicle) PartCount() int { return len(v.parts) }

// Part looks a part up by id.
func (v *Vehicle) Part(id PartID) (*Part, bool) {
	part, ok := v.byID[id]
	return part, ok
}

// Engines returns every engine in assembly order.
func (v *Vehicle) Engines() []*Engine {
	var engines []*Engine
	for _, part := range v.parts {
		if part.engine != nil {
			engines = append(engines, part.engine)
		}
	}
	return engines
}

// Surfaces returns every control surface in assembly order.
func (v *Vehicle) Surfaces() []*ControlSurface {
	var surfaces []*ControlSurface
	for _, part := range v.parts {
		if part.surface != nil {
			surfaces = append(surfaces, part.surface)
		}
	}
	return surfaces
}

// AddPart attaches and initialises a part, then refreshes mass and inertia.
func (v *Vehicle) AddPart(part *Part) error {
	return v.AddParts(part)
}

// AddParts attaches several parts and refreshes mass and inertia once. Nothing is attached
// when any part is invalid.
func (v *Vehicle) AddParts(parts ...*Part) error {
	//1.- Validate the whole batch before touching the arena.
	seen := make(map[PartID]bool, len(parts))
	for _, part := range parts {
		if part == nil {
			return fmt.Errorf("%w: nil part", ErrInvalidPart)
		}
		if _, exists := v.byID[part.ID]; exists || seen[part.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicatePart, part.ID)
		}
		seen[part.ID] = true
		if err := part.Config.Validate(); err != nil {
			return fmt.Errorf("part %s: %w", part.ID, err)
		}
	}
	//2.- Attach in order.
	for _, part := range parts {
		if err := part.Initialize(v); err != nil {
			return fmt.Errorf("part %s: %w", part.ID, err)
		}
		v.parts = append(v.parts, part)
		v.byID[part.ID] = part
	}
	v.structureChanged()
	return nil
}

// RemovePart detaches a part without exploding it.
func (v *Vehicle) RemovePart(id PartID) error {
	part, ok := v.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPart, id)
	}
	v.detach(part)
	v.structureChanged()
	return nil
}

// TotalThrust sums the world-space thrust of every engine.
func (v *Vehicle) TotalThrust() mgl64.Vec3 {
	total := physics.Zero
	for _, part := range v.parts {
		if thruster, ok := part.Thrust(); ok {
			total = total.Add(thruster.WorldThrust())
		}
	}
	return total
}

// CommandingPart returns the first part flagged as commanding, or nil.
func (v *Vehicle) CommandingPart() *Part {
	for _, part := range v.parts {
		if part.Commanding {
			return part
		}
	}
	return nil
}

// CenterOfLift returns the lift-weighted average of the aerodynamic centres in world space.
// It reports false when no part currently produces lift.
func (v *Vehicle) CenterOfLift() (mgl64.Vec3, bool) {
	origin := v.body.Frame().Position
	weighted := physics.Zero
	total := 0.0
	for _, part := range v.parts {
		airframe, ok := part.Aerodynamic()
		if !ok {
			continue
		}
		magnitude := airframe.Calculator().Last().Lift.Len()
		weighted = weighted.Add(aero.AdjustedWorldAerodynamicCenter(airframe).Sub(origin).Mul(magnitude))
		total += magnitude
	}
	if !(total > 0) {
		return physics.Zero, false
	}
	return origin.Add(weighted.Mul(1 / total)), true
}

// ApplyForces refreshes mass properties and lets every part push the body for a step of dt.
func (v *Vehicle) ApplyForces(dt float64) {
	v.RecomputeMassProperties()
	if v.body.Kinematic() {
		v.advanceSounds(dt)
		return
	}
	for _, part := range v.parts {
		//1.- Aerodynamic parts apply their blended sample.
		if airframe, ok := part.Aerodynamic(); ok {
			airframe.Calculator().Execute(airframe, airframe.DeflectionAngle(), dt)
		}
		//2.- Engines push while lit and advance their sounds.
		if part.engine != nil {
			if err := part.engine.Update(v.body, dt); err != nil {
				v.log.Warn("engine sound failed", logging.String("part", string(part.ID)), logging.Error(err))
			}
		}
	}
	v.drawDebug()
}

// advanceSounds keeps sound sequences moving while the body is frozen.
func (v *Vehicle) advanceSounds(dt float64) {
	for _, engine := range v.Engines() {
		if err := engine.sound.Advance(dt, engine.Burning()); err != nil {
			v.log.Warn("engine sound failed", logging.String("part", string(engine.part.ID)), logging.Error(err))
		}
	}
}

// Integrate advances bodies the vehicle owns and applies the air tunnel. Externally
// simulated bodies are left to their owner.
func (v *Vehicle) Integrate(dt float64) {
	if body, ok := v.body.(integrator); ok {
		wasKinematic := v.body.Kinematic()
		body.Integrate(dt, v.gravity)
		//1.- A body that froze itself diverged and stays frozen.
		if !wasKinematic && v.body.Kinematic() {
			v.diverged = true
			v.log.Error("rigid body diverged, freezing vehicle")
		}
	}
	v.applyAirTunnel()
}

// Step applies forces and integrates one fixed step.
func (v *Vehicle) Step(dt float64) {
	v.ApplyForces(dt)
	v.Integrate(dt)
}

// SetAirTunnel pins the vehicle's position and pitch/yaw each step while forces keep acting.
func (v *Vehicle) SetAirTunnel(enabled bool, position, rotation mgl64.Vec3) {
	v.debugCfg.AirTunnel = enabled
	v.debugCfg.AirTunnelPosition = position
	v.debugCfg.AirTunnelRotation = rotation
}

func (v *Vehicle) applyAirTunnel() {
	if !v.debugCfg.AirTunnel {
		return
	}
	body, ok := v.body.(poser)
	if !ok {
		return
	}
	frame := v.body.Frame()
	euler := physics.EulerAnglesDeg(frame.Orientation())
	euler[0] = v.debugCfg.AirTunnelRotation[0]
	euler[1] = v.debugCfg.AirTunnelRotation[1]
	body.SetFrame(physics.NewFrame(mgl64.Vec3(v.debugCfg.AirTunnelPosition), physics.EulerDeg(euler)))
}

func (v *Vehicle) publish(event Event) {
	if v.services.Events == nil {
		return
	}
	event.Vehicle = v.ID
	v.services.Events.PublishVehicleEvent(event)
}

// structureChanged refreshes everything derived from the part list.
func (v *Vehicle) structureChanged() {
	v.RecomputeMassProperties()
	if err := v.RecomputeInertia(); err != nil {
		v.log.Warn("inertia recomputation failed", logging.Error(err))
	}
}
