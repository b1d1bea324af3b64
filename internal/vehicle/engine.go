package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/physics"
)

// throttleRate is the throttle change per second while a throttle key is held.
const throttleRate = 0.5

// EnginePhase is the ignition state of an engine.
type EnginePhase int

const (
	EngineIdle EnginePhase = iota
	EngineBurning
)

func (p EnginePhase) String() string {
	switch p {
	case EngineIdle:
		return "idle"
	case EngineBurning:
		return "burning"
	default:
		return fmt.Sprintf("engine_phase(%d)", int(p))
	}
}

// Engine converts throttle and gimbal deflection into thrust on the vehicle body.
type Engine struct {
	part     *Part
	cfg      EngineConfig
	phase    EnginePhase
	throttle float64

	gimbal         mgl64.Vec3
	thrustRotation mgl64.Quat
	pivotRotation  mgl64.Quat
	sound          *audio.Sequencer
}

func newEngine(part *Part, cfg EngineConfig) *Engine {
	var manager *audio.Manager
	if part.vehicle != nil {
		manager = part.vehicle.services.Audio
	}
	return &Engine{
		part:           part,
		cfg:            cfg,
		thrustRotation: physics.EulerDeg(cfg.DefaultRotation),
		pivotRotation:  physics.EulerDeg(cfg.DefaultGimbalRotation),
		sound:          audio.NewSequencer(manager, "engine/"+string(part.ID), cfg.Sounds),
	}
}

// Part returns the part carrying the engine.
func (e *Engine) Part() *Part { return e.part }

// Phase returns the ignition state.
func (e *Engine) Phase() EnginePhase { return e.phase }

// Burning reports whether the engine is lit.
func (e *Engine) Burning() bool { return e.phase == EngineBurning }

// Throttle returns the throttle in [0, 1].
func (e *Engine) Throttle() float64 { return e.throttle }

// GimbalDeflection returns the last applied deflection as Euler degrees.
func (e *Engine) GimbalDeflection() mgl64.Vec3 { return e.gimbal }

// ThrustRotation returns the rotation applied to the configured thrust direction.
func (e *Engine) ThrustRotation() mgl64.Quat { return e.thrustRotation }

// PivotRotation returns the visual orientation of the gimbal pivot.
func (e *Engine) PivotRotation() mgl64.Quat { return e.pivotRotation }

// Sound exposes the engine's sound sequencer.
func (e *Engine) Sound() *audio.Sequencer { return e.sound }

// ThrottleUp raises the throttle by rate*dt while burning.
func (e *Engine) ThrottleUp(dt float64) {
	if e.Burning() {
		e.throttle = mgl64.Clamp(e.throttle+throttleRate*dt, 0, 1)
	}
}

// ThrottleDown lowers the throttle by rate*dt while burning.
func (e *Engine) ThrottleDown(dt float64) {
	if e.Burning() {
		e.throttle = mgl64.Clamp(e.throttle-throttleRate*dt, 0, 1)
	}
}

// ThrustVector returns the engine-local thrust: the rotated thrust direction scaled by
// sea level thrust and throttle.
func (e *Engine) ThrustVector() mgl64.Vec3 {
	return e.thrustRotation.Rotate(e.cfg.LocalThrustDirection).Mul(e.cfg.ThrustSL * e.throttle)
}

// WorldThrust returns the force the engine exerts on the vehicle in world space.
func (e *Engine) WorldThrust() mgl64.Vec3 {
	return e.part.WorldFrame().TransformDirection(e.ThrustVector()).Mul(-1)
}

// ApplyThrust pushes body at the engine's centre of mass.
func (e *Engine) ApplyThrust(body physics.Body) {
	if body == nil {
		return
	}
	body.AddForceAtPosition(e.WorldThrust(), e.part.AdjustedWorldCenterOfMass())
}

// Ignite lights an idle engine and starts the ignition sound. A missing clip is returned
// after the engine is already lit.
func (e *Engine) Ignite() error {
	if e.Burning() {
		return nil
	}
	e.phase = EngineBurning
	v := e.part.vehicle
	if v != nil {
		v.services.Effects.Plume(e.part.ID, true)
		v.publish(Event{Kind: EventIgnite, Part: e.part.ID})
	}
	return e.sound.Ignite()
}

// ShutDown extinguishes a burning engine, zeroing its throttle.
func (e *Engine) ShutDown() error {
	if !e.Burning() {
		return nil
	}
	e.phase = EngineIdle
	e.throttle = 0
	v := e.part.vehicle
	if v != nil {
		v.services.Effects.Plume(e.part.ID, false)
		v.publish(Event{Kind: EventShutdown, Part: e.part.ID})
	}
	return e.sound.ShutDown()
}

// GimbalInput reads the four gimbal keys as (right, left, up, down), each contributing the
// full gimbal limit while held.
func (e *Engine) GimbalInput(in input.Source, keys config.KeyBindings) (mgl64.Vec4, error) {
	if !e.cfg.GimbalEnabled {
		return mgl64.Vec4{}, fmt.Errorf("%w: %s", ErrNoGimbal, e.part.ID)
	}
	limit := e.cfg.GimbalLimit
	held := func(key string) float64 {
		if in != nil && in.Held(key) {
			return limit
		}
		return 0
	}
	return mgl64.Vec4{held(keys.GimbalRight), held(keys.GimbalLeft), held(keys.GimbalUp), held(keys.GimbalDown)}, nil
}

// TryGimbal deflects the engine. Pivot and thrust rotations derive from the same
// deflection so the nozzle always points where the thrust goes.
func (e *Engine) TryGimbal(gimbal mgl64.Vec4) error {
	if !e.cfg.GimbalEnabled {
		return fmt.Errorf("%w: %s", ErrNoGimbal, e.part.ID)
	}
	//1.- Collapse the four inputs into a pitch/yaw deflection in engine space, no wider
	// than the gimbal limit even on a diagonal.
	deflection := mgl64.Vec3{gimbal[3] - gimbal[2], 0, gimbal[0] - gimbal[1]}
	deflection = physics.ClampMagnitude(deflection, e.cfg.GimbalLimit)
	e.gimbal = deflection
	//2.- Rotate the pivot by the deflection re-expressed in the pivot's own frame.
	pivot := physics.NewFrame(physics.Zero, physics.EulerDeg(e.cfg.PivotRotation))
	pivotLocal := physics.RecontextualizeDirection(deflection, physics.Identity(), pivot)
	e.pivotRotation = physics.EulerDeg(e.cfg.DefaultGimbalRotation.Add(pivotLocal))
	//3.- Turn the thrust direction by the same deflection.
	e.thrustRotation = physics.EulerDeg(e.cfg.DefaultRotation.Add(deflection))
	return nil
}

// Update burns and pushes the vehicle while lit and advances the sound sequence.
func (e *Engine) Update(body physics.Body, dt float64) error {
	if e.Burning() {
		e.Burn()
		e.ApplyThrust(body)
	}
	return e.sound.Advance(dt, e.Burning())
}

// Burn scales the running sound with the throttle.
func (e *Engine) Burn() {
	e.sound.SetThrottle(e.throttle)
}
