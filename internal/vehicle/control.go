package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/debug"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/logging"
)

// sasStrengthRate is the assist strength change per second while a strength key is held.
const sasStrengthRate = 0.5

// Controller maps key input onto a vehicle's engines and control surfaces.
type Controller struct {
	vehicle     *Vehicle
	keys        config.KeyBindings
	sasEnabled  bool
	sasStrength float64
}

// NewController binds a vehicle to the configured keys and assist defaults.
func NewController(v *Vehicle, cfg config.ControlConfig) *Controller {
	return &Controller{
		vehicle:     v,
		keys:        cfg.Keys,
		sasEnabled:  cfg.SASEnabled,
		sasStrength: mgl64.Clamp(cfg.SASStrength, 0, 1),
	}
}

// Vehicle returns the controlled vehicle.
func (c *Controller) Vehicle() *Vehicle { return c.vehicle }

// SASEnabled reports whether stability assist is on.
func (c *Controller) SASEnabled() bool { return c.sasEnabled }

// SASStrength returns the assist strength in [0, 1].
func (c *Controller) SASStrength() float64 { return c.sasStrength }

// SetSAS switches stability assist on or off.
func (c *Controller) SetSAS(enabled bool) {
	if c.sasEnabled == enabled {
		return
	}
	c.sasEnabled = enabled
	value := 0.0
	if enabled {
		value = 1
	}
	c.vehicle.publish(Event{Kind: EventSAS, Value: value})
}

// Update applies one tick of input: engine ignition and throttle, assist settings, engine
// gimbal and control surface deflection.
func (c *Controller) Update(in input.Source, dt float64) {
	if in == nil {
		in = input.None
	}
	v := c.vehicle
	engines := v.Engines()
	//1.- Ignition and shutdown react to key edges only.
	if in.Pressed(c.keys.Ignite) {
		for _, engine := range engines {
			if !engine.Burning() {
				c.report("ignite", engine, engine.Ignite())
			}
		}
	}
	if in.Pressed(c.keys.Shutdown) {
		for _, engine := range engines {
			if engine.Burning() {
				c.report("shutdown", engine, engine.ShutDown())
			}
		}
	}
	//2.- Throttle follows held keys.
	if in.Held(c.keys.ThrottleUp) {
		for _, engine := range engines {
			engine.ThrottleUp(dt)
		}
	}
	if in.Held(c.keys.ThrottleDown) {
		for _, engine := range engines {
			engine.ThrottleDown(dt)
		}
	}
	//3.- Assist toggle and strength.
	if in.Pressed(c.keys.ToggleSAS) {
		c.SetSAS(!c.sasEnabled)
	}
	if in.Held(c.keys.SASUp) {
		c.sasStrength = mgl64.Clamp(c.sasStrength+sasStrengthRate*dt, 0, 1)
	}
	if in.Held(c.keys.SASDown) {
		c.sasStrength = mgl64.Clamp(c.sasStrength-sasStrengthRate*dt, 0, 1)
	}
	if channel := v.services.Debug; channel != nil {
		channel.SetItem(debug.OverlayItem{Name: "_SASStrength", Value: c.sasStrength, Prefix: ": "}, 2)
	}
	//4.- Gimbal every engine that can and move every surface.
	for _, engine := range engines {
		if !engine.cfg.GimbalEnabled {
			continue
		}
		gimbal, err := engine.GimbalInput(in, c.keys)
		if err == nil {
			err = engine.TryGimbal(gimbal)
		}
		c.report("gimbal", engine, err)
	}
	for _, surface := range v.Surfaces() {
		surface.UpdateDeflection(surface.MoveInput(in), c.sasEnabled, c.sasStrength, dt)
	}
}

func (c *Controller) report(action string, engine *Engine, err error) {
	if err == nil {
		return
	}
	c.vehicle.log.Warn("engine "+action+" incomplete",
		logging.String("part", string(engine.part.ID)),
		logging.Error(err),
	)
}
