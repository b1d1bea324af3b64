package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/physics"
)

// PartID identifies a part within its vehicle.
type PartID string

// HasAerodynamics is implemented by parts that produce lift and drag.
type HasAerodynamics interface {
	aero.Airframe
	Calculator() *aero.Calculator
	DeflectionAngle() float64
}

// HasThrust is implemented by parts that push the vehicle.
type HasThrust interface {
	ThrustVector() mgl64.Vec3
	WorldThrust() mgl64.Vec3
	ApplyThrust(body physics.Body)
}

// Part is a runtime instance of a PartConfig attached to a vehicle.
type Part struct {
	ID         PartID
	Config     *PartConfig
	Mirrored   bool
	Commanding bool
	// Pose places the part in the vehicle's local space.
	Pose physics.Frame
	// Children are destroyed along with this part.
	Children []PartID

	vehicle *Vehicle
	calc    *aero.Calculator
	engine  *Engine
	surface *ControlSurface
	tank    *TankContainer
}

// NewPart creates an unattached part instance.
func NewPart(id PartID, cfg *PartConfig, pose physics.Frame) *Part {
	return &Part{ID: id, Config: cfg, Pose: pose}
}

// Initialize links the part to its vehicle and builds the components its kind needs.
func (p *Part) Initialize(v *Vehicle) error {
	if p == nil {
		return fmt.Errorf("%w: nil part", ErrInvalidPart)
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}
	p.vehicle = v
	//1.- Aerodynamic parts own a calculator so their recorded sample stays their own.
	if p.Config.Aerodynamics != nil {
		mode := aero.ModeMidpoint
		if v != nil {
			mode = v.aeroMode
		}
		p.calc = aero.NewCalculator(mode)
	}
	//2.- Build the kind-specific component.
	switch p.Config.Kind {
	case KindEngine:
		p.engine = newEngine(p, *p.Config.Engine)
	case KindControlSurface:
		p.surface = newControlSurface(p, *p.Config.Surface)
	case KindTankContainer:
		p.tank = &TankContainer{part: p, cfg: p.Config.Tank.withDefaults()}
	}
	return nil
}

// Kind returns the configured part kind.
func (p *Part) Kind() Kind {
	if p == nil || p.Config == nil {
		return ""
	}
	return p.Config.Kind
}

// Vehicle returns the owning vehicle, or nil once the part is detached.
func (p *Part) Vehicle() *Vehicle {
	if p == nil {
		return nil
	}
	return p.vehicle
}

// Weight returns the part mass in kilograms.
func (p *Part) Weight() float64 {
	if p == nil || p.Config == nil {
		return 0
	}
	if p.tank != nil {
		return p.tank.Weight()
	}
	return p.Config.Mass
}

// Mirror reflects a config-derived vector across the plane normal to the part's right axis
// for mirrored instances, negating only its lateral component.
func (p *Part) Mirror(v mgl64.Vec3) mgl64.Vec3 {
	if p == nil || !p.Mirrored {
		return v
	}
	return physics.Reflect(v, p.LocalRight())
}

// AdjustedLocalCenterOfMass returns the configured centre of mass with mirroring applied.
func (p *Part) AdjustedLocalCenterOfMass() mgl64.Vec3 {
	if p == nil || p.Config == nil {
		return physics.Zero
	}
	return p.Mirror(p.Config.CenterOfMass)
}

// AdjustedWorldCenterOfMass places the mirrored centre of mass in world space.
func (p *Part) AdjustedWorldCenterOfMass() mgl64.Vec3 {
	frame := p.WorldFrame()
	return frame.Position.Add(frame.TransformDirection(p.AdjustedLocalCenterOfMass()))
}

// WorldFrame composes the vehicle pose with the part pose.
func (p *Part) WorldFrame() physics.Frame {
	if p == nil {
		return physics.Identity()
	}
	if p.vehicle == nil || p.vehicle.body == nil {
		return p.Pose
	}
	return p.vehicle.body.Frame().Compose(p.Pose)
}

// AerodynamicsData implements aero.Airframe.
func (p *Part) AerodynamicsData() *aero.Data {
	if p == nil || p.Config == nil {
		return nil
	}
	return p.Config.Aerodynamics
}

// LocalRight implements aero.Airframe.
func (p *Part) LocalRight() mgl64.Vec3 { return p.Config.RightAxis() }

// LocalForward implements aero.Airframe.
func (p *Part) LocalForward() mgl64.Vec3 { return p.Config.ForwardAxis() }

// Environment implements aero.Airframe.
func (p *Part) Environment() aero.Environment {
	if p == nil || p.vehicle == nil {
		return nil
	}
	return p.vehicle
}

// Calculator returns the part's aerodynamics calculator, nil for parts without aerodynamics.
func (p *Part) Calculator() *aero.Calculator {
	if p == nil {
		return nil
	}
	return p.calc
}

// DeflectionAngle is the control surface angle, zero for fixed parts.
func (p *Part) DeflectionAngle() float64 {
	if p == nil || p.surface == nil {
		return 0
	}
	return p.surface.Angle()
}

// Aerodynamic returns the part as HasAerodynamics when it carries aerodynamic data.
func (p *Part) Aerodynamic() (HasAerodynamics, bool) {
	if p == nil || p.calc == nil || p.AerodynamicsData() == nil {
		return nil, false
	}
	return p, true
}

// Thrust returns the part's engine as HasThrust.
func (p *Part) Thrust() (HasThrust, bool) {
	if p == nil || p.engine == nil {
		return nil, false
	}
	return p.engine, true
}

// Engine returns the engine component, nil for other kinds.
func (p *Part) Engine() *Engine {
	if p == nil {
		return nil
	}
	return p.engine
}

// Surface returns the control surface component, nil for other kinds.
func (p *Part) Surface() *ControlSurface {
	if p == nil {
		return nil
	}
	return p.surface
}

// Tank returns the tank container component, nil for other kinds.
func (p *Part) Tank() *TankContainer {
	if p == nil {
		return nil
	}
	return p.tank
}

// colliderBoxes re-expresses the part's colliders in vehicle space.
func (p *Part) colliderBoxes() []physics.Box {
	if p == nil || p.Config == nil {
		return nil
	}
	boxes := make([]physics.Box, 0, len(p.Config.Colliders))
	for _, collider := range p.Config.Colliders {
		size := p.Pose.TransformVector(collider.Size)
		boxes = append(boxes, physics.Box{
			Center: p.Pose.TransformPoint(p.Mirror(collider.Center)),
			Size:   mgl64.Vec3{math.Abs(size[0]), math.Abs(size[1]), math.Abs(size[2])},
		})
	}
	return boxes
}

// WorldColliders returns the part's collider boxes with centres in world space. Sizes stay
// in vehicle axes; callers needing rotation-free bounds should use the half diagonal.
func (p *Part) WorldColliders() []physics.Box {
	boxes := p.colliderBoxes()
	if p.vehicle == nil {
		return boxes
	}
	frame := p.vehicle.body.Frame()
	for i := range boxes {
		boxes[i].Center = frame.TransformPoint(boxes[i].Center)
	}
	return boxes
}
