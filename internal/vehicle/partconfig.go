package vehicle

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/control"
	"driftpursuit/vehicles/internal/physics"
)

const (
	// DefaultSurfaceLimit is the deflection limit in degrees before speed damping.
	DefaultSurfaceLimit = 16.0
	// DefaultSurfaceRate is the deflection rate in degrees per second.
	DefaultSurfaceRate = 16.0
	// DefaultSurfaceDamping is the base of the exponential authority falloff with speed.
	DefaultSurfaceDamping = 1.0031
	// DefaultWallThickness is the tank wall thickness in metres used for structural weight.
	DefaultWallThickness = 0.00635
)

// Collider is a box approximation of a part's collision volume in part-local space.
type Collider struct {
	Center mgl64.Vec3 `json:"center"`
	Size   mgl64.Vec3 `json:"size"`
}

// PartConfig is the authored description shared by every instance of a part.
type PartConfig struct {
	Name              string         `json:"name"`
	Kind              Kind           `json:"kind"`
	Mass              float64        `json:"mass"`
	ExplosionVelocity float64        `json:"explosionVelocity"`
	CenterOfMass      mgl64.Vec3     `json:"centerOfMass"`
	LocalRight        mgl64.Vec3     `json:"localRight"`
	LocalForward      mgl64.Vec3     `json:"localForward"`
	Aerodynamics      *aero.Data     `json:"aerodynamics,omitempty"`
	Explosion         string         `json:"explosion,omitempty"`
	Colliders         []Collider     `json:"colliders,omitempty"`
	Engine            *EngineConfig  `json:"engine,omitempty"`
	Surface           *SurfaceConfig `json:"surface,omitempty"`
	Tank              *TankConfig    `json:"tank,omitempty"`
}

// EngineConfig describes thrust and gimbal behaviour.
type EngineConfig struct {
	ThrustSL             float64    `json:"thrustSL"`
	LocalThrustDirection mgl64.Vec3 `json:"localThrustDirection"`
	GimbalEnabled        bool       `json:"gimbalEnabled"`
	GimbalLimit          float64    `json:"gimbalLimit"`
	// DefaultRotation is the engine's rest orientation as Euler degrees.
	DefaultRotation mgl64.Vec3 `json:"defaultRotation"`
	// DefaultGimbalRotation is the gimbal pivot's rest orientation as Euler degrees.
	DefaultGimbalRotation mgl64.Vec3 `json:"defaultGimbalRotation"`
	// PivotRotation orients the gimbal pivot relative to the engine, as Euler degrees.
	PivotRotation mgl64.Vec3         `json:"pivotRotation"`
	Sounds        audio.EngineSounds `json:"sounds"`
}

// SurfaceConfig describes how a control surface deflects.
type SurfaceConfig struct {
	// Keys are the positive and negative deflection keys.
	Keys                 [2]string    `json:"keys"`
	Limit                float64      `json:"limit"`
	Rate                 float64      `json:"rate"`
	Damping              float64      `json:"damping"`
	RotationDamping      float64      `json:"rotationDamping"`
	Axis                 physics.Axis `json:"axis"`
	PID                  control.PID  `json:"pid"`
	SASDisabled          bool         `json:"sasDisabled"`
	DefaultLocalRotation mgl64.Vec3   `json:"defaultLocalRotation"`
}

func (s SurfaceConfig) withDefaults() SurfaceConfig {
	if s.Limit == 0 {
		s.Limit = DefaultSurfaceLimit
	}
	if s.Rate == 0 {
		s.Rate = DefaultSurfaceRate
	}
	if s.Damping == 0 {
		s.Damping = DefaultSurfaceDamping
	}
	if s.RotationDamping == 0 {
		s.RotationDamping = DefaultSurfaceDamping
	}
	return s
}

// Propellant is a fuel or oxidiser stored in tanks.
type Propellant struct {
	CodeName    string `json:"codeName"`
	DisplayName string `json:"displayName"`
	// Density is in g/ml, so density times litres gives kilograms.
	Density float64 `json:"density"`
	// MeltingPoint and BoilingPoint are in °C.
	MeltingPoint float64 `json:"meltingPoint"`
	BoilingPoint float64 `json:"boilingPoint"`
}

// TankLoad is one propellant compartment measured in litres.
type TankLoad struct {
	Propellant Propellant `json:"propellant"`
	Volume     float64    `json:"volume"`
}

// TankConfig describes a cylindrical propellant container.
type TankConfig struct {
	Radius          float64    `json:"radius"`
	Height          float64    `json:"height"`
	MaterialDensity float64    `json:"materialDensity"`
	WallThickness   float64    `json:"wallThickness"`
	Tanks           []TankLoad `json:"tanks"`
}

func (t TankConfig) withDefaults() TankConfig {
	if t.WallThickness == 0 {
		t.WallThickness = DefaultWallThickness
	}
	return t
}

// RightAxis returns the configured local right direction, defaulting to +X.
func (c *PartConfig) RightAxis() mgl64.Vec3 {
	if c == nil || c.LocalRight == physics.Zero {
		return mgl64.Vec3{1, 0, 0}
	}
	return c.LocalRight
}

// ForwardAxis returns the configured local forward direction, defaulting to +Z.
func (c *PartConfig) ForwardAxis() mgl64.Vec3 {
	if c == nil || c.LocalForward == physics.Zero {
		return mgl64.Vec3{0, 0, 1}
	}
	return c.LocalForward
}

// Validate reports every configuration problem at once.
func (c *PartConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidPart)
	}
	var problems []string
	//1.- Shared fields apply to every kind.
	if !c.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown kind %q", c.Kind))
	}
	if c.Mass < 0 || math.IsNaN(c.Mass) || math.IsInf(c.Mass, 0) {
		problems = append(problems, fmt.Sprintf("mass must be a non-negative number, got %v", c.Mass))
	}
	if c.ExplosionVelocity < 0 {
		problems = append(problems, fmt.Sprintf("explosionVelocity must be non-negative, got %v", c.ExplosionVelocity))
	}
	if c.Aerodynamics != nil {
		if err := c.Aerodynamics.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	//2.- Each kind requires its own sub-config.
	switch c.Kind {
	case KindEngine:
		if c.Engine == nil {
			problems = append(problems, "engine parts need an engine block")
		} else {
			if c.Engine.ThrustSL < 0 {
				problems = append(problems, fmt.Sprintf("thrustSL must be non-negative, got %v", c.Engine.ThrustSL))
			}
			if c.Engine.GimbalLimit < 0 {
				problems = append(problems, fmt.Sprintf("gimbalLimit must be non-negative, got %v", c.Engine.GimbalLimit))
			}
		}
	case KindControlSurface:
		if c.Surface == nil {
			problems = append(problems, "control surfaces need a surface block")
		}
		if c.Aerodynamics == nil {
			problems = append(problems, "control surfaces need aerodynamics")
		}
	case KindTankContainer:
		if c.Tank == nil {
			problems = append(problems, "tank containers need a tank block")
		} else if c.Tank.Radius <= 0 || c.Tank.Height <= 0 {
			problems = append(problems, fmt.Sprintf("tank radius and height must be positive, got %v and %v", c.Tank.Radius, c.Tank.Height))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidPart, c.Name, strings.Join(problems, "; "))
	}
	return nil
}
