package vehicle

import (
	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/debug"
	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/physics"
)

// ExplosionClip is the clip played when a part explodes.
const ExplosionClip = "Explosion"

// Effects receives the visual side effects the vehicle triggers. Rendering them is up to
// the host.
type Effects interface {
	Explosion(effect string, at physics.Frame)
	Plume(part PartID, lit bool)
}

// NopEffects ignores every effect.
type NopEffects struct{}

// Explosion implements Effects.
func (NopEffects) Explosion(string, physics.Frame) {}

// Plume implements Effects.
func (NopEffects) Plume(PartID, bool) {}

// EventKind classifies vehicle events.
type EventKind string

const (
	EventIgnite   EventKind = "ignite"
	EventShutdown EventKind = "shutdown"
	EventExplode  EventKind = "explode"
	EventDestroy  EventKind = "destroy"
	EventSAS      EventKind = "sas"
)

// Event is a discrete change worth recording alongside the continuous state.
type Event struct {
	Kind    EventKind
	Vehicle string
	Part    PartID
	Value   float64
}

// EventSink receives vehicle events.
type EventSink interface {
	PublishVehicleEvent(Event)
}

// Services are the collaborators a vehicle calls into. Nil members are replaced with
// inert defaults.
type Services struct {
	Logger  *logging.Logger
	Audio   *audio.Manager
	Debug   *debug.Channel
	Effects Effects
	Events  EventSink
}

func (s Services) withDefaults() Services {
	if s.Logger == nil {
		s.Logger = logging.L()
	}
	if s.Effects == nil {
		s.Effects = NopEffects{}
	}
	return s
}
