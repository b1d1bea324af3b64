package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/logging"
)

// HandleCollision explodes the part when the impact speed exceeds its explosion velocity.
// It reports whether the part exploded.
func (v *Vehicle) HandleCollision(id PartID, impactVelocity mgl64.Vec3) (bool, error) {
	part, ok := v.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPart, id)
	}
	threshold := part.Config.ExplosionVelocity
	if impactVelocity.LenSqr() <= threshold*threshold {
		return false, nil
	}
	return true, v.Explode(id)
}

// Explode destroys the part, children first, with its explosion effect and sound.
func (v *Vehicle) Explode(id PartID) error {
	part, ok := v.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPart, id)
	}
	v.explode(part, make(map[PartID]bool))
	v.structureChanged()
	return nil
}

func (v *Vehicle) explode(part *Part, visited map[PartID]bool) {
	if visited[part.ID] {
		return
	}
	visited[part.ID] = true
	//1.- Children go first; ones already gone are skipped.
	for _, childID := range part.Children {
		if child, ok := v.byID[childID]; ok {
			v.explode(child, visited)
		}
	}
	//2.- Effect and sound, with every explosion sharing the volume evenly.
	v.services.Effects.Explosion(part.Config.Explosion, part.WorldFrame())
	if manager := v.services.Audio; manager != nil {
		source := &audio.Source{ID: "explosion/" + string(part.ID)}
		if err := manager.Play(source, ExplosionClip, 1); err != nil {
			v.log.Warn("explosion sound failed", logging.String("part", string(part.ID)), logging.Error(err))
		} else {
			manager.UpdateAllVolume(1/float64(manager.ActiveCount()), ExplosionClip)
		}
	}
	v.publish(Event{Kind: EventExplode, Part: part.ID})
	//3.- Leave the part list before the next recomputation.
	v.DestroyPart(part)
}

// DestroyPart removes the part and tears down its connections without an explosion.
// Mass and inertia are refreshed by the caller.
func (v *Vehicle) DestroyPart(part *Part) {
	if part == nil || part.vehicle != v {
		return
	}
	v.detach(part)
	v.publish(Event{Kind: EventDestroy, Part: part.ID})
}

func (v *Vehicle) detach(part *Part) {
	//1.- Remove from the arena keeping assembly order.
	for i, candidate := range v.parts {
		if candidate == part {
			v.parts = append(v.parts[:i], v.parts[i+1:]...)
			break
		}
	}
	delete(v.byID, part.ID)
	//2.- Silence engines and drop their plume.
	if part.engine != nil {
		if manager := v.services.Audio; manager != nil {
			manager.Stop(part.engine.sound.Source())
		}
		if part.engine.Burning() {
			v.services.Effects.Plume(part.ID, false)
		}
	}
	//3.- Clear debug vectors drawn for the part.
	if channel := v.services.Debug; channel != nil {
		for _, prefix := range []string{liftPrefix, dragPrefix, tangentialPrefix} {
			channel.RemoveVector(prefix + string(part.ID))
		}
	}
	part.vehicle = nil
}
