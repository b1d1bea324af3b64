package vehicle

import (
	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/debug"
)

const (
	liftPrefix       = "L_"
	dragPrefix       = "D_"
	tangentialPrefix = "A_"

	vectorWidth = 0.2
)

// drawDebug publishes the speed overlay and the per-part force vectors.
func (v *Vehicle) drawDebug() {
	channel := v.services.Debug
	if !v.debugCfg.Enabled || channel == nil {
		return
	}
	channel.SetItem(debug.OverlayItem{Name: "Speed", Value: v.body.Velocity().Len(), Prefix: ": ", Suffix: " m/s"}, 0)
	//1.- Forces are drawn at half a metre per unit of acceleration they cause.
	scale := 0.0
	if v.mass > 0 {
		scale = 0.5 / v.mass
	}
	for _, part := range v.parts {
		airframe, ok := part.Aerodynamic()
		if !ok {
			continue
		}
		sample := airframe.Calculator().Last()
		origin := aero.AdjustedWorldAerodynamicCenter(airframe)
		id := string(part.ID)
		if v.debugCfg.DrawLift {
			channel.UpdateVector(liftPrefix+id, origin, sample.Lift.Mul(scale), debug.Blue, vectorWidth)
		}
		if v.debugCfg.DrawDrag {
			channel.UpdateVector(dragPrefix+id, origin, sample.Drag.Mul(scale), debug.Red, vectorWidth)
		}
		if v.debugCfg.DrawTangentialVelocity {
			channel.UpdateVector(tangentialPrefix+id, origin, sample.TangentialVelocity, debug.Magenta, vectorWidth)
		}
	}
}
