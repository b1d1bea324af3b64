// Package aero computes per-part lift, drag and torque from relative airflow and blends
// them with a half-step prediction before they reach the vehicle body.
package aero

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/curve"
)

// CurveScale divides angles of attack in degrees before curve lookup. Authored curves use
// this scale so existing coefficient data must keep it.
const CurveScale = 1000.0

// ErrInvalidArea is returned when a part declares a non-positive reference area.
var ErrInvalidArea = errors.New("aero: reference area must be positive")

// Data holds the aerodynamic coefficients of one part.
type Data struct {
	LiftMultiplier         float64     `json:"liftMultiplier"`
	DragMultiplier         float64     `json:"dragMultiplier"`
	Area                   float64     `json:"area"`
	LocalAerodynamicCenter mgl64.Vec3  `json:"localAerodynamicCenter"`
	LiftCurve              curve.Curve `json:"liftCurve"`
	DragCurve              curve.Curve `json:"dragCurve"`
}

// DefaultData returns unit multipliers and area with empty curves.
func DefaultData() Data {
	return Data{LiftMultiplier: 1, DragMultiplier: 1, Area: 1}
}

// Validate reports configuration problems with the coefficients.
func (d Data) Validate() error {
	if !(d.Area > 0) || math.IsInf(d.Area, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidArea, d.Area)
	}
	return nil
}

// LiftCoefficient samples the lift curve at an angle of attack in degrees.
func (d Data) LiftCoefficient(aoa float64) float64 {
	return d.LiftCurve.Evaluate(aoa / CurveScale)
}

// DragCoefficient samples the drag curve at an angle of attack in degrees.
func (d Data) DragCoefficient(aoa float64) float64 {
	return d.DragCurve.Evaluate(aoa / CurveScale)
}

// Magnitude evaluates the shared lift and drag equation 0.5 * C * ρ * v² * A.
func Magnitude(coefficient, airDensity, speedSquared, area float64) float64 {
	return 0.5 * coefficient * airDensity * speedSquared * area
}
