package simulation

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrZeroNormal is returned when a plane is built from a zero normal.
var ErrZeroNormal = errors.New("simulation: plane normal must be non-zero")

// SignedDistanceField is terrain the vehicles can collide with. Negative samples are inside.
type SignedDistanceField interface {
	Sample(point mgl64.Vec3) float64
}

// SampleFunc adapts a function into a SignedDistanceField.
type SampleFunc func(mgl64.Vec3) float64

// Sample invokes the wrapped function.
func (s SampleFunc) Sample(point mgl64.Vec3) float64 {
	return s(point)
}

// SphereField is an analytic sphere.
type SphereField struct {
	Center mgl64.Vec3
	Radius float64
}

// Sample returns the distance from point to the sphere surface.
func (s SphereField) Sample(point mgl64.Vec3) float64 {
	return point.Sub(s.Center).Len() - s.Radius
}

// PlaneField is an infinite plane through a point.
type PlaneField struct {
	origin mgl64.Vec3
	normal mgl64.Vec3
}

// NewPlaneField stores the plane with a unit normal.
func NewPlaneField(point, normal mgl64.Vec3) (PlaneField, error) {
	length := normal.Len()
	if length == 0 || math.IsNaN(length) {
		return PlaneField{}, ErrZeroNormal
	}
	return PlaneField{origin: point, normal: normal.Mul(1 / length)}, nil
}

// Ground is the horizontal plane y = height.
func Ground(height float64) PlaneField {
	return PlaneField{origin: mgl64.Vec3{0, height, 0}, normal: mgl64.Vec3{0, 1, 0}}
}

// Normal returns the plane's unit normal.
func (p PlaneField) Normal() mgl64.Vec3 { return p.normal }

// Sample returns the signed distance from the plane to point.
func (p PlaneField) Sample(point mgl64.Vec3) float64 {
	return point.Sub(p.origin).Dot(p.normal)
}

// Gradient estimates the outward surface normal of field at point by central differences.
func Gradient(field SignedDistanceField, point mgl64.Vec3, h float64) mgl64.Vec3 {
	if h <= 0 {
		h = 1e-4
	}
	var g mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		var offset mgl64.Vec3
		offset[axis] = h
		g[axis] = field.Sample(point.Add(offset)) - field.Sample(point.Sub(offset))
	}
	if g.Len() == 0 {
		return mgl64.Vec3{0, 1, 0}
	}
	return g.Normalize()
}

// Raycast sphere-traces field from origin along direction. It reports whether the surface
// was hit, the travelled distance and the end point.
func Raycast(field SignedDistanceField, origin, direction mgl64.Vec3, maxDistance float64, maxSteps int, epsilon float64) (bool, float64, mgl64.Vec3) {
	if direction.Len() == 0 {
		return false, 0, origin
	}
	dir := direction.Normalize()
	distance := 0.0
	current := origin
	for step := 0; step < maxSteps; step++ {
		sample := field.Sample(current)
		if sample < epsilon {
			return true, distance, current
		}
		distance += sample
		if distance > maxDistance {
			break
		}
		//1.- Advance by the sampled clearance.
		current = origin.Add(dir.Mul(distance))
	}
	capped := math.Min(distance, maxDistance)
	return false, capped, origin.Add(dir.Mul(capped))
}

// SphereIntersection reports whether a bounding sphere penetrates field and its clearance.
func SphereIntersection(field SignedDistanceField, center mgl64.Vec3, radius float64) (bool, float64) {
	separation := field.Sample(center) - radius
	return separation <= 0, separation
}
