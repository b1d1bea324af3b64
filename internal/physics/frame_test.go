package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestZeroFrameIsIdentity(t *testing.T) {
	var frame Frame
	point := mgl64.Vec3{1, 2, 3}
	if frame.TransformPoint(point) != point || frame.InverseTransformPoint(point) != point {
		t.Fatalf("zero frame should behave as identity")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	//1.- Scaled, rotated and translated frames invert cleanly.
	frame := Frame{
		Position: mgl64.Vec3{5, -2, 1},
		Rotation: EulerDeg(mgl64.Vec3{10, 70, -30}),
		Scale:    mgl64.Vec3{2, 1, 0.5},
	}
	point := mgl64.Vec3{0.3, -1.2, 4}
	if got := frame.InverseTransformPoint(frame.TransformPoint(point)); !vecNear(got, point, 1e-9) {
		t.Fatalf("point round trip failed: %v", got)
	}
	if got := frame.InverseTransformVector(frame.TransformVector(point)); !vecNear(got, point, 1e-9) {
		t.Fatalf("vector round trip failed: %v", got)
	}
}

func TestRecontextualizeDirectionBetweenFrames(t *testing.T) {
	//1.- A part yawed 90 degrees sees its forward as the vehicle's right.
	vehicle := NewFrame(mgl64.Vec3{100, 0, 0}, mgl64.QuatIdent())
	part := NewFrame(mgl64.Vec3{101, 0, 0}, EulerDeg(mgl64.Vec3{0, 90, 0}))
	got := RecontextualizeDirection(mgl64.Vec3{0, 0, 1}, part, vehicle)
	if !vecNear(got, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Fatalf("unexpected direction %v", got)
	}
	//2.- Points keep their offset between the frames.
	if got := RecontextualizePoint(Zero, part, vehicle); !vecNear(got, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Fatalf("unexpected point %v", got)
	}
}

func TestComposeChainsFrames(t *testing.T) {
	parent := NewFrame(mgl64.Vec3{0, 0, 10}, EulerDeg(mgl64.Vec3{0, 90, 0}))
	child := NewFrame(mgl64.Vec3{0, 0, 1}, mgl64.QuatIdent())
	world := parent.Compose(child)
	if !vecNear(world.Position, mgl64.Vec3{1, 0, 10}, 1e-9) {
		t.Fatalf("unexpected composed position %v", world.Position)
	}
}

func TestChildVelocityAddsRotation(t *testing.T) {
	got := ChildVelocity(Zero, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 2})
	if !vecNear(got, mgl64.Vec3{3, 0, 0}, 1e-12) {
		t.Fatalf("unexpected point velocity %v", got)
	}
}
