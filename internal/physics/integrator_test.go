package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}

func TestIntegrateAppliesGravityAndForces(t *testing.T) {
	//1.- Drop a 2 kg body while pushing it sideways with 4 N.
	body := NewRigidBody(Identity())
	body.SetMass(2)
	body.AddForce(mgl64.Vec3{4, 0, 0})
	body.Integrate(0.5, mgl64.Vec3{0, -9.82, 0})
	//2.- Verify semi-implicit Euler velocity and position updates.
	if !vecNear(body.Velocity(), mgl64.Vec3{1, -4.91, 0}, 1e-9) {
		t.Fatalf("unexpected velocity %v", body.Velocity())
	}
	if !vecNear(body.Frame().Position, mgl64.Vec3{0.5, -2.455, 0}, 1e-9) {
		t.Fatalf("unexpected position %v", body.Frame().Position)
	}
	if !body.PendingForces().IsZero() {
		t.Fatalf("forces should clear after integration")
	}
}

func TestIntegrateTorqueUsesPrincipalMoments(t *testing.T) {
	//1.- A torque about Y should spin the body at τ/I.
	body := NewRigidBody(Identity())
	body.SetInertia(mgl64.Vec3{1, 4, 1}, mgl64.QuatIdent())
	body.AddTorque(mgl64.Vec3{0, 8, 0})
	body.Integrate(0.1, Zero)
	if !vecNear(body.AngularVelocity(), mgl64.Vec3{0, 0.2, 0}, 1e-9) {
		t.Fatalf("unexpected angular velocity %v", body.AngularVelocity())
	}
	//2.- Orientation should have turned about Y only.
	euler := EulerAnglesDeg(body.Frame().Rotation)
	if math.Abs(euler[0]) > 1e-6 || math.Abs(euler[2]) > 1e-6 || euler[1] <= 0 {
		t.Fatalf("unexpected orientation %v", euler)
	}
}

func TestAddForceAtPositionInducesTorque(t *testing.T) {
	//1.- Push upward one metre to the right of the centre of mass.
	body := NewRigidBody(Identity())
	body.AddForceAtPosition(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{1, 0, 0})
	pending := body.PendingForces()
	if !vecNear(pending.Torque, mgl64.Vec3{0, 0, 10}, 1e-9) {
		t.Fatalf("unexpected torque %v", pending.Torque)
	}
}

func TestKinematicBodyIgnoresForces(t *testing.T) {
	//1.- Kinematic bodies neither accumulate forces nor move.
	body := NewRigidBody(NewFrame(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent()))
	body.SetKinematic(true)
	body.AddForce(mgl64.Vec3{100, 0, 0})
	body.Integrate(1, mgl64.Vec3{0, -9.82, 0})
	if body.Frame().Position != (mgl64.Vec3{1, 2, 3}) || body.Velocity() != Zero {
		t.Fatalf("kinematic body moved: %v %v", body.Frame().Position, body.Velocity())
	}
}

func TestIntegrateHandlesInvalidInput(t *testing.T) {
	//1.- Nil bodies and non-positive steps are safe no-ops.
	var body *RigidBody
	body.Integrate(0.5, Zero)
	live := NewRigidBody(Identity())
	live.SetVelocity(mgl64.Vec3{1, 0, 0})
	live.Integrate(-1, Zero)
	if live.Frame().Position != Zero {
		t.Fatalf("negative step should not integrate")
	}
}

func TestWrapAngleDeg(t *testing.T) {
	cases := map[float64]float64{190: -170, -190: 170, 360: 0, 45: 45}
	for input, want := range cases {
		if got := WrapAngleDeg(input); math.Abs(got-want) > 1e-9 {
			t.Fatalf("wrap(%v) = %v, want %v", input, got, want)
		}
	}
}

func TestEulerRoundTrip(t *testing.T) {
	//1.- Angles within the principal ranges survive a round trip.
	angles := mgl64.Vec3{20, -35, 10}
	got := EulerAnglesDeg(EulerDeg(angles))
	if !vecNear(got, angles, 1e-6) {
		t.Fatalf("unexpected angles %v", got)
	}
}
