package vehicle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/physics"
)

func near(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func surfaceVehicle(t *testing.T) (*Vehicle, *ControlSurface) {
	t.Helper()
	v := newTestVehicle(t)
	elevator := NewPart("elevator", surfaceConfig(), at(0, 0, -3))
	mustAdd(t, v, NewPart("fuselage", structureConfig(1000), physics.Identity()), elevator)
	return v, elevator.Surface()
}

func TestManualDeflectionAndRelaxation(t *testing.T) {
	_, surface := surfaceVehicle(t)
	//1.- At rest the full rate and limit are available.
	surface.UpdateDeflection([2]bool{true, false}, false, 1, 0.5)
	if !near(surface.Angle(), 8, 1e-9) || surface.SpeedDamping() != 1 {
		t.Fatalf("expected 8 degrees at full authority, got %v (damping %v)", surface.Angle(), surface.SpeedDamping())
	}
	surface.UpdateDeflection([2]bool{true, false}, false, 1, 1)
	if !near(surface.Angle(), DefaultSurfaceLimit, 1e-9) {
		t.Fatalf("deflection must clamp to the limit, got %v", surface.Angle())
	}
	surface.UpdateDeflection([2]bool{false, true}, false, 1, 0.5)
	if !near(surface.Angle(), 8, 1e-9) {
		t.Fatalf("negative key must reduce the angle, got %v", surface.Angle())
	}
	//2.- Released keys relax towards neutral at ten per second.
	surface.UpdateDeflection([2]bool{}, false, 1, 0.05)
	if !near(surface.Angle(), 4, 1e-9) {
		t.Fatalf("expected half relaxation, got %v", surface.Angle())
	}
	surface.UpdateDeflection([2]bool{}, false, 1, 0.1)
	if surface.Angle() != 0 {
		t.Fatalf("expected full relaxation, got %v", surface.Angle())
	}
	//3.- Non-positive steps change nothing.
	surface.SetAngle(3)
	surface.UpdateDeflection([2]bool{true, false}, false, 1, 0)
	if surface.Angle() != 3 {
		t.Fatalf("zero step moved the surface to %v", surface.Angle())
	}
}

func TestAuthorityShrinksWithSpeed(t *testing.T) {
	v, surface := surfaceVehicle(t)
	v.Body().(*physics.RigidBody).SetVelocity(mgl64.Vec3{0, 0, 200})
	surface.UpdateDeflection([2]bool{true, false}, false, 1, 10)
	want := 0.05 + 0.95*math.Pow(DefaultSurfaceDamping, -200)
	if !near(surface.SpeedDamping(), want, 1e-12) {
		t.Fatalf("damping = %v, want %v", surface.SpeedDamping(), want)
	}
	if !near(surface.Angle(), DefaultSurfaceLimit*want, 1e-9) {
		t.Fatalf("angle %v exceeds the damped limit %v", surface.Angle(), DefaultSurfaceLimit*want)
	}
}

func TestAssistHoldsNeutralWithoutRotation(t *testing.T) {
	v, surface := surfaceVehicle(t)
	v.Body().(*physics.RigidBody).SetVelocity(mgl64.Vec3{0, 0, 50})
	for i := 0; i < 10; i++ {
		surface.UpdateDeflection([2]bool{}, true, 1, 0.02)
	}
	if surface.Angle() != 0 {
		t.Fatalf("assist moved a steady vehicle to %v", surface.Angle())
	}
}

func TestAssistReactsToRotation(t *testing.T) {
	v, surface := surfaceVehicle(t)
	body := v.Body().(*physics.RigidBody)
	body.SetVelocity(mgl64.Vec3{0, 0, 50})
	body.SetAngularVelocity(mgl64.Vec3{1, 0, 0})
	for i := 0; i < 200; i++ {
		surface.UpdateDeflection([2]bool{}, true, 1, 0.02)
		if math.Abs(surface.Angle()) > DefaultSurfaceLimit*surface.SpeedDamping()+1e-9 {
			t.Fatalf("assist exceeded its authority: %v", surface.Angle())
		}
	}
	if surface.Angle() == 0 {
		t.Fatalf("assist ignored a pitch rate")
	}
}

func TestAssistTorqueOpposesRotation(t *testing.T) {
	for _, rate := range []float64{1, -1} {
		v, surface := surfaceVehicle(t)
		body := v.Body().(*physics.RigidBody)
		velocity := mgl64.Vec3{0, 0, 50}
		spin := mgl64.Vec3{rate, 0, 0}
		body.SetVelocity(velocity)
		body.SetAngularVelocity(spin)
		for i := 0; i < 50; i++ {
			surface.UpdateDeflection([2]bool{}, true, 1, 0.02)
		}
		if surface.Angle() == 0 {
			t.Fatalf("rate %v: assist left the surface neutral", rate)
		}
		//1.- The torque the deflection adds over neutral must damp the pitch rate.
		part := surface.part
		calc := part.Calculator()
		neutral := calc.ComputeForces(part, 0, velocity, spin).Torque
		deflected := calc.ComputeForces(part, surface.Angle(), velocity, spin).Torque
		change := deflected.Sub(neutral)[0]
		if change*rate >= 0 {
			t.Fatalf("rate %v: deflection %v adds pitch torque %v along the rotation", rate, surface.Angle(), change)
		}
	}
}

func TestControllerDrivesEnginesAndAssist(t *testing.T) {
	sink := &recordingSink{}
	v := newTestVehicle(t, WithServices(Services{Events: sink}))
	mustAdd(t, v, NewPart("engine", engineConfig(false), physics.Identity()))
	keys := config.KeyBindings{Ignite: "space", Shutdown: "x", ThrottleUp: "up", ThrottleDown: "down", ToggleSAS: "t", SASUp: "=", SASDown: "-"}
	controller := NewController(v, config.ControlConfig{SASStrength: 0.5, Keys: keys})
	engine := v.Engines()[0]

	//1.- Ignition reacts to the press edge.
	controller.Update(input.NewStatic().Press("space"), 0.02)
	if !engine.Burning() {
		t.Fatalf("engine did not ignite")
	}
	held := input.NewStatic("up", "=")
	for i := 0; i < 200; i++ {
		controller.Update(held, 0.02)
	}
	if engine.Throttle() != 1 || controller.SASStrength() != 1 {
		t.Fatalf("throttle %v and assist strength %v should saturate", engine.Throttle(), controller.SASStrength())
	}
	//2.- Toggling assist publishes its new state.
	controller.Update(input.NewStatic().Press("t"), 0.02)
	if !controller.SASEnabled() {
		t.Fatalf("assist did not toggle on")
	}
	last := sink.events[len(sink.events)-1]
	if last.Kind != EventSAS || last.Value != 1 || last.Vehicle != "test" {
		t.Fatalf("unexpected assist event %+v", last)
	}
	//3.- Shutdown zeroes the throttle.
	controller.Update(input.NewStatic().Press("x"), 0.02)
	if engine.Burning() || engine.Throttle() != 0 {
		t.Fatalf("engine still running at throttle %v", engine.Throttle())
	}
	if got := sink.kinds(EventIgnite); len(got) != 1 || got[0] != "engine" {
		t.Fatalf("unexpected ignite events %v", got)
	}
	if got := sink.kinds(EventShutdown); len(got) != 1 {
		t.Fatalf("unexpected shutdown events %v", got)
	}
}

func TestControllerGimbalsOnlyCapableEngines(t *testing.T) {
	v := newTestVehicle(t)
	mustAdd(t, v,
		NewPart("fixed", engineConfig(false), at(1, 0, 0)),
		NewPart("vectored", engineConfig(true), at(-1, 0, 0)),
	)
	keys := config.KeyBindings{GimbalRight: "d", GimbalLeft: "a", GimbalUp: "w", GimbalDown: "s"}
	controller := NewController(v, config.ControlConfig{Keys: keys})
	controller.Update(input.NewStatic("d"), 0.02)
	fixed, _ := v.Part("fixed")
	vectored, _ := v.Part("vectored")
	if fixed.Engine().GimbalDeflection() != physics.Zero {
		t.Fatalf("fixed engine gimbaled")
	}
	if vectored.Engine().GimbalDeflection() != (mgl64.Vec3{0, 0, 5}) {
		t.Fatalf("vectored engine deflection = %v", vectored.Engine().GimbalDeflection())
	}
}
