package vehicle

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/aero"
	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/config"
	"driftpursuit/vehicles/internal/control"
	"driftpursuit/vehicles/internal/curve"
	"driftpursuit/vehicles/internal/debug"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/physics"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) PublishVehicleEvent(event Event) { r.events = append(r.events, event) }

func (r *recordingSink) kinds(kind EventKind) []PartID {
	var ids []PartID
	for _, event := range r.events {
		if event.Kind == kind {
			ids = append(ids, event.Part)
		}
	}
	return ids
}

func structureConfig(mass float64) *PartConfig {
	data := aero.DefaultData()
	data.LiftCurve = curve.Constant(1)
	return &PartConfig{
		Name:              "panel",
		Kind:              KindStructure,
		Mass:              mass,
		ExplosionVelocity: 10,
		Aerodynamics:      &data,
		Colliders:         []Collider{{Size: mgl64.Vec3{2, 0.2, 1}}},
	}
}

func engineConfig(gimbal bool) *PartConfig {
	return &PartConfig{
		Name:      "engine",
		Kind:      KindEngine,
		Mass:      100,
		Colliders: []Collider{{Size: mgl64.Vec3{1, 1, 2}}},
		Engine: &EngineConfig{
			ThrustSL:             2000,
			LocalThrustDirection: mgl64.Vec3{0, 0, 1},
			GimbalEnabled:        gimbal,
			GimbalLimit:          5,
		},
	}
}

func surfaceConfig() *PartConfig {
	data := aero.DefaultData()
	data.LiftCurve = curve.Linear([2]float64{-0.02, -1}, [2]float64{0.02, 1})
	return &PartConfig{
		Name:         "elevator",
		Kind:         KindControlSurface,
		Mass:         10,
		Aerodynamics: &data,
		Colliders:    []Collider{{Size: mgl64.Vec3{1, 0.1, 0.5}}},
		Surface: &SurfaceConfig{
			Keys: [2]string{"i", "k"},
			Axis: physics.AxisX,
			PID:  control.PID{Kp: 1},
		},
	}
}

func tankConfig() *PartConfig {
	return &PartConfig{
		Name:      "tank",
		Kind:      KindTankContainer,
		Colliders: []Collider{{Size: mgl64.Vec3{2, 2, 2}}},
		Tank: &TankConfig{
			Radius:          1,
			Height:          2,
			MaterialDensity: 2.7,
			Tanks: []TankLoad{
				{Propellant: Propellant{CodeName: "LOX", Density: 1.14}, Volume: 100},
			},
		},
	}
}

func at(x, y, z float64) physics.Frame {
	return physics.NewFrame(mgl64.Vec3{x, y, z}, mgl64.QuatIdent())
}

func newTestVehicle(t *testing.T, opts ...Option) *Vehicle {
	t.Helper()
	return New("test", nil, opts...)
}

func mustAdd(t *testing.T, v *Vehicle, parts ...*Part) {
	t.Helper()
	if err := v.AddParts(parts...); err != nil {
		t.Fatalf("add parts: %v", err)
	}
}

func sumWeights(v *Vehicle) float64 {
	total := 0.0
	for _, part := range v.Parts() {
		total += part.Weight()
	}
	return total
}

func TestMassTracksPartListMutations(t *testing.T) {
	v := newTestVehicle(t)
	mustAdd(t, v, NewPart("wing", structureConfig(120), at(1, 0, 0)))
	mustAdd(t, v, NewPart("engine", engineConfig(false), at(0, 0, -2)))
	mustAdd(t, v, NewPart("tank", tankConfig(), at(0, 0, 1)))
	//1.- Every mutation keeps the mass equal to the sum of weights.
	if math.Abs(v.Mass()-sumWeights(v)) > 1e-9 || v.Body().Mass() != v.Mass() {
		t.Fatalf("mass %v does not match weights %v", v.Mass(), sumWeights(v))
	}
	if err := v.RemovePart("engine"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if math.Abs(v.Mass()-sumWeights(v)) > 1e-9 {
		t.Fatalf("mass %v does not match weights %v after removal", v.Mass(), sumWeights(v))
	}
	if err := v.RemovePart("engine"); !errors.Is(err, ErrUnknownPart) {
		t.Fatalf("expected ErrUnknownPart, got %v", err)
	}
}

func TestCenterOfMassIsIdempotent(t *testing.T) {
	v := newTestVehicle(t)
	mustAdd(t, v,
		NewPart("left", structureConfig(100), at(1, 0, 0)),
		NewPart("right", structureConfig(300), at(-1, 0, 0)),
	)
	v.RecomputeMassProperties()
	first := v.CenterOfMass()
	v.RecomputeMassProperties()
	if v.CenterOfMass() != first {
		t.Fatalf("centre of mass drifted: %v then %v", first, v.CenterOfMass())
	}
	if !first.ApproxEqualThreshold(mgl64.Vec3{-0.5, 0, 0}, 1e-12) {
		t.Fatalf("expected (-0.5, 0, 0), got %v", first)
	}
}

func TestEmptyVehicleIsNotDynamic(t *testing.T) {
	v := newTestVehicle(t)
	if v.Dynamic() {
		t.Fatalf("vehicle without parts must be kinematic")
	}
	mustAdd(t, v, NewPart("wing", structureConfig(50), physics.Identity()))
	if !v.Dynamic() {
		t.Fatalf("vehicle with a massive part should be dynamic")
	}
	if err := v.RemovePart("wing"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if v.Dynamic() || v.CenterOfMass() != physics.Zero {
		t.Fatalf("emptied vehicle must be kinematic with a zero centre of mass")
	}
}

func TestDegenerateInertiaFreezesVehicle(t *testing.T) {
	v := newTestVehicle(t)
	cfg := structureConfig(50)
	cfg.Colliders = nil
	mustAdd(t, v, NewPart("ghost", cfg, physics.Identity()))
	if v.Dynamic() {
		t.Fatalf("vehicle without colliders has no inertia and must stay kinematic")
	}
}

func TestEnvironmentHonoursZeroValues(t *testing.T) {
	v := newTestVehicle(t, WithEnvironment(config.EnvironmentConfig{}))
	if v.AirDensity() != 0 || v.Gravity() != (mgl64.Vec3{}) {
		t.Fatalf("vacuum without gravity became density %v gravity %v", v.AirDensity(), v.Gravity())
	}
	v = newTestVehicle(t, WithEnvironment(config.EnvironmentConfig{AirDensity: 0.5, Gravity: 1.62}))
	if v.AirDensity() != 0.5 || v.Gravity() != (mgl64.Vec3{0, -1.62, 0}) {
		t.Fatalf("environment not applied: density %v gravity %v", v.AirDensity(), v.Gravity())
	}
	//1.- Without air no aerodynamic force reaches a moving vehicle.
	v = newTestVehicle(t, WithEnvironment(config.EnvironmentConfig{}))
	mustAdd(t, v, NewPart("wing", surfaceConfig(), physics.Identity()))
	v.Body().(*physics.RigidBody).SetVelocity(mgl64.Vec3{0, 0, 80})
	v.ApplyForces(0.02)
	v.Integrate(0.02)
	if got := v.Body().Velocity(); got != (mgl64.Vec3{0, 0, 80}) {
		t.Fatalf("vacuum flight changed velocity to %v", got)
	}
}

func TestMirroringFlipsOnlyLateralComponent(t *testing.T) {
	cfg := structureConfig(10)
	cfg.CenterOfMass = mgl64.Vec3{0.5, 0.3, 0.2}
	cfg.Aerodynamics.LocalAerodynamicCenter = mgl64.Vec3{0.7, -0.1, 0.4}
	v := newTestVehicle(t)
	part := NewPart("wing_r", cfg, physics.Identity())
	part.Mirrored = true
	mustAdd(t, v, part)
	if got := part.AdjustedLocalCenterOfMass(); got != (mgl64.Vec3{-0.5, 0.3, 0.2}) {
		t.Fatalf("mirrored centre of mass = %v", got)
	}
	if got := aero.AdjustedLocalAerodynamicCenter(part); got != (mgl64.Vec3{-0.7, -0.1, 0.4}) {
		t.Fatalf("mirrored aerodynamic centre = %v", got)
	}
	if cfg.CenterOfMass[0] != 0.5 {
		t.Fatalf("mirroring must not mutate the shared config")
	}
}

func TestMirroringFollowsConfiguredRightAxis(t *testing.T) {
	cfg := structureConfig(10)
	cfg.LocalRight = mgl64.Vec3{0, 1, 0}
	cfg.CenterOfMass = mgl64.Vec3{0.5, 0.3, 0.2}
	cfg.Aerodynamics.LocalAerodynamicCenter = mgl64.Vec3{0.7, -0.1, 0.4}
	cfg.Colliders = []Collider{{Center: mgl64.Vec3{0.25, 0.5, 0}, Size: mgl64.Vec3{1, 1, 1}}}
	v := newTestVehicle(t)
	part := NewPart("fin", cfg, physics.Identity())
	part.Mirrored = true
	mustAdd(t, v, part)
	//1.- Only the component along the right axis changes sign.
	if got := part.AdjustedLocalCenterOfMass(); got != (mgl64.Vec3{0.5, -0.3, 0.2}) {
		t.Fatalf("mirrored centre of mass = %v", got)
	}
	if got := aero.AdjustedLocalAerodynamicCenter(part); got != (mgl64.Vec3{0.7, 0.1, 0.4}) {
		t.Fatalf("mirrored aerodynamic centre = %v", got)
	}
	if got := part.colliderBoxes()[0].Center; got != (mgl64.Vec3{0.25, -0.5, 0}) {
		t.Fatalf("mirrored collider centre = %v", got)
	}
}

func TestHeadOnLiftThroughVehicle(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("wing", structureConfig(100), at(2, 0, 0))
	mustAdd(t, v, part)
	//1.- 100 m/s head on at sea level density gives 0.5*1*1.225*100²*1.
	got := part.Calculator().ComputeForces(part, 0, mgl64.Vec3{0, 0, 100}, physics.Zero)
	if math.Abs(got.Force.Len()-6125) > 1e-6 {
		t.Fatalf("expected 6125 N, got %v", got.Force.Len())
	}
	//2.- The centre of lift sits on the only lifting part.
	center, ok := v.CenterOfLift()
	if !ok || !center.ApproxEqualThreshold(mgl64.Vec3{2, 0, 0}, 1e-9) {
		t.Fatalf("centre of lift = %v (ok=%v)", center, ok)
	}
}

func TestCenterOfLiftWithoutLift(t *testing.T) {
	v := newTestVehicle(t)
	mustAdd(t, v, NewPart("wing", structureConfig(100), physics.Identity()))
	if _, ok := v.CenterOfLift(); ok {
		t.Fatalf("no lift has been computed yet")
	}
}

func TestThrottleStaysClamped(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("engine", engineConfig(false), physics.Identity())
	mustAdd(t, v, part)
	engine := part.Engine()
	//1.- Idle engines ignore the throttle.
	engine.ThrottleUp(1)
	if engine.Throttle() != 0 {
		t.Fatalf("idle throttle moved to %v", engine.Throttle())
	}
	if err := engine.Ignite(); err != nil {
		t.Fatalf("ignite: %v", err)
	}
	for i := 0; i < 1000; i++ {
		engine.ThrottleUp(0.02)
		if engine.Throttle() > 1 {
			t.Fatalf("throttle exceeded 1: %v", engine.Throttle())
		}
	}
	if engine.Throttle() != 1 {
		t.Fatalf("expected full throttle, got %v", engine.Throttle())
	}
	//2.- Shutdown zeroes the throttle and throttling down from zero stays at zero.
	if err := engine.ShutDown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_ = engine.Ignite()
	engine.ThrottleDown(0.02)
	if engine.Throttle() != 0 {
		t.Fatalf("throttle went below zero: %v", engine.Throttle())
	}
}

func TestNonGimbalingEngineIsAConfigurationError(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("engine", engineConfig(false), physics.Identity())
	mustAdd(t, v, part)
	if _, err := part.Engine().GimbalInput(input.NewStatic("w"), config.KeyBindings{GimbalUp: "w"}); !errors.Is(err, ErrNoGimbal) {
		t.Fatalf("expected ErrNoGimbal, got %v", err)
	}
	if err := part.Engine().TryGimbal(mgl64.Vec4{5, 0, 0, 0}); !errors.Is(err, ErrNoGimbal) {
		t.Fatalf("expected ErrNoGimbal, got %v", err)
	}
}

func TestGimbalRotatesThrustAndPivotTogether(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("engine", engineConfig(true), physics.Identity())
	mustAdd(t, v, part)
	engine := part.Engine()
	_ = engine.Ignite()
	engine.ThrottleUp(2)
	keys := config.KeyBindings{GimbalRight: "d", GimbalLeft: "a", GimbalUp: "w", GimbalDown: "s"}
	gimbal, err := engine.GimbalInput(input.NewStatic("w"), keys)
	if err != nil {
		t.Fatalf("gimbal input: %v", err)
	}
	if gimbal != (mgl64.Vec4{0, 0, 5, 0}) {
		t.Fatalf("unexpected gimbal input %v", gimbal)
	}
	if err := engine.TryGimbal(gimbal); err != nil {
		t.Fatalf("try gimbal: %v", err)
	}
	if engine.GimbalDeflection() != (mgl64.Vec3{-5, 0, 0}) {
		t.Fatalf("unexpected deflection %v", engine.GimbalDeflection())
	}
	thrust := engine.ThrustVector()
	if math.Abs(physics.Angle(thrust, mgl64.Vec3{0, 0, 1})-5) > 1e-9 || math.Abs(thrust.Len()-2000) > 1e-9 {
		t.Fatalf("thrust not deflected by the gimbal limit: %v", thrust)
	}
	if !engine.PivotRotation().ApproxEqualThreshold(engine.ThrustRotation(), 1e-12) {
		t.Fatalf("pivot %v and thrust %v rotations diverged", engine.PivotRotation(), engine.ThrustRotation())
	}
}

func TestDiagonalGimbalStaysWithinLimit(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("engine", engineConfig(true), physics.Identity())
	mustAdd(t, v, part)
	engine := part.Engine()
	keys := config.KeyBindings{GimbalRight: "d", GimbalLeft: "a", GimbalUp: "w", GimbalDown: "s"}
	gimbal, err := engine.GimbalInput(input.NewStatic("w", "d"), keys)
	if err != nil {
		t.Fatalf("gimbal input: %v", err)
	}
	if err := engine.TryGimbal(gimbal); err != nil {
		t.Fatalf("try gimbal: %v", err)
	}
	deflection := engine.GimbalDeflection()
	if math.Abs(deflection.Len()-5) > 1e-9 {
		t.Fatalf("diagonal deflection %v has magnitude %v, want the limit", deflection, deflection.Len())
	}
	//1.- Both axes still deflect, equally.
	if deflection[0] >= 0 || deflection[2] <= 0 || math.Abs(deflection[0]+deflection[2]) > 1e-9 {
		t.Fatalf("unexpected diagonal direction %v", deflection)
	}
}

func TestTotalThrustIsWorldSpaceReaction(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("engine", engineConfig(false), physics.Identity())
	mustAdd(t, v, part)
	_ = part.Engine().Ignite()
	part.Engine().ThrottleUp(2)
	if got := v.TotalThrust(); !got.ApproxEqualThreshold(mgl64.Vec3{0, 0, -2000}, 1e-9) {
		t.Fatalf("total thrust = %v", got)
	}
}

func TestStepIntegratesThrustAndGravity(t *testing.T) {
	cfg := engineConfig(false)
	cfg.Engine.LocalThrustDirection = mgl64.Vec3{0, -1, 0}
	v := newTestVehicle(t)
	part := NewPart("engine", cfg, physics.Identity())
	mustAdd(t, v, part)
	_ = part.Engine().Ignite()
	part.Engine().ThrottleUp(2)
	v.Step(0.02)
	//1.- 2000 N up on 100 kg against 9.82 m/s² of gravity for 20 ms.
	want := (2000.0/100 - 9.82) * 0.02
	got := v.Body().Velocity()
	if math.Abs(got[1]-want) > 1e-9 || got[0] != 0 || got[2] != 0 {
		t.Fatalf("velocity = %v, want (0, %v, 0)", got, want)
	}
	if v.Body().AngularVelocity() != physics.Zero {
		t.Fatalf("thrust through the centre of mass must not spin the body")
	}
}

func TestExplosionCascadesToChildren(t *testing.T) {
	sink := &recordingSink{}
	manager := audio.NewManager(audio.NewLibrary(audio.Clip{Name: ExplosionClip, Length: 3}))
	v := newTestVehicle(t, WithServices(Services{Audio: manager, Events: sink}))
	fuselage := NewPart("fuselage", structureConfig(500), physics.Identity())
	fuselage.Children = []PartID{"wing_l", "wing_r"}
	mustAdd(t, v,
		fuselage,
		NewPart("wing_l", structureConfig(100), at(-2, 0, 0)),
		NewPart("wing_r", structureConfig(100), at(2, 0, 0)),
		NewPart("tail", structureConfig(50), at(0, 0, -4)),
	)
	before := v.PartCount()
	if err := v.Explode("fuselage"); err != nil {
		t.Fatalf("explode: %v", err)
	}
	//1.- Exactly the parent and its two children are gone.
	if before-v.PartCount() != 3 {
		t.Fatalf("expected 3 parts removed, got %d", before-v.PartCount())
	}
	if _, ok := v.Part("tail"); !ok {
		t.Fatalf("unrelated part was destroyed")
	}
	//2.- Children explode before their parent.
	order := sink.kinds(EventExplode)
	if len(order) != 3 || order[2] != "fuselage" {
		t.Fatalf("unexpected explosion order %v", order)
	}
	if manager.ActiveCount() != 3 {
		t.Fatalf("expected three explosion sounds, got %d", manager.ActiveCount())
	}
	if v.Mass() != 50 || fuselage.Vehicle() != nil {
		t.Fatalf("mass %v after explosion, detached=%v", v.Mass(), fuselage.Vehicle() == nil)
	}
}

func TestHandleCollisionRespectsThreshold(t *testing.T) {
	v := newTestVehicle(t)
	mustAdd(t, v, NewPart("wing", structureConfig(100), physics.Identity()))
	exploded, err := v.HandleCollision("wing", mgl64.Vec3{0, -10, 0})
	if err != nil || exploded {
		t.Fatalf("impact at the threshold must not explode: exploded=%v err=%v", exploded, err)
	}
	exploded, err = v.HandleCollision("wing", mgl64.Vec3{0, -10.5, 0})
	if err != nil || !exploded || v.PartCount() != 0 {
		t.Fatalf("impact above the threshold must explode: exploded=%v err=%v parts=%d", exploded, err, v.PartCount())
	}
	if _, err := v.HandleCollision("wing", mgl64.Vec3{}); !errors.Is(err, ErrUnknownPart) {
		t.Fatalf("expected ErrUnknownPart, got %v", err)
	}
}

func TestTankVolumesAndWeight(t *testing.T) {
	v := newTestVehicle(t)
	part := NewPart("tank", tankConfig(), physics.Identity())
	mustAdd(t, v, part)
	tank := part.Tank()
	cases := map[string]float64{
		"m3":  2 * math.Pi,
		"l":   2000 * math.Pi,
		"dm3": 2000 * math.Pi,
		"ml":  2e6 * math.Pi,
		"cm3": 2e6 * math.Pi,
	}
	for unit, want := range cases {
		got, err := tank.Volume(unit)
		if err != nil || math.Abs(got-want) > 1e-6 {
			t.Fatalf("Volume(%q) = %v, %v; want %v", unit, got, err, want)
		}
	}
	for _, unit := range []string{"", "gal"} {
		if _, err := tank.Volume(unit); !errors.Is(err, ErrUnknownUnit) {
			t.Fatalf("Volume(%q) expected ErrUnknownUnit, got %v", unit, err)
		}
	}
	inner := 1 - DefaultWallThickness
	wall := (math.Pi - math.Pi*inner*inner) * 2 * 1000
	want := 1.14*100 + 2.7*wall
	if math.Abs(part.Weight()-want) > 1e-9 {
		t.Fatalf("tank weight = %v, want %v", part.Weight(), want)
	}
}

func TestInvalidPartsAreRejected(t *testing.T) {
	v := newTestVehicle(t)
	cfg := engineConfig(false)
	cfg.Engine = nil
	if err := v.AddPart(NewPart("engine", cfg, physics.Identity())); !errors.Is(err, ErrInvalidPart) {
		t.Fatalf("expected ErrInvalidPart, got %v", err)
	}
	mustAdd(t, v, NewPart("wing", structureConfig(1), physics.Identity()))
	if err := v.AddPart(NewPart("wing", structureConfig(1), physics.Identity())); !errors.Is(err, ErrDuplicatePart) {
		t.Fatalf("expected ErrDuplicatePart, got %v", err)
	}
	if v.PartCount() != 1 {
		t.Fatalf("rejected parts must not be attached")
	}
}

func TestCommandingPart(t *testing.T) {
	v := newTestVehicle(t)
	if v.CommandingPart() != nil {
		t.Fatalf("empty vehicle has no commanding part")
	}
	pod := NewPart("pod", structureConfig(10), physics.Identity())
	pod.Commanding = true
	mustAdd(t, v, NewPart("wing", structureConfig(10), at(1, 0, 0)), pod)
	if v.CommandingPart() != pod {
		t.Fatalf("expected the pod to command")
	}
}

func TestDebugVectorsFollowForces(t *testing.T) {
	channel := debug.NewChannel()
	v := newTestVehicle(t,
		WithServices(Services{Debug: channel}),
		WithDebug(config.DebugConfig{Enabled: true, DrawLift: true, DrawDrag: true, InitialVelocity: [3]float64{0, 0, 50}}),
	)
	mustAdd(t, v, NewPart("wing", structureConfig(100), physics.Identity()))
	v.ApplyForces(0.02)
	if _, err := channel.Item("Speed"); err != nil {
		t.Fatalf("speed overlay missing: %v", err)
	}
	lift, ok := channel.Vector("L_wing")
	if !ok || lift.Color != debug.Blue || lift.Direction == physics.Zero {
		t.Fatalf("lift vector not drawn: %+v", lift)
	}
	if _, ok := channel.Vector("D_wing"); !ok {
		t.Fatalf("drag vector not drawn")
	}
	if err := v.Explode("wing"); err != nil {
		t.Fatalf("explode: %v", err)
	}
	if _, ok := channel.Vector("L_wing"); ok {
		t.Fatalf("destroyed part left its vectors behind")
	}
}
