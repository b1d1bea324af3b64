package catalog

import (
	"errors"
	"math"
	"testing"

	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/vehicle"
)

func TestDefaultCatalogDecodes(t *testing.T) {
	//1.- Every shipped part is present and named after its key.
	c := Default()
	for _, name := range []string{"wing", "elevator", "rudder", "fuselage", "rs-25", "swoosher", "wheel", "tank"} {
		cfg, err := c.Part(name)
		if err != nil {
			t.Fatalf("part %s: %v", name, err)
		}
		if cfg.Name != name {
			t.Fatalf("part %s carries name %q", name, cfg.Name)
		}
	}
	if len(c.PartNames()) != 8 {
		t.Fatalf("unexpected part list %v", c.PartNames())
	}
	//2.- Tank loads resolve their propellant from the table.
	tank, _ := c.Part("tank")
	if lox := tank.Tank.Tanks[1].Propellant; lox.DisplayName != "Liquid Oxygen" || lox.Density != 1.141 {
		t.Fatalf("propellant not resolved: %+v", lox)
	}
	if _, err := c.Propellant("LH2"); err != nil {
		t.Fatalf("LH2 lookup: %v", err)
	}
	//3.- Engine sounds reference clips in the library.
	lib := c.Library()
	for _, name := range []string{"rs-25", "swoosher"} {
		cfg, _ := c.Part(name)
		for _, clip := range []string{cfg.Engine.Sounds.Ignition, cfg.Engine.Sounds.Running, cfg.Engine.Sounds.Shutdown} {
			if _, err := lib.Find(clip); err != nil {
				t.Fatalf("engine %s: %v", name, err)
			}
		}
	}
	if _, err := lib.Find(vehicle.ExplosionClip); err != nil {
		t.Fatalf("explosion clip missing: %v", err)
	}
}

func TestLookupsRejectUnknownNames(t *testing.T) {
	c := Default()
	if _, err := c.Part("hoverboard"); !errors.Is(err, ErrUnknownPart) {
		t.Fatalf("expected ErrUnknownPart, got %v", err)
	}
	if _, err := c.Layout("zeppelin"); !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
	if _, err := c.Assemble("x", "zeppelin", nil); !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout from Assemble, got %v", err)
	}
	if _, err := c.Propellant("N2O4"); !errors.Is(err, ErrUnknownPropellant) {
		t.Fatalf("expected ErrUnknownPropellant, got %v", err)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := map[string]struct {
		payload string
		want    error
	}{
		"propellant": {`{"parts":{"t":{"kind":"tankContainer","tank":{"radius":1,"height":1,"tanks":[{"propellant":{"codeName":"XX"},"volume":1}]}}}}`, ErrUnknownPropellant},
		"kind":       {`{"parts":{"p":{"kind":"hovercraft"}}}`, vehicle.ErrInvalidPart},
		"layout":     {`{"parts":{},"layouts":{"l":[{"id":"a","part":"ghost"}]}}`, ErrUnknownPart},
	}
	for name, tc := range cases {
		if _, err := Decode([]byte(tc.payload)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("expected a decode error for truncated json")
	}
}

func TestAssembleGlider(t *testing.T) {
	sink := &countingSink{}
	services := vehicle.Services{
		Logger: logging.NewTestLogger(),
		Audio:  audio.NewManager(Default().Library()),
		Events: sink,
	}
	v, err := Default().Assemble("glider-1", "glider", nil, vehicle.WithServices(services))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	//1.- Placements become parts with their flags.
	if v.PartCount() != 9 {
		t.Fatalf("expected 9 parts, got %d", v.PartCount())
	}
	if commanding := v.CommandingPart(); commanding == nil || commanding.ID != "fuselage" {
		t.Fatalf("fuselage should command the glider")
	}
	left, _ := v.Part("wing-left")
	if !left.Mirrored || left.AdjustedLocalCenterOfMass()[0] >= 0 {
		t.Fatalf("left wing should be mirrored onto -X, com %v", left.AdjustedLocalCenterOfMass())
	}
	if len(v.Engines()) != 1 || len(v.Surfaces()) != 2 {
		t.Fatalf("unexpected engines %d surfaces %d", len(v.Engines()), len(v.Surfaces()))
	}
	//2.- Mass is the sum of part weights, tank contents included.
	total := 0.0
	for _, part := range v.Parts() {
		total += part.Weight()
	}
	if math.Abs(v.Mass()-total) > 1e-6 || !v.Dynamic() {
		t.Fatalf("mass %v want %v dynamic %v", v.Mass(), total, v.Dynamic())
	}
	//3.- Destroying the fuselage takes every child with it.
	if err := v.Explode("fuselage"); err != nil {
		t.Fatalf("explode: %v", err)
	}
	if v.PartCount() != 0 || sink.explosions != 9 {
		t.Fatalf("cascade left %d parts after %d explosions", v.PartCount(), sink.explosions)
	}
}

func TestAssembleRocketPointsThrustUp(t *testing.T) {
	v, err := Default().Assemble("rocket-1", "rocket", nil, vehicle.WithServices(vehicle.Services{Logger: logging.NewTestLogger()}))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	engine := v.Engines()[0]
	_ = engine.Ignite()
	engine.ThrottleUp(2)
	thrust := v.TotalThrust()
	if thrust[1] <= 0 || math.Abs(thrust[0]) > 1e-6 || math.Abs(thrust[2]) > 1e-3 {
		t.Fatalf("rocket thrust should point up, got %v", thrust)
	}
}

type countingSink struct {
	explosions int
}

func (s *countingSink) PublishVehicleEvent(event vehicle.Event) {
	if event.Kind == vehicle.EventExplode {
		s.explosions++
	}
}
