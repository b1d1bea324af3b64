// Package catalog holds the authored part configurations, propellants, sound clips and
// assembly layouts shipped with the simulator.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	_ "embed"

	"github.com/go-gl/mathgl/mgl64"

	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/physics"
	"driftpursuit/vehicles/internal/vehicle"
)

var (
	// ErrUnknownPart is returned for part names missing from the catalog.
	ErrUnknownPart = errors.New("catalog: unknown part")
	// ErrUnknownLayout is returned for layout names missing from the catalog.
	ErrUnknownLayout = errors.New("catalog: unknown layout")
	// ErrUnknownPropellant is returned when a tank references a propellant that is not listed.
	ErrUnknownPropellant = errors.New("catalog: unknown propellant")
)

// Placement positions one part instance inside a layout.
type Placement struct {
	ID   string `json:"id"`
	Part string `json:"part"`
	// Position is in vehicle-local metres.
	Position mgl64.Vec3 `json:"position"`
	// Rotation is in Euler degrees.
	Rotation   mgl64.Vec3 `json:"rotation"`
	Mirrored   bool       `json:"mirrored"`
	Commanding bool       `json:"commanding"`
	Children   []string   `json:"children"`
}

// Catalog indexes the authored data by name.
type Catalog struct {
	Clips       []audio.Clip                   `json:"clips"`
	Propellants []vehicle.Propellant           `json:"propellants"`
	Parts       map[string]*vehicle.PartConfig `json:"parts"`
	Layouts     map[string][]Placement         `json:"layouts"`
}

//go:embed parts.json
var partsPayload []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default exposes the embedded catalog decoded once.
func Default() *Catalog {
	defaultOnce.Do(func() {
		//1.- Parse the embedded payload exactly once.
		defaultCatalog, defaultErr = Decode(partsPayload)
	})
	//2.- A broken payload is a build defect, fail loudly.
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCatalog
}

// Decode parses and validates a catalog payload. Tank loads only need a propellant code
// name; the rest is filled from the propellant table.
func Decode(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	propellants := make(map[string]vehicle.Propellant, len(c.Propellants))
	for _, propellant := range c.Propellants {
		propellants[propellant.CodeName] = propellant
	}
	for name, cfg := range c.Parts {
		if cfg == nil {
			return nil, fmt.Errorf("%w %q: empty entry", vehicle.ErrInvalidPart, name)
		}
		if cfg.Name == "" {
			cfg.Name = name
		}
		if cfg.Tank != nil {
			for i, load := range cfg.Tank.Tanks {
				resolved, ok := propellants[load.Propellant.CodeName]
				if !ok {
					return nil, fmt.Errorf("%w: %q in part %s", ErrUnknownPropellant, load.Propellant.CodeName, name)
				}
				cfg.Tank.Tanks[i].Propellant = resolved
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	for name, layout := range c.Layouts {
		for _, placement := range layout {
			if _, ok := c.Parts[placement.Part]; !ok {
				return nil, fmt.Errorf("layout %s: %w: %q", name, ErrUnknownPart, placement.Part)
			}
		}
	}
	return &c, nil
}

// Part returns the shared configuration registered under name.
func (c *Catalog) Part(name string) (*vehicle.PartConfig, error) {
	cfg, ok := c.Parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPart, name)
	}
	return cfg, nil
}

// PartNames lists the catalog parts in lexical order.
func (c *Catalog) PartNames() []string {
	names := make([]string, 0, len(c.Parts))
	for name := range c.Parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Propellant looks a propellant up by code name.
func (c *Catalog) Propellant(code string) (vehicle.Propellant, error) {
	for _, propellant := range c.Propellants {
		if propellant.CodeName == code {
			return propellant, nil
		}
	}
	return vehicle.Propellant{}, fmt.Errorf("%w: %q", ErrUnknownPropellant, code)
}

// Library builds an audio library from the catalog clips.
func (c *Catalog) Library() *audio.Library {
	return audio.NewLibrary(c.Clips...)
}

// Layout returns the placements of a named layout.
func (c *Catalog) Layout(name string) ([]Placement, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return layout, nil
}

// Assemble builds the named layout as a vehicle with the given id on body. A nil body gets
// an in-process rigid body at the origin.
func (c *Catalog) Assemble(id, layout string, body physics.Body, opts ...vehicle.Option) (*vehicle.Vehicle, error) {
	placements, err := c.Layout(layout)
	if err != nil {
		return nil, err
	}
	//1.- Instantiate every placement before attaching so the batch validates as a whole.
	parts := make([]*vehicle.Part, 0, len(placements))
	for _, placement := range placements {
		cfg, err := c.Part(placement.Part)
		if err != nil {
			return nil, fmt.Errorf("placement %s: %w", placement.ID, err)
		}
		pose := physics.NewFrame(placement.Position, physics.EulerDeg(placement.Rotation))
		part := vehicle.NewPart(vehicle.PartID(placement.ID), cfg, pose)
		part.Mirrored = placement.Mirrored
		part.Commanding = placement.Commanding
		for _, child := range placement.Children {
			part.Children = append(part.Children, vehicle.PartID(child))
		}
		parts = append(parts, part)
	}
	//2.- Attach in one batch so mass and inertia are computed once.
	v := vehicle.New(id, body, opts...)
	if err := v.AddParts(parts...); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", layout, err)
	}
	return v, nil
}
