// Package simulation steps vehicles at a fixed rate: input, forces, integration, ground
// contact and telemetry, in that order every tick.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"driftpursuit/vehicles/internal/audio"
	"driftpursuit/vehicles/internal/input"
	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/telemetry"
	"driftpursuit/vehicles/internal/vehicle"
)

// ErrDuplicateVehicle is returned when a vehicle id is added twice.
var ErrDuplicateVehicle = errors.New("simulation: duplicate vehicle")

// FrameRecorder receives the tick clock and a telemetry frame per vehicle per tick.
type FrameRecorder interface {
	SetClock(tick uint64, simulatedMs int64)
	RecordFrame(frame telemetry.Frame) error
}

// clocked is implemented by inputs that follow the simulated clock, such as scripts.
type clocked interface {
	Advance(now float64)
}

type entity struct {
	vehicle    *vehicle.Vehicle
	controller *vehicle.Controller
	input      input.Source
}

// World owns vehicles and advances them with a fixed step.
type World struct {
	ID string

	step     float64
	tick     uint64
	entities []*entity
	byID     map[string]*entity
	terrain  SignedDistanceField
	contacts map[string]bool
	monitor  *TickMonitor
	recorder FrameRecorder
	log      *logging.Logger
	now      func() time.Time
}

// Option customises a world.
type Option func(*World)

// WithTerrain enables ground contact against field.
func WithTerrain(field SignedDistanceField) Option {
	return func(w *World) { w.terrain = field }
}

// WithMonitor reports step durations to monitor.
func WithMonitor(monitor *TickMonitor) Option {
	return func(w *World) { w.monitor = monitor }
}

// WithRecorder streams telemetry into recorder.
func WithRecorder(recorder FrameRecorder) Option {
	return func(w *World) { w.recorder = recorder }
}

// WithLogger sets the world logger.
func WithLogger(logger *logging.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.log = logger
		}
	}
}

// WithClock replaces the wall clock used for step timing.
func WithClock(now func() time.Time) Option {
	return func(w *World) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorld creates an empty world stepping step seconds per tick.
func NewWorld(id string, step float64, opts ...Option) *World {
	if !(step > 0) {
		step = 1.0 / 50
	}
	w := &World{
		ID:       id,
		step:     step,
		byID:     make(map[string]*entity),
		contacts: make(map[string]bool),
		log:      logging.L(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.log = w.log.With(logging.String("world", id))
	return w
}

// AddVehicle registers v. controller and in may be nil for uncontrolled vehicles.
func (w *World) AddVehicle(v *vehicle.Vehicle, controller *vehicle.Controller, in input.Source) error {
	if v == nil {
		return fmt.Errorf("simulation: nil vehicle")
	}
	if _, exists := w.byID[v.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID)
	}
	if in == nil {
		in = input.None
	}
	e := &entity{vehicle: v, controller: controller, input: in}
	w.entities = append(w.entities, e)
	w.byID[v.ID] = e
	return nil
}

// Vehicle looks a vehicle up by id.
func (w *World) Vehicle(id string) (*vehicle.Vehicle, bool) {
	e, ok := w.byID[id]
	if !ok {
		return nil, false
	}
	return e.vehicle, true
}

// Vehicles returns the vehicles in insertion order.
func (w *World) Vehicles() []*vehicle.Vehicle {
	out := make([]*vehicle.Vehicle, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e.vehicle)
	}
	return out
}

// Tick returns how many steps have run.
func (w *World) Tick() uint64 { return w.tick }

// StepSeconds returns the fixed step.
func (w *World) StepSeconds() float64 { return w.step }

// Elapsed returns the simulated time.
func (w *World) Elapsed() time.Duration {
	return time.Duration(float64(w.tick) * w.step * float64(time.Second))
}

func (w *World) simulatedMs() int64 {
	return int64(math.Round(float64(w.tick) * w.step * 1000))
}

// Step advances every vehicle by one tick. Telemetry failures are returned after the whole
// tick has run.
func (w *World) Step() error {
	started := w.now()
	dt := w.step
	//1.- Inputs see the clock at the start of the tick.
	now := float64(w.tick) * dt
	w.tick++
	if w.recorder != nil {
		w.recorder.SetClock(w.tick, w.simulatedMs())
	}
	for _, e := range w.entities {
		if script, ok := e.input.(clocked); ok {
			script.Advance(now)
		}
		if e.controller != nil {
			e.controller.Update(e.input, dt)
		}
	}
	//2.- Forces, then integration, then ground contact.
	for _, e := range w.entities {
		e.vehicle.ApplyForces(dt)
	}
	for _, e := range w.entities {
		e.vehicle.Integrate(dt)
	}
	if w.terrain != nil {
		for _, e := range w.entities {
			w.collide(e.vehicle)
		}
	}
	//3.- Every audio manager advances once, however many vehicles share it.
	w.advanceAudio(dt)
	//4.- Telemetry describes the settled state.
	var errs error
	if w.recorder != nil {
		for _, e := range w.entities {
			if err := w.recorder.RecordFrame(telemetry.Capture(w.tick, w.simulatedMs(), e.vehicle)); err != nil {
				errs = errors.Join(errs, fmt.Errorf("record %s: %w", e.vehicle.ID, err))
			}
		}
	}
	w.monitor.Observe(w.now().Sub(started))
	return errs
}

func (w *World) advanceAudio(dt float64) {
	seen := make(map[*audio.Manager]bool, 1)
	for _, e := range w.entities {
		manager := e.vehicle.Services().Audio
		if manager == nil || seen[manager] {
			continue
		}
		seen[manager] = true
		manager.Advance(dt)
	}
}

// collide explodes parts that hit the terrain faster than they can take. Only the tick a
// collider enters contact counts as an impact.
func (w *World) collide(v *vehicle.Vehicle) {
	body := v.Body()
	for _, part := range v.Parts() {
		if _, attached := v.Part(part.ID); !attached {
			continue
		}
		key := v.ID + "/" + string(part.ID)
		touching := false
		for _, box := range part.WorldColliders() {
			hit, _ := SphereIntersection(w.terrain, box.Center, box.Size.Len()/2)
			if !hit {
				continue
			}
			touching = true
			if w.contacts[key] {
				break
			}
			velocity := body.PointVelocity(box.Center)
			if velocity.Dot(Gradient(w.terrain, box.Center, 0)) >= 0 {
				continue
			}
			exploded, err := v.HandleCollision(part.ID, velocity)
			if err != nil {
				w.log.Warn("collision handling failed", logging.String("part", string(part.ID)), logging.Error(err))
			}
			if exploded {
				w.log.Info("part destroyed on impact",
					logging.String("vehicle", v.ID),
					logging.String("part", string(part.ID)),
					logging.Float64("speed", velocity.Len()),
				)
			}
			break
		}
		if touching {
			w.contacts[key] = true
		} else {
			delete(w.contacts, key)
		}
	}
}

// Run steps ticks times, or until ctx is cancelled when ticks is zero.
func (w *World) Run(ctx context.Context, ticks int) error {
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			if ticks <= 0 {
				return nil
			}
			return err
		}
		if err := w.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunRealtime paces Run against the wall clock.
func (w *World) RunRealtime(ctx context.Context, ticks int) error {
	remaining := ticks
	loop := NewLoop(1/w.step, func(time.Duration) error {
		if err := w.Step(); err != nil {
			return err
		}
		if ticks > 0 {
			remaining--
			if remaining == 0 {
				return ErrStopLoop
			}
		}
		return nil
	})
	loop.Start(ctx)
	<-loop.Done()
	return loop.Err()
}
