// Package telemetry snapshots vehicle state once per tick and encodes it in the protobuf
// wire format so recordings stay readable by any protobuf tooling.
package telemetry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/encoding/protowire"

	"driftpursuit/vehicles/internal/vehicle"
)

// ErrMalformedVector is returned when a packed vector has the wrong number of components.
var ErrMalformedVector = errors.New("telemetry: malformed vector")

// Frame field numbers.
const (
	fieldTick            protowire.Number = 1
	fieldSimulatedMs     protowire.Number = 2
	fieldVehicleID       protowire.Number = 3
	fieldPosition        protowire.Number = 4
	fieldRotation        protowire.Number = 5
	fieldVelocity        protowire.Number = 6
	fieldAngularVelocity protowire.Number = 7
	fieldMass            protowire.Number = 8
	fieldCenterOfMass    protowire.Number = 9
	fieldParts           protowire.Number = 10
	fieldKinematic       protowire.Number = 11
)

// PartSample field numbers.
const (
	partFieldID       protowire.Number = 1
	partFieldKind     protowire.Number = 2
	partFieldAoA      protowire.Number = 3
	partFieldLift     protowire.Number = 4
	partFieldDrag     protowire.Number = 5
	partFieldAngle    protowire.Number = 6
	partFieldThrottle protowire.Number = 7
	partFieldBurning  protowire.Number = 8
)

// PartSample is the per-part slice of a frame.
type PartSample struct {
	ID       string
	Kind     string
	AoA      float64
	Lift     mgl64.Vec3
	Drag     mgl64.Vec3
	Angle    float64
	Throttle float64
	Burning  bool
}

// Frame is one vehicle's state at the end of a tick.
type Frame struct {
	Tick            uint64
	SimulatedMs     int64
	VehicleID       string
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Mass            float64
	CenterOfMass    mgl64.Vec3
	Kinematic       bool
	Parts           []PartSample
}

// Capture snapshots v after the tick numbered tick.
func Capture(tick uint64, simulatedMs int64, v *vehicle.Vehicle) Frame {
	body := v.Body()
	frame := body.Frame()
	out := Frame{
		Tick:            tick,
		SimulatedMs:     simulatedMs,
		VehicleID:       v.ID,
		Position:        frame.Position,
		Rotation:        frame.Orientation(),
		Velocity:        body.Velocity(),
		AngularVelocity: body.AngularVelocity(),
		Mass:            v.Mass(),
		CenterOfMass:    v.CenterOfMass(),
		Kinematic:       body.Kinematic(),
	}
	for _, part := range v.Parts() {
		sample := PartSample{ID: string(part.ID), Kind: string(part.Kind())}
		if airframe, ok := part.Aerodynamic(); ok {
			last := airframe.Calculator().Last()
			sample.AoA = last.AoA
			sample.Lift = last.Lift
			sample.Drag = last.Drag
			sample.Angle = airframe.DeflectionAngle()
		}
		if engine := part.Engine(); engine != nil {
			sample.Throttle = engine.Throttle()
			sample.Burning = engine.Burning()
		}
		out.Parts = append(out.Parts, sample)
	}
	return out
}

// Encode appends the frame's wire encoding to b.
func (f Frame) Encode(b []byte) []byte {
	b = appendVarint(b, fieldTick, f.Tick)
	b = appendVarint(b, fieldSimulatedMs, protowire.EncodeZigZag(f.SimulatedMs))
	if f.VehicleID != "" {
		b = protowire.AppendTag(b, fieldVehicleID, protowire.BytesType)
		b = protowire.AppendString(b, f.VehicleID)
	}
	b = appendPacked(b, fieldPosition, f.Position[:]...)
	b = appendPacked(b, fieldRotation, f.Rotation.W, f.Rotation.V[0], f.Rotation.V[1], f.Rotation.V[2])
	b = appendPacked(b, fieldVelocity, f.Velocity[:]...)
	b = appendPacked(b, fieldAngularVelocity, f.AngularVelocity[:]...)
	b = appendDouble(b, fieldMass, f.Mass)
	b = appendPacked(b, fieldCenterOfMass, f.CenterOfMass[:]...)
	if f.Kinematic {
		b = appendVarint(b, fieldKinematic, protowire.EncodeBool(true))
	}
	//1.- Parts are nested messages so readers can skip them wholesale.
	for _, part := range f.Parts {
		b = protowire.AppendTag(b, fieldParts, protowire.BytesType)
		b = protowire.AppendBytes(b, part.encode(nil))
	}
	return b
}

func (p PartSample) encode(b []byte) []byte {
	b = protowire.AppendTag(b, partFieldID, protowire.BytesType)
	b = protowire.AppendString(b, p.ID)
	b = protowire.AppendTag(b, partFieldKind, protowire.BytesType)
	b = protowire.AppendString(b, p.Kind)
	b = appendDouble(b, partFieldAoA, p.AoA)
	b = appendPacked(b, partFieldLift, p.Lift[:]...)
	b = appendPacked(b, partFieldDrag, p.Drag[:]...)
	b = appendDouble(b, partFieldAngle, p.Angle)
	b = appendDouble(b, partFieldThrottle, p.Throttle)
	if p.Burning {
		b = appendVarint(b, partFieldBurning, protowire.EncodeBool(true))
	}
	return b
}

// Decode parses a frame. Unknown fields are skipped.
func Decode(b []byte) (Frame, error) {
	var f Frame
	rotation := mgl64.QuatIdent()
	err := walk(b, func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error {
		switch num {
		case fieldTick:
			f.Tick = varint
		case fieldSimulatedMs:
			f.SimulatedMs = protowire.DecodeZigZag(varint)
		case fieldVehicleID:
			f.VehicleID = string(value)
		case fieldPosition:
			return decodeVec3(value, &f.Position)
		case fieldRotation:
			components, err := unpack(value, 4)
			if err != nil {
				return err
			}
			rotation = mgl64.Quat{W: components[0], V: mgl64.Vec3{components[1], components[2], components[3]}}
		case fieldVelocity:
			return decodeVec3(value, &f.Velocity)
		case fieldAngularVelocity:
			return decodeVec3(value, &f.AngularVelocity)
		case fieldMass:
			f.Mass = math.Float64frombits(varint)
		case fieldCenterOfMass:
			return decodeVec3(value, &f.CenterOfMass)
		case fieldKinematic:
			f.Kinematic = protowire.DecodeBool(varint)
		case fieldParts:
			part, err := decodePart(value)
			if err != nil {
				return fmt.Errorf("part %d: %w", len(f.Parts), err)
			}
			f.Parts = append(f.Parts, part)
		}
		return nil
	})
	f.Rotation = rotation
	return f, err
}

func decodePart(b []byte) (PartSample, error) {
	var p PartSample
	err := walk(b, func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error {
		switch num {
		case partFieldID:
			p.ID = string(value)
		case partFieldKind:
			p.Kind = string(value)
		case partFieldAoA:
			p.AoA = math.Float64frombits(varint)
		case partFieldLift:
			return decodeVec3(value, &p.Lift)
		case partFieldDrag:
			return decodeVec3(value, &p.Drag)
		case partFieldAngle:
			p.Angle = math.Float64frombits(varint)
		case partFieldThrottle:
			p.Throttle = math.Float64frombits(varint)
		case partFieldBurning:
			p.Burning = protowire.DecodeBool(varint)
		}
		return nil
	})
	return p, err
}

// walk visits every field of a message. Varint and fixed64 values arrive in varint, length
// delimited values in value.
func walk(b []byte, visit func(num protowire.Number, typ protowire.Type, value []byte, varint uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("telemetry: tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		var (
			value  []byte
			varint uint64
		)
		switch typ {
		case protowire.VarintType:
			varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			varint, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			value, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("telemetry: field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := visit(num, typ, value, varint); err != nil {
			return err
		}
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, value uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}

func appendDouble(b []byte, num protowire.Number, value float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(value))
}

// appendPacked writes values as a packed repeated double.
func appendPacked(b []byte, num protowire.Number, values ...float64) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(values)*8))
	for _, value := range values {
		b = protowire.AppendFixed64(b, math.Float64bits(value))
	}
	return b
}

func unpack(b []byte, count int) ([]float64, error) {
	if len(b) != count*8 {
		return nil, fmt.Errorf("%w: %d bytes for %d components", ErrMalformedVector, len(b), count)
	}
	out := make([]float64, count)
	for i := range out {
		bits, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out[i] = math.Float64frombits(bits)
		b = b[n:]
	}
	return out, nil
}

func decodeVec3(b []byte, into *mgl64.Vec3) error {
	components, err := unpack(b, 3)
	if err != nil {
		return err
	}
	*into = mgl64.Vec3{components[0], components[1], components[2]}
	return nil
}
