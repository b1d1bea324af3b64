// Package curve evaluates authored coefficient curves made of Hermite keyframes.
package curve

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Keyframe is a single authored point with incoming and outgoing slopes.
type Keyframe struct {
	Time       float64 `json:"time"`
	Value      float64 `json:"value"`
	InTangent  float64 `json:"inTangent"`
	OutTangent float64 `json:"outTangent"`
}

// Curve is an immutable, time-sorted sequence of keyframes.
//
// Evaluation clamps to the boundary keys outside the authored domain.
type Curve struct {
	keys []Keyframe
}

// New sorts and copies keys into a curve. Keys sharing a time keep the last one authored.
func New(keys ...Keyframe) Curve {
	//1.- Copy so callers cannot mutate the curve after construction.
	copied := make([]Keyframe, len(keys))
	copy(copied, keys)
	sort.SliceStable(copied, func(i, j int) bool { return copied[i].Time < copied[j].Time })
	//2.- Collapse duplicate times so segments always have a positive width.
	deduped := copied[:0]
	for _, key := range copied {
		if n := len(deduped); n > 0 && deduped[n-1].Time == key.Time {
			deduped[n-1] = key
			continue
		}
		deduped = append(deduped, key)
	}
	return Curve{keys: deduped}
}

// Constant returns a flat curve.
func Constant(value float64) Curve {
	return New(Keyframe{Time: 0, Value: value})
}

// Linear builds a piecewise-linear curve through (time, value) points.
func Linear(points ...[2]float64) Curve {
	keys := make([]Keyframe, len(points))
	for i, point := range points {
		keys[i] = Keyframe{Time: point[0], Value: point[1]}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time })
	//1.- Match each key's tangents to the slopes of its neighbouring segments.
	for i := 0; i+1 < len(keys); i++ {
		width := keys[i+1].Time - keys[i].Time
		if width == 0 {
			continue
		}
		slope := (keys[i+1].Value - keys[i].Value) / width
		keys[i].OutTangent = slope
		keys[i+1].InTangent = slope
	}
	return New(keys...)
}

// Len returns the number of keyframes.
func (c Curve) Len() int { return len(c.keys) }

// Keys returns a copy of the keyframes.
func (c Curve) Keys() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

// Domain returns the first and last key times; both are zero for an empty curve.
func (c Curve) Domain() (float64, float64) {
	if len(c.keys) == 0 {
		return 0, 0
	}
	return c.keys[0].Time, c.keys[len(c.keys)-1].Time
}

// Evaluate samples the curve at t. Empty curves evaluate to zero.
func (c Curve) Evaluate(t float64) float64 {
	//1.- Handle empty curves and clamp outside the authored domain.
	n := len(c.keys)
	if n == 0 || math.IsNaN(t) {
		return 0
	}
	if t <= c.keys[0].Time {
		return c.keys[0].Value
	}
	if t >= c.keys[n-1].Time {
		return c.keys[n-1].Value
	}
	//2.- Locate the segment containing t.
	idx := sort.Search(n, func(i int) bool { return c.keys[i].Time > t }) - 1
	return hermite(c.keys[idx], c.keys[idx+1], t)
}

func hermite(a, b Keyframe, t float64) float64 {
	width := b.Time - a.Time
	//1.- Infinite tangents author a stepped segment that holds the left value.
	if math.IsInf(a.OutTangent, 0) || math.IsInf(b.InTangent, 0) {
		return a.Value
	}
	s := (t - a.Time) / width
	s2 := s * s
	s3 := s2 * s
	//2.- Blend values and width-scaled tangents with the cubic Hermite basis.
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return h00*a.Value + h10*width*a.OutTangent + h01*b.Value + h11*width*b.InTangent
}

// Extreme scans [from, to] in increments of step and returns the sample with the largest
// magnitude. The first sample wins ties; a non-positive step samples only the bounds.
func (c Curve) Extreme(from, to, step float64) (float64, float64) {
	if from > to {
		from, to = to, from
	}
	bestX := from
	bestY := c.Evaluate(from)
	consider := func(x float64) {
		if y := c.Evaluate(x); math.Abs(y) > math.Abs(bestY) {
			bestX, bestY = x, y
		}
	}
	//1.- Walk the interval on an index grid so rounding never skips the upper bound.
	if step > 0 {
		count := int(math.Floor((to-from)/step + 1e-9))
		for i := 1; i <= count; i++ {
			consider(from + float64(i)*step)
		}
	}
	consider(to)
	return bestX, bestY
}

// ExtremeX returns the position of the largest-magnitude sample in [from, to].
func (c Curve) ExtremeX(from, to, step float64) float64 {
	x, _ := c.Extreme(from, to, step)
	return x
}

// ExtremeY returns the value of the largest-magnitude sample in [from, to].
func (c Curve) ExtremeY(from, to, step float64) float64 {
	_, y := c.Extreme(from, to, step)
	return y
}

// MarshalJSON renders the curve as its keyframe array.
func (c Curve) MarshalJSON() ([]byte, error) {
	if c.keys == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.keys)
}

// UnmarshalJSON accepts either a keyframe array or a list of [time, value] pairs, the
// latter producing a linear curve.
func (c *Curve) UnmarshalJSON(data []byte) error {
	//1.- Prefer the full keyframe form.
	var keys []Keyframe
	if err := json.Unmarshal(data, &keys); err == nil {
		*c = New(keys...)
		return nil
	}
	//2.- Fall back to the compact point form used by hand-authored catalogs.
	var points [][2]float64
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("decode curve: %w", err)
	}
	*c = Linear(points...)
	return nil
}
