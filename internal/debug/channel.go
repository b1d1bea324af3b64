// Package debug is the read/write channel vehicles use to publish overlay values and force
// vectors. Rendering them is left to whoever consumes the channel.
package debug

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrItemNotFound is returned when an overlay item is looked up by a name that was never set.
var ErrItemNotFound = errors.New("debug: overlay item not found")

// Color is an RGBA colour with components in [0,1].
type Color struct {
	R, G, B, A float64
}

var (
	Blue    = Color{B: 1, A: 1}
	Red     = Color{R: 1, A: 1}
	Green   = Color{G: 1, A: 1}
	Magenta = Color{R: 1, B: 1, A: 1}
	Yellow  = Color{R: 1, G: 0.92, B: 0.016, A: 1}
)

// OverlayItem is one labelled line of the debug overlay.
type OverlayItem struct {
	Name   string
	Value  any
	Prefix string
	Suffix string
}

// String renders the item as name, prefix, value and suffix.
func (o OverlayItem) String() string {
	return o.Name + o.Prefix + formatValue(o.Value) + o.Suffix
}

func formatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	default:
		return fmt.Sprint(v)
	}
}

// VisualVector is a named arrow anchored in world space.
type VisualVector struct {
	Name      string
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Color     Color
	Width     float64
}

// End returns the arrow tip.
func (v VisualVector) End() mgl64.Vec3 {
	return v.Origin.Add(v.Direction)
}

// Channel holds the overlay lines and visual vectors published during a run.
type Channel struct {
	mu      sync.RWMutex
	items   []OverlayItem
	vectors map[string]VisualVector
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{vectors: make(map[string]VisualVector)}
}

// SetItem updates the value of an existing item with the same name. Otherwise the item
// replaces the line at index when one is given and in range, or is appended.
func (c *Channel) SetItem(item OverlayItem, index ...int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	//1.- Existing names only change their value.
	for i := range c.items {
		if c.items[i].Name == item.Name {
			c.items[i].Value = item.Value
			return
		}
	}
	//2.- A valid index overwrites that line, anything else appends.
	if len(index) > 0 && index[0] >= 0 && index[0] < len(c.items) {
		c.items[index[0]] = item
		return
	}
	c.items = append(c.items, item)
}

// Item returns the overlay item called name.
func (c *Channel) Item(name string) (OverlayItem, error) {
	if c != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		for _, item := range c.items {
			if item.Name == name {
				return item, nil
			}
		}
	}
	return OverlayItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, name)
}

// RemoveItem deletes the overlay item called name.
func (c *Channel) RemoveItem(name string) error {
	if c == nil {
		return fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.Name == name {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrItemNotFound, name)
}

// Items returns a copy of the overlay lines in display order.
func (c *Channel) Items() []OverlayItem {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]OverlayItem, len(c.items))
	copy(out, c.items)
	return out
}

// Text renders the overlay, one item per line.
func (c *Channel) Text() string {
	var b strings.Builder
	for _, item := range c.Items() {
		b.WriteString(item.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// UpdateVector creates or moves the named visual vector.
func (c *Channel) UpdateVector(name string, origin, direction mgl64.Vec3, color Color, width float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vectors == nil {
		c.vectors = make(map[string]VisualVector)
	}
	c.vectors[name] = VisualVector{Name: name, Origin: origin, Direction: direction, Color: color, Width: width}
}

// Vector returns the named visual vector.
func (c *Channel) Vector(name string) (VisualVector, bool) {
	if c == nil {
		return VisualVector{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[name]
	return v, ok
}

// RemoveVector drops the named visual vector.
func (c *Channel) RemoveVector(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vectors, name)
}

// Vectors returns every visual vector sorted by name.
func (c *Channel) Vectors() []VisualVector {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]VisualVector, 0, len(c.vectors))
	for _, v := range c.vectors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
