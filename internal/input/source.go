// Package input abstracts key polling into named boolean queries so vehicles can be driven
// by scripts, tests or a host application alike.
package input

import "strings"

// Source answers key queries for the current tick.
type Source interface {
	// Held reports whether key is down during this tick.
	Held(key string) bool
	// Pressed reports whether key went down during this tick.
	Pressed(key string) bool
}

// NormalizeKey folds key names so bindings match regardless of case or padding.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Static is a fixed snapshot of key state, mostly useful in tests.
type Static struct {
	HeldKeys    map[string]bool
	PressedKeys map[string]bool
}

// NewStatic builds a snapshot where every listed key is held.
func NewStatic(held ...string) *Static {
	s := &Static{HeldKeys: make(map[string]bool), PressedKeys: make(map[string]bool)}
	for _, key := range held {
		s.HeldKeys[NormalizeKey(key)] = true
	}
	return s
}

// Press marks key as held and newly pressed.
func (s *Static) Press(key string) *Static {
	key = NormalizeKey(key)
	s.HeldKeys[key] = true
	s.PressedKeys[key] = true
	return s
}

// Held implements Source.
func (s *Static) Held(key string) bool {
	if s == nil {
		return false
	}
	return s.HeldKeys[NormalizeKey(key)]
}

// Pressed implements Source.
func (s *Static) Pressed(key string) bool {
	if s == nil {
		return false
	}
	return s.PressedKeys[NormalizeKey(key)]
}

// None is a source with every key released.
var None Source = (*Static)(nil)
