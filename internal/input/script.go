package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Action is what a script step does to its key.
type Action string

const (
	// ActionPress holds the key down until a matching release.
	ActionPress Action = "press"
	// ActionRelease lets a held key go.
	ActionRelease Action = "release"
	// ActionTap presses the key for exactly one tick.
	ActionTap Action = "tap"
)

// ErrInvalidStep is returned when a script step cannot be applied.
var ErrInvalidStep = errors.New("input: invalid script step")

// Step is a single timed key event on the simulated clock.
type Step struct {
	At     float64 `json:"at" yaml:"at"`
	Key    string  `json:"key" yaml:"key"`
	Action Action  `json:"action" yaml:"action"`
}

// Validate checks the step for obvious mistakes.
func (s Step) Validate() error {
	if s.At < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidStep, s.At)
	}
	if NormalizeKey(s.Key) == "" {
		return fmt.Errorf("%w: empty key at %v", ErrInvalidStep, s.At)
	}
	switch s.Action {
	case ActionPress, ActionRelease, ActionTap:
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, s.Action)
	}
}

// Script replays a timeline of key events as the simulation clock advances.
type Script struct {
	mu      sync.RWMutex
	steps   []Step
	cursor  int
	held    map[string]bool
	pressed map[string]bool
	tapped  map[string]bool
}

// NewScript sorts steps by time, keeping the authored order for simultaneous events.
func NewScript(steps ...Step) (*Script, error) {
	sorted := make([]Step, 0, len(steps))
	for _, step := range steps {
		if err := step.Validate(); err != nil {
			return nil, err
		}
		step.Key = NormalizeKey(step.Key)
		sorted = append(sorted, step)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Script{
		steps:   sorted,
		held:    make(map[string]bool),
		pressed: make(map[string]bool),
		tapped:  make(map[string]bool),
	}, nil
}

// LoadScript reads a YAML or JSON list of steps from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var steps []Step
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &steps)
	default:
		err = json.Unmarshal(data, &steps)
	}
	if err != nil {
		return nil, fmt.Errorf("decode script %s: %w", path, err)
	}
	return NewScript(steps...)
}

// Advance applies every step due at or before now. Edges from the previous call expire and
// tapped keys are released first.
func (s *Script) Advance(now float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	//1.- Expire last tick's edges and one-tick taps.
	clear(s.pressed)
	for key := range s.tapped {
		delete(s.held, key)
	}
	clear(s.tapped)
	//2.- Apply the due steps in order.
	for s.cursor < len(s.steps) && s.steps[s.cursor].At <= now {
		step := s.steps[s.cursor]
		s.cursor++
		switch step.Action {
		case ActionPress:
			if !s.held[step.Key] {
				s.pressed[step.Key] = true
			}
			s.held[step.Key] = true
		case ActionRelease:
			delete(s.held, step.Key)
		case ActionTap:
			if !s.held[step.Key] {
				s.pressed[step.Key] = true
			}
			s.held[step.Key] = true
			s.tapped[step.Key] = true
		}
	}
}

// Done reports whether every step has been applied.
func (s *Script) Done() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor >= len(s.steps)
}

// Duration returns the time of the last step.
func (s *Script) Duration() float64 {
	if s == nil || len(s.steps) == 0 {
		return 0
	}
	return s.steps[len(s.steps)-1].At
}

// Held implements Source.
func (s *Script) Held(key string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.held[NormalizeKey(key)]
}

// Pressed implements Source.
func (s *Script) Pressed(key string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pressed[NormalizeKey(key)]
}
