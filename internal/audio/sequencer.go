package audio

import "fmt"

// Phase is the state of an engine sound sequence.
type Phase int

const (
	PhaseSilent Phase = iota
	PhaseIgniting
	PhaseRunning
	PhaseShuttingDown
)

func (p Phase) String() string {
	switch p {
	case PhaseSilent:
		return "silent"
	case PhaseIgniting:
		return "igniting"
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// EngineSounds names the clips an engine plays.
type EngineSounds struct {
	Ignition  string  `json:"ignition"`
	Running   string  `json:"running"`
	Shutdown  string  `json:"shutdown"`
	MaxVolume float64 `json:"maxVolume"`
}

// Sequencer steps an engine through ignition, running and shutdown sounds on the fixed
// simulation clock.
type Sequencer struct {
	manager   *Manager
	source    *Source
	sounds    EngineSounds
	phase     Phase
	remaining float64
}

// NewSequencer creates a silent sequencer playing on its own source.
func NewSequencer(manager *Manager, sourceID string, sounds EngineSounds) *Sequencer {
	if sounds.MaxVolume == 0 {
		sounds.MaxVolume = 1
	}
	return &Sequencer{manager: manager, source: &Source{ID: sourceID}, sounds: sounds}
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase {
	if s == nil {
		return PhaseSilent
	}
	return s.phase
}

// Source exposes the underlying playback source.
func (s *Sequencer) Source() *Source {
	if s == nil {
		return nil
	}
	return s.source
}

// Ignite plays the ignition clip at zero volume; the throttle brings it up.
func (s *Sequencer) Ignite() error {
	if s == nil || s.manager == nil {
		return nil
	}
	if err := s.manager.Play(s.source, s.sounds.Ignition, 0); err != nil {
		return err
	}
	s.phase = PhaseIgniting
	s.remaining = s.source.Clip.Length
	return nil
}

// ShutDown plays the shutdown clip; silence follows once it ends.
func (s *Sequencer) ShutDown() error {
	if s == nil || s.manager == nil {
		return nil
	}
	if err := s.manager.Play(s.source, s.sounds.Shutdown, s.sounds.MaxVolume); err != nil {
		return err
	}
	s.phase = PhaseShuttingDown
	s.remaining = s.source.Clip.Length
	return nil
}

// SetThrottle scales the running volume while the engine burns.
func (s *Sequencer) SetThrottle(throttle float64) {
	if s == nil || s.phase == PhaseShuttingDown || s.phase == PhaseSilent {
		return
	}
	s.source.Volume = s.sounds.MaxVolume * throttle
}

// Advance consumes dt seconds of the current clip and moves to the next phase when it ends.
// burning reports whether the engine is still lit once ignition finishes.
func (s *Sequencer) Advance(dt float64, burning bool) error {
	if s == nil || s.manager == nil || !(dt > 0) {
		return nil
	}
	switch s.phase {
	case PhaseIgniting:
		s.remaining -= dt
		if s.remaining > 0 {
			return nil
		}
		//1.- Ignition finished: loop the running clip only if the engine is still lit.
		if !burning {
			s.phase = PhaseSilent
			return nil
		}
		volume := s.source.Volume
		if err := s.manager.Play(s.source, s.sounds.Running, volume); err != nil {
			s.phase = PhaseSilent
			return err
		}
		s.source.Loop = true
		s.phase = PhaseRunning
	case PhaseShuttingDown:
		s.remaining -= dt
		if s.remaining > 0 {
			return nil
		}
		//2.- Shutdown finished: floor the volume and release the source.
		s.source.Volume = 0
		s.manager.Stop(s.source)
		s.phase = PhaseSilent
	}
	return nil
}
