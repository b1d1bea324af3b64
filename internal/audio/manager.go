// Package audio tracks clip playback on the simulation clock. It models which sources are
// playing and at what volume; mixing and output are left to the host.
package audio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrClipNotFound is returned when a clip name is not in the library.
var ErrClipNotFound = errors.New("audio: clip not found")

// activeTolerance is how close to its end a source must be to count as finished.
const activeTolerance = 0.1

// Clip is a named sound with a fixed length in seconds.
type Clip struct {
	Name   string  `json:"name"`
	Length float64 `json:"length"`
}

// Library indexes clips by name.
type Library struct {
	clips map[string]Clip
}

// NewLibrary builds a library from clips; later duplicates replace earlier ones.
func NewLibrary(clips ...Clip) *Library {
	lib := &Library{clips: make(map[string]Clip, len(clips))}
	for _, clip := range clips {
		lib.clips[clip.Name] = clip
	}
	return lib
}

// Find returns the clip registered under name.
func (l *Library) Find(name string) (Clip, error) {
	if l != nil {
		if clip, ok := l.clips[name]; ok {
			return clip, nil
		}
	}
	return Clip{}, fmt.Errorf("%w: %q", ErrClipNotFound, name)
}

// Names lists the registered clips in lexical order.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.clips))
	for name := range l.clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source is a playback channel, typically one per engine or explosion.
type Source struct {
	ID      string
	Clip    Clip
	Volume  float64
	Loop    bool
	Time    float64
	Playing bool
}

// Manager plays clips on sources and keeps the list of sources still sounding.
type Manager struct {
	mu      sync.Mutex
	library *Library
	active  []*Source
}

// NewManager creates a manager drawing clips from library.
func NewManager(library *Library) *Manager {
	if library == nil {
		library = NewLibrary()
	}
	return &Manager{library: library}
}

// Library exposes the clip library.
func (m *Manager) Library() *Library {
	if m == nil {
		return nil
	}
	return m.library
}

// Play starts the named clip on source at volume, restarting it when already playing.
func (m *Manager) Play(source *Source, name string, volume float64) error {
	if m == nil || source == nil {
		return errors.New("audio: nil manager or source")
	}
	clip, err := m.library.Find(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	//1.- Register the source once; replays reuse the existing slot.
	if !m.containsLocked(source) {
		m.active = append(m.active, source)
	}
	//2.- Rewind the source onto the new clip.
	source.Clip = clip
	source.Volume = volume
	source.Loop = false
	source.Time = 0
	source.Playing = true
	return nil
}

// Stop silences source and drops it from the active list.
func (m *Manager) Stop(source *Source) {
	if m == nil || source == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	source.Playing = false
	m.removeLocked(source)
}

// Advance moves every active source forward by dt seconds, retiring finished one-shots.
func (m *Manager) Advance(dt float64) {
	if m == nil || !(dt > 0) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.active[:0]
	for _, source := range m.active {
		if !source.Playing {
			continue
		}
		source.Time += dt
		//1.- Looping sources wrap around their clip length.
		if source.Loop && source.Clip.Length > 0 {
			source.Time = math.Mod(source.Time, source.Clip.Length)
		}
		//2.- One-shots that reached their end stop sounding.
		if !source.Loop && source.Time >= source.Clip.Length-activeTolerance {
			source.Playing = false
			continue
		}
		kept = append(kept, source)
	}
	for i := len(kept); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = kept
}

// UpdateAllVolume sets the volume of every active source playing clipName, or of every
// active source when clipName is empty.
func (m *Manager) UpdateAllVolume(volume float64, clipName string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, source := range m.active {
		if clipName == "" || source.Clip.Name == clipName {
			source.Volume = volume
		}
	}
}

// ActiveCount returns how many sources are currently sounding.
func (m *Manager) ActiveCount() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) containsLocked(source *Source) bool {
	for _, candidate := range m.active {
		if candidate == source {
			return true
		}
	}
	return false
}

func (m *Manager) removeLocked(source *Source) {
	for i, candidate := range m.active {
		if candidate == source {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}
