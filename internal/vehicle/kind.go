package vehicle

import "fmt"

// Kind tags the role a part plays on the vehicle.
type Kind string

const (
	KindStructure      Kind = "structure"
	KindControlSurface Kind = "controlSurface"
	KindEngine         Kind = "engine"
	KindWheel          Kind = "wheel"
	KindTankContainer  Kind = "tankContainer"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStructure, KindControlSurface, KindEngine, KindWheel, KindTankContainer:
		return true
	default:
		return false
	}
}

// ParseKind validates a raw kind name.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidPart, raw)
	}
	return kind, nil
}
