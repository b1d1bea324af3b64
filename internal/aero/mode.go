package aero

import (
	"fmt"
	"strings"
)

// Mode selects how the two force samples of a step reach the body.
type Mode string

const (
	// ModeMidpoint applies the average of the current and predicted samples.
	ModeMidpoint Mode = "midpoint"
	// ModeCurrent applies the current sample only; the prediction is still computed.
	ModeCurrent Mode = "current"
)

// ParseMode normalises a configured mode name. Empty input selects ModeMidpoint.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeMidpoint:
		return ModeMidpoint, nil
	case ModeCurrent:
		return ModeCurrent, nil
	default:
		return "", fmt.Errorf("unknown aero mode %q", raw)
	}
}
