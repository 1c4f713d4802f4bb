package replay

import (
	"fmt"
	"strconv"
	"strings"
)

// Speed selects replay pacing as a multiple of recorded time. Zero or
// negative means maximum speed with no pacing.
type Speed float64

const (
	// SpeedMax replays without pacing.
	SpeedMax Speed = 0
	// SpeedRealtime replays with the recorded inter-event gaps.
	SpeedRealtime Speed = 1
)

// ParseSpeed reads "max", "realtime", or a multiplier like "2.5x".
// Anything unrecognized falls back to SpeedMax.
func ParseSpeed(s string) Speed {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "max":
		return SpeedMax
	case "realtime", "1x":
		return SpeedRealtime
	}
	if n, ok := strings.CutSuffix(v, "x"); ok {
		if mult, err := strconv.ParseFloat(n, 64); err == nil && mult > 0 {
			return Speed(mult)
		}
	}
	return SpeedMax
}

// String renders the flag form of the speed.
func (s Speed) String() string {
	switch {
	case s <= SpeedMax:
		return "max"
	case s == SpeedRealtime:
		return "realtime"
	default:
		return fmt.Sprintf("%gx", float64(s))
	}
}
