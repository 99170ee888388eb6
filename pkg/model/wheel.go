// Package model holds the data types shared between the ABS, EPS,
// safety and diagnostic packages: the sensor snapshot, the per-wheel
// tag, and the small value types that flow between them.
package model

// WheelPosition identifies one of the four wheel positions. All
// per-wheel state is a fixed [4]T array indexed by this tag so that
// WheelCount == 4 is encoded structurally rather than as a convention.
type WheelPosition uint8

const (
	FL WheelPosition = iota
	FR
	RL
	RR
	WheelCount
)

func (w WheelPosition) String() string {
	switch w {
	case FL:
		return "FL"
	case FR:
		return "FR"
	case RL:
		return "RL"
	case RR:
		return "RR"
	default:
		return "UNKNOWN"
	}
}

// Wheels returns the four wheel positions in a fixed, stable order.
func Wheels() [WheelCount]WheelPosition {
	return [WheelCount]WheelPosition{FL, FR, RL, RR}
}
