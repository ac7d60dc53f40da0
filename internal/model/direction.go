package model

// Direction is the sign of a return, used both for forecasts and for
// realized outcomes. The numeric values are part of the contract: position
// sizing multiplies realized returns by the predicted direction.
type Direction int

const (
	Down Direction = -1
	Flat Direction = 0
	Up   Direction = 1
)

// DirectionOf maps a value to its trading direction. Zero is a real
// category, not a tie-break.
func DirectionOf(v float64) Direction {
	switch {
	case v > 0:
		return Up
	case v < 0:
		return Down
	default:
		return Flat
	}
}

// String returns a human-friendly label for a direction.
// Keep these values stable; they are intended for CSV output.
func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "FLAT"
	}
}

// Index maps a direction to a dense 0..2 range for matrix addressing.
func (d Direction) Index() int {
	return int(d) + 1
}
