package valuespace

// Direction is the sense of motion along the circle.
type Direction int

const (
	Stationary Direction = iota
	Clockwise
	Counterclockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case Counterclockwise:
		return "counterclockwise"
	default:
		return "stationary"
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	switch d {
	case Clockwise:
		return Counterclockwise
	case Counterclockwise:
		return Clockwise
	default:
		return Stationary
	}
}
