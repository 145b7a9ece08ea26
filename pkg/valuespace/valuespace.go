package valuespace

import (
	"math"

	"github.com/pkg/errors"
)

// CircleInitialAngle is the angle of the minimum value: 12 o'clock.
const CircleInitialAngle = -math.Pi / 2

// relative tolerance used for stationary and equality checks
const tolerance = 1e-9

var ErrInvalidSpace = errors.New("invalid value space")

// Space is a cyclic value range [min, max) drawn as rounds full turns of a
// circle. Values outside the range are taken modulo the span.
type Space struct {
	min    float64
	max    float64
	rounds int
	eps    float64
}

func New(min, max float64, rounds int) (*Space, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil, errors.Wrapf(ErrInvalidSpace, "bounds must be finite, got min %v max %v", min, max)
	}
	if min >= max {
		return nil, errors.Wrapf(ErrInvalidSpace, "min %v must be smaller than max %v", min, max)
	}
	if rounds < 1 {
		return nil, errors.Wrapf(ErrInvalidSpace, "rounds must be at least 1, got %d", rounds)
	}
	return &Space{
		min:    min,
		max:    max,
		rounds: rounds,
		eps:    (max - min) * tolerance,
	}, nil
}

func (r *Space) Min() float64 { return r.min }

func (r *Space) Max() float64 { return r.max }

func (r *Space) Rounds() int { return r.rounds }

// Span returns the length of one cycle, max - min.
func (r *Space) Span() float64 { return r.max - r.min }

// Tolerance returns the absolute tolerance below which two values are
// considered equal.
func (r *Space) Tolerance() float64 { return r.eps }

// offset returns v modulo the span in [0, span).
func (r *Space) offset(v float64) float64 {
	span := r.Span()
	m := math.Mod(v, span)
	if m < 0 {
		m += span
	}
	// rounding of tiny negative remainders can land on span itself
	if m >= span {
		m = 0
	}
	return m
}

// Normalize maps v into [min, max).
func (r *Space) Normalize(v float64) float64 {
	return r.min + r.offset(v-r.min)
}

// WrapAdd returns v + delta wrapped into [min, max).
func (r *Space) WrapAdd(v, delta float64) float64 {
	return r.Normalize(v + r.offset(delta))
}

// WrapSubtract returns v - delta wrapped into [min, max).
func (r *Space) WrapSubtract(v, delta float64) float64 {
	return r.Normalize(v - r.offset(delta))
}

// Move shifts v by delta in the given direction. A stationary direction
// returns the normalized value.
func (r *Space) Move(v, delta float64, dir Direction) float64 {
	switch dir {
	case Clockwise:
		return r.WrapAdd(v, delta)
	case Counterclockwise:
		return r.WrapSubtract(v, delta)
	default:
		return r.Normalize(v)
	}
}

// Distance returns how far one has to travel from `from` to reach `to`
// walking in direction dir. The result lies in [0, span).
func (r *Space) Distance(from, to float64, dir Direction) float64 {
	switch dir {
	case Clockwise:
		return r.offset(to - from)
	case Counterclockwise:
		return r.offset(from - to)
	default:
		return 0
	}
}

// DirectionOf reports in which direction a value moved from old to new and
// by how much, taking the shorter way around the circle. Moves within the
// tolerance are stationary.
func (r *Space) DirectionOf(old, new float64) (Direction, float64) {
	f := r.offset(new - old)
	span := r.Span()
	switch {
	case f <= r.eps || span-f <= r.eps:
		return Stationary, 0
	case f <= span/2:
		return Clockwise, f
	default:
		return Counterclockwise, span - f
	}
}

// Equal reports whether a and b denote the same point of the circle.
func (r *Space) Equal(a, b float64) bool {
	d := r.offset(a - b)
	return d <= r.eps || r.Span()-d <= r.eps
}

// Length returns the clockwise length of the arc [start, end].
func (r *Space) Length(start, end float64) float64 {
	return r.offset(end - start)
}

// Contains reports whether v lies on the clockwise arc [start, end], both
// bounds inclusive.
func (r *Space) Contains(start, end, v float64) bool {
	return r.offset(v-start) <= r.offset(end-start)+r.eps
}

// Midpoint returns the point halfway along the clockwise arc [start, end],
// which may straddle the max -> min seam.
func (r *Space) Midpoint(start, end float64) float64 {
	return r.WrapAdd(start, r.Length(start, end)/2)
}

// ToAngle scales v from [min, max] onto [0, 2*pi*rounds) and adds the
// circle initial angle. The result is in radians.
func (r *Space) ToAngle(v float64) float64 {
	return (v-r.min)/r.Span()*2*math.Pi*float64(r.rounds) + CircleInitialAngle
}

// FromAngle is the inverse of ToAngle, normalized into [min, max).
func (r *Space) FromAngle(angle float64) float64 {
	return r.Normalize(r.min + (angle-CircleInitialAngle)/(2*math.Pi*float64(r.rounds))*r.Span())
}

// AngularDistance returns the smaller of the two arc distances between the
// angular positions of v1 and v2, in degrees within [0, 180].
func (r *Space) AngularDistance(v1, v2 float64) float64 {
	a := math.Abs(Degrees(r.ToAngle(v1)) - Degrees(r.ToAngle(v2)))
	a = math.Mod(a, 360)
	return math.Min(a, 360-a)
}

// SeparationAngle expresses a value distance as an angle in degrees.
func (r *Space) SeparationAngle(sep float64) float64 {
	return Degrees(r.ToAngle(r.min+sep) - r.ToAngle(r.min))
}

func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
