package pointring

import (
	"fmt"

	"github.com/henderiw/arcring/pkg/ring"
)

// Marker tags the outer boundaries of the run a PointRing was built from.
type Marker int

const (
	Interior Marker = iota
	Start           // start of the clockwise first interval of the run
	End             // end of the clockwise last interval of the run
)

func (m Marker) String() string {
	switch m {
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "interior"
	}
}

type Point struct {
	Value  float64
	Marker Marker
}

func (p Point) String() string {
	return fmt.Sprintf("%g(%s)", p.Value, p.Marker)
}

// PointRing is a flat circular sequence of interval boundaries taken from a
// run of ring intervals in walking order. The start/end pairing is implied
// by position: points 2i and 2i+1 belong to the i-th interval of the run.
// It is a working structure for one resolution pass.
type PointRing struct {
	points  []Point
	owners  []ring.Handle
	forward bool
}

// Build flattens count intervals of r, starting at pivot and walking
// forward (clockwise) or backward. A count <= 0 takes the whole ring.
//
// Walking forward yields start, end, start, end, ...; walking backward
// yields end, start, end, start, ... so that the sequence always follows
// the walking direction.
func Build(r *ring.Ring, pivot ring.Handle, forward bool, count int) *PointRing {
	if count <= 0 || count > r.Len() {
		count = r.Len()
	}
	pr := &PointRing{
		points:  make([]Point, 0, 2*count),
		owners:  make([]ring.Handle, 0, count),
		forward: forward,
	}
	r.Traverse(pivot, forward, func(h ring.Handle, iv ring.Interval) bool {
		if forward {
			pr.points = append(pr.points, Point{Value: iv.Start}, Point{Value: iv.End})
		} else {
			pr.points = append(pr.points, Point{Value: iv.End}, Point{Value: iv.Start})
		}
		pr.owners = append(pr.owners, h)
		return len(pr.owners) < count
	})
	if len(pr.points) > 0 {
		first, last := 0, len(pr.points)-1
		if !forward {
			first, last = last, first
		}
		pr.points[first].Marker = Start
		pr.points[last].Marker = End
	}
	return pr
}

func (r *PointRing) Len() int { return len(r.points) }

// Forward reports the walking direction the ring was built with.
func (r *PointRing) Forward() bool { return r.forward }

func (r *PointRing) At(i int) Point { return r.points[i] }

func (r *PointRing) Set(i int, v float64) { r.points[i].Value = v }

// Next returns the index after i, wrapping around.
func (r *PointRing) Next(i int) int { return (i + 1) % len(r.points) }

// Prev returns the index before i, wrapping around.
func (r *PointRing) Prev(i int) int { return (i - 1 + len(r.points)) % len(r.points) }

// Owner returns the interval the point at i was taken from.
func (r *PointRing) Owner(i int) ring.Handle { return r.owners[i/2] }

// IsStart reports whether the point at i is the start of its interval.
func (r *PointRing) IsStart(i int) bool { return (i%2 == 0) == r.forward }

// Walk visits the points following from, in order, and stops on visit
// returning false or right before coming back to from. It returns the
// number of points visited, which is at most Len-1.
func (r *PointRing) Walk(from int, visit func(i int, p Point) bool) int {
	visited := 0
	for i := r.Next(from); i != from; i = r.Next(i) {
		visited++
		if !visit(i, r.points[i]) {
			break
		}
	}
	return visited
}

// Pairs re-pairs the flat sequence into one range per interval, in run
// order.
func (r *PointRing) Pairs() []ring.Range {
	if len(r.points)%2 != 0 {
		panic(fmt.Sprintf("point ring holds %d boundaries, cannot pair", len(r.points)))
	}
	pairs := make([]ring.Range, 0, len(r.points)/2)
	for i := 0; i < len(r.points); i += 2 {
		a, b := r.points[i].Value, r.points[i+1].Value
		if r.forward {
			pairs = append(pairs, ring.Range{Start: a, End: b})
		} else {
			pairs = append(pairs, ring.Range{Start: b, End: a})
		}
	}
	return pairs
}

// Commit writes the re-paired boundaries back to the intervals they were
// taken from.
func (r *PointRing) Commit(rg *ring.Ring) error {
	for i, p := range r.Pairs() {
		h := r.owners[i]
		if err := rg.SetStart(h, p.Start); err != nil {
			return err
		}
		if err := rg.SetEnd(h, p.End); err != nil {
			return err
		}
	}
	return nil
}
