package resolver

import (
	"github.com/go-logr/logr"
	"github.com/henderiw/arcring/pkg/pointring"
	"github.com/henderiw/arcring/pkg/ring"
	"github.com/henderiw/arcring/pkg/valuespace"
	"github.com/pkg/errors"
)

var ErrInvalidSeparation = errors.New("invalid minimum separation")

// Endpoint names which boundary of the pivot interval was dragged.
type Endpoint int

const (
	Start Endpoint = iota
	End
)

func (e Endpoint) String() string {
	if e == End {
		return "end"
	}
	return "start"
}

// Result describes one resolution pass.
type Result struct {
	Direction valuespace.Direction
	// Visited counts the boundaries that were checked.
	Visited int
	// Pushed counts the boundaries that had to move.
	Pushed int
	// Wrapped is set when the ring holds more than one interval and every
	// boundary other than the dragged one was pushed, so propagation only
	// stopped at the dragged boundary itself. A lone arc pushing its own
	// other boundary is not wrapped.
	Wrapped bool
}

// Resolver restores the minimum separation between ring boundaries after
// one of them was dragged, pushing neighbours in the direction of motion
// until a gap absorbs the push.
type Resolver struct {
	space         *valuespace.Space
	minSeparation float64
	log           logr.Logger
}

func New(space *valuespace.Space, minSeparation float64, log logr.Logger) (*Resolver, error) {
	if space == nil {
		return nil, errors.Wrap(ErrInvalidSeparation, "no value space")
	}
	if !(minSeparation > 0) {
		return nil, errors.Wrapf(ErrInvalidSeparation, "must be positive, got %v", minSeparation)
	}
	if minSeparation > space.Span() {
		return nil, errors.Wrapf(ErrInvalidSeparation, "%v exceeds the value space span %v", minSeparation, space.Span())
	}
	return &Resolver{
		space:         space,
		minSeparation: minSeparation,
		log:           log,
	}, nil
}

func (r *Resolver) MinSeparation() float64 { return r.minSeparation }

// SeparationAngle returns the minimum separation in degrees.
func (r *Resolver) SeparationAngle() float64 {
	return r.space.SeparationAngle(r.minSeparation)
}

// push checks boundary c, which lies ahead of a boundary that just moved
// from prevOld to prevNew in direction dir. When the gap left between them
// is at most the minimum separation, c is pushed to exactly the minimum
// separation past prevNew. A boundary that was overtaken collides too.
func (r *Resolver) push(prevOld, prevNew, c float64, dir valuespace.Direction) (float64, bool) {
	gap := r.space.Distance(prevOld, c, dir)
	moved := r.space.Distance(prevOld, prevNew, dir)
	if gap-moved > r.minSeparation {
		return c, false
	}
	return r.space.Move(prevNew, r.minSeparation, dir), true
}

// Resolve propagates the move of the pivot's endpoint from oldValue to
// newValue through the ring. The endpoint itself is expected to hold
// newValue already. Start endpoints are resolved interval by interval on
// the ring; end endpoints are resolved on a flattened point ring.
func (r *Resolver) Resolve(rg *ring.Ring, pivot ring.Handle, ep Endpoint, oldValue, newValue float64) (Result, error) {
	if !rg.Has(pivot) {
		return Result{}, errors.Wrapf(ring.ErrInvalidHandle, "resolve pivot %d", pivot)
	}
	oldValue = r.space.Normalize(oldValue)
	newValue = r.space.Normalize(newValue)

	dir, moved := r.space.DirectionOf(oldValue, newValue)
	res := Result{Direction: dir}
	if dir == valuespace.Stationary {
		return res, nil
	}

	var err error
	switch ep {
	case Start:
		if dir == valuespace.Clockwise {
			res = r.startClockwise(rg, pivot, oldValue, newValue, res)
		} else {
			res = r.startCounterclockwise(rg, pivot, oldValue, newValue, res)
		}
	default:
		res, err = r.endPoints(rg, pivot, oldValue, newValue, res)
	}
	if err != nil {
		return res, err
	}
	r.log.V(1).Info("resolved", "pivot", pivot, "endpoint", ep.String(), "direction", dir.String(),
		"moved", moved, "visited", res.Visited, "pushed", res.Pushed, "wrapped", res.Wrapped)
	return res, nil
}

// startClockwise walks s(pivot) -> e(pivot) -> s(next) -> e(next) ...
// alternating between the span of an interval and the gap to the next one.
func (r *Resolver) startClockwise(rg *ring.Ring, pivot ring.Handle, oldValue, newValue float64, res Result) Result {
	prevOld, prevNew := oldValue, newValue
	stopped := false
	step := func(h ring.Handle, c float64, set func(ring.Handle, float64) error) bool {
		res.Visited++
		nc, hit := r.push(prevOld, prevNew, c, valuespace.Clockwise)
		if !hit {
			stopped = true
			return false
		}
		r.commit(h, c, nc, set)
		res.Pushed++
		prevOld, prevNew = c, nc
		return true
	}
	rg.Traverse(pivot, true, func(h ring.Handle, iv ring.Interval) bool {
		if h != pivot {
			// gap
			if !step(h, iv.Start, rg.SetStart) {
				return false
			}
		}
		// span
		return step(h, iv.End, rg.SetEnd)
	})
	res.Wrapped = !stopped && rg.Len() > 1
	return res
}

// startCounterclockwise walks s(pivot) -> e(prev) -> s(prev) -> ... and
// finishes with the pivot's own end.
func (r *Resolver) startCounterclockwise(rg *ring.Ring, pivot ring.Handle, oldValue, newValue float64, res Result) Result {
	prevOld, prevNew := oldValue, newValue
	stopped := false
	step := func(h ring.Handle, c float64, set func(ring.Handle, float64) error) bool {
		res.Visited++
		nc, hit := r.push(prevOld, prevNew, c, valuespace.Counterclockwise)
		if !hit {
			stopped = true
			return false
		}
		r.commit(h, c, nc, set)
		res.Pushed++
		prevOld, prevNew = c, nc
		return true
	}
	rg.Traverse(pivot, false, func(h ring.Handle, iv ring.Interval) bool {
		if h == pivot {
			return true
		}
		// gap, then span
		return step(h, iv.End, rg.SetEnd) && step(h, iv.Start, rg.SetStart)
	})
	if !stopped {
		iv, err := rg.Get(pivot)
		if err != nil {
			panic(err)
		}
		step(pivot, iv.End, rg.SetEnd)
	}
	res.Wrapped = !stopped && rg.Len() > 1
	return res
}

// endPoints resolves an end endpoint on the flattened boundary sequence
// built in the direction of motion.
func (r *Resolver) endPoints(rg *ring.Ring, pivot ring.Handle, oldValue, newValue float64, res Result) (Result, error) {
	forward := res.Direction == valuespace.Clockwise
	pr := pointring.Build(rg, pivot, forward, 0)

	// forward: s(pivot), e(pivot), ...; backward: e(pivot), s(pivot), ...
	moved := 0
	if forward {
		moved = 1
	}
	pr.Set(moved, newValue)

	prevOld, prevNew := oldValue, newValue
	stopped := false
	res.Visited = pr.Walk(moved, func(i int, p pointring.Point) bool {
		nc, hit := r.push(prevOld, prevNew, p.Value, res.Direction)
		if !hit {
			stopped = true
			return false
		}
		pr.Set(i, nc)
		res.Pushed++
		r.log.V(2).Info("pushed", "handle", pr.Owner(i), "start", pr.IsStart(i), "from", p.Value, "to", nc)
		prevOld, prevNew = p.Value, nc
		return true
	})
	res.Wrapped = !stopped && rg.Len() > 1
	if err := pr.Commit(rg); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Resolver) commit(h ring.Handle, from, to float64, set func(ring.Handle, float64) error) {
	// h comes from a live traversal, so it is always linked
	if err := set(h, to); err != nil {
		panic(err)
	}
	r.log.V(2).Info("pushed", "handle", h, "from", from, "to", to)
}
