package editor

import (
	"math"

	"github.com/go-logr/logr"
	"github.com/henderiw/arcring/pkg/resolver"
	"github.com/henderiw/arcring/pkg/ring"
	"github.com/henderiw/arcring/pkg/valuespace"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/labels"
)

var ErrRangeNotFound = errors.New("range not found")

// Mode tells whether the editor works on its implicit range or on the ring.
type Mode int

const (
	ModeImplicit Mode = iota
	ModeRing
)

func (m Mode) String() string {
	if m == ModeRing {
		return "ring"
	}
	return "implicit"
}

// Endpoint identifies a draggable thumb.
type Endpoint int

const (
	EndpointNone Endpoint = iota
	// EndpointRangeStart and EndpointRangeEnd are the thumbs of the
	// implicit range.
	EndpointRangeStart
	EndpointRangeEnd
	EndpointIntervalStart
	EndpointIntervalEnd
)

func (e Endpoint) String() string {
	switch e {
	case EndpointRangeStart:
		return "rangeStart"
	case EndpointRangeEnd:
		return "rangeEnd"
	case EndpointIntervalStart:
		return "intervalStart"
	case EndpointIntervalEnd:
		return "intervalEnd"
	default:
		return "none"
	}
}

func (e Endpoint) isStart() bool {
	return e == EndpointRangeStart || e == EndpointIntervalStart
}

// Thumb is one draggable boundary. Handle is ring.None for the thumbs of
// the implicit range.
type Thumb struct {
	Handle   ring.Handle
	Endpoint Endpoint
	Value    float64
}

// HitTester reports whether the current touch lies on a thumb. It stands in
// for the renderer, which owns the screen geometry.
type HitTester func(Thumb) bool

type Option func(*Editor)

func WithLogger(log logr.Logger) Option {
	return func(r *Editor) { r.log = log }
}

func WithObserver(o Observer) Option {
	return func(r *Editor) { r.Subscribe(o) }
}

// Editor is the facade the gesture layer talks to. It owns the ring, the
// implicit range used while the ring is empty, and the current drag
// selection. It expects one begin / continue / end sequence at a time and
// is not safe for concurrent use.
type Editor struct {
	cfg       Config
	space     *valuespace.Space
	resolver  *resolver.Resolver
	ring      *ring.Ring
	implicit  ring.Interval
	selection Thumb
	observers []Observer
	log       logr.Logger
}

func New(cfg Config, opts ...Option) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space, err := valuespace.New(cfg.Min, cfg.Max, cfg.Rounds)
	if err != nil {
		return nil, err
	}
	r := &Editor{
		cfg:   cfg,
		space: space,
		ring:  ring.New(space),
		log:   logr.Discard(),
	}
	for _, o := range opts {
		o(r)
	}
	r.resolver, err = resolver.New(space, cfg.MinSeparation, r.log.WithName("resolver"))
	if err != nil {
		return nil, err
	}
	var l labels.Set
	if len(cfg.Labels) > 0 {
		// the config map stays with the caller
		l = ring.CopyLabels(labels.Set(cfg.Labels))
	}
	r.implicit = ring.NewInterval(space.Normalize(cfg.Initial.Start), space.Normalize(cfg.Initial.End), l)
	return r, nil
}

func (r *Editor) Config() Config { return r.cfg }

func (r *Editor) Space() *valuespace.Space { return r.space }

// Ring gives read access to the interval ring. Callers must not mutate it.
func (r *Editor) Ring() *ring.Ring { return r.ring }

func (r *Editor) Mode() Mode {
	if r.ring.IsEmpty() {
		return ModeImplicit
	}
	return ModeRing
}

// Selection returns the thumb being dragged, if any.
func (r *Editor) Selection() (Thumb, bool) {
	return r.selection, r.selection.Endpoint != EndpointNone
}

// CurrentRanges returns one range per ring interval in ring order, or the
// implicit range when the ring is empty.
func (r *Editor) CurrentRanges() []ring.Range {
	if r.ring.IsEmpty() {
		return []ring.Range{r.implicit.Range}
	}
	return r.ring.Ranges()
}

// RangesByLabel returns the current ranges whose labels match selector, in
// ring order.
func (r *Editor) RangesByLabel(selector labels.Selector) []ring.Range {
	ranges := []ring.Range{}
	if r.ring.IsEmpty() {
		if selector.Matches(r.implicit.Labels) {
			ranges = append(ranges, r.implicit.Range)
		}
		return ranges
	}
	matched := r.ring.GetByLabel(selector)
	r.ring.Each(func(h ring.Handle, iv ring.Interval) bool {
		if _, ok := matched[h]; ok {
			ranges = append(ranges, iv.Range)
		}
		return true
	})
	return ranges
}

// SetImplicitRange replaces the range used while the ring is empty.
func (r *Editor) SetImplicitRange(rng ring.Range) error {
	start, end := r.space.Normalize(rng.Start), r.space.Normalize(rng.End)
	if math.IsNaN(start) || math.IsNaN(end) {
		return errors.Wrapf(ErrInvalidConfig, "implicit range %s is not finite", rng)
	}
	if l := r.space.Length(start, end); l < r.cfg.MinSeparation {
		return errors.Wrapf(ErrInvalidConfig, "implicit range %s is shorter than the minimum separation %v", rng, r.cfg.MinSeparation)
	}
	r.implicit.Range = ring.Range{Start: start, End: end}
	if r.Mode() == ModeImplicit {
		r.notify(EventValueChanged)
	}
	return nil
}

// Thumbs lists the draggable boundaries in ring order, start before end.
func (r *Editor) Thumbs() []Thumb {
	if r.ring.IsEmpty() {
		return []Thumb{
			{Handle: ring.None, Endpoint: EndpointRangeStart, Value: r.implicit.Start},
			{Handle: ring.None, Endpoint: EndpointRangeEnd, Value: r.implicit.End},
		}
	}
	thumbs := make([]Thumb, 0, 2*r.ring.Len())
	r.ring.Each(func(h ring.Handle, iv ring.Interval) bool {
		thumbs = append(thumbs,
			Thumb{Handle: h, Endpoint: EndpointIntervalStart, Value: iv.Start},
			Thumb{Handle: h, Endpoint: EndpointIntervalEnd, Value: iv.End},
		)
		return true
	})
	return thumbs
}

// BeginDrag starts an editing sequence and selects the first thumb, in
// ring order, that hit accepts.
func (r *Editor) BeginDrag(hit HitTester) (Thumb, bool) {
	r.notify(EventEditingDidBegin)
	r.selection = Thumb{}
	for _, t := range r.Thumbs() {
		if hit(t) {
			r.selection = t
			break
		}
	}
	r.log.V(1).Info("begin drag", "handle", r.selection.Handle, "endpoint", r.selection.Endpoint.String())
	return r.Selection()
}

// BeginDragAt starts an editing sequence and selects the thumb closest to
// value, provided it lies within the configured thumb tolerance.
func (r *Editor) BeginDragAt(value float64) (Thumb, bool) {
	best, bestDist := Thumb{}, math.Inf(1)
	for _, t := range r.Thumbs() {
		d := r.space.AngularDistance(value, t.Value)
		if d <= r.cfg.ThumbTolerance && d < bestDist {
			best, bestDist = t, d
		}
	}
	return r.BeginDrag(func(t Thumb) bool {
		return best.Endpoint != EndpointNone && t == best
	})
}

// ContinueDrag moves the selected thumb to value and resolves collisions.
// It returns false when there is nothing selected. A move that does not
// change the value mutates nothing and notifies nobody.
func (r *Editor) ContinueDrag(value float64) bool {
	sel, ok := r.Selection()
	if !ok {
		return false
	}
	newValue := r.space.Normalize(value)

	var res resolver.Result
	var err error
	switch sel.Endpoint {
	case EndpointRangeStart, EndpointRangeEnd:
		if !r.ring.IsEmpty() {
			// the ring was populated while dragging the implicit range
			r.selection = Thumb{}
			return false
		}
		res, err = r.dragImplicit(sel.Endpoint, newValue)
	default:
		if !r.ring.Has(sel.Handle) {
			r.selection = Thumb{}
			return false
		}
		res, err = r.drag(r.ring, sel.Handle, sel.Endpoint, newValue)
	}
	if err != nil {
		r.log.Error(err, "cannot resolve drag", "handle", sel.Handle, "endpoint", sel.Endpoint.String())
		return false
	}
	if res.Direction == valuespace.Stationary {
		return true
	}
	r.selection.Value = newValue
	r.log.V(1).Info("drag", "handle", sel.Handle, "endpoint", sel.Endpoint.String(),
		"value", newValue, "pushed", res.Pushed, "wrapped", res.Wrapped)
	r.notify(EventValueChanged)
	return true
}

func resolverEndpoint(e Endpoint) resolver.Endpoint {
	if e.isStart() {
		return resolver.Start
	}
	return resolver.End
}

// drag moves one endpoint of h on rg and resolves the collisions it causes.
func (r *Editor) drag(rg *ring.Ring, h ring.Handle, e Endpoint, newValue float64) (resolver.Result, error) {
	iv, err := rg.Get(h)
	if err != nil {
		return resolver.Result{}, err
	}
	oldValue := iv.End
	if e.isStart() {
		oldValue = iv.Start
	}
	if dir, _ := r.space.DirectionOf(oldValue, newValue); dir == valuespace.Stationary {
		return resolver.Result{Direction: dir}, nil
	}
	if e.isStart() {
		err = rg.SetStart(h, newValue)
	} else {
		err = rg.SetEnd(h, newValue)
	}
	if err != nil {
		return resolver.Result{}, err
	}
	return r.resolver.Resolve(rg, h, resolverEndpoint(e), oldValue, newValue)
}

// dragImplicit resolves the implicit range on a one-arc scratch ring so its
// own start and end keep the minimum separation too.
func (r *Editor) dragImplicit(e Endpoint, newValue float64) (resolver.Result, error) {
	scratch := ring.New(r.space)
	h := scratch.Append(ring.NewInterval(r.implicit.Start, r.implicit.End, nil))
	res, err := r.drag(scratch, h, e, newValue)
	if err != nil || res.Direction == valuespace.Stationary {
		return res, err
	}
	iv, err := scratch.Get(h)
	if err != nil {
		return res, err
	}
	r.implicit.Range = iv.Range
	return res, nil
}

// EndDrag finishes the editing sequence. The selection is cleared whether
// or not the drag changed anything.
func (r *Editor) EndDrag() {
	r.log.V(1).Info("end drag", "handle", r.selection.Handle, "endpoint", r.selection.Endpoint.String())
	r.selection = Thumb{}
	r.notify(EventEditingDidEnd)
}

// TrySplit splits the arc under value in two, carving out a gap centred on
// the arc midpoint. Arcs shorter than the split threshold are left alone.
// Splitting the implicit range moves the editor into ring mode; the
// implicit range is kept as the fallback for when the ring empties again.
func (r *Editor) TrySplit(value float64) bool {
	value = r.space.Normalize(value)
	half := r.cfg.SplitGap()

	if r.ring.IsEmpty() {
		iv := r.implicit
		if !r.splittable(iv.Range, value) {
			return false
		}
		mid := r.space.Midpoint(iv.Start, iv.End)
		first := r.ring.Append(ring.NewInterval(iv.Start, r.space.WrapSubtract(mid, half), iv.Labels))
		second := r.ring.Append(ring.NewInterval(r.space.WrapAdd(mid, half), iv.End, iv.Labels))
		r.log.V(1).Info("split implicit range", "range", iv.Range.String(), "first", first, "second", second)
		r.notify(EventValueChanged)
		return true
	}

	h, ok := r.ring.Locate(value)
	if !ok {
		return false
	}
	iv, err := r.ring.Get(h)
	if err != nil {
		return false
	}
	if !r.splittable(iv.Range, value) {
		return false
	}
	mid := r.space.Midpoint(iv.Start, iv.End)
	if err := r.ring.SetEnd(h, r.space.WrapSubtract(mid, half)); err != nil {
		return false
	}
	second, err := r.ring.InsertAfter(ring.NewInterval(r.space.WrapAdd(mid, half), iv.End, iv.Labels), h)
	if err != nil {
		return false
	}
	r.log.V(1).Info("split interval", "handle", h, "range", iv.Range.String(), "second", second)
	r.notify(EventValueChanged)
	return true
}

func (r *Editor) splittable(rng ring.Range, value float64) bool {
	return r.space.Contains(rng.Start, rng.End, value) &&
		r.space.Length(rng.Start, rng.End) >= r.cfg.SplitThreshold
}

// RemoveRange removes every ring interval lying within target. When the
// last interval goes, the editor falls back to its implicit range.
func (r *Editor) RemoveRange(target ring.Range) error {
	if r.ring.IsEmpty() {
		return errors.Wrapf(ErrRangeNotFound, "remove %s: the implicit range cannot be removed", target)
	}
	removed := r.ring.RemoveRange(target.Start, target.End)
	if len(removed) == 0 {
		return errors.Wrapf(ErrRangeNotFound, "remove %s", target)
	}
	r.afterRemove()
	r.log.V(1).Info("removed range", "target", target.String(), "removed", len(removed), "mode", r.Mode().String())
	r.notify(EventValueChanged)
	return nil
}

// RemoveInterval removes the interval behind h.
func (r *Editor) RemoveInterval(h ring.Handle) error {
	if err := r.ring.Remove(h); err != nil {
		return err
	}
	r.afterRemove()
	r.log.V(1).Info("removed interval", "handle", h, "mode", r.Mode().String())
	r.notify(EventValueChanged)
	return nil
}

// afterRemove drops a selection whose interval is gone.
func (r *Editor) afterRemove() {
	if sel, ok := r.Selection(); ok && sel.Handle != ring.None && !r.ring.Has(sel.Handle) {
		r.selection = Thumb{}
	}
}
