package editor

import (
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/arcring/pkg/ring"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
)

type recorder struct {
	events []Event
}

func (r *recorder) observe(e Event) { r.events = append(r.events, e) }

func newTestEditor(t *testing.T, cfg Config) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := New(cfg,
		WithLogger(testr.NewWithOptions(t, testr.Options{Verbosity: 2})),
		WithObserver(rec.observe),
	)
	require.NoError(t, err)
	return e, rec
}

// collisionConfig yields [0,3600] and [4200,7800] after a split at 3900.
func collisionConfig() Config {
	cfg := DefaultConfig()
	cfg.MinSeparation = 600
	cfg.SplitThreshold = 3600
	cfg.SplitHalfWidth = 5
	cfg.Initial = ring.Range{Start: 0, End: 7800}
	return cfg
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Max = cfg.Min
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCurrentRangesImplicit(t *testing.T) {
	e, rec := newTestEditor(t, DefaultConfig())

	assert.Equal(t, ModeImplicit, e.Mode())
	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Empty(t, rec.events)
}

func TestDragWrapsToSameValue(t *testing.T) {
	e, rec := newTestEditor(t, DefaultConfig())

	thumb, ok := e.BeginDragAt(3600)
	require.True(t, ok)
	assert.Equal(t, EndpointRangeStart, thumb.Endpoint)

	assert.True(t, e.ContinueDrag(90000))
	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Equal(t, []Event{EventEditingDidBegin}, rec.events)

	e.EndDrag()
	_, ok = e.Selection()
	assert.False(t, ok)
	assert.Equal(t, []Event{EventEditingDidBegin, EventEditingDidEnd}, rec.events)
}

func TestContinueDragWithoutSelection(t *testing.T) {
	e, rec := newTestEditor(t, DefaultConfig())

	assert.False(t, e.ContinueDrag(7200))

	_, ok := e.BeginDragAt(50000)
	assert.False(t, ok)
	assert.False(t, e.ContinueDrag(7200))
	e.EndDrag()

	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Equal(t, []Event{EventEditingDidBegin, EventEditingDidEnd}, rec.events)
}

func TestDragImplicitRange(t *testing.T) {
	cases := map[string]struct {
		pick     float64
		drag     []float64
		expected ring.Range
	}{
		"MoveStart": {
			pick:     3600,
			drag:     []float64{5400, 7200},
			expected: ring.Range{Start: 7200, End: 28800},
		},
		"EndPushesStart": {
			pick:     28800,
			drag:     []float64{5000},
			expected: ring.Range{Start: 1400, End: 5000},
		},
		"StartPushesEnd": {
			pick:     3600,
			drag:     []float64{27000},
			expected: ring.Range{Start: 27000, End: 30600},
		},
		"StartAcrossSeam": {
			pick:     3600,
			drag:     []float64{1800, 0, 84600},
			expected: ring.Range{Start: 84600, End: 28800},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e, rec := newTestEditor(t, DefaultConfig())
			_, ok := e.BeginDragAt(tc.pick)
			require.True(t, ok)
			for _, v := range tc.drag {
				assert.True(t, e.ContinueDrag(v))
			}
			e.EndDrag()

			assert.Equal(t, ModeImplicit, e.Mode())
			if diff := cmp.Diff([]ring.Range{tc.expected}, e.CurrentRanges()); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			assert.Len(t, rec.events, len(tc.drag)+2)
		})
	}
}

func TestTrySplit(t *testing.T) {
	cases := map[string]struct {
		implicit ring.Range
		splits   []float64
		results  []bool
		expected []ring.Range
	}{
		"SplitImplicitRange": {
			splits:   []float64{16200},
			results:  []bool{true},
			expected: []ring.Range{{Start: 3600, End: 14400}, {Start: 18000, End: 28800}},
		},
		"SplitAwayFromMidpoint": {
			splits:   []float64{4000},
			results:  []bool{true},
			expected: []ring.Range{{Start: 3600, End: 14400}, {Start: 18000, End: 28800}},
		},
		"OutsideImplicitRange": {
			splits:   []float64{50000},
			results:  []bool{false},
			expected: []ring.Range{{Start: 3600, End: 28800}},
		},
		"TooNarrow": {
			implicit: ring.Range{Start: 3600, End: 14000},
			splits:   []float64{9000},
			results:  []bool{false},
			expected: []ring.Range{{Start: 3600, End: 14000}},
		},
		"SplitRingInterval": {
			splits:   []float64{16200, 5000},
			results:  []bool{true, true},
			expected: []ring.Range{{Start: 3600, End: 7200}, {Start: 10800, End: 14400}, {Start: 18000, End: 28800}},
		},
		"SplitLastRingInterval": {
			splits:   []float64{16200, 20000},
			results:  []bool{true, true},
			expected: []ring.Range{{Start: 3600, End: 14400}, {Start: 18000, End: 21600}, {Start: 25200, End: 28800}},
		},
		"RingIntervalTooNarrow": {
			splits:   []float64{16200, 5000, 5000},
			results:  []bool{true, true, false},
			expected: []ring.Range{{Start: 3600, End: 7200}, {Start: 10800, End: 14400}, {Start: 18000, End: 28800}},
		},
		"InGap": {
			splits:   []float64{16200, 16200},
			results:  []bool{true, false},
			expected: []ring.Range{{Start: 3600, End: 14400}, {Start: 18000, End: 28800}},
		},
		"StraddlingSeam": {
			implicit: ring.Range{Start: 79200, End: 7200},
			splits:   []float64{0},
			results:  []bool{true},
			expected: []ring.Range{{Start: 79200, End: 84600}, {Start: 1800, End: 7200}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e, rec := newTestEditor(t, DefaultConfig())
			if tc.implicit != (ring.Range{}) {
				require.NoError(t, e.SetImplicitRange(tc.implicit))
				rec.events = nil
			}
			changes := 0
			for i, v := range tc.splits {
				ok := e.TrySplit(v)
				assert.Equal(t, tc.results[i], ok, "split %d at %v", i, v)
				if ok {
					changes++
				}
			}
			if diff := cmp.Diff(tc.expected, e.CurrentRanges()); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			assert.Len(t, rec.events, changes)
			assert.NoError(t, e.Ring().Validate())
		})
	}
}

func TestSplitHalvesKeepSeparation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitThreshold = 5000
	cfg.Initial = ring.Range{Start: 0, End: 5000}
	_, err := New(cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	cases := map[string]struct {
		implicit ring.Range
		split    float64
		ok       bool
		expected []ring.Range
	}{
		"ShortestSplittableArc": {
			implicit: ring.Range{Start: 0, End: 10800},
			split:    2500,
			ok:       true,
			expected: []ring.Range{{Start: 0, End: 3600}, {Start: 7200, End: 10800}},
		},
		"BelowThreshold": {
			implicit: ring.Range{Start: 0, End: 10000},
			split:    2500,
			expected: []ring.Range{{Start: 0, End: 10000}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEditor(t, DefaultConfig())
			require.NoError(t, e.SetImplicitRange(tc.implicit))
			assert.Equal(t, tc.ok, e.TrySplit(tc.split))
			got := e.CurrentRanges()
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			for _, rng := range got {
				assert.GreaterOrEqual(t, e.Space().Length(rng.Start, rng.End), e.Config().MinSeparation)
			}
		})
	}
}

func TestSplitCopiesLabels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Labels = map[string]string{"kind": "work"}
	e, _ := newTestEditor(t, cfg)

	work := labels.SelectorFromSet(labels.Set{"kind": "work"})
	rest := labels.SelectorFromSet(labels.Set{"kind": "rest"})
	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 28800}}, e.RangesByLabel(work)); diff != "" {
		t.Errorf("implicit: -want, +got:\n%s", diff)
	}

	// labels are owned by the editor once it is built
	cfg.Labels["kind"] = "rest"
	assert.Empty(t, e.RangesByLabel(rest))

	require.True(t, e.TrySplit(16200))
	if diff := cmp.Diff(e.CurrentRanges(), e.RangesByLabel(work)); diff != "" {
		t.Errorf("ring: -want, +got:\n%s", diff)
	}
	assert.Empty(t, e.RangesByLabel(rest))
}

func TestCollisionPush(t *testing.T) {
	e, rec := newTestEditor(t, collisionConfig())
	require.True(t, e.TrySplit(3900))
	if diff := cmp.Diff([]ring.Range{{Start: 0, End: 3600}, {Start: 4200, End: 7800}}, e.CurrentRanges()); diff != "" {
		t.Fatalf("-want, +got:\n%s", diff)
	}

	thumb, ok := e.BeginDrag(func(t Thumb) bool {
		return t.Endpoint == EndpointIntervalEnd && t.Value == 3600
	})
	require.True(t, ok)
	assert.Equal(t, e.Ring().Head(), thumb.Handle)

	assert.True(t, e.ContinueDrag(4000))
	if diff := cmp.Diff([]ring.Range{{Start: 0, End: 4000}, {Start: 4600, End: 7800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, 4000.0, sel.Value)

	// dragging back leaves the pushed neighbour where it is
	assert.True(t, e.ContinueDrag(3000))
	e.EndDrag()
	if diff := cmp.Diff([]ring.Range{{Start: 0, End: 3000}, {Start: 4600, End: 7800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Equal(t, []Event{
		EventValueChanged,
		EventEditingDidBegin,
		EventValueChanged,
		EventValueChanged,
		EventEditingDidEnd,
	}, rec.events)
}

func TestBeginDragAtPicksNearest(t *testing.T) {
	e, _ := newTestEditor(t, DefaultConfig())
	require.True(t, e.TrySplit(16200))

	cases := map[string]struct {
		value    float64
		endpoint Endpoint
		start    float64
		ok       bool
	}{
		"FirstEnd":    {value: 14500, endpoint: EndpointIntervalEnd, start: 3600, ok: true},
		"SecondStart": {value: 17900, endpoint: EndpointIntervalStart, start: 18000, ok: true},
		"FirstStart":  {value: 1000, endpoint: EndpointIntervalStart, start: 3600, ok: true},
		"Miss":        {value: 50000, endpoint: EndpointNone},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			thumb, ok := e.BeginDragAt(tc.value)
			e.EndDrag()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.endpoint, thumb.Endpoint)
			if !ok {
				return
			}
			iv, err := e.Ring().Get(thumb.Handle)
			require.NoError(t, err)
			assert.Equal(t, tc.start, iv.Start)
		})
	}
}

func TestRemoveCollapsesToImplicit(t *testing.T) {
	e, rec := newTestEditor(t, DefaultConfig())
	require.True(t, e.TrySplit(16200))

	require.NoError(t, e.RemoveRange(ring.Range{Start: 3600, End: 14400}))
	assert.Equal(t, ModeRing, e.Mode())
	if diff := cmp.Diff([]ring.Range{{Start: 18000, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}

	err := e.RemoveRange(ring.Range{Start: 50000, End: 60000})
	assert.True(t, errors.Is(err, ErrRangeNotFound))

	require.NoError(t, e.RemoveRange(ring.Range{Start: 18000, End: 28800}))
	assert.Equal(t, ModeImplicit, e.Mode())
	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}

	err = e.RemoveRange(ring.Range{Start: 3600, End: 28800})
	assert.True(t, errors.Is(err, ErrRangeNotFound))
	assert.Len(t, rec.events, 3)
}

func TestRemoveIntervalClearsSelection(t *testing.T) {
	e, _ := newTestEditor(t, DefaultConfig())
	require.True(t, e.TrySplit(16200))

	thumb, ok := e.BeginDragAt(14400)
	require.True(t, ok)
	require.NoError(t, e.RemoveInterval(thumb.Handle))

	_, ok = e.Selection()
	assert.False(t, ok)
	assert.False(t, e.ContinueDrag(10000))
	e.EndDrag()

	err := e.RemoveInterval(thumb.Handle)
	assert.True(t, errors.Is(err, ring.ErrInvalidHandle))
	if diff := cmp.Diff([]ring.Range{{Start: 18000, End: 28800}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
}

func TestSetImplicitRange(t *testing.T) {
	e, rec := newTestEditor(t, DefaultConfig())

	require.NoError(t, e.SetImplicitRange(ring.Range{Start: 90000, End: 100800}))
	if diff := cmp.Diff([]ring.Range{{Start: 3600, End: 14400}}, e.CurrentRanges()); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
	assert.Len(t, rec.events, 1)

	err := e.SetImplicitRange(ring.Range{Start: 3600, End: 5000})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	// in ring mode the implicit range only changes the fallback
	require.True(t, e.TrySplit(9000))
	require.NoError(t, e.SetImplicitRange(ring.Range{Start: 0, End: 7200}))
	assert.Len(t, rec.events, 2)
	assert.Equal(t, ModeRing, e.Mode())
}
