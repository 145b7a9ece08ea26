package ring

import (
	"fmt"

	"k8s.io/apimachinery/pkg/labels"
)

// Range is a plain [Start, End) pair on the circle. End may be numerically
// smaller than Start when the range straddles the max -> min seam.
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%g-%g", r.Start, r.End)
}

// Interval is one arc stored in the ring. Two intervals are the same arc
// only when they live behind the same Handle; equal values do not make
// them equal.
type Interval struct {
	Range
	Labels labels.Set
}

func NewInterval(start, end float64, l labels.Set) Interval {
	return Interval{
		Range:  Range{Start: start, End: end},
		Labels: l,
	}
}

func (r Interval) String() string {
	return fmt.Sprintf("range: %s, labels: %s", r.Range.String(), r.Labels.String())
}

// CopyLabels returns an independent copy of l; nil stays nil.
func CopyLabels(l labels.Set) labels.Set {
	if l == nil {
		return nil
	}
	n := make(labels.Set, len(l))
	for k, v := range l {
		n[k] = v
	}
	return n
}
