package ring

import (
	"github.com/google/btree"
)

type startItem struct {
	start  float64
	handle Handle
}

func (n startItem) Less(than btree.Item) bool {
	o := than.(startItem)
	if n.start != o.start {
		return n.start < o.start
	}
	return n.handle < o.handle
}

func (r *Ring) rebuildIndex() {
	if !r.indexDirty {
		return
	}
	r.index.Clear(false)
	r.Each(func(h Handle, iv Interval) bool {
		r.index.ReplaceOrInsert(startItem{start: iv.Start, handle: h})
		return true
	})
	r.indexDirty = false
}

// Locate returns the interval containing v. Intervals do not overlap, so
// the candidate is the one with the greatest start at or before v, wrapping
// to the greatest start overall when v lies before every start.
func (r *Ring) Locate(v float64) (Handle, bool) {
	if r.count == 0 {
		return None, false
	}
	v = r.space.Normalize(v)
	r.rebuildIndex()

	candidate := None
	r.index.DescendLessOrEqual(startItem{start: v, handle: ^Handle(0)}, func(i btree.Item) bool {
		candidate = i.(startItem).handle
		return false
	})
	if candidate == None {
		candidate = r.index.Max().(startItem).handle
	}
	iv := r.nodes[candidate].Interval
	if !r.space.Contains(iv.Start, iv.End, v) {
		return None, false
	}
	return candidate, true
}
