package ring

// Iterator walks a snapshot of the ring handles in ring order starting at
// the head. Values are read live, so intervals changed after Iterate was
// called are seen with their new values. Intervals removed after the
// snapshot are skipped, even when their slot was reused by a later insert.
type Iterator struct {
	current int
	handles []Handle
	gens    []uint64
	resets  uint64
	ring    *Ring
}

func (r *Iterator) Value() Interval {
	return r.ring.nodes[r.handles[r.current]].Interval
}

func (r *Iterator) Handle() Handle {
	return r.handles[r.current]
}

func (r *Iterator) Next() bool {
	r.current++
	if r.resets != r.ring.resets {
		r.current = len(r.handles)
		return false
	}
	for r.current < len(r.handles) {
		// skip nodes removed after the snapshot was taken
		h := r.handles[r.current]
		if r.ring.valid(h) && r.ring.nodes[h].gen == r.gens[r.current] {
			return true
		}
		r.current++
	}
	return false
}
