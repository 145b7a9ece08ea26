package ring

import (
	"fmt"

	"github.com/google/btree"
	"github.com/henderiw/arcring/pkg/valuespace"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/labels"
)

var ErrInvalidHandle = errors.New("invalid handle")

// Ring is a circular doubly linked list of intervals kept in clockwise
// order. Nodes live in an arena and are addressed by Handle; removed nodes
// return their slot to a free list.
//
// A Ring is not safe for concurrent use.
type Ring struct {
	space            *valuespace.Space
	nodes            []ringNode // index 0 is unused
	availableIndexes []Handle   // slots of removed nodes, reused before growing
	head             Handle
	count            int
	resets           uint64 // bumped by Reset, which drops every slot

	index      *btree.BTree // start values, rebuilt lazily
	indexDirty bool
}

func New(space *valuespace.Space) *Ring {
	return &Ring{
		space:            space,
		nodes:            make([]ringNode, 1),
		availableIndexes: make([]Handle, 0),
		index:            btree.New(4),
	}
}

// Space returns the value space the ring normalizes its values into.
func (r *Ring) Space() *valuespace.Space { return r.space }

func (r *Ring) IsEmpty() bool { return r.count == 0 }

func (r *Ring) Len() int { return r.count }

// Head returns the first node, or None if the ring is empty.
func (r *Ring) Head() Handle { return r.head }

func (r *Ring) valid(h Handle) bool {
	return h != None && int(h) < len(r.nodes) && r.nodes[h].inUse
}

// Has reports whether h addresses a node currently linked in the ring.
func (r *Ring) Has(h Handle) bool { return r.valid(h) }

func (r *Ring) Get(h Handle) (Interval, error) {
	if !r.valid(h) {
		return Interval{}, errors.Wrapf(ErrInvalidHandle, "get %d", h)
	}
	return r.nodes[h].Interval, nil
}

// Next returns the successor of h, or None if h is not in the ring.
func (r *Ring) Next(h Handle) Handle {
	if !r.valid(h) {
		return None
	}
	return r.link(r.nodes[h].Next)
}

// Prev returns the predecessor of h, or None if h is not in the ring.
func (r *Ring) Prev(h Handle) Handle {
	if !r.valid(h) {
		return None
	}
	return r.link(r.nodes[h].Prev)
}

// link guards every hop: a linked node always has both neighbours.
func (r *Ring) link(h Handle) Handle {
	if !r.valid(h) {
		panic(fmt.Sprintf("ring link points to unused node %d", h))
	}
	return h
}

// create a new node in the arena, return its handle
func (r *Ring) newNode(iv Interval) Handle {
	iv = r.normalize(iv)
	r.indexDirty = true
	availCount := len(r.availableIndexes)
	if availCount > 0 {
		h := r.availableIndexes[availCount-1]
		r.availableIndexes = r.availableIndexes[:availCount-1]
		r.nodes[h] = ringNode{Interval: iv, inUse: true}
		return h
	}
	r.nodes = append(r.nodes, ringNode{Interval: iv, inUse: true})
	return Handle(len(r.nodes) - 1)
}

func (r *Ring) normalize(iv Interval) Interval {
	iv.Start = r.space.Normalize(iv.Start)
	iv.End = r.space.Normalize(iv.End)
	iv.Labels = CopyLabels(iv.Labels)
	return iv
}

// Append inserts iv just before the head, which makes it the last interval
// in ring order. On an empty ring iv becomes the self linked head.
func (r *Ring) Append(iv Interval) Handle {
	h := r.newNode(iv)
	if r.head == None {
		r.nodes[h].Next = h
		r.nodes[h].Prev = h
		r.head = h
		r.count = 1
		return h
	}
	tail := r.link(r.nodes[r.head].Prev)
	r.nodes[h].Next = r.head
	r.nodes[h].Prev = tail
	r.nodes[tail].Next = h
	r.nodes[r.head].Prev = h
	r.count++
	return h
}

// InsertAfter splices iv in right after the node after.
func (r *Ring) InsertAfter(iv Interval, after Handle) (Handle, error) {
	if !r.valid(after) {
		return None, errors.Wrapf(ErrInvalidHandle, "insert after %d", after)
	}
	h := r.newNode(iv)
	next := r.link(r.nodes[after].Next)
	r.nodes[h].Next = next
	r.nodes[h].Prev = after
	r.nodes[after].Next = h
	r.nodes[next].Prev = h
	r.count++
	return h, nil
}

// Remove unlinks h. When h was the head its successor becomes the head;
// when it was the only node the ring becomes empty.
func (r *Ring) Remove(h Handle) error {
	if !r.valid(h) {
		return errors.Wrapf(ErrInvalidHandle, "remove %d", h)
	}
	node := &r.nodes[h]
	if r.count == 1 {
		r.head = None
	} else {
		next := r.link(node.Next)
		prev := r.link(node.Prev)
		if h == r.head {
			r.head = next
		}
		r.nodes[next].Prev = prev
		r.nodes[prev].Next = next
	}
	node.unlink()
	node.inUse = false
	node.gen++
	node.Interval = Interval{}
	r.count--
	r.availableIndexes = append(r.availableIndexes, h)
	r.indexDirty = true
	return nil
}

// RemoveRange removes every interval that lies entirely on the clockwise
// arc [start, end], both bounds inclusive, and returns them in ring order.
func (r *Ring) RemoveRange(start, end float64) []Interval {
	start = r.space.Normalize(start)
	end = r.space.Normalize(end)
	span := r.space.Length(start, end)

	var toRemove []Handle
	r.Each(func(h Handle, iv Interval) bool {
		if r.space.Length(start, iv.Start)+r.space.Length(iv.Start, iv.End) <= span+r.space.Tolerance() {
			toRemove = append(toRemove, h)
		}
		return true
	})

	removed := make([]Interval, 0, len(toRemove))
	for _, h := range toRemove {
		removed = append(removed, r.nodes[h].Interval)
		// handles were collected from the ring, removal cannot fail
		_ = r.Remove(h)
	}
	return removed
}

// Reset drops every interval.
func (r *Ring) Reset() {
	r.resets++
	r.nodes = make([]ringNode, 1)
	r.availableIndexes = r.availableIndexes[:0]
	r.head = None
	r.count = 0
	r.index.Clear(false)
	r.indexDirty = false
}

func (r *Ring) SetStart(h Handle, v float64) error {
	if !r.valid(h) {
		return errors.Wrapf(ErrInvalidHandle, "set start %d", h)
	}
	r.nodes[h].Interval.Start = r.space.Normalize(v)
	r.indexDirty = true
	return nil
}

func (r *Ring) SetEnd(h Handle, v float64) error {
	if !r.valid(h) {
		return errors.Wrapf(ErrInvalidHandle, "set end %d", h)
	}
	r.nodes[h].Interval.End = r.space.Normalize(v)
	return nil
}

// Update replaces the interval stored at h, labels included.
func (r *Ring) Update(h Handle, iv Interval) error {
	if !r.valid(h) {
		return errors.Wrapf(ErrInvalidHandle, "update %d", h)
	}
	r.nodes[h].Interval = r.normalize(iv)
	r.indexDirty = true
	return nil
}

// FindByStart returns the first node, walking from the head, whose start
// equals v.
func (r *Ring) FindByStart(v float64) (Handle, bool) {
	return r.find(func(iv Interval) bool { return r.space.Equal(iv.Start, v) })
}

// FindByEnd returns the first node, walking from the head, whose end
// equals v.
func (r *Ring) FindByEnd(v float64) (Handle, bool) {
	return r.find(func(iv Interval) bool { return r.space.Equal(iv.End, v) })
}

func (r *Ring) find(match func(iv Interval) bool) (Handle, bool) {
	found := None
	r.Each(func(h Handle, iv Interval) bool {
		if match(iv) {
			found = h
			return false
		}
		return true
	})
	return found, found != None
}

// Traverse visits nodes starting at from, following successors when
// forward is true and predecessors otherwise. It stops when visit returns
// false or after one full circuit, so at most Len nodes are visited. The
// ring must not be structurally modified during the walk.
func (r *Ring) Traverse(from Handle, forward bool, visit func(h Handle, iv Interval) bool) int {
	if !r.valid(from) {
		return 0
	}
	visited := 0
	current := from
	for visited < r.count {
		visited++
		if !visit(current, r.nodes[current].Interval) {
			return visited
		}
		if forward {
			current = r.link(r.nodes[current].Next)
		} else {
			current = r.link(r.nodes[current].Prev)
		}
		if current == from {
			break
		}
	}
	return visited
}

// Each visits every node clockwise from the head.
func (r *Ring) Each(visit func(h Handle, iv Interval) bool) {
	r.Traverse(r.head, true, visit)
}

// Iterate returns an iterator over the ring in clockwise order from the
// head.
func (r *Ring) Iterate() *Iterator {
	handles := make([]Handle, 0, r.count)
	gens := make([]uint64, 0, r.count)
	r.Each(func(h Handle, _ Interval) bool {
		handles = append(handles, h)
		gens = append(gens, r.nodes[h].gen)
		return true
	})
	return &Iterator{current: -1, handles: handles, gens: gens, resets: r.resets, ring: r}
}

// Ranges returns the ranges in ring order.
func (r *Ring) Ranges() []Range {
	ranges := make([]Range, 0, r.count)
	iter := r.Iterate()
	for iter.Next() {
		ranges = append(ranges, iter.Value().Range)
	}
	return ranges
}

// Intervals returns copies of the intervals in ring order.
func (r *Ring) Intervals() []Interval {
	intervals := make([]Interval, 0, r.count)
	iter := r.Iterate()
	for iter.Next() {
		iv := iter.Value()
		iv.Labels = CopyLabels(iv.Labels)
		intervals = append(intervals, iv)
	}
	return intervals
}

// GetByLabel returns the intervals whose labels match the selector.
func (r *Ring) GetByLabel(selector labels.Selector) map[Handle]Interval {
	entries := map[Handle]Interval{}
	iter := r.Iterate()
	for iter.Next() {
		if selector.Matches(iter.Value().Labels) {
			entries[iter.Handle()] = iter.Value()
		}
	}
	return entries
}

// Validate checks the ring invariants: every linked node has both
// neighbours, the successor chain returns to the head after exactly Len
// hops and predecessor links mirror successor links.
func (r *Ring) Validate() error {
	if r.count == 0 {
		if r.head != None {
			return errors.Errorf("empty ring has head %d", r.head)
		}
		return nil
	}
	if !r.valid(r.head) {
		return errors.Errorf("head %d is not a linked node", r.head)
	}
	seen := make(map[Handle]struct{}, r.count)
	current := r.head
	for i := 0; i < r.count; i++ {
		if _, ok := seen[current]; ok {
			return errors.Errorf("node %d reached twice after %d hops", current, i)
		}
		seen[current] = struct{}{}
		next := r.nodes[current].Next
		if !r.valid(next) {
			return errors.Errorf("node %d has no successor", current)
		}
		if r.nodes[next].Prev != current {
			return errors.Errorf("node %d successor %d points back to %d", current, next, r.nodes[next].Prev)
		}
		current = next
	}
	if current != r.head {
		return errors.Errorf("walking %d successors from head %d ends at %d", r.count, r.head, current)
	}
	return nil
}
