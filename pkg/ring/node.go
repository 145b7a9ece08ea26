package ring

// Handle addresses a node in the ring arena. The zero Handle is never
// assigned and means "no node".
type Handle uint

// None is the zero Handle.
const None Handle = 0

type ringNode struct {
	Next     Handle // successor index: 0 for not linked
	Prev     Handle // predecessor index: 0 for not linked
	Interval Interval
	inUse    bool
	gen      uint64 // bumped on every removal so reused slots can be told apart
}

// unlink clears the node links so a removed node keeps no reference into
// the ring
func (n *ringNode) unlink() {
	n.Next = None
	n.Prev = None
}
