// Package drain serializes the visual consumption of zipped pairs. Pairs are
// buffered as they are produced and a single coordinator walks each one
// through a highlight phase, a move phase and a commit, one pair at a time and
// strictly in arrival order.
package drain

import "github.com/jask/zipdemo/internal/zip"

// Buffer is an unbounded FIFO of pairs waiting to be drained.
type Buffer struct {
	pairs []zip.Pair
}

// Push appends p at the tail.
func (b *Buffer) Push(p zip.Pair) {
	b.pairs = append(b.pairs, p)
}

// Pop removes and returns the head. Popping an empty buffer is a coordinator
// bug.
func (b *Buffer) Pop() zip.Pair {
	if len(b.pairs) == 0 {
		panic("drain: pop from empty buffer")
	}
	p := b.pairs[0]
	b.pairs[0] = zip.Pair{}
	b.pairs = b.pairs[1:]
	return p
}

// Len returns the number of buffered pairs.
func (b *Buffer) Len() int { return len(b.pairs) }

// Items returns a copy of the buffered pairs, head first.
func (b *Buffer) Items() []zip.Pair {
	return append([]zip.Pair(nil), b.pairs...)
}

// Clear drops every buffered pair.
func (b *Buffer) Clear() { b.pairs = nil }
