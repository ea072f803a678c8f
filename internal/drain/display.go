package drain

import (
	"fmt"

	"github.com/jask/zipdemo/internal/zip"
)

// UpdateMode hints the renderer how the queues last changed.
type UpdateMode int

const (
	ModeNone UpdateMode = iota
	// ModeEnter means an item was just enqueued.
	ModeEnter
)

func (m UpdateMode) String() string {
	if m == ModeEnter {
		return "enter"
	}
	return "none"
}

// Display is the on-screen state: the items waiting on each side and the
// last committed pair.
type Display struct {
	queues [2][]zip.Item
	output *zip.Pair
	mode   UpdateMode
}

// enqueue appends it to its side's queue. Keys must grow strictly per side,
// which keeps every queued item unique.
func (d *Display) enqueue(it zip.Item) {
	q := d.queues[it.Side]
	if n := len(q); n > 0 && q[n-1].Key >= it.Key {
		panic(fmt.Sprintf("drain: key %d enqueued after %d on side %s", it.Key, q[n-1].Key, it.Side))
	}
	d.queues[it.Side] = append(q, it)
	d.mode = ModeEnter
}

// commit removes both items of p and makes p the output. The items of the
// oldest uncommitted pair are always the queue heads; anything else means
// the coordinator lost track of ownership.
func (d *Display) commit(p zip.Pair) {
	for _, side := range zip.Sides {
		want := p.Get(side)
		q := d.queues[side]
		if len(q) == 0 || q[0] != want {
			panic(fmt.Sprintf("drain: committing %s but queue %s head is %v", want.Text, side, head(q)))
		}
		d.queues[side] = q[1:]
	}
	out := p
	d.output = &out
	d.mode = ModeNone
}

func (d *Display) clear() {
	d.queues = [2][]zip.Item{}
	d.output = nil
	d.mode = ModeNone
}

// Queue returns a copy of side's waiting items.
func (d *Display) Queue(side zip.Side) []zip.Item {
	return append([]zip.Item(nil), d.queues[side]...)
}

// Output returns the last committed pair, if any.
func (d *Display) Output() (zip.Pair, bool) {
	if d.output == nil {
		return zip.Pair{}, false
	}
	return *d.output, true
}

// Mode returns the queue update hint.
func (d *Display) Mode() UpdateMode { return d.mode }

func head(q []zip.Item) any {
	if len(q) == 0 {
		return "<empty>"
	}
	return q[0].Text
}
