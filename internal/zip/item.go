// Package zip holds the two input streams of the demo and the combinator that
// pairs them Nth-with-Nth.
//
// Nothing in this package is safe for concurrent use. Streams and combinators
// are owned by a single logical thread (see internal/engine).
package zip

import (
	"fmt"
	"strconv"
)

// Side identifies one of the two input streams.
type Side int

const (
	SideA Side = iota
	SideB
)

// Sides lists both sides in display order.
var Sides = [2]Side{SideA, SideB}

func (s Side) String() string {
	switch s {
	case SideA:
		return "a"
	case SideB:
		return "b"
	default:
		return "side(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool { return s == SideA || s == SideB }

// ParseSide maps "a"/"b" (any case) to a Side.
func ParseSide(v string) (Side, bool) {
	switch v {
	case "a", "A":
		return SideA, true
	case "b", "B":
		return SideB, true
	}
	return 0, false
}

// MarshalText renders the side as "a" or "b".
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts what MarshalText produces.
func (s *Side) UnmarshalText(b []byte) error {
	side, ok := ParseSide(string(b))
	if !ok {
		return fmt.Errorf("zip: unknown side %q", b)
	}
	*s = side
	return nil
}

// Item is one labeled value produced by a stream. Items are immutable and
// compared by value; keys are unique per side between resets.
type Item struct {
	Side Side   `json:"side"`
	Key  int    `json:"key"`
	Text string `json:"text"`
}

func newItem(side Side, key int) Item {
	return Item{Side: side, Key: key, Text: side.String() + strconv.Itoa(key)}
}

// Pair is one zip match. Seq is the ordinal of the match within the
// subscription that produced it, so A and B are both the Seq-th item of their
// side.
type Pair struct {
	A   Item `json:"a"`
	B   Item `json:"b"`
	Seq int  `json:"seq"`
}

// Get returns the item of the pair that came from side.
func (p Pair) Get(side Side) Item {
	if side == SideB {
		return p.B
	}
	return p.A
}

// String renders the pair the way the output box shows it.
func (p Pair) String() string {
	return "[" + p.A.Text + ", " + p.B.Text + "]"
}
