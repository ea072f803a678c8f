package zip

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T) (*Stream, *Stream, *Combinator, *[]Pair) {
	t.Helper()
	a, b := NewStream(SideA), NewStream(SideB)
	var got []Pair
	c := Zip(a, b, func(p Pair) { got = append(got, p) })
	return a, b, c, &got
}

func TestStreamKeysAndLabels(t *testing.T) {
	s := NewStream(SideB)
	require.Equal(t, Item{Side: SideB, Key: 0, Text: "b0"}, s.Next())
	s.Emit()
	s.Emit()
	last := s.Emit()
	require.Equal(t, Item{Side: SideB, Key: 2, Text: "b2"}, last)
	require.Len(t, s.Emitted(), 3)

	s.Reset()
	require.Empty(t, s.Emitted())
	require.Equal(t, "b0", s.Emit().Text)
}

func TestStreamSubscribeCancel(t *testing.T) {
	s := NewStream(SideA)
	var first, second []string
	cancel := s.Subscribe(func(it Item) { first = append(first, it.Text) })
	s.Subscribe(func(it Item) { second = append(second, it.Text) })
	s.Emit()
	cancel()
	cancel()
	s.Emit()
	require.Equal(t, []string{"a0"}, first)
	require.Equal(t, []string{"a0", "a1"}, second)
}

func TestZipPairsByOrdinal(t *testing.T) {
	a, b, c, got := newPair(t)

	a.Emit()
	a.Emit()
	a.Emit()
	require.Empty(t, *got)
	require.Len(t, c.Pending(SideA), 3)

	b.Emit()
	b.Emit()
	require.Equal(t, []Pair{
		{A: Item{SideA, 0, "a0"}, B: Item{SideB, 0, "b0"}, Seq: 0},
		{A: Item{SideA, 1, "a1"}, B: Item{SideB, 1, "b1"}, Seq: 1},
	}, *got)
	require.Equal(t, []Item{{SideA, 2, "a2"}}, c.Pending(SideA))
	require.Empty(t, c.Pending(SideB))
}

func TestZipOrderingIndependentOfInterleaving(t *testing.T) {
	interleavings := []string{
		"ababab",
		"aaabbb",
		"bbbaaa",
		"abbbaa",
		"baabba",
	}
	for _, seq := range interleavings {
		t.Run(seq, func(t *testing.T) {
			a, b, _, got := newPair(t)
			for _, r := range seq {
				if r == 'a' {
					a.Emit()
				} else {
					b.Emit()
				}
			}
			require.Len(t, *got, 3)
			for i, p := range *got {
				require.Equal(t, i, p.A.Key)
				require.Equal(t, i, p.B.Key)
				require.Equal(t, i, p.Seq)
			}
		})
	}
}

func TestZipCloseDropsPendingAndStopsPairing(t *testing.T) {
	a, b, c, got := newPair(t)
	a.Emit()
	c.Close()
	c.Close()
	require.Empty(t, c.Pending(SideA))

	b.Emit()
	require.Empty(t, *got)

	var fresh []Pair
	next := Zip(a, b, func(p Pair) { fresh = append(fresh, p) })
	require.NotEqual(t, c.ID(), next.ID())
	a.Emit()
	require.Len(t, fresh, 0)
	b.Emit()
	require.Len(t, fresh, 1)
	require.Equal(t, "a1", fresh[0].A.Text)
	require.Equal(t, "b1", fresh[0].B.Text)
}

func TestPairHelpers(t *testing.T) {
	p := Pair{A: newItem(SideA, 3), B: newItem(SideB, 3), Seq: 3}
	require.Equal(t, "[a3, b3]", p.String())
	require.Equal(t, "b3", p.Get(SideB).Text)

	s, ok := ParseSide("B")
	require.True(t, ok)
	require.Equal(t, SideB, s)
	_, ok = ParseSide("c")
	require.False(t, ok)
}

func TestItemJSON(t *testing.T) {
	b, err := json.Marshal(newItem(SideB, 4))
	require.NoError(t, err)
	require.JSONEq(t, `{"side":"b","key":4,"text":"b4"}`, string(b))

	var it Item
	require.NoError(t, json.Unmarshal(b, &it))
	require.Equal(t, SideB, it.Side)
	require.Error(t, json.Unmarshal([]byte(`{"side":"c"}`), &it))
}
