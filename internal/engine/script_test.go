package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []Step
		wantErr bool
	}{
		{name: "empty", src: "", want: []Step{}},
		{name: "emits", src: "a b A", want: []Step{{Action: ActionEmitA}, {Action: ActionEmitB}, {Action: ActionEmitA}}},
		{name: "separators", src: "a,b;reset\nwait", want: []Step{
			{Action: ActionEmitA}, {Action: ActionEmitB}, {Action: ActionReset}, {Action: ActionWait},
		}},
		{name: "aliases", src: "r settle", want: []Step{{Action: ActionReset}, {Action: ActionWait}}},
		{name: "speed", src: "speed=2.5 a", want: []Step{{Action: ActionSpeed, Speed: 2.5}, {Action: ActionEmitA}}},
		{name: "bad speed", src: "speed=fast", wantErr: true},
		{name: "negative speed", src: "speed=-1", wantErr: true},
		{name: "unknown", src: "a c", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRunScript(t *testing.T) {
	e, ctx := startEngine(t, fast)
	steps, err := ParseScript("a a b wait reset b a speed=4 b")
	require.NoError(t, err)

	snap, err := e.RunScript(ctx, steps)
	require.NoError(t, err)
	require.Equal(t, "[a0, b0]", snap.Output.String())
	require.Equal(t, []string{"b1"}, texts(snap.QueueB))
	require.Empty(t, snap.QueueA)
	require.Equal(t, []string{"b0", "b1"}, texts(snap.LaneB))
	require.Equal(t, MaxSpeed, snap.Speed)
	// The commit counter survives reset.
	require.Equal(t, 2, snap.Commits)
}
