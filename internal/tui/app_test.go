package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/zipdemo/internal/config"
	"github.com/jask/zipdemo/internal/database/repository"
	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/engine"
	"github.com/jask/zipdemo/internal/service"
	"github.com/jask/zipdemo/internal/zip"
)

type fakeEngine struct {
	emits  []zip.Side
	resets int
	speeds []float64
	snap   engine.Snapshot
	ch     chan engine.Snapshot
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{ch: make(chan engine.Snapshot, 1)}
}

func (f *fakeEngine) Emit(side zip.Side)        { f.emits = append(f.emits, side) }
func (f *fakeEngine) Reset()                    { f.resets++ }
func (f *fakeEngine) SetSpeed(speed float64)    { f.speeds = append(f.speeds, speed) }
func (f *fakeEngine) Subscribe() (<-chan engine.Snapshot, func()) {
	return f.ch, func() {}
}
func (f *fakeEngine) Query(context.Context) (engine.Snapshot, error) {
	return f.snap, nil
}

type fakeJournal struct {
	events  []repository.Event
	stats   service.JournalStats
	err     error
	cleared int
}

func (f *fakeJournal) Recent(_ context.Context, limit int) ([]repository.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) > limit {
		return f.events[len(f.events)-limit:], nil
	}
	return f.events, nil
}

func (f *fakeJournal) Stats(context.Context) (service.JournalStats, error) {
	return f.stats, f.err
}

func (f *fakeJournal) Clear(context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := int64(len(f.events))
	f.events = nil
	f.stats = service.JournalStats{}
	f.cleared++
	return n, nil
}

func testConfig() config.Config {
	return config.Config{
		Animation: config.AnimationConfig{Speed: 1},
		Journal:   config.JournalConfig{Enabled: true, TraceLimit: 5},
		UI:        config.UIConfig{ShowDocs: true},
		File:      "/tmp/zipdemo/config.toml",
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, a *App, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, m := range msgs {
		_, cmd = a.Update(m)
	}
	return cmd
}

func typeCommand(t *testing.T, a *App, line string) tea.Cmd {
	t.Helper()
	press(t, a, keyRunes(":"))
	require.True(t, a.commandOpen)
	for _, r := range line {
		if r == ' ' {
			press(t, a, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		press(t, a, keyRunes(string(r)))
	}
	return press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestKeysDriveEngine(t *testing.T) {
	eng := newFakeEngine()
	a := New(context.Background(), testConfig(), eng)

	press(t, a, keyRunes("a"), keyRunes("b"), keyRunes("a"), keyRunes("r"))
	require.Equal(t, []zip.Side{zip.SideA, zip.SideB, zip.SideA}, eng.emits)
	require.Equal(t, 1, eng.resets)

	press(t, a, keyRunes("]"))
	press(t, a, keyRunes("]"))
	require.Equal(t, []float64{1.5, 2}, eng.speeds)
	press(t, a, keyRunes("["), keyRunes("["), keyRunes("["))
	require.Equal(t, 0.75, a.speed)
	require.Equal(t, 0.75, a.cfg.Animation.Speed)

	cmd := press(t, a, keyRunes("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSpeedStepsClamp(t *testing.T) {
	require.Equal(t, 4.0, stepSpeed(4, 1))
	require.Equal(t, 0.25, stepSpeed(0.25, -1))
	require.Equal(t, 1.5, stepSpeed(1.2, 1))
	require.Equal(t, 1.0, stepSpeed(1.2, -1))
	require.Equal(t, "0.25", formatSpeed(0.25))
	require.Equal(t, "2", formatSpeed(2))
}

func TestCommandLine(t *testing.T) {
	eng := newFakeEngine()
	a := New(context.Background(), testConfig(), eng)

	typeCommand(t, a, "emit b")
	require.False(t, a.commandOpen)
	require.Equal(t, []zip.Side{zip.SideB}, eng.emits)

	cmd := typeCommand(t, a, "speed 2")
	require.Equal(t, []float64{2}, eng.speeds)
	require.Equal(t, statusMsg("speed 2x"), cmd())

	typeCommand(t, a, "spedd 3")
	require.True(t, a.statusErr)
	require.Contains(t, a.status, `did you mean "speed"`)

	typeCommand(t, a, "emit c")
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "unknown stream")

	typeCommand(t, a, "help")
	require.True(t, a.help.ShowAll)

	cmd = typeCommand(t, a, "quit")
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCommandLineEditing(t *testing.T) {
	a := New(context.Background(), testConfig(), newFakeEngine())

	press(t, a, keyRunes(":"), keyRunes("s"), keyRunes("a"))
	press(t, a, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "save ", a.command.Value())
	press(t, a, tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "save", a.command.Value())
	require.Contains(t, a.View(), ":save")

	// The cursor moves; typing lands where it is.
	press(t, a, tea.KeyMsg{Type: tea.KeyHome}, keyRunes("x"))
	require.Equal(t, "xsave", a.command.Value())
	press(t, a, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnd})

	// Pasted text arrives as one message.
	press(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" now"), Paste: true})
	require.Equal(t, "save now", a.command.Value())

	press(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, a.commandOpen)
	require.Empty(t, a.command.Value())
}

func TestSaveCommand(t *testing.T) {
	var saved []config.Config
	a := New(context.Background(), testConfig(), newFakeEngine(), WithSaver(func(c config.Config) error {
		saved = append(saved, c)
		return nil
	}))
	press(t, a, keyRunes("]"))

	cmd := typeCommand(t, a, "save")
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, statusMsg("saved speed 1.5x to /tmp/zipdemo/config.toml"), msg)
	require.Len(t, saved, 1)
	require.Equal(t, 1.5, saved[0].Animation.Speed)

	a.save = func(config.Config) error { return errors.New("read-only") }
	msg = typeCommand(t, a, "save")()
	press(t, a, msg)
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "read-only")
}

func snapshotWithOutput() engine.Snapshot {
	a0 := zip.Item{Side: zip.SideA, Key: 0, Text: "a0"}
	b0 := zip.Item{Side: zip.SideB, Key: 0, Text: "b0"}
	a1 := zip.Item{Side: zip.SideA, Key: 1, Text: "a1"}
	out := zip.Pair{A: a0, B: b0}
	return engine.Snapshot{
		Snapshot: drain.Snapshot{
			State:   drain.StateIdle,
			QueueA:  []zip.Item{a1},
			Output:  &out,
			Commits: 1,
		},
		LaneA:      []zip.Item{a0, a1},
		LaneB:      []zip.Item{b0},
		Generation: "g1",
		Speed:      1,
		Version:    3,
	}
}

func TestSnapshotRendering(t *testing.T) {
	eng := newFakeEngine()
	a := New(context.Background(), testConfig(), eng)

	require.Contains(t, a.View(), "Empty")

	cmd := press(t, a, snapshotMsg(snapshotWithOutput()))
	require.NotNil(t, cmd)
	view := a.View()
	require.Contains(t, view, "[a0, b0]")
	require.Contains(t, view, "a1")
	require.Contains(t, view, "assembly station")
	require.NotContains(t, view, "Empty")

	// Older versions are ignored.
	stale := engine.Snapshot{Version: 2}
	press(t, a, snapshotMsg(stale))
	require.Equal(t, uint64(3), a.snap.Version)
	require.Len(t, a.depth, 1)
}

func TestRenderActivePair(t *testing.T) {
	a := New(context.Background(), testConfig(), newFakeEngine())
	a0 := zip.Item{Side: zip.SideA, Key: 0, Text: "a0"}
	b0 := zip.Item{Side: zip.SideB, Key: 0, Text: "b0"}
	active := zip.Pair{A: a0, B: b0}
	press(t, a, snapshotMsg(engine.Snapshot{
		Snapshot: drain.Snapshot{
			State:  drain.StateMove,
			Active: &active,
			QueueA: []zip.Item{a0},
			QueueB: []zip.Item{b0},
		},
		Generation: "g1",
		Version:    1,
	}))
	view := a.View()
	require.Contains(t, view, "⇣")
	require.Contains(t, view, "[a0, b0]")
	require.Contains(t, view, "move")
	require.Equal(t, []float64{1}, a.depth)
}

func TestDepthResetsWithGeneration(t *testing.T) {
	a := New(context.Background(), testConfig(), newFakeEngine())
	for v := uint64(1); v <= 3; v++ {
		press(t, a, snapshotMsg(engine.Snapshot{Generation: "g1", Version: v}))
	}
	require.Len(t, a.depth, 3)
	press(t, a, snapshotMsg(engine.Snapshot{Generation: "g2", Version: 4}))
	require.Len(t, a.depth, 1)
}

func TestTracePane(t *testing.T) {
	j := &fakeJournal{
		events: []repository.Event{
			{Ordinal: 1, Kind: "enqueued", Item: "a0", At: time.Unix(0, 0)},
			{Ordinal: 2, Kind: "committed", Pair: "[a0, b0]", At: time.Unix(1, 0)},
		},
		stats: service.JournalStats{EmittedA: 1, EmittedB: 1, Pairs: 1, Commits: 1},
	}
	a := New(context.Background(), testConfig(), newFakeEngine(), WithJournal(j))

	cmd := press(t, a, keyRunes("t"))
	require.True(t, a.showTrace)
	require.NotNil(t, cmd)
	press(t, a, cmd())
	view := a.View()
	require.Contains(t, view, "trace")
	require.Contains(t, view, "committed")
	require.Contains(t, view, "commits 1")

	press(t, a, keyRunes("t"))
	require.False(t, a.showTrace)
	require.NotContains(t, a.View(), "no transitions yet")

	j.err = errors.New("db gone")
	cmd = press(t, a, keyRunes("t"))
	press(t, a, cmd())
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "db gone")
}

func TestTraceWithoutJournal(t *testing.T) {
	a := New(context.Background(), testConfig(), newFakeEngine())
	cmd := press(t, a, keyRunes("t"))
	require.False(t, a.showTrace)
	require.Equal(t, statusMsg("trace journal is disabled"), cmd())

	cmd = press(t, a, keyRunes("c"))
	require.Equal(t, statusMsg("trace journal is disabled"), cmd())
}

func TestClearTrace(t *testing.T) {
	j := &fakeJournal{
		events: []repository.Event{
			{Ordinal: 1, Kind: "enqueued", Item: "a0", At: time.Unix(0, 0)},
			{Ordinal: 2, Kind: "enqueued", Item: "b0", At: time.Unix(1, 0)},
			{Ordinal: 3, Kind: "committed", Pair: "[a0, b0]", At: time.Unix(2, 0)},
		},
		stats: service.JournalStats{EmittedA: 1, EmittedB: 1, Pairs: 1, Commits: 1, Total: 3},
	}
	a := New(context.Background(), testConfig(), newFakeEngine(), WithJournal(j))
	press(t, a, press(t, a, keyRunes("t"))())
	require.Len(t, a.trace, 3)

	cmd := press(t, a, keyRunes("c"))
	require.NotNil(t, cmd)
	reload := press(t, a, cmd())
	require.Equal(t, 1, j.cleared)
	require.Equal(t, "cleared 3 trace events", a.status)
	require.False(t, a.statusErr)
	require.Empty(t, a.trace)
	require.NotNil(t, reload)
	press(t, a, reload())
	require.Empty(t, a.trace)
	require.Contains(t, a.View(), "no transitions yet")

	// Same thing from the command line.
	j.events = []repository.Event{{Ordinal: 1, Kind: "reset", At: time.Unix(3, 0)}}
	press(t, a, typeCommand(t, a, "clear")())
	require.Equal(t, 2, j.cleared)
	require.Equal(t, "cleared 1 trace events", a.status)

	j.err = errors.New("db gone")
	press(t, a, press(t, a, keyRunes("c"))())
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "db gone")
}

func TestExportKeysCommand(t *testing.T) {
	cfg := testConfig()
	cfg.UI.Keybindings = filepath.Join(t.TempDir(), "zipdemo", "keybindings.toml")
	keys := NewKeyRegistry()
	require.NoError(t, keys.ApplyKeybindingConfig([]KeybindingConfig{{Action: "emit_a", Keys: []string{"1"}}}))
	a := New(context.Background(), cfg, newFakeEngine(), WithKeys(keys))

	msg := typeCommand(t, a, "keys")()
	exported := keys.ExportKeybindingConfig()
	require.Equal(t, statusMsg(fmt.Sprintf("wrote %d keybindings to %s", len(exported), cfg.UI.Keybindings)), msg)

	loaded, err := LoadKeybindings(cfg.UI.Keybindings)
	require.NoError(t, err)
	require.Equal(t, exported, loaded)

	a.cfg.UI.Keybindings = ""
	press(t, a, typeCommand(t, a, "keys")())
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "no path configured")
}

func TestEngineClosed(t *testing.T) {
	eng := newFakeEngine()
	a := New(context.Background(), testConfig(), eng)
	close(eng.ch)
	msg := a.waitForSnapshot()()
	require.IsType(t, engineClosedMsg{}, msg)
	press(t, a, msg)
	require.True(t, a.closed)
	require.True(t, strings.Contains(a.View(), "engine stopped"))
}

func TestKeyOverridesApply(t *testing.T) {
	eng := newFakeEngine()
	keys := NewKeyRegistry()
	items, err := ParseKeybindings([]byte(`
[[binding]]
action = "emit_a"
keys = ["1"]

[[binding]]
scope = "global"
action = "emit_b"
keys = ["2"]
`))
	require.NoError(t, err)
	require.NoError(t, keys.ApplyKeybindingConfig(items))

	a := New(context.Background(), testConfig(), eng, WithKeys(keys))
	press(t, a, keyRunes("1"), keyRunes("2"), keyRunes("a"))
	require.Equal(t, []zip.Side{zip.SideA, zip.SideB}, eng.emits)
}
