// Package tui is the terminal front end of the zip demo. It renders engine
// snapshots and turns keys and command lines into engine triggers.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/zipdemo/internal/config"
	"github.com/jask/zipdemo/internal/database/repository"
	"github.com/jask/zipdemo/internal/engine"
	"github.com/jask/zipdemo/internal/service"
	"github.com/jask/zipdemo/internal/zip"
)

// Engine is the part of *engine.Engine the UI drives.
type Engine interface {
	Emit(side zip.Side)
	Reset()
	SetSpeed(speed float64)
	Query(ctx context.Context) (engine.Snapshot, error)
	Subscribe() (<-chan engine.Snapshot, func())
}

// Journal feeds the trace pane.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]repository.Event, error)
	Stats(ctx context.Context) (service.JournalStats, error)
	Clear(ctx context.Context) (int64, error)
}

const depthHistory = 48

var speedSteps = []float64{0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4}

// App ties together the engine, the journal and the views.
type App struct {
	ctx      context.Context
	cfg      config.Config
	engine   Engine
	journal  Journal
	save     func(config.Config) error
	keys     *KeyRegistry
	commands *CommandRegistry
	help     help.Model

	sub   <-chan engine.Snapshot
	unsub func()

	snap   engine.Snapshot
	speed  float64
	depth  []float64
	closed bool

	showTrace bool
	trace     []repository.Event
	stats     service.JournalStats

	status    string
	statusErr bool

	commandOpen bool
	command     textinput.Model

	width  int
	height int
}

// Option configures an App.
type Option func(*App)

// WithJournal enables the trace pane.
func WithJournal(j Journal) Option {
	return func(a *App) { a.journal = j }
}

// WithKeys replaces the default key registry, e.g. after applying overrides.
func WithKeys(k *KeyRegistry) Option {
	return func(a *App) { a.keys = k }
}

// WithSaver replaces config.Save for the save command.
func WithSaver(fn func(config.Config) error) Option {
	return func(a *App) { a.save = fn }
}

func New(ctx context.Context, cfg config.Config, eng Engine, opts ...Option) *App {
	a := &App{
		ctx:      ctx,
		cfg:      cfg,
		engine:   eng,
		save:     config.Save,
		keys:     NewKeyRegistry(),
		commands: NewCommandRegistry(defaultCommands()),
		help:     help.New(),
		speed:    engine.ClampSpeed(cfg.Animation.Speed),
		width:    80,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.command = textinput.New()
	a.command.Prompt = ":"
	a.command.PromptStyle = commandPromptStyle
	a.command.Placeholder = "command"
	a.help.Styles.ShortKey = helpKeyStyle
	a.help.Styles.FullKey = helpKeyStyle
	a.help.Styles.ShortDesc = helpDescStyle
	a.help.Styles.FullDesc = helpDescStyle
	a.sub, a.unsub = eng.Subscribe()
	return a
}

// Close drops the snapshot subscription.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForSnapshot(), a.querySnapshot())
}

type snapshotMsg engine.Snapshot

type engineClosedMsg struct{}

type traceMsg struct {
	events []repository.Event
	stats  service.JournalStats
}

type traceClearedMsg int64

type statusMsg string

type errMsg struct{ error }

func statusCmd(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

func (a *App) waitForSnapshot() tea.Cmd {
	ch := a.sub
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return engineClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (a *App) querySnapshot() tea.Cmd {
	return func() tea.Msg {
		s, err := a.engine.Query(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(s)
	}
}

func (a *App) loadTrace() tea.Cmd {
	if a.journal == nil || !a.showTrace {
		return nil
	}
	limit := a.cfg.Journal.TraceLimit
	return func() tea.Msg {
		events, err := a.journal.Recent(a.ctx, limit)
		if err != nil {
			return errMsg{err}
		}
		stats, err := a.journal.Stats(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return traceMsg{events: events, stats: stats}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case tea.KeyMsg:
		if a.commandOpen {
			return a.handleCommandKey(m)
		}
		return a.handleKey(m)
	case snapshotMsg:
		var cmds []tea.Cmd
		s := engine.Snapshot(m)
		if s.Version > a.snap.Version {
			a.applySnapshot(s)
			cmds = append(cmds, a.loadTrace())
		}
		if a.sub != nil && !a.closed {
			cmds = append(cmds, a.waitForSnapshot())
		}
		return a, tea.Batch(cmds...)
	case engineClosedMsg:
		a.closed = true
		a.setStatus("engine stopped", true)
	case traceMsg:
		a.trace = m.events
		a.stats = m.stats
	case traceClearedMsg:
		a.trace = nil
		a.stats = service.JournalStats{}
		a.setStatus(fmt.Sprintf("cleared %d trace events", int64(m)), false)
		return a, a.loadTrace()
	case statusMsg:
		a.setStatus(string(m), false)
	case errMsg:
		a.setStatus("error: "+m.Error(), true)
	default:
		// Cursor blink ticks.
		if a.commandOpen {
			var cmd tea.Cmd
			a.command, cmd = a.command.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

func (a *App) setStatus(s string, isErr bool) {
	a.status = s
	a.statusErr = isErr
}

func (a *App) applySnapshot(s engine.Snapshot) {
	reset := a.snap.Generation != "" && s.Generation != a.snap.Generation
	a.snap = s
	if reset {
		a.depth = a.depth[:0]
	}
	depth := float64(len(s.Buffered))
	if s.State.Busy() {
		depth++
	}
	a.depth = append(a.depth, depth)
	if len(a.depth) > depthHistory {
		a.depth = a.depth[len(a.depth)-depthHistory:]
	}
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := a.keys.Lookup(m.String(), scopeGlobal)
	if b == nil {
		return a, nil
	}
	switch b.Action {
	case actionEmitA:
		a.engine.Emit(zip.SideA)
	case actionEmitB:
		a.engine.Emit(zip.SideB)
	case actionReset:
		a.engine.Reset()
		a.setStatus("reset", false)
	case actionSlower:
		return a, a.setSpeed(stepSpeed(a.speed, -1))
	case actionFaster:
		return a, a.setSpeed(stepSpeed(a.speed, 1))
	case actionTrace:
		return a, a.toggleTrace()
	case actionClear:
		return a, a.clearTrace()
	case actionHelp:
		a.help.ShowAll = !a.help.ShowAll
	case actionCommand:
		a.commandOpen = true
		a.command.Reset()
		return a, a.command.Focus()
	case actionQuit:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleCommandKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if b := a.keys.Lookup(m.String(), scopeCommand); b != nil {
		switch b.Action {
		case actionClose:
			a.closeCommand()
			return a, nil
		case actionComplete:
			if matches := a.commands.Search(a.command.Value()); len(matches) == 1 {
				a.command.SetValue(matches[0].Name + " ")
				a.command.CursorEnd()
			}
			return a, nil
		case actionRun:
			line := a.command.Value()
			a.closeCommand()
			cmd, err := a.commands.Execute(line, a)
			if err != nil {
				a.setStatus(err.Error(), true)
				return a, nil
			}
			return a, cmd
		}
	}
	var cmd tea.Cmd
	a.command, cmd = a.command.Update(m)
	return a, cmd
}

func (a *App) closeCommand() {
	a.commandOpen = false
	a.command.Blur()
	a.command.Reset()
}

func (a *App) setSpeed(v float64) tea.Cmd {
	v = engine.ClampSpeed(v)
	a.speed = v
	a.cfg.Animation.Speed = v
	a.engine.SetSpeed(v)
	return statusCmd(fmt.Sprintf("speed %sx", formatSpeed(v)))
}

func stepSpeed(cur float64, dir int) float64 {
	if dir > 0 {
		for _, s := range speedSteps {
			if s > cur+1e-9 {
				return s
			}
		}
		return speedSteps[len(speedSteps)-1]
	}
	for i := len(speedSteps) - 1; i >= 0; i-- {
		if speedSteps[i] < cur-1e-9 {
			return speedSteps[i]
		}
	}
	return speedSteps[0]
}

func formatSpeed(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func (a *App) toggleTrace() tea.Cmd {
	if a.journal == nil {
		return statusCmd("trace journal is disabled")
	}
	a.showTrace = !a.showTrace
	if !a.showTrace {
		a.trace = nil
		return nil
	}
	return a.loadTrace()
}

// clearTrace drops the recorded transitions and reloads the pane.
func (a *App) clearTrace() tea.Cmd {
	if a.journal == nil {
		return statusCmd("trace journal is disabled")
	}
	j, ctx := a.journal, a.ctx
	return func() tea.Msg {
		n, err := j.Clear(ctx)
		if err != nil {
			return errMsg{err}
		}
		return traceClearedMsg(n)
	}
}

func (a *App) exportKeysCmd() tea.Cmd {
	path := a.cfg.UI.Keybindings
	items := a.keys.ExportKeybindingConfig()
	return func() tea.Msg {
		if err := SaveKeybindings(path, items); err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("wrote %d keybindings to %s", len(items), path))
	}
}

func (a *App) saveCmd() tea.Cmd {
	cfg := a.cfg
	save := a.save
	return func() tea.Msg {
		if err := save(cfg); err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("saved speed %sx to %s", formatSpeed(cfg.Animation.Speed), cfg.File))
	}
}

func (a *App) View() string {
	return a.render()
}
