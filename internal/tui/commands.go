package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/zipdemo/internal/zip"
)

type Command struct {
	ID          string
	Name        string
	Usage       string
	Description string
	Aliases     []string
	Execute     func(a *App, args []string) (tea.Cmd, error)
}

type CommandResult struct {
	CommandID string
	Name      string
	Usage     string
	Desc      string
}

type CommandRegistry struct {
	commands map[string]Command
	byName   map[string]string
}

func NewCommandRegistry(cmds []Command) *CommandRegistry {
	reg := &CommandRegistry{commands: map[string]Command{}, byName: map[string]string{}}
	for _, c := range cmds {
		reg.Register(c)
	}
	return reg
}

func (r *CommandRegistry) Register(c Command) {
	if c.ID == "" || c.Name == "" {
		return
	}
	r.commands[c.ID] = c
	r.byName[strings.ToLower(c.Name)] = c.ID
	for _, alias := range c.Aliases {
		r.byName[strings.ToLower(alias)] = c.ID
	}
}

// Search lists commands whose name starts with the first word of query, or
// all of them for an empty query.
func (r *CommandRegistry) Search(query string) []CommandResult {
	fields := strings.Fields(strings.ToLower(query))
	results := make([]CommandResult, 0, len(r.commands))
	for _, c := range r.commands {
		if len(fields) > 0 && !strings.HasPrefix(strings.ToLower(c.Name), fields[0]) {
			continue
		}
		results = append(results, CommandResult{
			CommandID: c.ID,
			Name:      c.Name,
			Usage:     c.Usage,
			Desc:      c.Description,
		})
	}
	slices.SortFunc(results, func(a, b CommandResult) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return results
}

// Suggest returns the known command name closest to name by edit distance,
// if any is close enough to be a plausible typo.
func (r *CommandRegistry) Suggest(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	best, bestDist := "", -1
	for known := range r.byName {
		d := levenshtein.ComputeDistance(name, known)
		if bestDist < 0 || d < bestDist || (d == bestDist && known < best) {
			best, bestDist = known, d
		}
	}
	limit := max(2, len(name)/2)
	if bestDist < 0 || bestDist > limit {
		return "", false
	}
	if id, ok := r.byName[best]; ok {
		best = r.commands[id].Name
	}
	return best, true
}

// Execute runs one command line such as "speed 2".
func (r *CommandRegistry) Execute(line string, a *App) (tea.Cmd, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	name := strings.ToLower(fields[0])
	id, ok := r.byName[name]
	if !ok {
		if s, ok := r.Suggest(name); ok {
			return nil, fmt.Errorf("unknown command %q, did you mean %q?", fields[0], s)
		}
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
	c := r.commands[id]
	if c.Execute == nil {
		return nil, nil
	}
	return c.Execute(a, fields[1:])
}

func defaultCommands() []Command {
	return []Command{
		{
			ID:          "emit",
			Name:        "emit",
			Usage:       "emit a|b",
			Description: "Emit the next item on stream A or B",
			Execute: func(a *App, args []string) (tea.Cmd, error) {
				if len(args) != 1 {
					return nil, fmt.Errorf("usage: emit a|b")
				}
				side, ok := zip.ParseSide(strings.ToLower(args[0]))
				if !ok {
					return nil, fmt.Errorf("emit: unknown stream %q", args[0])
				}
				a.engine.Emit(side)
				return nil, nil
			},
		},
		{
			ID:          "reset",
			Name:        "reset",
			Description: "Cancel animations and clear everything",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				a.engine.Reset()
				a.depth = a.depth[:0]
				return statusCmd("reset"), nil
			},
		},
		{
			ID:          "speed",
			Name:        "speed",
			Usage:       "speed <0.25-4>",
			Description: "Set animation speed",
			Execute: func(a *App, args []string) (tea.Cmd, error) {
				if len(args) != 1 {
					return nil, fmt.Errorf("usage: speed <multiplier>")
				}
				v, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "x"), 64)
				if err != nil || v <= 0 {
					return nil, fmt.Errorf("speed: %q is not a positive number", args[0])
				}
				return a.setSpeed(v), nil
			},
		},
		{
			ID:          "save",
			Name:        "save",
			Description: "Write the current speed to the config file",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				return a.saveCmd(), nil
			},
		},
		{
			ID:          "trace",
			Name:        "trace",
			Description: "Toggle the transition trace",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				return a.toggleTrace(), nil
			},
		},
		{
			ID:          "clear",
			Name:        "clear",
			Description: "Drop the recorded transitions",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				return a.clearTrace(), nil
			},
		},
		{
			ID:          "keys",
			Name:        "keys",
			Description: "Write the current keybindings to the keybindings file",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				return a.exportKeysCmd(), nil
			},
		},
		{
			ID:          "help",
			Name:        "help",
			Description: "Toggle full key help",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				a.help.ShowAll = !a.help.ShowAll
				return nil, nil
			},
		},
		{
			ID:          "quit",
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Leave the demo",
			Execute: func(a *App, _ []string) (tea.Cmd, error) {
				return tea.Quit, nil
			},
		},
	}
}
