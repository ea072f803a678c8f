package tui

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal  = "global"
	scopeCommand = "command"
)

const (
	actionEmitA   Action = "emit_a"
	actionEmitB   Action = "emit_b"
	actionReset   Action = "reset"
	actionSlower  Action = "slower"
	actionFaster  Action = "faster"
	actionTrace   Action = "trace"
	actionClear   Action = "clear"
	actionHelp    Action = "help"
	actionCommand Action = "command"
	actionQuit    Action = "quit"

	actionRun      Action = "run"
	actionComplete Action = "complete"
	actionClose    Action = "close"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	reg(scopeGlobal, actionEmitA, []string{"a"}, "emit A")
	reg(scopeGlobal, actionEmitB, []string{"b"}, "emit B")
	reg(scopeGlobal, actionReset, []string{"r"}, "reset")
	reg(scopeGlobal, actionSlower, []string{"["}, "slower")
	reg(scopeGlobal, actionFaster, []string{"]"}, "faster")
	reg(scopeGlobal, actionTrace, []string{"t"}, "trace")
	reg(scopeGlobal, actionClear, []string{"c"}, "clear trace")
	reg(scopeGlobal, actionCommand, []string{":"}, "command")
	reg(scopeGlobal, actionHelp, []string{"?"}, "help")
	reg(scopeGlobal, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeCommand, actionRun, []string{"enter"}, "run")
	reg(scopeCommand, actionComplete, []string{"tab"}, "complete")
	reg(scopeCommand, actionClose, []string{"esc", "ctrl+c"}, "close")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 || r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	idx := r.indexByScope[scope]
	for _, k := range keys {
		if _, ok := idx[k]; ok {
			return true
		}
	}
	return false
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

// Lookup finds the binding for keyName in scope.
func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	return r.indexByScope[scope][normalizeKeyName(keyName)]
}

// Binding returns the key.Binding for action in scope, for help rendering.
func (r *KeyRegistry) Binding(scope string, action Action) key.Binding {
	for _, b := range r.BindingsForScope(scope) {
		if b.Action == action {
			return key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help))
		}
	}
	return key.NewBinding(key.WithDisabled())
}

func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func normalizeKeyList(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		// Single runes keep their case so A and a can differ.
		return trimmed
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "ctl+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	s = strings.ReplaceAll(s, "escape", "esc")
	s = strings.ReplaceAll(s, "spacebar", "space")
	return s
}

// KeybindingConfig is one remap entry of keybindings.toml:
//
//	[[binding]]
//	scope = "global"
//	action = "emit_a"
//	keys = ["1"]
type KeybindingConfig struct {
	Scope  string   `toml:"scope"`
	Action string   `toml:"action"`
	Keys   []string `toml:"keys"`
}

type keybindingFile struct {
	Binding []KeybindingConfig `toml:"binding"`
}

// ParseKeybindings decodes keybindings.toml content.
func ParseKeybindings(data []byte) ([]KeybindingConfig, error) {
	var f keybindingFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parse keybindings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse keybindings: unknown key %q", undecoded[0].String())
	}
	return f.Binding, nil
}

// LoadKeybindings reads path. A missing file yields no overrides.
func LoadKeybindings(path string) ([]KeybindingConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keybindings %s: %w", path, err)
	}
	items, err := ParseKeybindings(data)
	if err != nil {
		return nil, fmt.Errorf("read keybindings %s: %w", path, err)
	}
	return items, nil
}

// SaveKeybindings writes items to path in the format LoadKeybindings reads.
func SaveKeybindings(path string, items []KeybindingConfig) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("save keybindings: no path configured")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(keybindingFile{Binding: items}); err != nil {
		return fmt.Errorf("encode keybindings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save keybindings: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save keybindings: %w", err)
	}
	return nil
}

func (r *KeyRegistry) ApplyKeybindingConfig(items []KeybindingConfig) error {
	if r == nil || len(items) == 0 {
		return nil
	}
	type pair struct {
		scope  string
		action Action
	}
	seenPair := make(map[pair]bool)
	for _, o := range items {
		scope := strings.TrimSpace(o.Scope)
		if scope == "" {
			scope = scopeGlobal
		}
		action := Action(strings.TrimSpace(o.Action))
		if action == "" {
			return fmt.Errorf("keybinding scope=%q: action is required", scope)
		}
		keys := normalizeKeyList(o.Keys)
		if len(keys) == 0 {
			return fmt.Errorf("keybinding scope=%q action=%q: keys are required", scope, action)
		}

		bindings := r.bindingsByScope[scope]
		if len(bindings) == 0 {
			return fmt.Errorf("keybinding scope=%q action=%q: unknown scope", scope, action)
		}
		var target *Binding
		for _, b := range bindings {
			if b.Action == action {
				target = b
				break
			}
		}
		if target == nil {
			return fmt.Errorf("keybinding scope=%q action=%q: unknown action in scope", scope, action)
		}
		p := pair{scope: scope, action: action}
		if seenPair[p] {
			return fmt.Errorf("keybinding scope=%q action=%q: duplicated entry", scope, action)
		}
		seenPair[p] = true
		target.Keys = keys
	}

	r.rebuildIndex()
	for scope, bindings := range r.bindingsByScope {
		seen := make(map[string]Action)
		for _, b := range bindings {
			for _, k := range b.Keys {
				if prev, ok := seen[k]; ok {
					return fmt.Errorf("keybinding conflict in scope=%q: key %q used by both %q and %q", scope, k, prev, b.Action)
				}
				seen[k] = b.Action
			}
		}
	}
	return nil
}

func (r *KeyRegistry) ExportKeybindingConfig() []KeybindingConfig {
	if r == nil {
		return nil
	}
	var out []KeybindingConfig
	for scope, bindings := range r.bindingsByScope {
		for _, b := range bindings {
			out = append(out, KeybindingConfig{
				Scope:  scope,
				Action: string(b.Action),
				Keys:   append([]string(nil), b.Keys...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Action < out[j].Action
	})
	return out
}

func (r *KeyRegistry) rebuildIndex() {
	r.indexByScope = make(map[string]map[string]*Binding, len(r.bindingsByScope))
	for scope, bindings := range r.bindingsByScope {
		r.indexByScope[scope] = make(map[string]*Binding)
		for _, b := range bindings {
			for _, k := range b.Keys {
				r.indexByScope[scope][k] = b
			}
		}
	}
}

// helpKeyMap adapts the registry to bubbles/help.
type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (r *KeyRegistry) helpMap(scope string) helpKeyMap {
	if scope == scopeCommand {
		all := r.HelpBindings(scopeCommand)
		return helpKeyMap{short: all, full: [][]key.Binding{all}}
	}
	b := func(a Action) key.Binding { return r.Binding(scopeGlobal, a) }
	return helpKeyMap{
		short: []key.Binding{b(actionEmitA), b(actionEmitB), b(actionReset), b(actionCommand), b(actionHelp), b(actionQuit)},
		full: [][]key.Binding{
			{b(actionEmitA), b(actionEmitB), b(actionReset)},
			{b(actionSlower), b(actionFaster), b(actionTrace), b(actionClear)},
			{b(actionCommand), b(actionHelp), b(actionQuit)},
		},
	}
}
