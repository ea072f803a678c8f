package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jask/zipdemo/internal/zip"
)

// Action is one scripted trigger.
type Action string

const (
	ActionEmitA Action = "a"
	ActionEmitB Action = "b"
	ActionReset Action = "reset"
	ActionWait  Action = "wait"
	ActionSpeed Action = "speed"
)

// Step is a parsed script token.
type Step struct {
	Action Action
	Speed  float64
}

// ParseScript reads a whitespace or comma separated list of steps:
// "a", "b", "reset" (or "r"), "wait" (block until drained) and "speed=N".
func ParseScript(src string) ([]Step, error) {
	fields := strings.FieldsFunc(src, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	steps := make([]Step, 0, len(fields))
	for _, f := range fields {
		tok := strings.ToLower(strings.TrimSpace(f))
		if side, ok := zip.ParseSide(tok); ok {
			if side == zip.SideA {
				steps = append(steps, Step{Action: ActionEmitA})
			} else {
				steps = append(steps, Step{Action: ActionEmitB})
			}
			continue
		}
		switch {
		case tok == "reset" || tok == "r":
			steps = append(steps, Step{Action: ActionReset})
		case tok == "wait" || tok == "settle":
			steps = append(steps, Step{Action: ActionWait})
		case strings.HasPrefix(tok, "speed="):
			v, err := strconv.ParseFloat(strings.TrimPrefix(tok, "speed="), 64)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("script: bad speed %q", f)
			}
			steps = append(steps, Step{Action: ActionSpeed, Speed: v})
		default:
			return nil, fmt.Errorf("script: unknown step %q", f)
		}
	}
	return steps, nil
}

// RunScript sends steps to a running engine, then waits for the drain to
// settle and returns the final snapshot.
func (e *Engine) RunScript(ctx context.Context, steps []Step) (Snapshot, error) {
	for i, st := range steps {
		switch st.Action {
		case ActionEmitA:
			e.EmitA()
		case ActionEmitB:
			e.EmitB()
		case ActionReset:
			e.Reset()
		case ActionSpeed:
			e.SetSpeed(st.Speed)
		case ActionWait:
			if _, err := e.WaitSettled(ctx); err != nil {
				return Snapshot{}, fmt.Errorf("script step %d: %w", i, err)
			}
		default:
			return Snapshot{}, fmt.Errorf("script step %d: unknown action %q", i, st.Action)
		}
	}
	return e.WaitSettled(ctx)
}
