package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/zip"
)

const docText = "Zip is like one assembly station: one patty and one bread must both be ready to go. " +
	"The n-th item of A is always paired with the n-th item of B, and a pair only leaves once both are there."

const sparkHeight = 3

func (a *App) render() string {
	width := max(a.width, 40)
	sections := []string{
		a.renderHeader(width),
		a.renderLanes(width),
		a.renderOperator(width),
		a.renderOutput(),
		a.renderDepth(width),
	}
	if a.cfg.UI.ShowDocs {
		sections = append(sections, docStyle.Width(width-2).Render(docText))
	}
	if a.showTrace {
		sections = append(sections, a.renderTrace(width))
	}
	sections = append(sections, a.renderStatus(width), a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderHeader(width int) string {
	s := a.snap
	parts := []string{
		headerAppStyle.Render("zipdemo"),
		titleStyle.Render("zip(a$, b$)"),
		labelStyle.Render("state ") + s.State.String(),
		labelStyle.Render("speed ") + formatSpeed(a.speed) + "x",
		labelStyle.Render("commits ") + fmt.Sprint(s.Commits),
	}
	return headerBarStyle.Width(width).Render(ansi.Truncate(strings.Join(parts, "   "), width-4, "…"))
}

func (a *App) renderLanes(width int) string {
	lines := make([]string, 0, 2)
	for _, side := range zip.Sides {
		lane := a.snap.Lane(side)
		cells := make([]string, 0, len(lane))
		for _, it := range lane {
			cells = append(cells, itemStyle(side.String()).Render(it.Text))
		}
		line := labelStyle.Render(side.String()+"$ ") + dimStyle.Render("──") + " " +
			strings.Join(cells, dimStyle.Render(" ─ ")) + " " + dimStyle.Render("─▶")
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	return strings.Join(lines, "\n")
}

// renderQueue shows a side's visible queue. Items of the pair in flight are
// highlighted; once the pair moves they leave the queue row and show up in
// the moving row instead.
func (a *App) renderQueue(side zip.Side) string {
	s := a.snap
	q := s.Queue(side)
	cells := make([]string, 0, len(q))
	for i, it := range q {
		switch {
		case s.IsActive(it) && s.State == drain.StateMove:
			cells = append(cells, dimStyle.Render(strings.Repeat(" ", len(it.Text))))
		case s.IsActive(it):
			cells = append(cells, activeItemStyle.Render(it.Text))
		case s.Mode == drain.ModeEnter && i == len(q)-1:
			cells = append(cells, enterItemStyle.Render(it.Text))
		default:
			cells = append(cells, itemStyle(side.String()).Render(it.Text))
		}
	}
	if len(cells) == 0 {
		return dimStyle.Render("·")
	}
	return strings.Join(cells, " ")
}

func (a *App) renderOperator(width int) string {
	s := a.snap
	rows := []string{
		labelStyle.Render("A │ ") + a.renderQueue(zip.SideA),
		labelStyle.Render("B │ ") + a.renderQueue(zip.SideB),
	}
	if s.State == drain.StateMove && s.Active != nil {
		rows = append(rows, labelStyle.Render("  ⇣ ")+activeItemStyle.Render(s.Active.String()))
	}
	if len(s.Buffered) > 0 {
		pairs := make([]string, 0, len(s.Buffered))
		for _, p := range s.Buffered {
			pairs = append(pairs, p.String())
		}
		rows = append(rows, dimStyle.Render("waiting "+strings.Join(pairs, " ")))
	}
	body := strings.Join(rows, "\n")
	return operatorBoxStyle.MaxWidth(width).Render(titleStyle.Render("zip") + "\n" + body)
}

func (a *App) renderOutput() string {
	text := dimStyle.Render("Empty")
	if out := a.snap.Output; out != nil {
		text = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render(out.String())
	}
	return outputBoxStyle.Render(labelStyle.Render("output ") + text)
}

func (a *App) renderDepth(width int) string {
	w := min(max(len(a.depth), 8), max(width-12, 8))
	sl := sparkline.New(w, sparkHeight, sparkline.WithStyle(sparkStyle))
	for _, d := range a.depth {
		sl.Push(d)
	}
	sl.Draw()
	label := labelStyle.Render(fmt.Sprintf("depth %d", len(a.snap.Buffered)))
	return lipgloss.JoinHorizontal(lipgloss.Bottom, label+"  ", sl.View())
}

func (a *App) renderTrace(width int) string {
	st := a.stats
	head := titleStyle.Render("trace") + "  " + labelStyle.Render(fmt.Sprintf(
		"A %d  B %d  pairs %d  commits %d  resets %d", st.EmittedA, st.EmittedB, st.Pairs, st.Commits, st.Resets))
	lines := []string{head}
	if len(a.trace) == 0 {
		lines = append(lines, dimStyle.Render("no transitions yet"))
	}
	for _, e := range a.trace {
		detail := e.Pair
		if e.Kind == string(drain.EventEnqueued) {
			detail = e.Item
		}
		if e.Phase != "" {
			detail += " " + e.Phase
		}
		line := fmt.Sprintf("%4d %s %-9s %s", e.Ordinal, e.At.Format("15:04:05.000"), e.Kind, detail)
		lines = append(lines, ansi.Truncate(line, width-4, "…"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderStatus(width int) string {
	if a.commandOpen {
		line := a.command.View()
		var names []string
		for _, m := range a.commands.Search(a.command.Value()) {
			label := m.Name
			if m.Usage != "" {
				label = m.Usage
			}
			names = append(names, label)
		}
		if len(names) > 0 {
			line += "  " + suggestionStyle.Render(strings.Join(names, "  "))
		}
		return commandStyle.Width(width).Render(ansi.Truncate(line, width-2, "…"))
	}
	style := statusBarStyle
	if a.statusErr {
		style = errorBarStyle
	}
	return style.Width(width).Render(ansi.Truncate(a.status, width-4, "…"))
}

func (a *App) renderFooter() string {
	scope := scopeGlobal
	if a.commandOpen {
		scope = scopeCommand
	}
	return footerStyle.Render(a.help.View(a.keys.helpMap(scope)))
}
