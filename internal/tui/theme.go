package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette, true-color hex values
// https://catppuccin.com/palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorSapphire lipgloss.Color = "#74c7ec"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext1 lipgloss.Color = "#bac2de"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorMantle   lipgloss.Color = "#181825"
)

// Highlight for the pair in flight. Not a Mocha color; it matches the
// marble highlight used in the operator docs.
const colorHighlight lipgloss.Color = "#fae560"

// ---------------------------------------------------------------------------
// Semantic color aliases
// ---------------------------------------------------------------------------

const (
	colorAccent  = colorPink
	colorBrand   = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorInfo    = colorTeal

	colorSideA = colorBlue
	colorSideB = colorPeach
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)

	headerBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorMantle).
			Padding(0, 2)

	headerAppStyle = lipgloss.NewStyle().
			Foreground(colorBrand).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSubtext1).
			Background(colorSurface0).
			Padding(0, 2)

	errorBarStyle = statusBarStyle.Foreground(colorError)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Padding(0, 2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)

	operatorBoxStyle = boxStyle.BorderForeground(colorMauve)

	outputBoxStyle = boxStyle.BorderForeground(colorSuccess)

	labelStyle = lipgloss.NewStyle().Foreground(colorSubtext0)

	dimStyle = lipgloss.NewStyle().Foreground(colorOverlay0)

	docStyle = lipgloss.NewStyle().Foreground(colorSubtext1).Italic(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorSurface0).
			Padding(0, 1)

	commandPromptStyle = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)

	suggestionStyle = lipgloss.NewStyle().Foreground(colorInfo)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0)

	sparkStyle = lipgloss.NewStyle().Foreground(colorSapphire)
)

func itemStyle(side string) lipgloss.Style {
	c := colorSideA
	if side == "b" {
		c = colorSideB
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

var (
	activeItemStyle = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorHighlight).
			Bold(true)

	enterItemStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Underline(true)
)
