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
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorMantle   lipgloss.Color = "#181825"
)

// ---------------------------------------------------------------------------
// Semantic color aliases
// ---------------------------------------------------------------------------

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorUser    = colorBlue
	colorBot     = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Background(colorMantle).
			Bold(true).
			Padding(0, 1)
	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorMantle)

	transcriptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)

	userLabelStyle  = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	botLabelStyle   = lipgloss.NewStyle().Foreground(colorBot).Bold(true)
	errorLabelStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	bodyStyle       = lipgloss.NewStyle().Foreground(colorText)
	errorBodyStyle  = lipgloss.NewStyle().Foreground(colorError)
	attribStyle     = lipgloss.NewStyle().Foreground(colorOverlay1).Italic(true)
	timeStyle       = lipgloss.NewStyle().Foreground(colorOverlay0)

	statusStyle   = lipgloss.NewStyle().Foreground(colorInfo)
	optionsStyle  = lipgloss.NewStyle().Foreground(colorMauve)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarning)
	promptStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	sendBtnStyle  = lipgloss.NewStyle().Foreground(colorMantle).Background(colorAccent).Bold(true).Padding(0, 1)
	sendBtnIdle   = lipgloss.NewStyle().Foreground(colorOverlay1).Background(colorSurface0).Padding(0, 1)
	emptyHintText = lipgloss.NewStyle().Foreground(colorOverlay0).Italic(true)
)
