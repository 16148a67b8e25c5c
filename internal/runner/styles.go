package runner

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	colorYellow = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
	colorRed    = lipgloss.AdaptiveColor{Light: "124", Dark: "196"}
	colorDim    = lipgloss.AdaptiveColor{Light: "245", Dark: "241"}
	colorHeader = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}

	styleHeader  = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleGreen   = lipgloss.NewStyle().Foreground(colorGreen)
	styleYellow  = lipgloss.NewStyle().Foreground(colorYellow)
	styleRed     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNotice  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleOverdue = lipgloss.NewStyle().Foreground(colorRed).Bold(true).Blink(true)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 2)
)
