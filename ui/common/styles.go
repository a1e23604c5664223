package common

import "github.com/charmbracelet/lipgloss"

const (
	COLOR_GREY      = "241"
	COLOR_MAGENTA   = "170"
	COLOR_LIGHTBLUE = "69"
	COLOR_PURPLE    = "#7D56F4"
	COLOR_GREEN     = "86"
	COLOR_BLUE      = "42"
	COLOR_RED       = "196"
	COLOR_YELLOW    = "220"
)

var (
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREY)).Padding(0, 2)
	CaptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_MAGENTA)).Padding(2)

	ItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0)

	SelectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0).
			Foreground(lipgloss.Color(COLOR_GREEN)).
			Bold(true)

	DisabledStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0).
			Foreground(lipgloss.Color(COLOR_GREY)).
			Strikethrough(true)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(COLOR_GREY)).
			Italic(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(COLOR_BLUE))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(COLOR_RED))
)

func DefaultWindowWidth(width int) int {
	return width - 10
}

func DefaultWindowHeight(heigth int) int {
	return heigth - 10
}
