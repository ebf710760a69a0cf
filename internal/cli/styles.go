package cli

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("#9ece6a")
	errorColor   = lipgloss.Color("#f7768e")
	dimColor     = lipgloss.Color("#6c6c6c")
)

func successStyle(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(successColor).Bold(true)
}

func failureStyle(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(errorColor).Bold(true)
}

func headerStyle(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(dimColor)
}
