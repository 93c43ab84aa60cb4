package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	correctStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	labelStyle   = lipgloss.NewStyle().Foreground(colorDim).Width(10)
)

func rule(width int) string {
	return dimStyle.Render(strings.Repeat("─", width))
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
