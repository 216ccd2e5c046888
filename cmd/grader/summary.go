package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gradebatch/internal/grading"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	scoreStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// renderSummary builds the terminal view of a finished run: one line per
// graded file, then the failure listing when anything failed.
func renderSummary(rep *grading.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Graded %d submission(s)", len(rep.Results))))
	b.WriteString("\n")

	width := 0
	for _, r := range rep.Results {
		if len(r.FileName) > width {
			width = len(r.FileName)
		}
	}
	for _, r := range rep.Results {
		b.WriteString("  ")
		b.WriteString(fileStyle.Render(fmt.Sprintf("%-*s", width, r.FileName)))
		b.WriteString("  ")
		b.WriteString(scoreStyle.Render(r.TotalScore))
		if n := len(r.Breakdown); n > 0 {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("  (%d criteria)", n)))
		}
		b.WriteString("\n")
	}

	if rep.Summary != "" {
		b.WriteString(summaryStyle.Render(failStyle.Render(rep.Summary)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
