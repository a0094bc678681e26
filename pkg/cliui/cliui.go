// Package cliui provides reusable terminal styles for sana CLI commands.
package cliui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	// KeyStyle renders config keys and other labels.
	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

	// ValueStyle renders user-set values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	// DimStyle renders secondary detail (paths, unset placeholders).
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}
