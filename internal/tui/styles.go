// SPDX-License-Identifier: MIT

// Package tui renders frames and device lists in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(6).
			Bold(true)

	spectrumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A56E0"))

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#25A065")).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)
