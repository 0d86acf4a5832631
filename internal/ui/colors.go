package ui

import "github.com/charmbracelet/lipgloss"

// The list component styles itself; errStyle covers the fatal-error screen
// rendered in place of it.
var errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
