// Package ui holds terminal styling for the csync CLI. Styles degrade to
// plain text when the terminal doesn't support color.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// colorEnabled reports whether the terminal supports ANSI color.
func colorEnabled() bool {
	return termenv.DefaultOutput().Profile != termenv.Ascii
}

// RenderPass formats a success line.
func RenderPass(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	if !colorEnabled() {
		return s
	}
	return passStyle.Render(s)
}

// RenderWarn formats a warning line.
func RenderWarn(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	if !colorEnabled() {
		return s
	}
	return warnStyle.Render(s)
}

// RenderError formats an error line.
func RenderError(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	if !colorEnabled() {
		return s
	}
	return errorStyle.Render(s)
}

// RenderAccent formats an emphasized value.
func RenderAccent(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	if !colorEnabled() {
		return s
	}
	return accentStyle.Render(s)
}

// RenderFaint formats de-emphasized detail text.
func RenderFaint(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	if !colorEnabled() {
		return s
	}
	return faintStyle.Render(s)
}
