package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOpen   = 203 // red
	colorActive = 221 // yellow
	colorDone   = 114 // green
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorCmd, s)
}

// RenderStatus colors a case status: open cases red, in-flight yellow,
// closed-out green. Unknown statuses render muted.
func RenderStatus(status string) string {
	if noColor {
		return status
	}
	var code int
	switch status {
	case "open", "new", "detected":
		code = colorOpen
	case "in_review", "scheduled", "diagnosing", "submitted":
		code = colorActive
	case "resolved", "closed", "completed":
		code = colorDone
	default:
		code = colorMuted
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, status)
}

// RenderSeverity colors a case severity.
func RenderSeverity(severity string) string {
	if noColor {
		return severity
	}
	var code int
	switch severity {
	case "critical", "high":
		code = colorOpen
	case "medium":
		code = colorActive
	case "low":
		code = colorDone
	default:
		code = colorMuted
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, severity)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
