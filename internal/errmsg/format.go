// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Startup
	OpLoadConfig Op = "load configuration"
	OpParseArgs  Op = "parse arguments"
	OpOpenOutput Op = "open audio output"

	// Clip preparation
	OpResolveWindow Op = "resolve playback window"
	OpLoadClip      Op = "load audio clip"

	// Playback
	OpPlayback Op = "play clip"

	// Interactive instances
	OpActivate    Op = "activate sound"
	OpReconfigure Op = "apply settings"
	OpDeactivate  Op = "close sound"
	OpShutdown    Op = "stop all sounds"
	OpListSounds  Op = "list sounds"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
