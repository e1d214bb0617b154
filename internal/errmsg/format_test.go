//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpLoadClip,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpLoadClip,
			err:      errors.New("file not found"),
			expected: "Failed to load audio clip: file not found",
		},
		{
			name:     "window resolution",
			op:       OpResolveWindow,
			err:      errors.New("end is before start"),
			expected: "Failed to resolve playback window: end is before start",
		},
		{
			name:     "output device",
			op:       OpOpenOutput,
			err:      errors.New("no audio device"),
			expected: "Failed to open audio output: no audio device",
		},
		{
			name:     "reconfigure",
			op:       OpReconfigure,
			err:      errors.New("unknown instance"),
			expected: "Failed to apply settings: unknown instance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpActivate,
			context:  "rain.flac",
			err:      nil,
			expected: "",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpActivate,
			context:  "",
			err:      errors.New("unsupported format"),
			expected: "Failed to activate sound: unsupported format",
		},
		{
			name:     "includes context in quotes",
			op:       OpActivate,
			context:  "rain.flac",
			err:      errors.New("decode audio"),
			expected: "Failed to activate sound 'rain.flac': decode audio",
		},
		{
			name:     "deactivate with id",
			op:       OpDeactivate,
			context:  "3f5e",
			err:      errors.New("unknown instance"),
			expected: "Failed to close sound '3f5e': unknown instance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}
