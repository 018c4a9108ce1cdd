package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"empty", "", 10, ""},
		{"plain", "hello", 10, "hello"},
		{"control chars dropped", "a\x00b\x1bc", 10, "abc"},
		{"newline kept", "a\nb", 10, "a\nb"},
		{"truncated", "abcdefghij", 4, "abcd..."},
		{"invalid utf8 repaired", "ok\xffok", 10, "okok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.max); got != tt.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()
	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength+10))
	if len(got) != MaxPathLength+3 {
		t.Errorf("len = %d, want %d", len(got), MaxPathLength+3)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()
	if SanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
	if got := SanitizeError(errors.New("db\x00 down")); got != "db down" {
		t.Errorf("SanitizeError() = %q", got)
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"john@example.com":  "j***@example.com",
		" jane@example.org": "j***@example.org",
		"invalid-email":     "***",
		"@example.com":      "***",
		"":                  "***",
	}
	for in, want := range tests {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
