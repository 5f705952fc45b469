package logging

import (
	"log/slog"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"no contacts here", "no contacts here"},
		{"mail jane.doe@example.com now", "mail ***@example.com now"},
		{"call +1 555 123 4567", "call ***-***-****"},
		{"call 555-123-4567 or 555.987.6543", "call ***-***-**** or ***-***-****"},
		{"price 1299", "price 1299"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r := NewRedactor()

	if got := r.RedactAttr(slog.String("api_token", "abc")); got.Value.String() != "***" {
		t.Errorf("Expected sensitive key to be masked, got %q", got.Value.String())
	}
	if got := r.RedactAttr(slog.Int("count", 5)); got.Value.Int64() != 5 {
		t.Errorf("Expected non-string attr unchanged, got %v", got.Value)
	}
}
