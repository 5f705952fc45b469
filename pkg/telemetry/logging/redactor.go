package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks contact details in log values.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternEmail = "email"
	PatternPhone = "phone"
)

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*redactPattern{
			{
				name:        PatternEmail,
				regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
				replacement: "***@$1",
			},
			{
				name:        PatternPhone,
				regex:       regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`),
				replacement: "***-***-****",
			},
		},
	}
}

// RedactString masks contact details in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks string attributes. Values under sensitive keys are
// replaced entirely.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}
	return slog.String(a.Key, r.RedactString(a.Value.String()))
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range []string{"password", "secret", "token", "contact"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}
