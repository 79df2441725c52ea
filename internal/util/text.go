package util

import "strings"

// SanitizePostgresText drops NUL bytes and invalid UTF-8, which PostgreSQL
// text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// SanitizePostgresTexts sanitizes every element and drops those that end
// up empty. The result is never nil.
func SanitizePostgresTexts(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = SanitizePostgresText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
