// Package textx holds the text helpers shared by resume ingestion and AI
// prompt building.
package textx

import "strings"

// SanitizeText strips control characters from extracted resume text while
// keeping tabs, newlines and carriage returns. Contact extraction depends on
// the line structure surviving this pass.
func SanitizeText(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

// Truncate caps s at maxLen bytes, marking the cut with an ellipsis when
// there is room for one. Prompt budgets count bytes, not runes.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
