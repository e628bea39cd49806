package handlers

import (
	"fmt"
	"strings"
)

// codeBlock wraps lines in a fenced block with the given highlight hint.
func codeBlock(lang string, lines []string) string {
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(lang)
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// field renders a right-aligned label, as in "           name: apollo".
func field(label string, value any) string {
	return fmt.Sprintf("%15s: %v", label, value)
}

func separator(n int) string {
	return strings.Repeat("-", n)
}
