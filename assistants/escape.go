package assistants

import "strings"

// The API sometimes sends code_interpreter input with newlines written as the
// two characters `\` `n` rather than as real newlines. Text that genuinely
// contains a literal backslash-n is converted too; the two cases cannot be
// told apart.

// UnescapeNewlines turns every literal backslash-n into a newline.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// EscapeNewlines turns every newline into a literal backslash-n.
func EscapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescapeInput(s *string) *string {
	if s == nil {
		return nil
	}
	v := UnescapeNewlines(*s)
	return &v
}

func escapeInput(s *string) *string {
	if s == nil {
		return nil
	}
	v := EscapeNewlines(*s)
	return &v
}
