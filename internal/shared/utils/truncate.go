package utils

// TruncateTitle shortens a title to max runes, appending an ellipsis when cut.
// Rune-based so multi-byte titles are not split mid-character.
func TruncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
