package format

import (
	"html"
	"strings"
)

// HTML escapes text for Telegram's HTML parse mode.
func HTML(text string) string {
	return html.EscapeString(text)
}

// Pre wraps text in a preformatted block, keeping it verbatim and tap-to-copy.
func Pre(text string) string {
	return "<pre>" + html.EscapeString(text) + "</pre>"
}

// Code renders an inline monospace fragment.
func Code(text string) string {
	return "<code>" + html.EscapeString(text) + "</code>"
}

// Bold renders bold text.
func Bold(text string) string {
	return "<b>" + html.EscapeString(text) + "</b>"
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimRight(string(r[:max]), " ") + "..."
}
