package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

var (
	newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	tsvEscaper   = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
	tsvUnescaper = strings.NewReplacer(`\\`, `\`, `\t`, "\t", `\n`, "\n", `\r`, "\r")
)

// NormalizeNewlines converts CRLF and bare CR line endings to LF.
func NormalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

// Lines splits s on newlines and trims every line.
func Lines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// Hash computes a SHA-256 hex hash of a string for deduplication.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// EscapeTSV makes s safe for a single TSV cell. UnescapeTSV reverses it.
func EscapeTSV(s string) string {
	return tsvEscaper.Replace(s)
}

// UnescapeTSV decodes a cell written by EscapeTSV.
func UnescapeTSV(s string) string {
	return tsvUnescaper.Replace(s)
}
