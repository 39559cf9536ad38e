package parser

import (
	"strings"

	"item-appraiser/internal/textutil"
)

// BlockSeparator is the line that separates sections of copied item text.
const BlockSeparator = "--------"

// SplitBlocks normalizes raw item text and splits it into its sections.
// Empty sections are dropped; the rest are trimmed and kept in order.
func SplitBlocks(raw string) []string {
	text := strings.TrimSpace(textutil.NormalizeNewlines(raw))
	if text == "" {
		return nil
	}

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		block := strings.TrimSpace(strings.Join(current, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == BlockSeparator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return blocks
}
