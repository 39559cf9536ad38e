package parser

import (
	"errors"
	"strings"

	"item-appraiser/internal/item"
)

// ErrNilItem is returned by Serialize when given a nil item.
var ErrNilItem = errors.New("serialize: nil item")

// Serialize renders an item back to copied-item text. Only rarity, names and
// mods are written; requirements, sockets and item level are dropped.
func Serialize(it *item.Item) (string, error) {
	if it == nil {
		return "", ErrNilItem
	}

	var segments []string

	if it.Rarity != "" {
		segments = append(segments, "Rarity: "+string(it.Rarity))
	}

	switch {
	case it.ItemName != "" && it.TypeName != "" && it.ItemName != it.TypeName:
		segments = append(segments, it.ItemName, it.TypeName)
	case it.ItemName != "":
		segments = append(segments, it.ItemName)
	case it.TypeName != "":
		segments = append(segments, it.TypeName)
	}

	for _, kind := range []item.ModKind{item.Implicit, item.Explicit} {
		mods := it.ModsOfKind(kind)
		if len(mods) == 0 {
			continue
		}
		lines := make([]string, len(mods))
		for i, m := range mods {
			lines[i] = modLine(m)
		}
		segments = append(segments, BlockSeparator, strings.Join(lines, "\n"))
	}

	return strings.Join(segments, "\n"), nil
}

func modLine(m item.Mod) string {
	if marker := originMarker(m.Origin); marker != "" {
		return marker + " " + m.DisplayText
	}
	return m.DisplayText
}
