package parser

import (
	"strings"

	"item-appraiser/internal/item"
)

// Origin markers. Serialize writes them as a prefix ("(crafted) +25 to
// maximum Life"); the game writes them as a suffix. Both are accepted.
const (
	CraftedMarker = "(crafted)"
	EnchantMarker = "(enchant)"
)

var originMarkers = []struct {
	marker string
	origin item.ModOrigin
}{
	{CraftedMarker, item.OriginCraft},
	{EnchantMarker, item.OriginEnchant},
}

func stripOriginMarker(line string) (string, item.ModOrigin) {
	for _, om := range originMarkers {
		if rest, ok := strings.CutPrefix(line, om.marker+" "); ok {
			return strings.TrimSpace(rest), om.origin
		}
		if rest, ok := strings.CutSuffix(line, " "+om.marker); ok {
			return strings.TrimSpace(rest), om.origin
		}
	}
	return line, item.OriginMod
}

func originMarker(origin item.ModOrigin) string {
	for _, om := range originMarkers {
		if om.origin == origin {
			return om.marker
		}
	}
	return ""
}
