package item

import "strings"

// Rarity is the item rarity as printed on the "Rarity:" line.
// The zero value means the rarity is unknown.
type Rarity string

const (
	RarityNormal   Rarity = "Normal"
	RarityMagic    Rarity = "Magic"
	RarityRare     Rarity = "Rare"
	RarityUnique   Rarity = "Unique"
	RarityGem      Rarity = "Gem"
	RarityCurrency Rarity = "Currency"
	RarityDivCard  Rarity = "Divination Card"
	RarityQuest    Rarity = "Quest"
)

var knownRarities = []Rarity{
	RarityNormal,
	RarityMagic,
	RarityRare,
	RarityUnique,
	RarityGem,
	RarityCurrency,
	RarityDivCard,
	RarityQuest,
}

// ParseRarity maps a rarity token to a known Rarity, ignoring case.
// Unknown tokens return false and leave the caller's rarity unset.
func ParseRarity(token string) (Rarity, bool) {
	token = strings.TrimSpace(token)
	for _, r := range knownRarities {
		if strings.EqualFold(string(r), token) {
			return r, true
		}
	}
	return "", false
}

// ModKind separates implicit mods from explicit ones.
type ModKind string

const (
	Implicit ModKind = "implicit"
	Explicit ModKind = "explicit"
)

// ModOrigin records where a mod came from.
type ModOrigin string

const (
	OriginMod     ModOrigin = "mod"
	OriginCraft   ModOrigin = "craft"
	OriginEnchant ModOrigin = "enchant"
)

// ParseModKind accepts "implicit" or "explicit" in any case.
func ParseModKind(s string) (ModKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Implicit):
		return Implicit, true
	case string(Explicit):
		return Explicit, true
	}
	return "", false
}

// ParseModOrigin accepts "mod", "craft" or "enchant" in any case.
// An empty string is treated as OriginMod.
func ParseModOrigin(s string) (ModOrigin, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OriginMod):
		return OriginMod, true
	case string(OriginCraft), "crafted":
		return OriginCraft, true
	case string(OriginEnchant), "enchanted":
		return OriginEnchant, true
	}
	return "", false
}

// Mod is a single affix line found on an item.
type Mod struct {
	// DisplayText is the mod line as it appears on the item, without origin markers.
	DisplayText string `json:"text"`
	// Kind tells whether the line came from the implicit or explicit section.
	Kind ModKind `json:"kind"`
	// Origin is Mod unless the line was crafted or enchanted.
	Origin ModOrigin `json:"origin"`
	// CodeTemplate is the catalog template the line matched ("" if unknown).
	CodeTemplate string `json:"code,omitempty"`
}

// Item is the structured form of an item's copied tooltip text.
// Empty strings mean the field was not present in the source text.
type Item struct {
	Rarity       Rarity `json:"rarity,omitempty"`
	ItemName     string `json:"name,omitempty"`
	TypeName     string `json:"type,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	SocketInfo   string `json:"sockets,omitempty"`
	ItemLevel    string `json:"item_level,omitempty"`
	IsCorrupted  bool   `json:"corrupted"`
	Mods         []Mod  `json:"mods"`
}

// TrimSpace trims every string field of the item, including mod text.
func (it *Item) TrimSpace() {
	for _, f := range []*string{
		&it.ItemName,
		&it.TypeName,
		&it.Requirements,
		&it.SocketInfo,
		&it.ItemLevel,
	} {
		*f = strings.TrimSpace(*f)
	}
	it.Rarity = Rarity(strings.TrimSpace(string(it.Rarity)))

	for i := range it.Mods {
		it.Mods[i].DisplayText = strings.TrimSpace(it.Mods[i].DisplayText)
		it.Mods[i].CodeTemplate = strings.TrimSpace(it.Mods[i].CodeTemplate)
	}
}

// ModsOfKind returns the item's mods of the given kind in source order.
func (it *Item) ModsOfKind(kind ModKind) []Mod {
	var mods []Mod
	for _, m := range it.Mods {
		if m.Kind == kind {
			mods = append(mods, m)
		}
	}
	return mods
}
