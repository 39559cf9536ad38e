package parser

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"
	"item-appraiser/internal/textutil"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotAnItem means no section of the text could be interpreted.
	ErrNotAnItem = errors.New("text is not an item")
	// ErrNilCatalog is returned by New when no catalog is given.
	ErrNilCatalog = errors.New("parser: nil catalog")
)

var (
	rarityLine    = regexp.MustCompile(`^Rarity:\s*(.+)$`)
	socketsLine   = regexp.MustCompile(`^Sockets:\s*(.+)$`)
	itemLevelLine = regexp.MustCompile(`^Item Level:\s*(.+)$`)
)

const requirementsPrefix = "Requirements:"

// consumer interprets one block for a single item field. It reports whether
// it claimed the block and must leave the item untouched when it did not.
type consumer struct {
	name    string
	consume func(p *Parser, b block, it *item.Item) bool
}

type block struct {
	text  string
	lines []string // trimmed, non-empty
}

// consumers in priority order. Each fires at most once per parse.
var consumers = []consumer{
	{name: "rarity", consume: (*Parser).consumeRarity},
	{name: "corruption", consume: (*Parser).consumeCorruption},
	{name: "requirements", consume: (*Parser).consumeRequirements},
	{name: "sockets", consume: (*Parser).consumeSockets},
	{name: "item-level", consume: (*Parser).consumeItemLevel},
	{name: "implicit-mods", consume: (*Parser).consumeImplicit},
	{name: "explicit-mods", consume: (*Parser).consumeExplicit},
}

// Parser turns copied item text into an item.Item. It holds no per-call
// state and is safe for concurrent use.
type Parser struct {
	catalog *catalog.Catalog
}

// New creates a parser that matches mod lines against cat.
func New(cat *catalog.Catalog) (*Parser, error) {
	if cat == nil {
		return nil, ErrNilCatalog
	}
	return &Parser{catalog: cat}, nil
}

// Parse interprets raw item text. It returns ErrNotAnItem when no block was
// claimed by any consumer.
func (p *Parser) Parse(text string) (*item.Item, error) {
	it := &item.Item{}

	claimed, _ := p.consumeBlocks(SplitBlocks(text), it)
	if claimed == 0 {
		return nil, ErrNotAnItem
	}

	it.TrimSpace()
	return it, nil
}

// consumeBlocks feeds each block to the remaining consumers in order and
// retires the consumer that claims it. It returns the number of claimed
// blocks and the consumers that never fired.
func (p *Parser) consumeBlocks(blocks []string, it *item.Item) (int, []consumer) {
	remaining := slices.Clone(consumers)
	claimed := 0

	for _, text := range blocks {
		b := newBlock(text)

		idx := slices.IndexFunc(remaining, func(c consumer) bool {
			return c.consume(p, b, it)
		})
		if idx < 0 {
			log.Debug().Str("block", textutil.Truncate(b.text, 40)).Msg("Discarding unmatched block")
			continue
		}

		remaining = slices.Delete(remaining, idx, idx+1)
		claimed++
	}

	return claimed, remaining
}

func newBlock(text string) block {
	var lines []string
	for _, l := range textutil.Lines(text) {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return block{text: text, lines: lines}
}

func (p *Parser) consumeRarity(b block, it *item.Item) bool {
	if len(b.lines) < 2 {
		return false
	}
	m := rarityLine.FindStringSubmatch(b.lines[0])
	if m == nil {
		return false
	}

	if r, ok := item.ParseRarity(m[1]); ok {
		it.Rarity = r
	} else {
		log.Debug().Str("rarity", m[1]).Msg("Unknown rarity")
	}
	it.ItemName = b.lines[1]
	if len(b.lines) > 2 {
		it.TypeName = b.lines[2]
	}
	return true
}

func (p *Parser) consumeCorruption(b block, it *item.Item) bool {
	if !strings.Contains(strings.ToLower(b.text), "corrupted") {
		return false
	}
	it.IsCorrupted = true
	return true
}

func (p *Parser) consumeRequirements(b block, it *item.Item) bool {
	if len(b.lines) == 0 || !strings.Contains(b.lines[0], requirementsPrefix) {
		return false
	}
	it.Requirements = strings.Join(b.lines[1:], " ")
	return true
}

func (p *Parser) consumeSockets(b block, it *item.Item) bool {
	if v, ok := firstLineValue(b, socketsLine); ok {
		it.SocketInfo = v
		return true
	}
	return false
}

func (p *Parser) consumeItemLevel(b block, it *item.Item) bool {
	if v, ok := firstLineValue(b, itemLevelLine); ok {
		it.ItemLevel = v
		return true
	}
	return false
}

func firstLineValue(b block, re *regexp.Regexp) (string, bool) {
	for _, l := range b.lines {
		if m := re.FindStringSubmatch(l); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func (p *Parser) consumeImplicit(b block, it *item.Item) bool {
	if len(b.lines) != 1 {
		return false
	}
	mod, ok := p.matchMod(b.lines[0], item.Implicit)
	if !ok {
		return false
	}
	it.Mods = append(it.Mods, mod)
	return true
}

func (p *Parser) consumeExplicit(b block, it *item.Item) bool {
	var mods []item.Mod
	for _, l := range b.lines {
		if mod, ok := p.matchMod(l, item.Explicit); ok {
			mods = append(mods, mod)
		}
	}
	if len(mods) == 0 {
		return false
	}
	it.Mods = append(it.Mods, mods...)
	return true
}

// matchMod strips an origin marker from line and looks the rest up in the
// catalog. Origin comes from the marker only; an unmarked line is OriginMod
// whatever the template records, so Serialize writes back what was read.
func (p *Parser) matchMod(line string, kind item.ModKind) (item.Mod, bool) {
	text, origin := stripOriginMarker(line)

	m, ok := p.catalog.FindMatch(text, kind)
	if !ok {
		return item.Mod{}, false
	}

	return item.Mod{
		DisplayText:  text,
		Kind:         kind,
		Origin:       origin,
		CodeTemplate: m.Template.Code,
	}, true
}
