package catalog

import (
	"item-appraiser/internal/cache"
	"item-appraiser/internal/item"
	"item-appraiser/internal/pattern"
	"item-appraiser/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Template is a mod's canonical code name as supplied by a catalog provider.
type Template struct {
	Code   string         `json:"code" yaml:"code"`
	Kind   item.ModKind   `json:"kind" yaml:"kind"`
	Origin item.ModOrigin `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Key identifies a template within its kind. Origin is not part of it.
func (t Template) Key() string {
	return textutil.Hash(string(t.Kind) + ":" + t.Code)
}

// Match is the result of a successful catalog lookup.
type Match struct {
	Template Template
	// Values holds the numbers captured from the placeholders, in template order.
	Values []float64
}

type entry struct {
	template Template
	pattern  *pattern.Pattern
}

// Catalog is an ordered, read-only collection of compiled mod templates,
// partitioned by kind. When several templates match the same text, the one
// supplied first wins.
//
// A Catalog is safe for concurrent use once New returns.
type Catalog struct {
	byKind   map[item.ModKind][]entry
	excluded []string
}

// New compiles every template through c and freezes the result. Templates
// that fail to compile are excluded and logged; duplicate codes within a
// kind keep their first occurrence.
func New(templates []Template, c *cache.PatternCache) *Catalog {
	if c == nil {
		c = cache.NewPatternCache(len(templates))
	}

	cat := &Catalog{byKind: make(map[item.ModKind][]entry, 2)}
	seen := make(map[item.ModKind]map[string]struct{}, 2)

	for _, t := range templates {
		if t.Origin == "" {
			t.Origin = item.OriginMod
		}

		if seen[t.Kind] == nil {
			seen[t.Kind] = make(map[string]struct{})
		}
		if _, dup := seen[t.Kind][t.Code]; dup {
			log.Debug().Str("template", t.Code).Str("kind", string(t.Kind)).Msg("Skipping duplicate template")
			continue
		}

		p, err := c.Get(t.Code)
		if err != nil {
			log.Warn().Err(err).Str("template", t.Code).Msg("Excluding template from catalog")
			cat.excluded = append(cat.excluded, t.Code)
			continue
		}

		seen[t.Kind][t.Code] = struct{}{}
		cat.byKind[t.Kind] = append(cat.byKind[t.Kind], entry{template: t, pattern: p})
	}

	log.Debug().
		Int("implicit", len(cat.byKind[item.Implicit])).
		Int("explicit", len(cat.byKind[item.Explicit])).
		Int("excluded", len(cat.excluded)).
		Msg("Catalog built")

	return cat
}

// FindMatch returns the first template of the given kind that matches text,
// together with the captured numeric values.
func (c *Catalog) FindMatch(text string, kind item.ModKind) (Match, bool) {
	for _, e := range c.byKind[kind] {
		if values, ok := e.pattern.Match(text); ok {
			return Match{Template: e.template, Values: values}, true
		}
	}
	return Match{}, false
}

// Pattern returns the compiled pattern for a template code of the given kind.
func (c *Catalog) Pattern(code string, kind item.ModKind) (*pattern.Pattern, bool) {
	for _, e := range c.byKind[kind] {
		if e.template.Code == code {
			return e.pattern, true
		}
	}
	return nil, false
}

// Templates returns the templates of one kind in catalog order.
func (c *Catalog) Templates(kind item.ModKind) []Template {
	entries := c.byKind[kind]
	out := make([]Template, len(entries))
	for i, e := range entries {
		out[i] = e.template
	}
	return out
}

// Len returns the number of compiled templates across all kinds.
func (c *Catalog) Len() int {
	n := 0
	for _, entries := range c.byKind {
		n += len(entries)
	}
	return n
}

// Excluded lists the codes that were rejected by the compiler.
func (c *Catalog) Excluded() []string {
	return append([]string(nil), c.excluded...)
}
