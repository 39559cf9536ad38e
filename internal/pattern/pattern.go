package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder stands in for a numeric value inside a mod code template.
const Placeholder = "#"

// valueGroup captures one numeric value: digits, decimal point and sign.
const valueGroup = `([-+0-9.]+)`

// ErrInvalidTemplate is returned when a template does not compile to a valid matcher.
var ErrInvalidTemplate = errors.New("invalid mod template")

// Pattern is a compiled mod code template.
type Pattern struct {
	code     string
	segments []string // literal text between placeholders
	re       *regexp.Regexp
}

// Compile turns a code template into an anchored, case-insensitive matcher
// with one capture group per placeholder. Literal text is matched verbatim.
func Compile(code string) (*Pattern, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("compile %q: %w: empty template", code, ErrInvalidTemplate)
	}

	segments := strings.Split(code, Placeholder)

	var b strings.Builder
	b.WriteString(`(?i)^`)
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(valueGroup)
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w: %v", code, ErrInvalidTemplate, err)
	}

	return &Pattern{
		code:     code,
		segments: segments,
		re:       re,
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(code string) *Pattern {
	p, err := Compile(code)
	if err != nil {
		panic(err)
	}
	return p
}

// Code returns the template the pattern was compiled from.
func (p *Pattern) Code() string { return p.code }

// NumPlaceholders reports how many values the template carries.
func (p *Pattern) NumPlaceholders() int { return len(p.segments) - 1 }

// Match reports whether text is an instance of the template and returns the
// captured values. A capture that does not parse as a number is left out.
func (p *Pattern) Match(text string) ([]float64, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	values := make([]float64, 0, len(m)-1)
	for _, group := range m[1:] {
		v, err := strconv.ParseFloat(group, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values, true
}

// Render substitutes values into the placeholders in order. Placeholders
// without a value are kept as-is.
func (p *Pattern) Render(values ...float64) string {
	var b strings.Builder
	for i, seg := range p.segments {
		if i > 0 {
			if i-1 < len(values) {
				b.WriteString(FormatValue(values[i-1]))
			} else {
				b.WriteString(Placeholder)
			}
		}
		b.WriteString(seg)
	}
	return b.String()
}

// FormatValue prints a value with the fewest digits that round-trip.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
