// Package address derives the "metro district" key used as the geographic
// eligibility gate between seniors and shelters.
package address

import (
	"regexp"
	"strings"
)

// DefaultMetro is the service area when none is configured.
const DefaultMetro = "부산광역시"

var whitespace = regexp.MustCompile(`\s+`)

// Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	metro    string
	district *regexp.Regexp
}

func NewParser(metro string) *Parser {
	metro = strings.TrimSpace(metro)
	if metro == "" {
		metro = DefaultMetro
	}
	return &Parser{
		metro:    metro,
		district: regexp.MustCompile(`(` + regexp.QuoteMeta(metro) + `)\s+([가-힣]{2,10}(?:구|군))`),
	}
}

func (p *Parser) Metro() string {
	return p.metro
}

// CityDistrict returns "<metro> <district>" or "" when the address cannot be placed.
func (p *Parser) CityDistrict(addr string) string {
	addr = normalize(addr)
	if addr == "" {
		return ""
	}

	if m := p.district.FindStringSubmatch(addr); m != nil {
		return m[1] + " " + m[2]
	}

	tokens := strings.Fields(addr)
	if len(tokens) >= 2 && tokens[0] == p.metro {
		return tokens[0] + " " + tokens[1]
	}
	return ""
}

func (p *Parser) IsInMetro(addr string) bool {
	return strings.Contains(addr, p.metro)
}

// SameDistrict reports whether both addresses are in the metro and resolve to
// the same non-empty district. It is symmetric.
func (p *Parser) SameDistrict(a, b string) bool {
	if !p.IsInMetro(a) || !p.IsInMetro(b) {
		return false
	}
	da := p.CityDistrict(a)
	// Two unparseable addresses are not treated as the same district.
	if da == "" {
		return false
	}
	return da == p.CityDistrict(b)
}

func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
