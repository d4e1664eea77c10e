package todo

import (
	"regexp"
	"strings"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineItem
	lineHeader
	lineField
	lineOther
)

var (
	headerRegex = regexp.MustCompile(`^#[ \t]*([^#\s]\S*)[ \t]*$`)
	fieldRegex  = regexp.MustCompile(`^##[ \t]*([^#\s]\S*)(?:[ \t]+(.*))?$`)
)

// listItem is the decoded content of a list line.
type listItem struct {
	depth     int
	completed bool
	id        string
	name      string
}

// grammar holds the dialect-specific matchers for one parse or serialize call.
type grammar struct {
	dialect Dialect
	item    *regexp.Regexp
}

func newGrammar(d Dialect) *grammar {
	pattern := `^` + regexp.QuoteMeta(d.Marker) + `[ \t]+\[([ xX])\][ \t]+\[#([^\]\s]+)\](?:[ \t]+(.*?))?[ \t]*$`
	return &grammar{
		dialect: d,
		item:    regexp.MustCompile(pattern),
	}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// classify reports the shape of a line without decoding it.
func (g *grammar) classify(text string) lineKind {
	if isBlank(text) {
		return lineBlank
	}
	if strings.HasPrefix(text, "#") {
		switch {
		case headerRegex.MatchString(text):
			return lineHeader
		case fieldRegex.MatchString(text):
			return lineField
		default:
			return lineOther
		}
	}
	if g.item.MatchString(strings.TrimLeft(text, " \t")) {
		return lineItem
	}
	return lineOther
}

// indent returns the number of leading whitespace columns, counting a tab as
// one indent unit, and the remainder of the line.
func (g *grammar) indent(text string) (int, string) {
	width := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ':
			width++
		case '\t':
			width += g.dialect.IndentUnit
		default:
			return width, text[i:]
		}
	}
	return width, ""
}

// depth converts leading whitespace into a hierarchy depth. ok is false when
// the indent is not a whole number of units.
func (g *grammar) depth(text string) (depth int, ok bool) {
	width, _ := g.indent(text)
	if width%g.dialect.IndentUnit != 0 {
		return 0, false
	}
	return width / g.dialect.IndentUnit, true
}

func (g *grammar) parseItem(text string) (listItem, bool) {
	depth, ok := g.depth(text)
	if !ok {
		return listItem{}, false
	}
	_, rest := g.indent(text)
	m := g.item.FindStringSubmatch(rest)
	if m == nil {
		return listItem{}, false
	}
	return listItem{
		depth:     depth,
		completed: m[1] != " ",
		id:        m[2],
		name:      strings.TrimSpace(m[3]),
	}, true
}

func parseHeader(text string) (string, bool) {
	m := headerRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parseField(text string) (key, inline string, ok bool) {
	m := fieldRegex.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimRight(m[2], " \t"), true
}
