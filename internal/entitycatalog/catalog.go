// Package entitycatalog answers three questions asked by the tool
// runtime and the context builder: which entity kind does a field name
// belong to, which entity kinds does a free-text query mention, and
// what are the neighbor kinds of a given kind.
//
// A Catalog is built once at process startup from configuration and is
// read-only and safe for concurrent use thereafter.
package entitycatalog

import (
	"regexp"
	"sort"
	"strings"
)

// Catalog is an immutable, process-lifetime reverse index over entity
// kinds. Build it once with New and share it by reference.
type Catalog struct {
	kindNames     []string            // sorted by name, for stable iteration
	fieldToKind   map[string]string   // lowercase field/alias -> kind
	neighborsOf   map[string][]string // kind -> neighbor kinds
	patternsOf    map[string][]*regexp.Regexp
}

// New builds a Catalog from cfg. Missing sections degrade gracefully:
// a kind with no aliases simply cannot be matched by field name or
// free text, a kind with no patterns never contributes regex
// extraction, a kind with no relationships has no neighbors.
func New(cfg Config) *Catalog {
	c := &Catalog{
		fieldToKind: make(map[string]string),
		neighborsOf: make(map[string][]string),
		patternsOf:  make(map[string][]*regexp.Regexp),
	}

	seen := make(map[string]bool)
	addKind := func(kind string) {
		if !seen[kind] {
			seen[kind] = true
			c.kindNames = append(c.kindNames, kind)
		}
	}

	for kind, aliases := range cfg.Aliases {
		addKind(kind)
		for _, alias := range aliases {
			c.fieldToKind[strings.ToLower(alias)] = kind
		}
	}
	for kind, patterns := range cfg.Patterns {
		addKind(kind)
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				// Skip an unparsable pattern rather than aborting the load.
				continue
			}
			c.patternsOf[kind] = append(c.patternsOf[kind], re)
		}
	}
	for kind, neighbors := range cfg.Relationships {
		addKind(kind)
		c.neighborsOf[kind] = append([]string(nil), neighbors...)
	}
	// The sections are maps, whose iteration order varies between runs;
	// sorting makes the kind order the same on every run.
	sort.Strings(c.kindNames)

	return c
}

// KindOf returns the entity kind that owns fieldName, matched
// case-insensitively against the alias/field table, and whether a
// match was found.
func (c *Catalog) KindOf(fieldName string) (string, bool) {
	kind, ok := c.fieldToKind[strings.ToLower(fieldName)]
	return kind, ok
}

// KindsMentioned scans free text for whole-word, case-insensitive
// occurrences of any known alias and returns the distinct kinds found,
// in Catalog iteration order.
func (c *Catalog) KindsMentioned(text string) []string {
	lower := strings.ToLower(text)
	matched := make(map[string]bool)
	for alias, kind := range c.fieldToKind {
		if !matched[kind] && containsWholeWord(lower, alias) {
			matched[kind] = true
		}
	}

	var found []string
	for _, kind := range c.kindNames {
		if matched[kind] {
			found = append(found, kind)
		}
	}
	return found
}

// Neighbors returns the configured neighbor kinds of kind, used by the
// relationship walker to order its search frontier. Returns nil if kind
// has no configured relationships.
func (c *Catalog) Neighbors(kind string) []string {
	return c.neighborsOf[kind]
}

// Patterns returns the compiled extraction patterns for kind.
func (c *Catalog) Patterns(kind string) []*regexp.Regexp {
	return c.patternsOf[kind]
}

// GroupColumns partitions columns by the entity kind that owns them,
// in Catalog iteration order, preserving each column's relative order
// within its group. Columns matching no known kind go to "other",
// appended last.
func (c *Catalog) GroupColumns(columns []string) map[string][]string {
	groups := make(map[string][]string)
	var other []string
	for _, col := range columns {
		if kind, ok := c.KindOf(col); ok {
			groups[kind] = append(groups[kind], col)
		} else {
			other = append(other, col)
		}
	}
	if len(other) > 0 {
		groups["other"] = other
	}
	return groups
}

// Kinds returns all configured kind names, sorted by name.
func (c *Catalog) Kinds() []string {
	out := make([]string, len(c.kindNames))
	copy(out, c.kindNames)
	return out
}

func containsWholeWord(haystack, word string) bool {
	idx := 0
	for {
		pos := strings.Index(haystack[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
