package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Lookup selects which choice backend resolves a token.
type Lookup string

const (
	LookupEnum  Lookup = "enum"  // static choices table
	LookupQuery Lookup = "query" // dynamic-choice definition
	LookupTable Lookup = "table" // legacy lookup list
)

// Render kinds controlling the shape of substituted choice lists. Any other
// suffix renders as a plain value list.
const (
	KindNames  = "names"  // ordered value -> display object
	KindMap    = "map"    // list of {value, name} objects
	KindValues = "values" // list of values
)

// Token is one placeholder extracted from a schema template.
// The raw tag has the exact form <lookup>___<field>___<kind>.
type Token struct {
	Lookup Lookup
	Field  string
	Kind   string
	Raw    string
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ParseTokens scans a schema template for substitution markers and decomposes
// each enclosed tag. A tag that does not split into exactly three non-empty
// segments is fatal: it cannot be matched to any choice backend.
func ParseTokens(template string) ([]Token, error) {
	var tokens []Token
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		tag := m[1]
		parts := strings.Split(tag, "___")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid schema tag %q: expected <lookup>___<field>___<kind>", tag)
		}
		tokens = append(tokens, Token{
			Lookup: Lookup(parts[0]),
			Field:  parts[1],
			Kind:   parts[2],
			Raw:    tag,
		})
	}
	return tokens, nil
}
