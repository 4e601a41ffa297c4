package schema

import (
	"sort"
	"strings"
)

// ChoiceProperty pairs a rendered schema property with the choice token
// that feeds its value list.
type ChoiceProperty struct {
	Name       string
	Properties Property
	FieldName  string
	Lookup     Lookup
}

// walkProperties yields schema properties depth-first, unpacking array
// items' nested property groups so introspection sees single-item
// properties only.
func walkProperties(props map[string]interface{}) []struct {
	name string
	prop Property
} {
	var out []struct {
		name string
		prop Property
	}
	for name, v := range props {
		p, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if t, _ := p["type"].(string); t == "array" {
			if items, ok := p["items"].(map[string]interface{}); ok {
				if nested, ok := items["properties"].(map[string]interface{}); ok && len(nested) > 0 {
					out = append(out, walkProperties(nested)...)
					continue
				}
			}
		}
		out = append(out, struct {
			name string
			prop Property
		}{name, Property(p)})
	}
	return out
}

// ChoiceProperties pairs each values-kind token in the raw template with a
// rendered property that carries a choice-lookup member, in template order.
// Pairing stops when the tokens run out.
func ChoiceProperties(template string, doc *Document) ([]ChoiceProperty, error) {
	tokens, err := ParseTokens(template)
	if err != nil {
		return nil, err
	}

	var valueTokens []Token
	for _, tok := range tokens {
		if tok.Kind == KindValues {
			valueTokens = append(valueTokens, tok)
		}
	}

	props, _ := doc.Schema["properties"].(map[string]interface{})

	// Order entries by where each property is declared in the template, so
	// pairing with the token sequence is deterministic.
	entries := walkProperties(props)
	sort.SliceStable(entries, func(a, b int) bool {
		return strings.Index(template, `"`+entries[a].name+`"`) <
			strings.Index(template, `"`+entries[b].name+`"`)
	})

	var out []ChoiceProperty
	i := 0
	for _, entry := range entries {
		if !hasChoiceLookup(entry.prop) {
			continue
		}
		if i >= len(valueTokens) {
			break
		}
		tok := valueTokens[i]
		i++
		out = append(out, ChoiceProperty{
			Name:       entry.name,
			Properties: entry.prop,
			FieldName:  tok.Field,
			Lookup:     tok.Lookup,
		})
	}
	return out, nil
}

func hasChoiceLookup(p Property) bool {
	for _, k := range []string{"enum", "query", "table"} {
		if _, ok := p[k]; ok {
			return true
		}
	}
	return false
}

// TitleMapFields returns the fields whose token is preceded by titleMap
// text in the template, in template order.
func TitleMapFields(template string) ([]string, error) {
	tokens, err := ParseTokens(template)
	if err != nil {
		return nil, err
	}

	var fields []string
	prevEnd := 0
	for i, loc := range tokenPattern.FindAllStringIndex(template, -1) {
		if i >= len(tokens) {
			break
		}
		if strings.Contains(template[prevEnd:loc[0]], "titleMap") {
			fields = append(fields, tokens[i].Field)
		}
		prevEnd = loc[1]
	}
	return fields, nil
}
