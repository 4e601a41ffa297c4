package schema

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	camelBoundary = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// FormatKeyTitle derives a presentable title from a raw property key,
// splitting camel-case boundaries and title-casing the words.
func FormatKeyTitle(key string) string {
	s := camelBoundary.ReplaceAllString(key, "$1 $2")
	s = lowerToUpper.ReplaceAllString(s, "$1 $2")
	s = strings.ToLower(s)

	// Title-case every letter run, so underscored keys read as words too.
	var b strings.Builder
	startOfWord := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// definitionTitle finds a display title for key in the form definition,
// looking one fieldset level deep, and returns "" when none is declared.
func definitionTitle(doc *Document, key string) string {
	for _, elem := range doc.Definition {
		entry, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		if k, _ := entry["key"].(string); k == key {
			if title, ok := entry["title"].(string); ok {
				return title
			}
		}
		items, _ := entry["items"].([]interface{})
		for _, it := range items {
			m, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			if k, _ := m["key"].(string); k == key {
				if title, ok := m["title"].(string); ok {
					return title
				}
			}
		}
	}
	return ""
}

// ColumnHeader resolves a report column header for a property key.
// Preference order: the form definition's title, the schema property's
// title, then a sanitized derivative of the key itself.
func ColumnHeader(doc *Document, key string) string {
	if header := definitionTitle(doc, key); header != "" {
		return header
	}
	if prop, ok := doc.Property(key); ok {
		if title, declared := prop.Title(); declared && title != "" {
			return title
		}
	}
	return FormatKeyTitle(key)
}

// DisplayValueHeader resolves the header for a display-value column. When
// the form definition and schema property disagree, the schema property's
// title wins; a key with neither falls back to itself.
func DisplayValueHeader(doc *Document, key string) string {
	definitionHeader := definitionTitle(doc, key)

	var propertyTitle string
	if prop, ok := doc.Property(key); ok {
		propertyTitle, _ = prop.Title()
	}

	if propertyTitle != "" && definitionHeader != propertyTitle {
		return propertyTitle
	}
	if definitionHeader != "" {
		return definitionHeader
	}
	return key
}
