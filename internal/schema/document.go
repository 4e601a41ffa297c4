package schema

import (
	"encoding/json"
	"fmt"
)

// Document is a rendered event-type schema: a JSON-Schema-like fragment plus
// an optional form definition carrying presentation order and grouping.
type Document struct {
	// Schema is the JSON Schema fragment. Wellformedness requires a
	// "$schema" marker and a non-empty "properties" object.
	Schema map[string]interface{}

	// Definition is the ordered form definition: bare property-name
	// strings, objects with a "key", or fieldset objects grouping more
	// entries under "items".
	Definition []interface{}
}

// ParseDocument decodes rendered template text into a Document.
func ParseDocument(data []byte) (*Document, error) {
	var raw struct {
		Schema     map[string]interface{} `json:"schema"`
		Definition []interface{}          `json:"definition"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rendered schema is not valid JSON: %w", err)
	}
	return &Document{Schema: raw.Schema, Definition: raw.Definition}, nil
}

// Properties returns the schema's property map. Entries that are not JSON
// objects are omitted.
func (d *Document) Properties() map[string]Property {
	props, _ := d.Schema["properties"].(map[string]interface{})
	out := make(map[string]Property, len(props))
	for name, v := range props {
		if m, ok := v.(map[string]interface{}); ok {
			out[name] = Property(m)
		}
	}
	return out
}

// Property returns the named schema property and whether it exists as an
// object.
func (d *Document) Property(name string) (Property, bool) {
	props, _ := d.Schema["properties"].(map[string]interface{})
	m, ok := props[name].(map[string]interface{})
	return Property(m), ok
}

// Property is one entry of schema.properties. Attribute presence matters:
// a declared-but-empty title behaves differently from an absent one.
type Property map[string]interface{}

// Title returns the declared title and whether one is declared.
func (p Property) Title() (string, bool) {
	v, ok := p["title"]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Key returns the declared key and whether one is declared.
func (p Property) Key() (string, bool) {
	v, ok := p["key"]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Type returns the declared JSON-Schema type, or "".
func (p Property) Type() string {
	s, _ := p["type"].(string)
	return s
}

// EnumNames returns the property's value -> display map, or nil.
func (p Property) EnumNames() map[string]interface{} {
	m, _ := p["enumNames"].(map[string]interface{})
	return m
}

// ItemEnumNames returns items.enumNames for array properties, or nil.
func (p Property) ItemEnumNames() map[string]interface{} {
	items, _ := p["items"].(map[string]interface{})
	m, _ := items["enumNames"].(map[string]interface{})
	return m
}

// enumDisplay maps a stored value through enumNames, returning the original
// value when no mapping exists.
func enumDisplay(names map[string]interface{}, value string) (string, bool) {
	if names == nil {
		return value, false
	}
	if mapped, ok := names[value]; ok {
		return fmt.Sprint(mapped), true
	}
	return value, false
}
