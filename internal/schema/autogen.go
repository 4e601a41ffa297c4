package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// SchemaDraft is the $schema marker stamped onto auto-generated schemas.
const SchemaDraft = "http://json-schema.org/draft-04/schema#"

// GenerateSchemaFromDocument builds a JSON schema fitted to an incoming
// data document: string properties for strings, number properties for
// numeric values, titles derived from snake_case keys.
func GenerateSchemaFromDocument(doc map[string]interface{}) map[string]interface{} {
	properties := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		propertyType := "string"
		switch value.(type) {
		case float64, int, int64, json.Number:
			propertyType = "number"
		}
		words := strings.Split(key, "_")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		properties[key] = map[string]interface{}{
			"type":  propertyType,
			"title": strings.Join(words, " "),
		}
	}

	return map[string]interface{}{
		"$schema":    SchemaDraft,
		"title":      "Auto-generated schema, from incoming data.",
		"type":       "object",
		"properties": properties,
	}
}

// GenerateEventTypeSchema builds a complete event-type schema document
// (schema plus a sorted form definition) fitted to the given data document.
func GenerateEventTypeSchema(doc map[string]interface{}) *Document {
	definition := make([]interface{}, 0, len(doc))
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		definition = append(definition, k)
	}

	return &Document{
		Schema:     GenerateSchemaFromDocument(doc),
		Definition: definition,
	}
}

// ShouldAutoGenerate reports whether a stored schema template asks for
// auto-generation via its "auto-generate" marker. Templates that do not
// parse as plain JSON never auto-generate.
func ShouldAutoGenerate(template string) bool {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(template), &doc); err != nil {
		return false
	}
	auto, _ := doc["auto-generate"].(bool)
	return auto
}
