package schema

import "fmt"

// Definition presentation formats accepted by FilterDefinition.
const (
	DefinitionStandard = "standard"
	DefinitionFlat     = "flat"
)

// FlattenDefinition yields every definition entry depth-first, unpacking
// fieldsets in place. Bare strings and non-fieldset objects pass through.
func FlattenDefinition(definition []interface{}) []interface{} {
	var out []interface{}
	for _, elem := range definition {
		switch v := elem.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			items, hasItems := v["items"].([]interface{})
			if t, _ := v["type"].(string); t == "fieldset" && hasItems {
				out = append(out, FlattenDefinition(items)...)
			} else {
				out = append(out, v)
			}
		}
	}
	return out
}

// KeyOrder is one (key, ordinal) pair from a definition walk.
type KeyOrder struct {
	Key   string
	Order int
}

// DefinitionKeys walks the form definition depth-first and assigns each
// referenced key an ordinal. The counter is shared through fieldset
// recursion, so grouping does not disturb overall ordering.
func DefinitionKeys(definition []interface{}) []KeyOrder {
	counter := 0
	return definitionKeys(definition, &counter)
}

func definitionKeys(definition []interface{}, counter *int) []KeyOrder {
	var out []KeyOrder
	for _, elem := range definition {
		switch v := elem.(type) {
		case string:
			out = append(out, KeyOrder{Key: v, Order: *counter})
			*counter++
		case map[string]interface{}:
			if keyv, ok := v["key"]; ok {
				// Null keys still consume an ordinal but are ignored
				// by validation.
				key, _ := keyv.(string)
				out = append(out, KeyOrder{Key: key, Order: *counter})
				*counter++
			} else if items, ok := v["items"].([]interface{}); ok {
				out = append(out, definitionKeys(items, counter)...)
			}
		}
	}
	return out
}

// DefinitionOrder derives the key -> ordinal map used to sort extracted
// details. Recomputed per call; never persisted.
func DefinitionOrder(definition []interface{}) map[string]int {
	out := make(map[string]int)
	for _, ko := range DefinitionKeys(definition) {
		out[ko.Key] = ko.Order
	}
	return out
}

// FilterDefinition reshapes a document's definition for presentation.
// "standard" (or empty) returns the document unchanged; "flat" returns a
// copy with fieldsets flattened away.
func FilterDefinition(doc *Document, format string) (*Document, error) {
	switch format {
	case "", DefinitionStandard:
		return doc, nil
	case DefinitionFlat:
		out := &Document{Schema: doc.Schema}
		if doc.Definition != nil {
			out.Definition = FlattenDefinition(doc.Definition)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported definition presentation type: %q", format)
}
