package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"iter"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Details for keys absent from the form definition sort last, in payload
// order among themselves.
const defaultDetailOrder = 99

// Detail is one extracted display record for a stored event field.
type Detail struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Order int         `json:"order"`
}

// GenerateDetails extracts display records from a stored details payload of
// the form {"event_details": {...}}, sorted by form-definition position.
// Keys absent from the definition sort last, keeping their payload order
// among themselves. Fields with no matching schema property are skipped:
// payloads may carry stale fields from schema evolution. A nil or malformed
// payload yields an empty sequence with a warning; reports must not fail
// because one event lacks details.
//
// The sequence is finite and single-use; call again for a fresh pass.
func GenerateDetails(doc *Document, payload []byte) iter.Seq[Detail] {
	return func(yield func(Detail) bool) {
		if len(payload) == 0 {
			slog.Warn("Event has no details payload")
			return
		}

		var data struct {
			EventDetails json.RawMessage `json:"event_details"`
		}
		if err := json.Unmarshal(payload, &data); err != nil {
			slog.Warn("Event details payload is not valid JSON", "error", err)
			return
		}
		if len(data.EventDetails) == 0 {
			slog.Warn("Event payload has no event_details value")
			return
		}

		var details map[string]interface{}
		if err := json.Unmarshal(data.EventDetails, &details); err != nil {
			slog.Warn("event_details is not a JSON object", "error", err)
			return
		}

		order := DefinitionOrder(doc.Definition)

		var out []Detail
		for _, key := range objectKeysInOrder(data.EventDetails) {
			prop, ok := doc.Property(key)
			if !ok {
				continue
			}
			title, value, _ := extract(prop, doc.Definition, key, details[key])

			if s, isString := value.(string); isString {
				value = html.EscapeString(s)
			}
			ord, known := order[key]
			if !known {
				ord = defaultDetailOrder
			}
			out = append(out, Detail{Name: title, Value: value, Order: ord})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

		for _, d := range out {
			if !yield(d) {
				return
			}
		}
	}
}

// DisplayValues resolves a details map into a flat rendering map carrying
// both raw values (under the field key) and display text (under the field
// title). Used for report bindings.
func DisplayValues(doc *Document, details map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, raw := range details {
		prop, ok := doc.Property(key)
		if !ok {
			continue
		}
		title, value, display := extract(prop, doc.Definition, key, raw)
		out[key] = value
		out[title] = display
	}
	return out
}

// extract resolves one stored field into a (title, value, display) triple.
//
// Title resolution priority: the schema property's declared title, unless
// the value looks like an unresolved legacy reference (value and display
// identical and every ;-separated component a UUID), in which case the form
// definition is more likely to carry a truthful label; then the definition
// entry's title; then the field key itself.
func extract(prop Property, definition []interface{}, key string, raw interface{}) (string, interface{}, interface{}) {
	var value, display interface{}
	if list, isList := raw.([]interface{}); isList {
		value, display = extractFromList(list, prop)
	} else {
		value, display = extractScalar(prop, raw)
	}

	if title, declared := prop.Title(); declared {
		if reflect.DeepEqual(value, display) && allUUIDs(fmt.Sprint(display)) {
			// Best-effort heuristic: a legitimately UUID-valued free-text
			// field would take this path too.
			return extractFromDefinition(prop, definition, key, raw, value, display)
		}
		return title, value, display
	}

	if _, hasKey := prop.Key(); !hasKey {
		slog.Warn("Schema property has neither title nor key", "field", key)
		return key, value, display
	}

	return extractFromDefinition(prop, definition, key, raw, value, display)
}

// extractFromList resolves a stored list into ;-joined (ids, displays)
// strings, preserving input order. Elements are scalars (display mapped
// through items.enumNames when declared) or legacy {name, value} pairs.
func extractFromList(items []interface{}, prop Property) (string, string) {
	var ids, names []string
	itemNames := prop.ItemEnumNames()

	for _, item := range items {
		switch v := item.(type) {
		case string:
			display, _ := enumDisplay(itemNames, v)
			ids = append(ids, v)
			names = append(names, display)
		case bool, float64, json.Number:
			ids = append(ids, fmt.Sprint(v))
			names = append(names, fmt.Sprint(v))
		case map[string]interface{}:
			name, hasName := v["name"]
			value, hasValue := v["value"]
			if !hasName || !hasValue {
				slog.Warn("Cannot parse list item in event details", "item", v)
				continue
			}
			ids = append(ids, fmt.Sprint(value))
			names = append(names, fmt.Sprint(name))
		default:
			if item != nil {
				slog.Warn("Cannot parse list item in event details", "item", item)
			}
		}
	}
	return strings.Join(ids, ";"), strings.Join(names, ";")
}

// extractScalar unwraps a stored scalar or legacy {name, value} pair and
// maps string values through the property's enumNames.
func extractScalar(prop Property, raw interface{}) (interface{}, interface{}) {
	value := raw
	display := raw
	if m, isMap := raw.(map[string]interface{}); isMap {
		display = m["name"]
		if v, ok := m["value"]; ok && v != nil && v != "" {
			value = v
		} else {
			value = fmt.Sprint(m)
		}
	}

	if prop.Type() == "string" {
		if s, isString := value.(string); isString {
			if names := prop.EnumNames(); names != nil {
				if mapped, ok := names[s]; ok {
					display = mapped
				}
			}
		}
	}
	return value, display
}

// extractFromDefinition searches the flattened form definition for an entry
// matching the field. Checkbox groups store selections against the entry's
// titleMap rather than the schema's own enum, so their ids and displays are
// re-derived from it.
func extractFromDefinition(prop Property, definition []interface{}, key string, raw, value, display interface{}) (string, interface{}, interface{}) {
	propKey, hasPropKey := prop.Key()

	for _, elem := range FlattenDefinition(definition) {
		entry, isMap := elem.(map[string]interface{})
		if !isMap {
			continue
		}
		entryKey, hasEntryKey := entry["key"].(string)
		if !hasEntryKey {
			continue
		}
		if (hasPropKey && entryKey == propKey) || entryKey == key {
			if t, _ := entry["type"].(string); t == "checkboxes" {
				value, display = handleCheckboxes(entry, raw)
			}
			if title, ok := entry["title"].(string); ok {
				return title, value, display
			}
			return key, value, display
		}
	}

	if title, declared := prop.Title(); declared {
		return title, value, display
	}
	return key, value, display
}

// handleCheckboxes re-derives (ids, displays) for a checkbox group by
// intersecting the definition entry's titleMap with the stored selections.
// Selections already stored as {name, value} pairs extract directly.
func handleCheckboxes(entry map[string]interface{}, raw interface{}) (string, string) {
	list, isList := raw.([]interface{})
	if isList && len(list) > 0 && allMaps(list) {
		return extractFromList(list, nil)
	}

	var ids, names []string
	titleMap, _ := entry["titleMap"].([]interface{})
	for _, mi := range titleMap {
		m, ok := mi.(map[string]interface{})
		if !ok {
			continue
		}
		val := fmt.Sprint(m["value"])
		if isList && listContains(list, val) {
			ids = append(ids, val)
			names = append(names, fmt.Sprint(m["name"]))
		}
	}
	return strings.Join(ids, ";"), strings.Join(names, ";")
}

func allMaps(items []interface{}) bool {
	for _, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

func listContains(items []interface{}, value string) bool {
	for _, item := range items {
		if fmt.Sprint(item) == value {
			return true
		}
	}
	return false
}

// allUUIDs reports whether every ;-separated component parses as a UUID.
func allUUIDs(joined string) bool {
	for _, part := range strings.Split(joined, ";") {
		if _, err := uuid.Parse(part); err != nil {
			return false
		}
	}
	return true
}

// objectKeysInOrder streams a JSON object's keys in document order, so
// undeclared fields keep a deterministic extraction order.
func objectKeysInOrder(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	t, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil
	}

	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return keys
		}
		key, _ := kt.(string)
		keys = append(keys, key)
		if err := skipJSONValue(dec); err != nil {
			return keys
		}
	}
	return keys
}

func skipJSONValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); ok && (d == '{' || d == '[') {
		depth := 1
		for depth > 0 {
			t, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := t.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				default:
					depth--
				}
			}
		}
	}
	return nil
}
