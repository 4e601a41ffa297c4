package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ErrMissingSchemaMarker is the message reported when a rendered schema lacks
// the "$schema" member.
const ErrMissingSchemaMarker = `Schema must include a "$schema" attribute.`

// ValidationDetailer surfaces structured validation details for API error
// responses, so consumers extract field lists without type-asserting against
// concrete structs.
type ValidationDetailer interface {
	Details() map[string]interface{}
}

// ValidationError reports a structural problem in a rendered schema: a
// missing "$schema" marker, empty properties, or properties lacking their
// essential attribute sets. Violations are batched so an author sees every
// problem in one pass.
type ValidationError struct {
	Message string
	Keys    []string
}

func (e *ValidationError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Keys, ", "))
	}
	return e.Message
}

// Details returns the violating property names, if any.
func (e *ValidationError) Details() map[string]interface{} {
	d := make(map[string]interface{})
	if len(e.Keys) > 0 {
		d["properties"] = e.Keys
	}
	return d
}

// UnmappableFormKeyError reports form-definition keys with no matching schema
// property. It is a distinct kind from ValidationError so callers can treat
// presentation problems differently from structural ones.
type UnmappableFormKeyError struct {
	Keys []string
}

func (e *UnmappableFormKeyError) Error() string {
	return fmt.Sprintf("form definition keys %s are not present in the schema properties",
		strings.Join(e.Keys, ", "))
}

// Details returns the unmappable key names.
func (e *UnmappableFormKeyError) Details() map[string]interface{} {
	return map[string]interface{}{"keys": e.Keys}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
