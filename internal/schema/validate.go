package schema

// ValidateDocument checks a rendered schema document for structural
// completeness. Checks run in order and short-circuit on the first kind of
// violation; violations of one kind are collected and reported together.
func ValidateDocument(doc *Document) error {
	if _, ok := doc.Schema["$schema"]; !ok {
		return &ValidationError{Message: ErrMissingSchemaMarker}
	}

	props, _ := doc.Schema["properties"].(map[string]interface{})
	if len(props) == 0 {
		return &ValidationError{Message: `Schema must include a "properties" attribute.`}
	}

	// Every property needs {type, title} or {key}.
	incomplete := make(map[string]bool)
	for name, v := range props {
		p, ok := v.(map[string]interface{})
		if !ok {
			incomplete[name] = true
			continue
		}
		_, hasType := p["type"]
		_, hasTitle := p["title"]
		_, hasKey := p["key"]
		if (hasType && hasTitle) || hasKey {
			continue
		}
		incomplete[name] = true
	}
	if len(incomplete) > 0 {
		return &ValidationError{
			Message: `Schema properties must include either {"type", "title"} or {"key"}`,
			Keys:    sortedKeys(incomplete),
		}
	}

	// Every key referenced by the form definition, flattened through
	// fieldsets, must name a schema property. Blank keys are ignored.
	extra := make(map[string]bool)
	for _, ko := range DefinitionKeys(doc.Definition) {
		if ko.Key == "" {
			continue
		}
		if _, ok := props[ko.Key]; !ok {
			extra[ko.Key] = true
		}
	}
	if len(extra) > 0 {
		return &UnmappableFormKeyError{Keys: sortedKeys(extra)}
	}
	return nil
}
