package rules

// Operator describes one comparison a field type supports, in the shape
// the condition-builder UI consumes.
type Operator struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	InputType FieldType `json:"input_type"`
}

// defaultOperators lists every comparison each field type supports, before
// display curation.
var defaultOperators = map[FieldType][]Operator{
	FieldTypeString: {
		{Name: "equal_to", Label: "Equal To", InputType: FieldTypeText},
		{Name: "starts_with", Label: "Starts With", InputType: FieldTypeText},
		{Name: "ends_with", Label: "Ends With", InputType: FieldTypeText},
		{Name: "contains", Label: "Contains", InputType: FieldTypeText},
		{Name: "non_empty", Label: "Non Empty", InputType: FieldTypeNoInput},
	},
	FieldTypeNumeric: {
		{Name: "equal_to", Label: "Equal To", InputType: FieldTypeNumeric},
		{Name: "greater_than", Label: "Greater Than", InputType: FieldTypeNumeric},
		{Name: "less_than", Label: "Less Than", InputType: FieldTypeNumeric},
		{Name: "greater_than_or_equal_to", Label: "Greater Than Or Equal To", InputType: FieldTypeNumeric},
		{Name: "less_than_or_equal_to", Label: "Less Than Or Equal To", InputType: FieldTypeNumeric},
	},
	FieldTypeSelectMultiple: {
		{Name: "contains_all", Label: "Contains All", InputType: FieldTypeSelectMultiple},
		{Name: "is_contained_by", Label: "Is Contained By", InputType: FieldTypeSelectMultiple},
		{Name: "shares_at_least_one_element_with", Label: "Shares At Least One Element With", InputType: FieldTypeSelectMultiple},
		{Name: "shares_no_elements_with", Label: "Shares No Elements With", InputType: FieldTypeSelectMultiple},
	},
}

// curatedLabels maps operator names to the short labels the condition
// builder displays, per field type.
var curatedLabels = map[FieldType]map[string]string{
	FieldTypeNumeric: {
		"equal_to":                 "=",
		"greater_than":             ">",
		"less_than":                "<",
		"greater_than_or_equal_to": "≥",
		"less_than_or_equal_to":    "≤",
	},
	FieldTypeSelectMultiple: {
		"shares_at_least_one_element_with": "Is One Of",
		"shares_no_elements_with":          "Is Not One Of",
	},
	FieldTypeString: {
		"contains":  "Includes",
		"non_empty": "Is Not Empty",
	},
}

// CurateOperators applies display labels to the operators of a field type.
// Operators without a curated label keep their default label; field types
// without a curation table pass through untouched.
func CurateOperators(ft FieldType, ops []Operator) []Operator {
	labels, curated := curatedLabels[ft]
	if !curated {
		return ops
	}
	out := make([]Operator, len(ops))
	for i, op := range ops {
		if label, ok := labels[op.Name]; ok {
			op.Label = label
		}
		out[i] = op
	}
	return out
}
