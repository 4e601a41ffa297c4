package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldType labels a rule variable for operator lookup and UI input shape.
type FieldType string

const (
	// FieldTypeString compares case-insensitively.
	FieldTypeString         FieldType = "string"
	FieldTypeText           FieldType = "text"
	FieldTypeNumeric        FieldType = "numeric"
	FieldTypeSelectMultiple FieldType = "select_multiple"
	FieldTypeNoInput        FieldType = "no_input"
)

// Option is one selectable value for a select-multiple variable.
type Option struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Event is a rendered event as seen by the rules engine: top-level fields
// plus the stored detail values under "event_details".
type Event map[string]interface{}

func (e Event) details() map[string]interface{} {
	d, _ := e["event_details"].(map[string]interface{})
	return d
}

// Variable is one condition factor. Resolve extracts the comparable value
// from an event: a string for text variables, a decimal for numeric ones
// and a value list for select-multiple ones.
type Variable struct {
	Name      string
	Label     string
	FieldType FieldType
	Options   []Option
	Resolve   func(e Event) interface{}
}

// VariableSet is a named collection of rule variables in declaration order.
type VariableSet struct {
	order []string
	vars  map[string]Variable
}

func NewVariableSet() *VariableSet {
	return &VariableSet{vars: make(map[string]Variable)}
}

// Add registers a variable, replacing any prior one with the same name
// without disturbing its position.
func (s *VariableSet) Add(v Variable) {
	if _, exists := s.vars[v.Name]; !exists {
		s.order = append(s.order, v.Name)
	}
	s.vars[v.Name] = v
}

// Get returns the named variable.
func (s *VariableSet) Get(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// All returns the variables in declaration order.
func (s *VariableSet) All() []Variable {
	out := make([]Variable, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.vars[name])
	}
	return out
}

// Len returns the number of registered variables.
func (s *VariableSet) Len() int { return len(s.order) }

var priorityOptions = []Option{
	{Name: "0", Label: "Gray"},
	{Name: "100", Label: "Green"},
	{Name: "200", Label: "Amber"},
	{Name: "300", Label: "Red"},
}

var stateOptions = []Option{
	{Name: "new", Label: "New"},
	{Name: "active", Label: "Active"},
	{Name: "resolved", Label: "Resolved"},
}

// BaseVariables returns the variables every event carries regardless of
// its type's schema: title, priority and state.
func BaseVariables() *VariableSet {
	s := NewVariableSet()
	s.Add(Variable{
		Name:      "title",
		Label:     "Title",
		FieldType: FieldTypeString,
		Resolve: func(e Event) interface{} {
			t, _ := e["title"].(string)
			return t
		},
	})
	s.Add(Variable{
		Name:      "priority",
		Label:     "Priority",
		FieldType: FieldTypeSelectMultiple,
		Options:   priorityOptions,
		Resolve: func(e Event) interface{} {
			// Priorities are matched by their string value.
			return []string{asNumericString(e["priority"])}
		},
	})
	s.Add(Variable{
		Name:      "state",
		Label:     "State",
		FieldType: FieldTypeSelectMultiple,
		Options:   stateOptions,
		Resolve: func(e Event) interface{} {
			st, _ := e["inferred_state"].(string)
			return []string{st}
		},
	})
	return s
}

// detailSelectVariable builds a select-multiple variable over a stored
// detail value. Legacy payloads may hold the value inside a {name, value}
// pair.
func detailSelectVariable(key, label string, options []Option) Variable {
	return Variable{
		Name:      key,
		Label:     label,
		FieldType: FieldTypeSelectMultiple,
		Options:   options,
		Resolve: func(e Event) interface{} {
			raw, ok := e.details()[key]
			if !ok {
				return []string{}
			}
			if m, isMap := raw.(map[string]interface{}); isMap {
				raw = m["value"]
			}
			if raw == nil {
				return []string{}
			}
			return []string{fmt.Sprint(raw)}
		},
	}
}

// detailStringVariable builds a case-insensitive text variable over a
// stored detail value.
func detailStringVariable(key, label string) Variable {
	return Variable{
		Name:      key,
		Label:     label,
		FieldType: FieldTypeString,
		Resolve: func(e Event) interface{} {
			raw, ok := e.details()[key]
			if !ok || raw == nil {
				return ""
			}
			return fmt.Sprint(raw)
		},
	}
}

// detailNumericVariable builds a numeric variable over a stored detail
// value, coercing numeric strings.
func detailNumericVariable(key, label string) Variable {
	return Variable{
		Name:      key,
		Label:     label,
		FieldType: FieldTypeNumeric,
		Resolve: func(e Event) interface{} {
			raw, ok := e.details()[key]
			if !ok || raw == nil {
				return decimal.Zero
			}
			return toDecimal(raw)
		},
	}
}

func toDecimal(raw interface{}) decimal.Decimal {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// asNumericString renders a numeric value without a fractional tail, so a
// JSON-decoded 200.0 matches the option value "200".
func asNumericString(raw interface{}) string {
	if raw == nil {
		return ""
	}
	if f, isFloat := raw.(float64); isFloat {
		return decimal.NewFromFloat(f).String()
	}
	return fmt.Sprint(raw)
}
