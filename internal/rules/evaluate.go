package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Condition compares one variable against a target value.
type Condition struct {
	Name     string      `json:"name"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// Conditions groups conditions: every All condition must hold, and at
// least one Any condition when any are present.
type Conditions struct {
	All []Condition `json:"all,omitempty"`
	Any []Condition `json:"any,omitempty"`
}

// Evaluate applies one condition to an event through the variable set.
func Evaluate(vars *VariableSet, e Event, c Condition) (bool, error) {
	v, ok := vars.Get(c.Name)
	if !ok {
		return false, fmt.Errorf("unknown rule variable %q", c.Name)
	}
	resolved := v.Resolve(e)

	switch v.FieldType {
	case FieldTypeString, FieldTypeText:
		s, _ := resolved.(string)
		return evaluateString(s, c)
	case FieldTypeNumeric:
		d, isDecimal := resolved.(decimal.Decimal)
		if !isDecimal {
			d = toDecimal(resolved)
		}
		return evaluateNumeric(d, c)
	case FieldTypeSelectMultiple:
		values, err := stringList(resolved)
		if err != nil {
			return false, err
		}
		return evaluateMultiselect(values, c)
	default:
		return false, fmt.Errorf("field type %q cannot be evaluated", v.FieldType)
	}
}

// EvaluateConditions reports whether a condition group holds for an event.
func EvaluateConditions(vars *VariableSet, e Event, conds Conditions) (bool, error) {
	for _, c := range conds.All {
		ok, err := Evaluate(vars, e, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if len(conds.Any) == 0 {
		return true, nil
	}
	for _, c := range conds.Any {
		ok, err := Evaluate(vars, e, c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// String comparisons are case-insensitive.
func evaluateString(value string, c Condition) (bool, error) {
	target := strings.ToLower(fmt.Sprint(c.Value))
	value = strings.ToLower(value)

	switch c.Operator {
	case "equal_to":
		return value == target, nil
	case "starts_with":
		return strings.HasPrefix(value, target), nil
	case "ends_with":
		return strings.HasSuffix(value, target), nil
	case "contains":
		return strings.Contains(value, target), nil
	case "non_empty":
		return value != "", nil
	default:
		return false, fmt.Errorf("unsupported string operator %q", c.Operator)
	}
}

func evaluateNumeric(value decimal.Decimal, c Condition) (bool, error) {
	target := toDecimal(c.Value)

	switch c.Operator {
	case "equal_to":
		return value.Equal(target), nil
	case "greater_than":
		return value.GreaterThan(target), nil
	case "less_than":
		return value.LessThan(target), nil
	case "greater_than_or_equal_to":
		return value.GreaterThanOrEqual(target), nil
	case "less_than_or_equal_to":
		return value.LessThanOrEqual(target), nil
	default:
		return false, fmt.Errorf("unsupported numeric operator %q", c.Operator)
	}
}

func evaluateMultiselect(values []string, c Condition) (bool, error) {
	targets, err := stringList(c.Value)
	if err != nil {
		return false, err
	}

	valueSet := toSet(values)
	targetSet := toSet(targets)

	switch c.Operator {
	case "contains_all":
		for t := range targetSet {
			if _, ok := valueSet[t]; !ok {
				return false, nil
			}
		}
		return true, nil
	case "is_contained_by":
		for v := range valueSet {
			if _, ok := targetSet[v]; !ok {
				return false, nil
			}
		}
		return true, nil
	case "shares_at_least_one_element_with":
		for v := range valueSet {
			if _, ok := targetSet[v]; ok {
				return true, nil
			}
		}
		return false, nil
	case "shares_no_elements_with":
		for v := range valueSet {
			if _, ok := targetSet[v]; ok {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported multiselect operator %q", c.Operator)
	}
}

func stringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("cannot use %T as a value list", raw)
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
