package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evalVars() *VariableSet {
	vars := BaseVariables()
	vars.Add(detailSelectVariable("species", "Species", []Option{
		{Name: "lion", Label: "Lion"},
		{Name: "kudu", Label: "Kudu"},
	}))
	vars.Add(detailNumericVariable("count", "Count"))
	vars.Add(detailStringVariable("notes", "Notes"))
	return vars
}

func sightingEvent() Event {
	return Event{
		"id":             "e1",
		"title":          "Lion Sighting at Dawn",
		"priority":       float64(200),
		"inferred_state": "new",
		"event_details": map[string]interface{}{
			"species": map[string]interface{}{"name": "Lion", "value": "lion"},
			"count":   "12",
			"notes":   "Pride near the river",
		},
	}
}

func TestEvaluate_StringCaseInsensitive(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains", Condition{Name: "title", Operator: "contains", Value: "LION"}, true},
		{"equal", Condition{Name: "title", Operator: "equal_to", Value: "lion sighting at dawn"}, true},
		{"starts", Condition{Name: "notes", Operator: "starts_with", Value: "pride"}, true},
		{"ends_miss", Condition{Name: "notes", Operator: "ends_with", Value: "dam"}, false},
		{"non_empty", Condition{Name: "notes", Operator: "non_empty"}, true},
	}
	for _, tc := range tests {
		got, err := Evaluate(vars, e, tc.cond)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
}

func TestEvaluate_NumericCoercion(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()

	got, err := Evaluate(vars, e, Condition{Name: "count", Operator: "greater_than", Value: 10})
	require.NoError(t, err)
	require.True(t, got)

	got, err = Evaluate(vars, e, Condition{Name: "count", Operator: "less_than_or_equal_to", Value: "12"})
	require.NoError(t, err)
	require.True(t, got)

	got, err = Evaluate(vars, e, Condition{Name: "count", Operator: "equal_to", Value: 11.5})
	require.NoError(t, err)
	require.False(t, got)
}

func TestEvaluate_Multiselect(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()

	// The stored pair unwraps to its value before matching.
	got, err := Evaluate(vars, e, Condition{
		Name: "species", Operator: "shares_at_least_one_element_with",
		Value: []interface{}{"lion", "zebra"},
	})
	require.NoError(t, err)
	require.True(t, got)

	got, err = Evaluate(vars, e, Condition{
		Name: "species", Operator: "shares_no_elements_with",
		Value: []interface{}{"kudu"},
	})
	require.NoError(t, err)
	require.True(t, got)

	got, err = Evaluate(vars, e, Condition{
		Name: "priority", Operator: "shares_at_least_one_element_with",
		Value: []interface{}{"200"},
	})
	require.NoError(t, err)
	require.True(t, got)
}

func TestEvaluate_UnknownVariableOrOperator(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()

	_, err := Evaluate(vars, e, Condition{Name: "ghost", Operator: "contains", Value: "x"})
	require.Error(t, err)

	_, err = Evaluate(vars, e, Condition{Name: "title", Operator: "matches_regex", Value: "x"})
	require.Error(t, err)
}

func TestEvaluateConditions_AllAndAny(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()

	conds := Conditions{
		All: []Condition{
			{Name: "state", Operator: "shares_at_least_one_element_with", Value: []interface{}{"new", "active"}},
			{Name: "count", Operator: "greater_than", Value: 1},
		},
		Any: []Condition{
			{Name: "title", Operator: "contains", Value: "rhino"},
			{Name: "title", Operator: "contains", Value: "lion"},
		},
	}

	ok, err := EvaluateConditions(vars, e, conds)
	require.NoError(t, err)
	require.True(t, ok)

	conds.All = append(conds.All, Condition{Name: "notes", Operator: "contains", Value: "absent"})
	ok, err = EvaluateConditions(vars, e, conds)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRun_TriggersSendAlert(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()
	actions := NewActions(e)

	rule := Rule{
		Conditions: Conditions{All: []Condition{
			{Name: "priority", Operator: "shares_at_least_one_element_with", Value: []interface{}{"200", "300"}},
		}},
		Actions: []ActionInvocation{
			{Name: "send_alert", Params: map[string]interface{}{"alert_rule_id": "rule-7"}},
		},
	}

	fired, err := Run(vars, e, rule, actions)
	require.NoError(t, err)
	require.True(t, fired)

	dispatches := actions.Dispatches()
	require.Len(t, dispatches, 1)
	require.Equal(t, "send_alert", dispatches[0].Action)
	require.Equal(t, "rule-7", dispatches[0].AlertRuleID)
	require.Equal(t, e, dispatches[0].Event)
}

func TestRun_QuietWhenConditionsFail(t *testing.T) {
	vars := evalVars()
	e := sightingEvent()
	actions := NewActions(e)

	rule := Rule{
		Conditions: Conditions{All: []Condition{
			{Name: "state", Operator: "shares_at_least_one_element_with", Value: []interface{}{"resolved"}},
		}},
		Actions: []ActionInvocation{
			{Name: "send_alert", Params: map[string]interface{}{"alert_rule_id": "rule-7"}},
		},
	}

	fired, err := Run(vars, e, rule, actions)
	require.NoError(t, err)
	require.False(t, fired)
	require.Empty(t, actions.Dispatches())
}
