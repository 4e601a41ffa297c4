package rules

import (
	"context"

	"github.com/veldt-labs/veldt/internal/eventtype"
)

// ExportedVariable is one condition factor in the shape the condition
// builder UI consumes.
type ExportedVariable struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"field_type"`
	Options   []Option  `json:"options,omitempty"`

	// ExclusiveTo lists the event types the variable applies to; nil for
	// variables shared by every event.
	ExclusiveTo []string `json:"exclusive_to"`
}

// ExportedAction is one action the rules engine can trigger.
type ExportedAction struct {
	Name   string        `json:"name"`
	Label  string        `json:"label"`
	Params []ActionParam `json:"params"`
}

// ActionParam declares one action argument and its input shape.
type ActionParam struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
}

// RuleData is the full condition-builder document: variables, the
// operators each field type supports and the available actions.
type RuleData struct {
	Variables             []ExportedVariable       `json:"variables"`
	VariableTypeOperators map[FieldType][]Operator `json:"variable_type_operators"`
	Actions               []ExportedAction         `json:"actions"`
}

// pruneOptionsFrom lists the field types whose variables never carry
// selectable options in the exported document.
var pruneOptionsFrom = map[FieldType]bool{
	FieldTypeText:    true,
	FieldTypeNoInput: true,
	FieldTypeNumeric: true,
}

// ExportRuleData renders a variable set into a condition-builder document.
// Operators carry curated display labels and each variable is annotated
// with the event types it is exclusive to.
func ExportRuleData(vars *VariableSet, appliesTo map[string][]string) *RuleData {
	exported := make([]ExportedVariable, 0, vars.Len())
	usedTypes := make(map[FieldType]bool)
	for _, v := range vars.All() {
		ev := ExportedVariable{
			Name:        v.Name,
			Label:       v.Label,
			FieldType:   v.FieldType,
			Options:     v.Options,
			ExclusiveTo: appliesTo[v.Name],
		}
		if pruneOptionsFrom[v.FieldType] {
			ev.Options = nil
		}
		exported = append(exported, ev)
		usedTypes[v.FieldType] = true
	}

	operators := make(map[FieldType][]Operator, len(usedTypes))
	for ft, ops := range defaultOperators {
		operators[ft] = CurateOperators(ft, ops)
	}

	return &RuleData{
		Variables:             exported,
		VariableTypeOperators: operators,
		Actions: []ExportedAction{
			{
				Name:  "send_alert",
				Label: "Send Alert",
				Params: []ActionParam{
					{Name: "alert_rule_id", Label: "Alert Rule Id", FieldType: FieldTypeNoInput},
				},
			},
		},
	}
}

// RenderAggregateVariables synthesizes and exports the condition-builder
// document for a list of event types in one call.
func (s *Synthesizer) RenderAggregateVariables(ctx context.Context, types []eventtype.EventType, onlyCommon bool, viewer Viewer) (*RuleData, error) {
	vars, appliesTo, err := s.BuildVariables(ctx, types, onlyCommon, viewer)
	if err != nil {
		return nil, err
	}
	return ExportRuleData(vars, appliesTo), nil
}
