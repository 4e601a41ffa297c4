package rules

import (
	"fmt"
	"log/slog"
)

// Dispatch is one triggered action, accumulated for the caller to deliver.
type Dispatch struct {
	Action      string `json:"action"`
	Event       Event  `json:"event"`
	AlertRuleID string `json:"alert_rule_id"`
}

// Actions collects action dispatches for one event while its rules run.
type Actions struct {
	event      Event
	dispatches []Dispatch
}

func NewActions(e Event) *Actions {
	return &Actions{event: e}
}

// SendAlert records an alert dispatch for the event.
func (a *Actions) SendAlert(alertRuleID string) {
	slog.Info("Sending alert for event", "event_id", a.event["id"], "alert_rule_id", alertRuleID)
	a.dispatches = append(a.dispatches, Dispatch{
		Action:      "send_alert",
		Event:       a.event,
		AlertRuleID: alertRuleID,
	})
}

// Dispatches returns the accumulated dispatches in trigger order.
func (a *Actions) Dispatches() []Dispatch {
	return a.dispatches
}

// ActionInvocation names an action and its parameters as stored on a rule.
type ActionInvocation struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}

// Rule pairs a condition group with the actions to trigger when it holds.
type Rule struct {
	Conditions Conditions         `json:"conditions"`
	Actions    []ActionInvocation `json:"actions"`
}

// Run evaluates a rule against an event and triggers its actions when the
// conditions hold. It reports whether the rule fired.
func Run(vars *VariableSet, e Event, rule Rule, actions *Actions) (bool, error) {
	ok, err := EvaluateConditions(vars, e, rule.Conditions)
	if err != nil || !ok {
		return false, err
	}

	for _, inv := range rule.Actions {
		switch inv.Name {
		case "send_alert":
			id := fmt.Sprint(inv.Params["alert_rule_id"])
			actions.SendAlert(id)
		default:
			return false, fmt.Errorf("unknown rule action %q", inv.Name)
		}
	}
	return true, nil
}
