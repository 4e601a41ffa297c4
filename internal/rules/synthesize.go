package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/veldt-labs/veldt/internal/eventtype"
	"github.com/veldt-labs/veldt/internal/schema"
)

// SubjectGroup is one monitored-subject grouping a rule can match on.
type SubjectGroup struct {
	ID   string
	Name string
}

// SubjectGroupSource supplies subject-group data for rule variables.
type SubjectGroupSource interface {
	// ListSubjectGroups returns the groups the viewer may see.
	ListSubjectGroups(ctx context.Context, viewer Viewer) ([]SubjectGroup, error)

	// GroupsForSubject returns the ids of the groups a subject belongs to.
	GroupsForSubject(ctx context.Context, subjectID string) ([]string, error)
}

// Viewer scopes permission-filtered variable options.
type Viewer interface {
	CanViewSubjectGroups() bool
}

// Synthesizer builds rule-variable sets from rendered event-type schemas.
type Synthesizer struct {
	renderer *schema.Renderer
	groups   SubjectGroupSource
}

func NewSynthesizer(renderer *schema.Renderer, groups SubjectGroupSource) *Synthesizer {
	return &Synthesizer{renderer: renderer, groups: groups}
}

// variableSpec accumulates one schema-derived variable across event types.
type variableSpec struct {
	key       string
	fieldType FieldType
	label     string
	options   map[string]string
}

// BuildVariables synthesizes a variable set from the given event types'
// rendered schemas, plus the base event variables and the subject-group
// variable. The returned map records which event types each schema-derived
// variable applies to.
//
// When onlyCommon is set, only properties present in every event type's
// schema become variables. Same-named properties of the same field type
// merge their option sets, first-seen display winning on collision; a
// same-named property with a different field type is skipped with a
// warning and the first-seen variable kept.
func (s *Synthesizer) BuildVariables(ctx context.Context, types []eventtype.EventType, onlyCommon bool, viewer Viewer) (*VariableSet, map[string][]string, error) {
	propertiesByType := make(map[string]map[string]schema.Property, len(types))
	typeOrder := make([]string, 0, len(types))

	var keysets []map[string]struct{}
	for _, et := range types {
		doc, err := s.renderer.Render(ctx, et.Schema)
		if err != nil {
			slog.Warn("Cannot render schema for rule variables", "event_type", et.Value, "error", err)
			return nil, nil, fmt.Errorf("render schema for %s: %w", et.Value, err)
		}

		props := doc.Properties()
		keyset := make(map[string]struct{}, len(props))
		for k := range props {
			keyset[k] = struct{}{}
		}
		keysets = append(keysets, keyset)

		propertiesByType[et.Value] = props
		typeOrder = append(typeOrder, et.Value)
	}

	common := intersectKeysets(keysets)

	specs := make(map[string]*variableSpec)
	var specOrder []string
	appliesTo := make(map[string][]string)

	for _, typeValue := range typeOrder {
		props := propertiesByType[typeValue]

		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if onlyCommon {
				if _, shared := common[key]; !shared {
					continue
				}
			}
			prop := props[key]

			fieldType, supported := translateSchemaType(prop)
			if !supported {
				continue
			}

			if existing, seen := specs[key]; seen {
				if existing.fieldType == fieldType {
					accumulateOptions(prop, existing.options)
				} else {
					slog.Warn("Rule variable name collision with different field types", "name", key)
				}
			} else {
				label, _ := prop.Title()
				if label == "" {
					label = key
				}
				specs[key] = &variableSpec{
					key:       key,
					fieldType: fieldType,
					label:     label,
					options:   accumulateOptions(prop, nil),
				}
				specOrder = append(specOrder, key)
			}

			appliesTo[key] = append(appliesTo[key], typeValue)
		}
	}

	vars := BaseVariables()
	for _, key := range specOrder {
		vars.Add(specs[key].variable())
	}

	sg, err := s.subjectGroupVariable(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	vars.Add(sg)

	return vars, appliesTo, nil
}

func (sp *variableSpec) variable() Variable {
	switch sp.fieldType {
	case FieldTypeSelectMultiple:
		return detailSelectVariable(sp.key, sp.label, optionList(sp.options))
	case FieldTypeNumeric:
		return detailNumericVariable(sp.key, sp.label)
	default:
		return detailStringVariable(sp.key, sp.label)
	}
}

// subjectGroupVariable matches events against the groups of their related
// subjects. A viewer without subject-group visibility gets the variable
// with no selectable options.
func (s *Synthesizer) subjectGroupVariable(ctx context.Context, viewer Viewer) (Variable, error) {
	var options []Option
	if s.groups != nil && viewer != nil && viewer.CanViewSubjectGroups() {
		groups, err := s.groups.ListSubjectGroups(ctx, viewer)
		if err != nil {
			return Variable{}, fmt.Errorf("list subject groups: %w", err)
		}
		for _, g := range groups {
			options = append(options, Option{Name: g.ID, Label: g.Name})
		}
		sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })
	}

	source := s.groups
	return Variable{
		Name:      "subject_group",
		Label:     "Subject Group",
		FieldType: FieldTypeSelectMultiple,
		Options:   options,
		Resolve: func(e Event) interface{} {
			if source == nil {
				return []string{}
			}
			ids := []string{}
			subjects, _ := e["related_subjects"].([]interface{})
			for _, raw := range subjects {
				subject, _ := raw.(map[string]interface{})
				id, _ := subject["id"].(string)
				if id == "" {
					continue
				}
				groups, err := source.GroupsForSubject(ctx, id)
				if err != nil {
					slog.Warn("Cannot resolve groups for subject", "subject", id, "error", err)
					continue
				}
				ids = append(ids, groups...)
			}
			return ids
		},
	}, nil
}

// translateSchemaType maps a rendered schema property to a rule field
// type. Properties carrying enumNames become select-multiples regardless
// of declared type; unsupported types are skipped.
func translateSchemaType(prop schema.Property) (FieldType, bool) {
	if prop == nil {
		return "", false
	}
	if _, hasEnumNames := prop["enumNames"]; hasEnumNames {
		return FieldTypeSelectMultiple, true
	}

	t, declared := prop["type"].(string)
	if !declared {
		slog.Warn("Schema property has no type, treating as string", "property", prop)
		return FieldTypeString, true
	}

	switch t {
	case "string":
		return FieldTypeString, true
	case "number":
		return FieldTypeNumeric, true
	default:
		slog.Debug("Schema property type not usable as rule variable", "type", t)
		return "", false
	}
}

// accumulateOptions folds a property's enumNames into accumulator,
// keeping the first-seen display on value collision. A nil accumulator
// starts a fresh set.
func accumulateOptions(prop schema.Property, accumulator map[string]string) map[string]string {
	if accumulator == nil {
		accumulator = make(map[string]string)
	}
	for value, display := range prop.EnumNames() {
		if _, seen := accumulator[value]; !seen {
			accumulator[value] = fmt.Sprint(display)
		}
	}
	return accumulator
}

func optionList(m map[string]string) []Option {
	out := make([]Option, 0, len(m))
	for name, label := range m {
		out = append(out, Option{Name: name, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func intersectKeysets(keysets []map[string]struct{}) map[string]struct{} {
	if len(keysets) == 0 {
		return map[string]struct{}{}
	}
	common := make(map[string]struct{})
	for k := range keysets[0] {
		shared := true
		for _, other := range keysets[1:] {
			if _, ok := other[k]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common[k] = struct{}{}
		}
	}
	return common
}
