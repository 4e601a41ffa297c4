package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/veldt-labs/veldt/internal/choices"
)

// Backends bundles the read-only query capabilities the engine resolves
// choice tokens against.
type Backends struct {
	Choices choices.Repository
	Dynamic choices.DynamicRepository
	Lookup  choices.LookupRepository
}

// EventContext carries the saved details of an event being edited, so a
// dynamic choice can union a previously saved reference back into its result
// set even when that row no longer matches current criteria.
type EventContext struct {
	EventID string

	// Details is the stored event_details map for the event.
	Details map[string]interface{}

	// DetailKey names the detail field holding the saved reference.
	DetailKey string
}

// SavedValue returns the saved reference id for the context's detail field,
// or "".
func (e *EventContext) SavedValue() string {
	if e == nil || e.Details == nil || e.DetailKey == "" {
		return ""
	}
	v, ok := e.Details[e.DetailKey]
	if !ok {
		return ""
	}
	if m, isMap := v.(map[string]interface{}); isMap {
		v = m["value"]
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ChoiceProvider resolves schema tokens to JSON-encoded choice lists.
//
// Results are memoized per (lookup, field, kind) for the provider's
// lifetime. The provider is the cache: construct one per render batch, or
// hold one process-wide and accept that backend changes are not observed
// until a fresh provider is built.
type ChoiceProvider struct {
	backends Backends

	mu   sync.Mutex
	memo map[memoKey]json.RawMessage
}

type memoKey struct {
	lookup Lookup
	field  string
	kind   string
}

// NewChoiceProvider creates a provider over the given backends.
func NewChoiceProvider(b Backends) *ChoiceProvider {
	return &ChoiceProvider{
		backends: b,
		memo:     make(map[memoKey]json.RawMessage),
	}
}

// Resolve dispatches a parsed token to the matching backend.
func (p *ChoiceProvider) Resolve(ctx context.Context, tok Token) (json.RawMessage, error) {
	switch tok.Lookup {
	case LookupEnum:
		return p.ResolveEnum(ctx, tok.Field, tok.Kind)
	case LookupQuery:
		return p.ResolveQuery(ctx, tok.Field, tok.Kind, nil)
	case LookupTable:
		return p.ResolveTable(ctx, tok.Field, tok.Kind)
	}
	// Unknown lookups substitute as empty text, like an unresolved template
	// variable. The JSON parse after substitution surfaces the problem.
	slog.Warn("Unknown schema token lookup", "lookup", tok.Lookup, "field", tok.Field)
	return json.RawMessage(""), nil
}

// ResolveEnum resolves static event-field choices, ordered by
// (ordernum, lower(display)).
func (p *ChoiceProvider) ResolveEnum(ctx context.Context, field, kind string) (json.RawMessage, error) {
	return p.memoized(memoKey{LookupEnum, field, kind}, func() ([]choices.Option, error) {
		rows, err := p.backends.Choices.ListChoices(ctx, choices.EventModel, field)
		if err != nil {
			return nil, err
		}
		opts := make([]choices.Option, 0, len(rows))
		for _, c := range rows {
			opts = append(opts, choices.Option{Value: c.Value, Display: c.Display})
		}
		return opts, nil
	})
}

// ResolveQuery resolves a dynamic-choice definition whose id equals field.
// A missing definition is non-fatal: misconfigured tokens resolve to an
// empty list. Subject-backed definitions are restricted to active subjects,
// and an event context's saved reference is unioned back in.
func (p *ChoiceProvider) ResolveQuery(ctx context.Context, field, kind string, event *EventContext) (json.RawMessage, error) {
	fetch := func() ([]choices.Option, error) {
		dc, err := p.backends.Dynamic.GetDynamicChoice(ctx, field)
		if errors.Is(err, choices.ErrNotFound) {
			slog.Warn("No dynamic choice found for schema token", "field", field)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		var opts choices.QueryOptions
		if dc.ModelName == choices.SubjectModel {
			opts.ActiveOnly = true
			opts.IncludeID = event.SavedValue()
		}
		rows, err := p.backends.Dynamic.QueryOptions(ctx, dc, opts)
		if err != nil {
			slog.Error("Dynamic choice query failed", "field", field, "error", err)
			return nil, nil
		}
		return rows, nil
	}

	// Event-specific resolutions are not memoized: the saved reference
	// varies per event.
	if event != nil {
		rows, err := fetch()
		if err != nil {
			return nil, err
		}
		return encodeOptions(rows, kind), nil
	}
	return p.memoized(memoKey{LookupQuery, field, kind}, fetch)
}

// ResolveTable resolves a legacy lookup list by name, ordered by
// (ordernum, lower(name)).
func (p *ChoiceProvider) ResolveTable(ctx context.Context, field, kind string) (json.RawMessage, error) {
	return p.memoized(memoKey{LookupTable, field, kind}, func() ([]choices.Option, error) {
		rows, err := p.backends.Lookup.ListTable(ctx, field)
		if err != nil {
			return nil, err
		}
		opts := make([]choices.Option, 0, len(rows))
		for _, e := range rows {
			opts = append(opts, choices.Option{Value: e.ID.String(), Display: e.Name})
		}
		return opts, nil
	})
}

// EnumImages returns the value -> icon map for a static choice field,
// omitting choices without icons.
func (p *ChoiceProvider) EnumImages(ctx context.Context, field string) (map[string]string, error) {
	rows, err := p.backends.Choices.ListChoices(ctx, choices.EventModel, field)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, c := range rows {
		if c.Icon != "" {
			out[c.Value] = c.Icon
		}
	}
	return out, nil
}

func (p *ChoiceProvider) memoized(key memoKey, fetch func() ([]choices.Option, error)) (json.RawMessage, error) {
	p.mu.Lock()
	if cached, ok := p.memo[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	opts, err := fetch()
	if err != nil {
		return nil, err
	}
	encoded := encodeOptions(opts, key.kind)

	p.mu.Lock()
	p.memo[key] = encoded
	p.mu.Unlock()
	return encoded, nil
}

// encodeOptions renders an ordered option list as JSON in the shape the
// token's kind asks for. The "names" object is built by hand so insertion
// order survives into the substituted template text.
func encodeOptions(opts []choices.Option, kind string) json.RawMessage {
	switch kind {
	case KindNames:
		var b strings.Builder
		b.WriteByte('{')
		for i, o := range opts {
			if i > 0 {
				b.WriteByte(',')
			}
			k, _ := json.Marshal(o.Value)
			v, _ := json.Marshal(o.Display)
			b.Write(k)
			b.WriteByte(':')
			b.Write(v)
		}
		b.WriteByte('}')
		return json.RawMessage(b.String())
	case KindMap:
		out := make([]map[string]string, 0, len(opts))
		for _, o := range opts {
			out = append(out, map[string]string{"value": o.Value, "name": o.Display})
		}
		encoded, _ := json.Marshal(out)
		return encoded
	default:
		values := make([]string, 0, len(opts))
		for _, o := range opts {
			values = append(values, o.Value)
		}
		encoded, _ := json.Marshal(values)
		return encoded
	}
}
