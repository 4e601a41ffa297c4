package schema

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/veldt-labs/veldt/internal/choices"
)

// countingChoices wraps a choice repository and counts backend queries.
type countingChoices struct {
	inner choices.Repository
	mu    sync.Mutex
	calls int
}

func (c *countingChoices) ListChoices(ctx context.Context, model, field string) ([]choices.Choice, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.ListChoices(ctx, model, field)
}

func testBackends(t *testing.T) (Backends, *countingChoices) {
	t.Helper()

	static := choices.NewMemoryRepository()
	static.Add(choices.Choice{ID: uuid.New(), Model: choices.EventModel, Field: "species", Value: "lion", Display: "Lion"})
	static.Add(choices.Choice{ID: uuid.New(), Model: choices.EventModel, Field: "species", Value: "kudu", Display: "Kudu"})

	dynamic := choices.NewMemoryDynamicRepository()
	dynamic.AddDefinition(choices.DynamicChoice{
		ID:         "patrol-teams",
		ModelName:  "team",
		ValueCol:   "id",
		DisplayCol: "name",
	})
	dynamic.AddRows("team",
		choices.Row{ID: "t1", Active: true, Fields: map[string]interface{}{"name": "Alpha"}},
	)
	dynamic.AddDefinition(choices.DynamicChoice{
		ID:         "subjects",
		ModelName:  choices.SubjectModel,
		ValueCol:   "id",
		DisplayCol: "name",
	})
	dynamic.AddRows(choices.SubjectModel,
		choices.Row{ID: "s1", Active: true, Fields: map[string]interface{}{"name": "Echo"}},
		choices.Row{ID: "s2", Active: false, Fields: map[string]interface{}{"name": "Foxtrot"}},
	)

	lookup := choices.NewMemoryLookupRepository()
	lookup.AddEntries("conservancy",
		choices.LookupEntry{ID: uuid.MustParse("5f4d2a1c-0000-0000-0000-000000000001"), Name: "Area A"},
	)

	counting := &countingChoices{inner: static}
	return Backends{Choices: counting, Dynamic: dynamic, Lookup: lookup}, counting
}

func newTestRenderer(t *testing.T) (*Renderer, *countingChoices) {
	b, counting := testBackends(t)
	return NewRenderer(NewChoiceProvider(b)), counting
}

func TestRender_TokenFreeTemplateIsPlainJSON(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{
		"schema": {"$schema": "draft-04", "properties": {"notes": {"type": "string", "title": "Notes"}}},
		"definition": ["notes"]
	}`

	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)

	want, err := ParseDocument([]byte(template))
	require.NoError(t, err)
	require.Equal(t, want, doc)
}

func TestRender_EnumSubstitution(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{
		"schema": {
			"$schema": "draft-04",
			"properties": {
				"species": {"type": "string", "title": "Species", "enumNames": {{enum___species___names}}}
			}
		}
	}`

	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)

	prop, ok := doc.Property("species")
	require.True(t, ok)
	require.Equal(t, map[string]interface{}{"lion": "Lion", "kudu": "Kudu"}, prop["enumNames"])
}

func TestRender_Idempotent(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{"schema": {"$schema": "d4", "properties": {"species": {"type": "string", "title": "S", "enum": {{enum___species___values}}}}}}`

	first, err := r.Render(context.Background(), template)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), template)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRender_RepeatedTokensQueryBackendOnce(t *testing.T) {
	r, counting := newTestRenderer(t)
	template := `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"species": {"type": "string", "title": "S", "enum": {{enum___species___values}}, "enumNames": {{enum___species___names}}}
			}
		}
	}`

	_, err := r.Render(context.Background(), template)
	require.NoError(t, err)
	// values and names are distinct memo keys; a second render of the same
	// template is served from the document cache entirely.
	require.Equal(t, 2, counting.calls)

	_, err = r.Render(context.Background(), template)
	require.NoError(t, err)
	require.Equal(t, 2, counting.calls)
}

func TestRender_MapAndValueKinds(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"species": {"key": "species", "titleMap": {{enum___species___map}}, "enum": {{enum___species___values}}}
			}
		}
	}`

	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)

	prop, _ := doc.Property("species")
	require.Equal(t, []interface{}{
		map[string]interface{}{"value": "kudu", "name": "Kudu"},
		map[string]interface{}{"value": "lion", "name": "Lion"},
	}, prop["titleMap"])
	require.Equal(t, []interface{}{"kudu", "lion"}, prop["enum"])
}

func TestRender_QueryAndTableTokens(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"team": {"key": "team", "enum": {{query___patrol-teams___values}}},
				"area": {"key": "area", "enumNames": {{table___conservancy___names}}}
			}
		}
	}`

	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)

	team, _ := doc.Property("team")
	require.Equal(t, []interface{}{"t1"}, team["enum"])

	area, _ := doc.Property("area")
	require.Equal(t, map[string]interface{}{"5f4d2a1c-0000-0000-0000-000000000001": "Area A"}, area["enumNames"])
}

func TestRender_UnresolvedDynamicChoiceIsEmptyList(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{"schema": {"$schema": "d4", "properties": {"x": {"key": "x", "enum": {{query___missing___values}}}}}}`

	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)
	prop, _ := doc.Property("x")
	require.Equal(t, []interface{}{}, prop["enum"])
}

func TestRender_MalformedTokenIsFatal(t *testing.T) {
	r, _ := newTestRenderer(t)
	_, err := r.Render(context.Background(), `{"schema": {{enum___species}}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid schema tag")
}

func TestRender_InvalidJSONAfterSubstitution(t *testing.T) {
	r, _ := newTestRenderer(t)
	_, err := r.Render(context.Background(), `{"schema": {{enum___species___values}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestRenderForEvent_UnionsSavedSubjectBack(t *testing.T) {
	r, _ := newTestRenderer(t)
	template := `{"schema": {"$schema": "d4", "properties": {"subject": {"key": "subject", "enum": {{query___subjects___values}}}}}}`

	// Without event context, only the active subject appears.
	doc, err := r.Render(context.Background(), template)
	require.NoError(t, err)
	prop, _ := doc.Property("subject")
	require.Equal(t, []interface{}{"s1"}, prop["enum"])

	// A saved reference to the now-inactive subject stays displayable.
	ev := &EventContext{
		EventID:   "e1",
		Details:   map[string]interface{}{"subject": map[string]interface{}{"name": "Foxtrot", "value": "s2"}},
		DetailKey: "subject",
	}
	doc, err = r.RenderForEvent(context.Background(), template, ev)
	require.NoError(t, err)
	prop, _ = doc.Property("subject")
	require.ElementsMatch(t, []interface{}{"s1", "s2"}, prop["enum"])
}

func TestProvider_EnumImages(t *testing.T) {
	static := choices.NewMemoryRepository()
	static.Add(choices.Choice{ID: uuid.New(), Model: choices.EventModel, Field: "species", Value: "lion", Display: "Lion", Icon: "lion.svg"})
	static.Add(choices.Choice{ID: uuid.New(), Model: choices.EventModel, Field: "species", Value: "kudu", Display: "Kudu"})

	p := NewChoiceProvider(Backends{Choices: static})
	got, err := p.EnumImages(context.Background(), "species")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"lion": "lion.svg"}, got)
}

func TestEncodeOptions_NamesPreservesOrder(t *testing.T) {
	opts := []choices.Option{
		{Value: "z", Display: "Zebra"},
		{Value: "a", Display: "Aardvark"},
	}
	raw := encodeOptions(opts, KindNames)
	require.Equal(t, `{"z":"Zebra","a":"Aardvark"}`, string(raw))
	require.True(t, json.Valid(raw))
}
