package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const introspectTemplate = `{
	"schema": {
		"$schema": "d4",
		"properties": {
			"species": {"type": "string", "title": "Species", "enum": {{enum___species___values}}, "enumNames": {{enum___species___names}}},
			"notes": {"type": "string", "title": "Notes"},
			"team": {"type": "string", "title": "Team", "titleMap": {{query___patrol-teams___map}}, "enum": {{query___patrol-teams___values}}}
		}
	}
}`

func introspectDoc(t *testing.T) *Document {
	t.Helper()
	return detailDoc(t, `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"species": {"type": "string", "title": "Species", "enum": ["lion"]},
				"notes": {"type": "string", "title": "Notes"},
				"team": {"type": "string", "title": "Team", "enum": ["t1"]}
			}
		}
	}`)
}

func TestChoiceProperties(t *testing.T) {
	got, err := ChoiceProperties(introspectTemplate, introspectDoc(t))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "species", got[0].Name)
	require.Equal(t, "species", got[0].FieldName)
	require.Equal(t, LookupEnum, got[0].Lookup)

	require.Equal(t, "team", got[1].Name)
	require.Equal(t, "patrol-teams", got[1].FieldName)
	require.Equal(t, LookupQuery, got[1].Lookup)
}

func TestChoiceProperties_ArrayItems(t *testing.T) {
	template := `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"sightings": {
					"type": "array",
					"items": {"type": "object", "properties": {
						"species": {"type": "string", "enum": {{enum___species___values}}}
					}}
				}
			}
		}
	}`
	doc := detailDoc(t, `{
		"schema": {
			"$schema": "d4",
			"properties": {
				"sightings": {
					"type": "array",
					"items": {"type": "object", "properties": {
						"species": {"type": "string", "enum": ["lion"]}
					}}
				}
			}
		}
	}`)

	got, err := ChoiceProperties(template, doc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "species", got[0].Name)
	require.Equal(t, "species", got[0].FieldName)
}

func TestChoiceProperties_MalformedToken(t *testing.T) {
	_, err := ChoiceProperties(`{"schema": {{enum___species}}}`, &Document{})
	require.Error(t, err)
}

func TestTitleMapFields(t *testing.T) {
	got, err := TitleMapFields(introspectTemplate)
	require.NoError(t, err)
	require.Equal(t, []string{"patrol-teams"}, got)
}

func TestTitleMapFields_NoTokens(t *testing.T) {
	got, err := TitleMapFields(`{"schema": {"properties": {}}}`)
	require.NoError(t, err)
	require.Empty(t, got)
}
