package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []Token
		wantErr  bool
	}{
		{
			name:     "no tokens",
			template: `{"schema": {"$schema": "draft-04", "properties": {"a": {"key": "a"}}}}`,
			want:     nil,
		},
		{
			name:     "single enum token",
			template: `{"enumNames": {{enum___species___names}}}`,
			want: []Token{
				{Lookup: LookupEnum, Field: "species", Kind: KindNames, Raw: "enum___species___names"},
			},
		},
		{
			name:     "all lookups with whitespace",
			template: `[{{ enum___species___map }}, {{query___a1b2___values}}, {{table___conservancy___names}}]`,
			want: []Token{
				{Lookup: LookupEnum, Field: "species", Kind: KindMap, Raw: "enum___species___map"},
				{Lookup: LookupQuery, Field: "a1b2", Kind: KindValues, Raw: "query___a1b2___values"},
				{Lookup: LookupTable, Field: "conservancy", Kind: KindNames, Raw: "table___conservancy___names"},
			},
		},
		{
			name:     "two segments is fatal",
			template: `{{enum___species}}`,
			wantErr:  true,
		},
		{
			name:     "four segments is fatal",
			template: `{{enum___species___names___extra}}`,
			wantErr:  true,
		},
		{
			name:     "empty segment is fatal",
			template: `{{enum______names}}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTokens(tt.template)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseTokens_RepeatedToken(t *testing.T) {
	template := `{"a": {{enum___species___names}}, "b": {{enum___species___names}}}`
	got, err := ParseTokens(template)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, got[0], got[1])
}
