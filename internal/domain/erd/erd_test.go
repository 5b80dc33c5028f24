package erd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogDiagram() Diagram {
	return Diagram{
		Entities: []Entity{
			{Name: "USER", Attributes: []Attribute{
				{Type: "int", Name: "id", Key: KeyPrimary},
				{Type: "string", Name: "email", Key: KeyUnique},
				{Type: "string", Name: "name"},
			}},
			{Name: "POST", Attributes: []Attribute{
				{Type: "int", Name: "id", Key: KeyPrimary},
				{Type: "int", Name: "authorId", Key: KeyForeign},
			}},
		},
		Relationships: []Relationship{
			{Left: "USER", Right: "POST", Cardinality: OneToMany, Label: "writes"},
		},
	}
}

func TestRender(t *testing.T) {
	src := blogDiagram().Render()

	want := `erDiagram
    USER {
        int id PK
        string email UK
        string name
    }
    POST {
        int id PK
        int authorId FK
    }
    USER ||--o{ POST : writes
`
	assert.Equal(t, want, src)
}

func TestRender_QuotesLabelsWithSpaces(t *testing.T) {
	d := Diagram{Relationships: []Relationship{
		{Left: "A", Right: "B", Cardinality: ManyToMany, Label: "linked to"},
	}}
	assert.Contains(t, d.Render(), `A }o--o{ B : "linked to"`)
}

func TestParse_RoundTrip(t *testing.T) {
	d := blogDiagram()
	parsed, err := Parse(d.Render())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParse_IgnoresCommentsAndBlankLines(t *testing.T) {
	src := "\n%% generated\nerDiagram\n\n    A {\n        int id PK\n    }\n    A ||--|| A : self\n"
	d, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, d.Entities, 1)
	require.Len(t, d.Relationships, 1)
	assert.Equal(t, "self", d.Relationships[0].Label)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"wrong header", "graph TD\n A --> B\n"},
		{"unclosed entity", "erDiagram\n A {\n int id\n"},
		{"bad key", "erDiagram\n A {\n int id XX\n }\n"},
		{"bad cardinality", "erDiagram\n A <--> B : x\n"},
		{"missing label", "erDiagram\n A ||--o{ B\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
		})
	}
}

func TestParse_ReportsLine(t *testing.T) {
	_, err := Parse("erDiagram\n    A {\n        int\n    }\n")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
}

func TestDataURI_RoundTrip(t *testing.T) {
	src := blogDiagram().Render()
	uri := EncodeDataURI(src)
	require.True(t, strings.HasPrefix(uri, "data:text/plain;base64,"))

	got, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestDecodeDataURI_RawPassThrough(t *testing.T) {
	raw := "erDiagram\n    A ||--o{ B : has\n"
	got, err := DecodeDataURI(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeDataURI_Malformed(t *testing.T) {
	_, err := DecodeDataURI("data:text/plain;base64")
	require.Error(t, err)

	_, err = DecodeDataURI("data:text/plain;base64,@@@")
	require.Error(t, err)
}

func TestDecodeDataURI_PlainPayload(t *testing.T) {
	got, err := DecodeDataURI("data:text/plain,erDiagram")
	require.NoError(t, err)
	assert.Equal(t, "erDiagram", got)
}
