package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
	"schemagen/internal/infrastructure/generator"
)

func generate(t *testing.T, format entity.OutputFormat, routes, diagram bool) (entity.GenerationRequest, entity.GenerationResponse) {
	t.Helper()
	req := entity.GenerationRequest{
		InputCode: "<form><input name=email></form>",
		InputType: entity.InputKindMarkup,
		Options: entity.GenerationOptions{
			OutputFormat: format,
			SuggestAPI:   routes,
			GenerateERD:  diagram,
		},
	}
	resp, err := generator.NewCannedGenerator(0, nil).Generate(context.Background(), req)
	require.NoError(t, err)
	return req, resp
}

func TestAnalyze_CannedOutputPasses(t *testing.T) {
	a := NewOutputAnalyzer()
	for _, format := range entity.OutputFormats() {
		for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
			req, resp := generate(t, format, flags[0], flags[1])
			res := a.Analyze(req, resp)
			assert.True(t, res.Passed, "%s %v: %v", format, flags, res.Issues)
			assert.NoError(t, res.Err())
		}
	}
}

func TestAnalyze_FlagMismatch(t *testing.T) {
	a := NewOutputAnalyzer()
	req, resp := generate(t, entity.OutputFormatSQL, true, true)

	req.Options.SuggestAPI = false
	req.Options.GenerateERD = false
	res := a.Analyze(req, resp)
	require.False(t, res.Passed)
	assert.Len(t, res.Issues, 2)
	assert.Error(t, res.Err())

	req.Options.SuggestAPI = true
	req.Options.GenerateERD = true
	resp.APIRoutes = ""
	resp.ERDImageURL = ""
	res = a.Analyze(req, resp)
	require.False(t, res.Passed)
	assert.Len(t, res.Issues, 2)
}

func TestAnalyze_EmptySections(t *testing.T) {
	a := NewOutputAnalyzer()
	req, resp := generate(t, entity.OutputFormatPrisma, false, false)
	resp.Schema = " "
	resp.Explanation = ""

	res := a.Analyze(req, resp)
	require.False(t, res.Passed)
	assert.Len(t, res.Issues, 2)
}

func TestAnalyze_InvalidFirebaseJSON(t *testing.T) {
	a := NewOutputAnalyzer()
	req, resp := generate(t, entity.OutputFormatFirebase, false, false)
	resp.Schema = "{ users: "

	res := a.Analyze(req, resp)
	require.False(t, res.Passed)
	assert.Equal(t, "schema", res.Issues[0].Field)
}

func TestAnalyze_BrokenDiagrams(t *testing.T) {
	a := NewOutputAnalyzer()
	req, resp := generate(t, entity.OutputFormatSQL, false, true)

	tests := []struct {
		name    string
		payload string
	}{
		{"raw source", "erDiagram\n"},
		{"bad base64", "data:text/plain;base64,%%%"},
		{"not a diagram", erd.EncodeDataURI("graph TD\n")},
		{"no relationships", erd.EncodeDataURI(erd.Diagram{Entities: []erd.Entity{{Name: "USER"}}}.Render())},
		{"dangling relationship", erd.EncodeDataURI(erd.Diagram{
			Entities:      []erd.Entity{{Name: "USER"}},
			Relationships: []erd.Relationship{{Left: "USER", Right: "GHOST", Cardinality: erd.OneToMany, Label: "haunts"}},
		}.Render())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := resp
			broken.ERDImageURL = tt.payload
			res := a.Analyze(req, broken)
			assert.False(t, res.Passed)
			assert.NotEmpty(t, res.Issues)
		})
	}
}

func TestAnalyze_ReportsParseLine(t *testing.T) {
	a := NewOutputAnalyzer()
	req, resp := generate(t, entity.OutputFormatSQL, false, true)
	resp.ERDImageURL = erd.EncodeDataURI("erDiagram\n    USER {\n        int\n    }\n")

	res := a.Analyze(req, resp)
	require.False(t, res.Passed)
	assert.Equal(t, 3, res.Issues[0].Line)
}
