package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
	"schemagen/internal/infrastructure/metrics"
)

// Issue is one problem found in a generated response.
type Issue struct {
	Field   string
	Message string
	Line    int
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", i.Field, i.Line, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

type AnalysisResult struct {
	Passed bool
	Issues []Issue
}

// Err folds the issues into one error, or nil when the result passed.
func (r *AnalysisResult) Err() error {
	if r.Passed {
		return nil
	}
	parts := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		parts = append(parts, i.String())
	}
	return fmt.Errorf("generated output failed validation: %s", strings.Join(parts, "; "))
}

type Analyzer interface {
	Analyze(req entity.GenerationRequest, resp entity.GenerationResponse) *AnalysisResult
}

// OutputAnalyzer checks that a response honours the requested options before
// it leaves the service: required sections are present, optional sections
// match their flags, and the diagram payload decodes to a usable erDiagram.
type OutputAnalyzer struct{}

func NewOutputAnalyzer() *OutputAnalyzer {
	return &OutputAnalyzer{}
}

func (a *OutputAnalyzer) Analyze(req entity.GenerationRequest, resp entity.GenerationResponse) *AnalysisResult {
	start := time.Now()
	result := &AnalysisResult{Passed: true}
	add := func(field, msg string, line int) {
		result.Passed = false
		result.Issues = append(result.Issues, Issue{Field: field, Message: msg, Line: line})
	}

	if strings.TrimSpace(resp.Schema) == "" {
		add("schema", "empty schema", 0)
	} else if req.Options.OutputFormat == entity.OutputFormatFirebase && !json.Valid([]byte(resp.Schema)) {
		add("schema", "firebase schema is not valid JSON", 0)
	}

	if strings.TrimSpace(resp.Explanation) == "" {
		add("explanation", "empty explanation", 0)
	}

	switch {
	case req.Options.SuggestAPI && resp.APIRoutes == "":
		add("apiRoutes", "routes requested but missing", 0)
	case !req.Options.SuggestAPI && resp.APIRoutes != "":
		add("apiRoutes", "routes present but not requested", 0)
	}

	switch {
	case req.Options.GenerateERD && resp.ERDImageURL == "":
		add("erdImageUrl", "diagram requested but missing", 0)
	case !req.Options.GenerateERD && resp.ERDImageURL != "":
		add("erdImageUrl", "diagram present but not requested", 0)
	case resp.ERDImageURL != "":
		a.analyzeDiagram(resp.ERDImageURL, add)
	}

	outcome := "pass"
	if !result.Passed {
		outcome = "fail"
	}
	metrics.IncValidationRun("output", outcome)
	metrics.ObserveValidationDuration("output", time.Since(start))
	return result
}

func (a *OutputAnalyzer) analyzeDiagram(payload string, add func(field, msg string, line int)) {
	if !strings.HasPrefix(payload, "data:") {
		add("erdImageUrl", "diagram payload is not a data uri", 0)
		return
	}
	src, err := erd.DecodeDataURI(payload)
	if err != nil {
		add("erdImageUrl", err.Error(), 0)
		return
	}
	d, err := erd.Parse(src)
	if err != nil {
		line := 0
		var pe *erd.ParseError
		if errors.As(err, &pe) {
			line = pe.Line
		}
		add("erdImageUrl", err.Error(), line)
		return
	}
	if len(d.Entities) == 0 {
		add("erdImageUrl", "diagram has no entity blocks", 0)
	}
	if len(d.Relationships) == 0 {
		add("erdImageUrl", "diagram has no relationship lines", 0)
	}
	for _, r := range d.Relationships {
		if _, ok := d.Entity(r.Left); !ok {
			add("erdImageUrl", fmt.Sprintf("relationship references unknown entity %s", r.Left), 0)
		}
		if _, ok := d.Entity(r.Right); !ok {
			add("erdImageUrl", fmt.Sprintf("relationship references unknown entity %s", r.Right), 0)
		}
	}
}
