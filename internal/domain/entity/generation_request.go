package entity

import "fmt"

// InputKind is the kind of source the user submitted.
type InputKind string

const (
	InputKindComponent InputKind = "react"
	InputKindMarkup    InputKind = "html"
	InputKindFields    InputKind = "json"
	InputKindDesignRef InputKind = "figma"
)

// OutputFormat selects the schema representation returned to the caller.
type OutputFormat string

const (
	OutputFormatPrisma   OutputFormat = "prisma"
	OutputFormatSQL      OutputFormat = "sql"
	OutputFormatMongoose OutputFormat = "mongoose"
	OutputFormatFirebase OutputFormat = "firebase"
)

// DefaultOutputFormat is used when the request leaves outputFormat blank.
const DefaultOutputFormat = OutputFormatPrisma

var outputFormats = []OutputFormat{
	OutputFormatPrisma,
	OutputFormatSQL,
	OutputFormatMongoose,
	OutputFormatFirebase,
}

// OutputFormats returns every supported format in declaration order.
func OutputFormats() []OutputFormat {
	out := make([]OutputFormat, len(outputFormats))
	copy(out, outputFormats)
	return out
}

func (f OutputFormat) Valid() bool {
	for _, known := range outputFormats {
		if f == known {
			return true
		}
	}
	return false
}

// TargetDatabase is accepted and recorded but does not change the output.
type TargetDatabase string

const (
	TargetDatabasePostgreSQL TargetDatabase = "postgresql"
	TargetDatabaseMySQL      TargetDatabase = "mysql"
	TargetDatabaseMongoDB    TargetDatabase = "mongodb"
	TargetDatabaseFirebase   TargetDatabase = "firebase"
)

type GenerationOptions struct {
	OutputFormat OutputFormat   `json:"outputFormat"`
	DatabaseType TargetDatabase `json:"databaseType"`
	SuggestAPI   bool           `json:"suggestAPI"`
	GenerateERD  bool           `json:"generateERD"`
}

type GenerationRequest struct {
	// InputCode holds the design URL for figma input, raw source otherwise.
	InputCode string            `json:"inputCode"`
	InputType InputKind         `json:"inputType"`
	Options   GenerationOptions `json:"options"`
}

// Validate checks the request and fills in the default output format.
func (r *GenerationRequest) Validate() error {
	if r.InputCode == "" {
		return &ValidationError{Field: "inputCode", Message: "Input code is required"}
	}
	if r.Options.OutputFormat == "" {
		r.Options.OutputFormat = DefaultOutputFormat
	}
	if !r.Options.OutputFormat.Valid() {
		return &ValidationError{
			Field:   "options.outputFormat",
			Message: fmt.Sprintf("unsupported output format %q", r.Options.OutputFormat),
		}
	}
	return nil
}

type GenerationResponse struct {
	Schema      string `json:"schema"`
	ERDImageURL string `json:"erdImageUrl,omitempty"`
	APIRoutes   string `json:"apiRoutes,omitempty"`
	Explanation string `json:"explanation"`
}
