package entity

import (
	"time"

	"github.com/google/uuid"
)

// Generation is the history record of one successful generation. The
// submitted input itself is never stored, only its length.
type Generation struct {
	ID           string         `json:"id" bson:"id"`
	InputType    InputKind      `json:"input_type" bson:"input_type"`
	InputLength  int            `json:"input_length" bson:"input_length"`
	OutputFormat OutputFormat   `json:"output_format" bson:"output_format"`
	DatabaseType TargetDatabase `json:"database_type" bson:"database_type"`
	SuggestAPI   bool           `json:"suggest_api" bson:"suggest_api"`
	GenerateERD  bool           `json:"generate_erd" bson:"generate_erd"`
	DurationMs   int64          `json:"duration_ms" bson:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

func NewGeneration(req GenerationRequest, took time.Duration) *Generation {
	return &Generation{
		ID:           uuid.New().String(),
		InputType:    req.InputType,
		InputLength:  len(req.InputCode),
		OutputFormat: req.Options.OutputFormat,
		DatabaseType: req.Options.DatabaseType,
		SuggestAPI:   req.Options.SuggestAPI,
		GenerateERD:  req.Options.GenerateERD,
		DurationMs:   took.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
}
