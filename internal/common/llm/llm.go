// Package llm is the provider-neutral seam between the answer stages and
// the hosted model.
package llm

import (
	"context"
	"errors"

	"health-assistant/internal/models"
)

var (
	ErrTimeout       = errors.New("LLM_TIMEOUT")
	ErrRequestFailed = errors.New("LLM_REQUEST_FAILED")
)

// FinishReasonStop is the only finish reason that means natural completion.
const FinishReasonStop = "STOP"

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema describes a structured response shape.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

type Request struct {
	// Model overrides the client default when set.
	Model             string
	SystemInstruction string
	Turns             []models.Turn
	Temperature       *float32
	// ResponseSchema switches the provider to JSON output.
	ResponseSchema *Schema
}

type Response struct {
	Text         string
	BlockReason  string
	FinishReason string
}

// Blocked reports whether the prompt itself was refused.
func (r *Response) Blocked() bool {
	return r.BlockReason != ""
}

// Complete reports whether generation ended naturally. An absent finish
// reason is treated as complete.
func (r *Response) Complete() bool {
	return r.FinishReason == "" || r.FinishReason == FinishReasonStop
}

type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

func Temperature(v float32) *float32 {
	return &v
}
