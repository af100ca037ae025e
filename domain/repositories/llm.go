package repositories

import (
	"context"

	"github.com/satriahrh/incident-relay/server/domain/entities"
)

// ContentGenerator abstracts the hosted generative model
type ContentGenerator interface {
	// GenerateContent sends an ordered payload of parts to the model.
	// With a nil directive the model answers in free text.
	GenerateContent(ctx context.Context, parts []Part, directive *ToolDirective) (*Generation, error)
}

// Part is one element of the content payload: either inline binary data or text
type Part struct {
	InlineData *Blob
	Text       string
}

// Blob is inline binary data with its media type
type Blob struct {
	MIMEType string
	Data     []byte
}

// NewBlobPart creates an inline data part
func NewBlobPart(data []byte, mimeType string) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: data}}
}

// NewTextPart creates an instruction text part
func NewTextPart(text string) Part {
	return Part{Text: text}
}

// ToolDirective declares a single function and forces the model to call it
type ToolDirective struct {
	Schema entities.ExtractionSchema
}

// FunctionCall is a structured invocation returned by the model
type FunctionCall struct {
	Name string
	Args map[string]any
}

// Generation is the model's answer to GenerateContent
type Generation struct {
	// Text is the concatenated text of the first candidate
	Text string
	// FirstPartText is the text of the first part of the first candidate, if any
	FirstPartText string
	// FunctionCall is set when the first part of the first candidate is a function call
	FunctionCall *FunctionCall
	// Candidates is the number of candidates the provider returned
	Candidates int
	// FinishReason is the provider's machine-readable stop reason, empty when absent
	FinishReason string
	// Raw is the provider's response serialized as JSON, kept for diagnostics
	Raw []byte
}
