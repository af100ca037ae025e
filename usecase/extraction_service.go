package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/incident-relay/server/domain/entities"
	"github.com/satriahrh/incident-relay/server/domain/repositories"
)

const defaultNoFunctionCallMessage = "Model did not return the expected structured data."

// ErrNoCandidates is returned when the model produced no candidate at all
var ErrNoCandidates = errors.New("model returned no candidates")

// ErrBlockedResponse is returned when the candidate was cut off by a content filter
var ErrBlockedResponse = errors.New("model response was blocked")

var blockedFinishReasons = map[string]bool{
	"SAFETY":     true,
	"RECITATION": true,
	"LANGUAGE":   true,
}

// NoFunctionCallError reports a model reply that carried prose instead of the forced function call
type NoFunctionCallError struct {
	Message      string
	FinishReason string
	// ResponseText is the first part's text, nil when the model returned none
	ResponseText *string
}

func (e *NoFunctionCallError) Error() string {
	return e.Message
}

// ExtractionService turns audio into incident data through the content generator
type ExtractionService struct {
	generator repositories.ContentGenerator
	prompts   entities.Prompts
	schema    entities.ExtractionSchema
	logger    *zap.Logger
}

// NewExtractionService creates a new extraction service
func NewExtractionService(
	generator repositories.ContentGenerator,
	promptStore repositories.PromptStore,
	schema entities.ExtractionSchema,
	logger *zap.Logger,
) *ExtractionService {
	return &ExtractionService{
		generator: generator,
		prompts:   promptStore.Prompts(),
		schema:    schema,
		logger:    logger,
	}
}

// Schema returns the extraction schema the service forces on the model
func (s *ExtractionService) Schema() entities.ExtractionSchema {
	return s.schema
}

// ExtractLocation asks the model for a free-text incident location
func (s *ExtractionService) ExtractLocation(ctx context.Context, audio []byte, mimeType string) (*entities.LocationResult, error) {
	parts := []repositories.Part{
		repositories.NewBlobPart(audio, mimeType),
		repositories.NewTextPart(s.prompts.Location),
	}

	generation, err := s.generator.GenerateContent(ctx, parts, nil)
	if err != nil {
		return nil, err
	}
	if generation.Candidates == 0 {
		return nil, fmt.Errorf("%w (finish reason %q)", ErrNoCandidates, generation.FinishReason)
	}
	if blockedFinishReasons[generation.FinishReason] {
		return nil, fmt.Errorf("%w: finish reason %s", ErrBlockedResponse, generation.FinishReason)
	}

	return &entities.LocationResult{IncidentLocation: generation.Text}, nil
}

// ExtractAllData forces the model to call the extraction function and projects
// its arguments onto the schema's default record.
func (s *ExtractionService) ExtractAllData(ctx context.Context, audio []byte, mimeType string) (*entities.ExtractionRecord, error) {
	parts := []repositories.Part{
		repositories.NewBlobPart(audio, mimeType),
		repositories.NewTextPart(s.prompts.AllData),
	}

	generation, err := s.generator.GenerateContent(ctx, parts, &repositories.ToolDirective{Schema: s.schema})
	if err != nil {
		return nil, err
	}

	if generation.FunctionCall == nil {
		s.logger.Error("Model did not return a function call",
			zap.String("finish_reason", generation.FinishReason),
			zap.ByteString("response", generation.Raw))
		return nil, newNoFunctionCallError(generation)
	}

	if generation.FunctionCall.Name != s.schema.FunctionName {
		s.logger.Warn("Model called an unexpected function",
			zap.String("expected", s.schema.FunctionName),
			zap.String("actual", generation.FunctionCall.Name))
	}

	return s.schema.Project(generation.FunctionCall.Args), nil
}

func newNoFunctionCallError(generation *repositories.Generation) *NoFunctionCallError {
	err := &NoFunctionCallError{
		Message:      defaultNoFunctionCallMessage,
		FinishReason: generation.FinishReason,
	}
	if generation.FinishReason != "" {
		err.Message = fmt.Sprintf("Model response finished with reason: '%s'.", generation.FinishReason)
	}
	if generation.FirstPartText != "" {
		text := generation.FirstPartText
		err.ResponseText = &text
	}
	return err
}
