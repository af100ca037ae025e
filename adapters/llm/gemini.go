package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/incident-relay/server/domain/entities"
	"github.com/satriahrh/incident-relay/server/domain/repositories"
)

// GeminiLLM implements the ContentGenerator interface using Google's Gemini API
type GeminiLLM struct {
	client      *genai.Client
	logger      *zap.Logger
	model       string
	temperature float32
}

// NewGeminiLLM creates a single long-lived Gemini client for the process
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini client initialized",
		zap.String("model", config.Model),
		zap.Float32("temperature", *config.Temperature))

	return &GeminiLLM{
		client:      client,
		logger:      logger,
		model:       config.Model,
		temperature: *config.Temperature,
	}, nil
}

// GenerateContent implements repositories.ContentGenerator
func (g *GeminiLLM) GenerateContent(ctx context.Context, parts []repositories.Part, directive *repositories.ToolDirective) (*repositories.Generation, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if directive != nil {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{toFunctionDeclaration(directive.Schema)},
		}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny,
			},
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(toGeminiParts(parts), genai.RoleUser)}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	generation := fromGeminiResponse(response)

	g.logger.Debug("Gemini content generated",
		zap.String("model", g.model),
		zap.Int("parts", len(parts)),
		zap.Bool("function_call", generation.FunctionCall != nil),
		zap.String("finish_reason", generation.FinishReason))

	return generation, nil
}

// toGeminiParts converts payload parts into Gemini parts; inline data is base64 encoded on the wire by the SDK
func toGeminiParts(parts []repositories.Part) []*genai.Part {
	result := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.InlineData != nil {
			result = append(result, genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MIMEType))
			continue
		}
		result = append(result, genai.NewPartFromText(p.Text))
	}
	return result
}

func toFunctionDeclaration(schema entities.ExtractionSchema) *genai.FunctionDeclaration {
	properties := make(map[string]*genai.Schema, len(schema.Fields))
	for _, f := range schema.Fields {
		properties[f.Name] = &genai.Schema{Type: toGeminiType(f.Type)}
	}

	return &genai.FunctionDeclaration{
		Name:        schema.FunctionName,
		Description: schema.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   schema.RequiredFields(),
		},
	}
}

func toGeminiType(t entities.FieldType) genai.Type {
	switch t {
	case entities.FieldTypeInteger:
		return genai.TypeInteger
	case entities.FieldTypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func fromGeminiResponse(response *genai.GenerateContentResponse) *repositories.Generation {
	generation := &repositories.Generation{
		Candidates: len(response.Candidates),
	}

	if raw, err := json.Marshal(response); err == nil {
		generation.Raw = raw
	}

	if len(response.Candidates) == 0 {
		return generation
	}

	candidate := response.Candidates[0]
	generation.FinishReason = string(candidate.FinishReason)

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return generation
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			generation.Text += part.Text
		}
	}

	first := candidate.Content.Parts[0]
	generation.FirstPartText = first.Text
	if first.FunctionCall != nil {
		generation.FunctionCall = &repositories.FunctionCall{
			Name: first.FunctionCall.Name,
			Args: first.FunctionCall.Args,
		}
	}

	return generation
}
