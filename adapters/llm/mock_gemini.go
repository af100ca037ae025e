package llm

import (
	"context"
	"sync"

	"github.com/satriahrh/incident-relay/server/domain/repositories"
)

// maxRecordedCalls is how many of the latest calls the mock keeps
const maxRecordedCalls = 32

// MockCall records a single GenerateContent invocation
type MockCall struct {
	Parts     []repositories.Part
	Directive *repositories.ToolDirective
}

// MockGeminiClient is a scripted stand-in for the Gemini adapter.
// It is used by tests and by local runs started with LLM mock mode.
type MockGeminiClient struct {
	mu sync.Mutex

	// TextResponse answers calls made without a tool directive
	TextResponse *repositories.Generation
	// ToolResponse answers calls made with a tool directive
	ToolResponse *repositories.Generation
	// Err, when set, is returned from every call
	Err error

	calls []MockCall
}

// NewMockGeminiClient creates a mock with canned development responses
func NewMockGeminiClient() *MockGeminiClient {
	return &MockGeminiClient{
		TextResponse: &repositories.Generation{
			Text:          "Jalan Sudirman No. 1, Jakarta",
			FirstPartText: "Jalan Sudirman No. 1, Jakarta",
			Candidates:    1,
			FinishReason:  "STOP",
		},
		ToolResponse: &repositories.Generation{
			Candidates:   1,
			FinishReason: "STOP",
			FunctionCall: &repositories.FunctionCall{
				Name: "extract_data",
				Args: map[string]any{
					"event_info_text": "Caller reports a kitchen fire in an apartment",
					"event_type":      "fire",
					"event_sub_type":  "residential fire",
					"need_ambulance":  false,
				},
			},
		},
	}
}

// GenerateContent implements repositories.ContentGenerator
func (m *MockGeminiClient) GenerateContent(ctx context.Context, parts []repositories.Part, directive *repositories.ToolDirective) (*repositories.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.calls) == maxRecordedCalls {
		copy(m.calls, m.calls[1:])
		m.calls = m.calls[:maxRecordedCalls-1]
	}
	m.calls = append(m.calls, MockCall{Parts: parts, Directive: directive})

	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response := m.TextResponse
	if directive != nil {
		response = m.ToolResponse
	}
	if response == nil {
		return &repositories.Generation{}, nil
	}

	copied := *response
	return &copied, nil
}

// Calls returns the most recent invocations, oldest first
func (m *MockGeminiClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}
