package llm

import "fmt"

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = float32(0.15)
)

// GeminiConfig holds configuration for the Gemini adapter
type GeminiConfig struct {
	APIKey string
	Model  string
	// Temperature is the sampling temperature, nil selects the default
	Temperature *float32
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	if t := config.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", *t)
	}

	return nil
}

func (c GeminiConfig) withDefaults() GeminiConfig {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == nil {
		t := defaultTemperature
		c.Temperature = &t
	}
	return c
}
