package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/incident-relay/server/adapters/llm"
	"github.com/satriahrh/incident-relay/server/adapters/prompts"
	"github.com/satriahrh/incident-relay/server/adapters/staging"
	"github.com/satriahrh/incident-relay/server/domain/entities"
	"github.com/satriahrh/incident-relay/server/domain/repositories"
	"github.com/satriahrh/incident-relay/server/internal/api"
	"github.com/satriahrh/incident-relay/server/internal/config"
	"github.com/satriahrh/incident-relay/server/internal/metrics"
	"github.com/satriahrh/incident-relay/server/usecase"
)

// newApp wires every component. Prompt files are loaded first so a missing
// prompt aborts startup before anything else is created.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*echo.Echo, error) {
	promptStore, err := prompts.LoadFileStore(cfg.PromptDir, logger)
	if err != nil {
		return nil, err
	}

	uploads, err := staging.NewDiskStaging(cfg.UploadDir, logger)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	service := usecase.NewExtractionService(m.InstrumentGenerator(generator), promptStore, entities.IncidentSchema, logger)
	handler := api.NewExtractionHandler(service, uploads, m, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(logger)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit()))

	api.InitRoutes(e, handler, m)

	return e, nil
}

func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ContentGenerator, error) {
	if cfg.LLMMock {
		logger.Warn("Using mock Gemini client, responses are canned")
		return llm.NewMockGeminiClient(), nil
	}

	gemini, err := llm.NewGeminiLLM(ctx, llm.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: &cfg.GeminiTemperature,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	return gemini, nil
}
