package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/incident-relay/server/domain/repositories"
	"github.com/satriahrh/incident-relay/server/internal/metrics"
	"github.com/satriahrh/incident-relay/server/usecase"
)

// ExtractionHandler serves the audio extraction endpoints
type ExtractionHandler struct {
	service *usecase.ExtractionService
	staging repositories.UploadStaging
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(
	service *usecase.ExtractionService,
	staging repositories.UploadStaging,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ExtractionHandler {
	return &ExtractionHandler{
		service: service,
		staging: staging,
		metrics: m,
		logger:  logger,
	}
}

// ExtractLocation handles POST /extract-location-audio
func (h *ExtractionHandler) ExtractLocation(c echo.Context) error {
	logger := h.requestLogger(c, endpointLocation)

	audio, mimeType, err := h.receiveAudio(c)
	if errors.Is(err, repositories.ErrMissingUpload) {
		return h.respond(c, endpointLocation, http.StatusBadRequest, ErrorResponse{Error: msgAudioRequired})
	}
	if err != nil {
		logger.Error("Failed to receive audio upload", zap.Error(err))
		return h.respond(c, endpointLocation, http.StatusInternalServerError, FailureResponse{
			Error:   msgLocationFailed,
			Details: err.Error(),
		})
	}

	result, err := h.service.ExtractLocation(c.Request().Context(), audio, mimeType)
	if err != nil {
		logger.Error("Failed to extract location", zap.Error(err))
		return h.respond(c, endpointLocation, http.StatusInternalServerError, FailureResponse{
			Error:   msgLocationFailed,
			Details: err.Error(),
		})
	}

	logger.Info("Location extracted", zap.Int("audio_bytes", len(audio)))

	return h.respond(c, endpointLocation, http.StatusOK, result)
}

// ExtractAllData handles POST /extract-alldata-audio
func (h *ExtractionHandler) ExtractAllData(c echo.Context) error {
	logger := h.requestLogger(c, endpointAllData)

	audio, mimeType, err := h.receiveAudio(c)
	if errors.Is(err, repositories.ErrMissingUpload) {
		return h.respond(c, endpointAllData, http.StatusBadRequest, ErrorResponse{Error: msgAudioRequired})
	}
	if err != nil {
		logger.Error("Failed to receive audio upload", zap.Error(err))
		return h.respond(c, endpointAllData, http.StatusInternalServerError, FailureResponse{
			Error:   msgAllDataFailed,
			Details: err.Error(),
		})
	}

	record, err := h.service.ExtractAllData(c.Request().Context(), audio, mimeType)
	if err != nil {
		var noCall *usecase.NoFunctionCallError
		if errors.As(err, &noCall) {
			return h.respond(c, endpointAllData, http.StatusInternalServerError, StructuredDataErrorResponse{
				Error:        noCall.Message,
				ResponseText: noCall.ResponseText,
			})
		}

		logger.Error("Failed to extract all data", zap.Error(err))
		return h.respond(c, endpointAllData, http.StatusInternalServerError, FailureResponse{
			Error:   msgAllDataFailed,
			Details: err.Error(),
		})
	}

	logger.Info("All data extracted", zap.Int("audio_bytes", len(audio)))

	return h.respond(c, endpointAllData, http.StatusOK, record)
}

// receiveAudio stages the "audio" form file, then reads it back into memory and removes it
func (h *ExtractionHandler) receiveAudio(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile(audioFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", repositories.ErrMissingUpload
		}
		return nil, "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	mimeType := fileHeader.Header.Get(echo.HeaderContentType)
	if mimeType == "" {
		mimeType = defaultAudioMIME
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	ctx := c.Request().Context()
	upload, err := h.staging.Stage(ctx, src, fileHeader.Filename, mimeType)
	if err != nil {
		return nil, "", err
	}

	audio, err := h.staging.Consume(ctx, upload)
	if err != nil {
		return nil, "", err
	}
	h.metrics.ObserveUpload(len(audio))

	return audio, upload.MIMEType, nil
}

func (h *ExtractionHandler) respond(c echo.Context, endpoint string, code int, body any) error {
	h.metrics.ObserveRequest(endpoint, code)
	return c.JSON(code, body)
}

func (h *ExtractionHandler) requestLogger(c echo.Context, endpoint string) *zap.Logger {
	return h.logger.With(
		zap.String("endpoint", endpoint),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
}
