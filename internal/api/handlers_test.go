package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/incident-relay/server/adapters/llm"
	"github.com/satriahrh/incident-relay/server/adapters/staging"
	"github.com/satriahrh/incident-relay/server/domain/entities"
	"github.com/satriahrh/incident-relay/server/domain/repositories"
	"github.com/satriahrh/incident-relay/server/internal/metrics"
	"github.com/satriahrh/incident-relay/server/usecase"
)

type testPrompts struct{}

func (testPrompts) Prompts() entities.Prompts {
	return entities.Prompts{Location: "location prompt", AllData: "all data prompt"}
}

type testServer struct {
	echo       *echo.Echo
	mock       *llm.MockGeminiClient
	metrics    *metrics.Metrics
	uploadsDir string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	uploadsDir := t.TempDir()
	uploads, err := staging.NewDiskStaging(uploadsDir, logger)
	if err != nil {
		t.Fatalf("Failed to create staging: %v", err)
	}

	mock := llm.NewMockGeminiClient()
	m := metrics.New()
	service := usecase.NewExtractionService(m.InstrumentGenerator(mock), testPrompts{}, entities.IncidentSchema, logger)

	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)
	InitRoutes(e, NewExtractionHandler(service, uploads, m, logger), m)

	return &testServer{echo: e, mock: mock, metrics: m, uploadsDir: uploadsDir}
}

func multipartRequest(t *testing.T, path, field, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="call.wav"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func assertUploadsEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read uploads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected staging directory to be empty, found %d files", len(entries))
	}
}

func TestMissingAudio(t *testing.T) {
	for _, path := range []string{"/extract-location-audio", "/extract-alldata-audio"} {
		t.Run(path, func(t *testing.T) {
			s := setupTestServer(t)

			requests := map[string]*http.Request{
				"wrong field":   multipartRequest(t, path, "file", "audio/wav", []byte("audio")),
				"not multipart": httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}")),
			}

			for name, req := range requests {
				rec := s.do(req)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("%s: expected 400, got %d", name, rec.Code)
				}
				body := decodeBody(t, rec)
				if len(body) != 1 || body["error"] != "Audio file is required" {
					t.Errorf("%s: unexpected body %v", name, body)
				}
			}

			if len(s.mock.Calls()) != 0 {
				t.Error("Expected the model not to be called")
			}
		})
	}
}

func TestExtractLocationHandler(t *testing.T) {
	s := setupTestServer(t)
	s.mock.TextResponse = &repositories.Generation{Text: "Jl. Merdeka 10, Bandung", Candidates: 1}

	rec := s.do(multipartRequest(t, "/extract-location-audio", "audio", "audio/ogg", []byte("OggS")))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if len(body) != 1 || body["incident_location"] != "Jl. Merdeka 10, Bandung" {
		t.Errorf("Unexpected body %v", body)
	}

	calls := s.mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 model call, got %d", len(calls))
	}
	audio := calls[0].Parts[0].InlineData
	if audio == nil || audio.MIMEType != "audio/ogg" || string(audio.Data) != "OggS" {
		t.Errorf("Unexpected audio part %+v", audio)
	}

	assertUploadsEmpty(t, s.uploadsDir)

	if got := testutil.ToFloat64(s.metrics.RequestCounter(endpointLocation, http.StatusOK)); got != 1 {
		t.Errorf("Expected 1 counted request, got %v", got)
	}
}

func TestExtractLocationHandler_ModelError(t *testing.T) {
	s := setupTestServer(t)
	s.mock.Err = errors.New("API key not valid")

	rec := s.do(multipartRequest(t, "/extract-location-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to process audio for location." {
		t.Errorf("Unexpected error %v", body["error"])
	}
	if details, _ := body["details"].(string); !strings.Contains(details, "API key not valid") {
		t.Errorf("Expected details to carry the upstream message, got %v", body["details"])
	}
}

func TestExtractLocationHandler_BlockedResponse(t *testing.T) {
	s := setupTestServer(t)
	s.mock.TextResponse = &repositories.Generation{Candidates: 1, FinishReason: "SAFETY"}

	rec := s.do(multipartRequest(t, "/extract-location-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to process audio for location." {
		t.Errorf("Unexpected error %v", body["error"])
	}
	if details, _ := body["details"].(string); !strings.Contains(details, "SAFETY") {
		t.Errorf("Expected details to name the finish reason, got %v", body["details"])
	}
	if _, ok := body["incident_location"]; ok {
		t.Error("Expected no location in a blocked response")
	}

	assertUploadsEmpty(t, s.uploadsDir)
}

func TestExtractAllDataHandler(t *testing.T) {
	s := setupTestServer(t)
	s.mock.ToolResponse = &repositories.Generation{
		Candidates: 1,
		FunctionCall: &repositories.FunctionCall{
			Name: "extract_data",
			Args: map[string]any{"event_type": "fire", "unexpected": "dropped"},
		},
	}

	rec := s.do(multipartRequest(t, "/extract-alldata-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)

	if len(body) != len(entities.IncidentSchema.Fields) {
		t.Errorf("Expected %d keys, got %d", len(entities.IncidentSchema.Fields), len(body))
	}
	for _, name := range entities.IncidentSchema.FieldNames() {
		value, ok := body[name]
		if !ok {
			t.Errorf("Missing key %s", name)
			continue
		}
		if name == "event_type" {
			if value != "fire" {
				t.Errorf("Expected event_type fire, got %v", value)
			}
			continue
		}
		if value != nil {
			t.Errorf("Expected %s to be null, got %v", name, value)
		}
	}
	if _, ok := body["unexpected"]; ok {
		t.Error("Expected keys outside the schema to be dropped")
	}

	assertUploadsEmpty(t, s.uploadsDir)

	if got := testutil.ToFloat64(s.metrics.ModelCallCounter("function_call", "ok")); got != 1 {
		t.Errorf("Expected 1 successful function call, got %v", got)
	}
}

func TestExtractAllDataHandler_NoFunctionCall(t *testing.T) {
	s := setupTestServer(t)
	s.mock.ToolResponse = &repositories.Generation{
		Candidates:    1,
		FinishReason:  "STOP",
		FirstPartText: "The recording is silent.",
	}

	rec := s.do(multipartRequest(t, "/extract-alldata-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if len(body) != 2 {
		t.Errorf("Expected only error and responseText, got %v", body)
	}
	if body["error"] != "Model response finished with reason: 'STOP'." {
		t.Errorf("Unexpected error %v", body["error"])
	}
	if body["responseText"] != "The recording is silent." {
		t.Errorf("Unexpected responseText %v", body["responseText"])
	}

	if got := testutil.ToFloat64(s.metrics.ModelCallCounter("function_call", "no_function_call")); got != 1 {
		t.Errorf("Expected 1 non-compliant call, got %v", got)
	}
}

func TestExtractAllDataHandler_NoFunctionCallNullText(t *testing.T) {
	s := setupTestServer(t)
	s.mock.ToolResponse = &repositories.Generation{}

	rec := s.do(multipartRequest(t, "/extract-alldata-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Model did not return the expected structured data." {
		t.Errorf("Unexpected error %v", body["error"])
	}
	value, ok := body["responseText"]
	if !ok || value != nil {
		t.Errorf("Expected responseText to be present and null, got %v (present=%v)", value, ok)
	}
}

func TestExtractAllDataHandler_ModelError(t *testing.T) {
	s := setupTestServer(t)
	s.mock.Err = errors.New("deadline exceeded")

	rec := s.do(multipartRequest(t, "/extract-alldata-audio", "audio", "audio/wav", []byte("audio")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to process audio for all data." || body["details"] != "deadline exceeded" {
		t.Errorf("Unexpected body %v", body)
	}

	assertUploadsEmpty(t, s.uploadsDir)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" || body["service"] != "incident-relay" {
		t.Errorf("Unexpected health body %v", body)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("Expected Go runtime metrics in exposition")
	}
}
