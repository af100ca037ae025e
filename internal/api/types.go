package api

// ErrorResponse represents a client error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// FailureResponse represents a server-side failure with the underlying error message
type FailureResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// StructuredDataErrorResponse is returned when the model answered without the forced function call
type StructuredDataErrorResponse struct {
	Error        string  `json:"error"`
	ResponseText *string `json:"responseText"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

const (
	msgAudioRequired  = "Audio file is required"
	msgLocationFailed = "Failed to process audio for location."
	msgAllDataFailed  = "Failed to process audio for all data."
	audioFormField    = "audio"
	endpointLocation  = "extract-location-audio"
	endpointAllData   = "extract-alldata-audio"
	serviceName       = "incident-relay"
	defaultAudioMIME  = "application/octet-stream"
)
