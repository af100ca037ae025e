package entities

import "time"

// AudioUpload is an uploaded audio file staged on disk for the lifetime of one request
type AudioUpload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	MIMEType     string    `json:"mime_type"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	StagedAt     time.Time `json:"staged_at"`
}

// Prompts holds the instruction texts loaded at startup
type Prompts struct {
	Location string
	AllData  string
}
