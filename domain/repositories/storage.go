package repositories

import (
	"context"
	"errors"
	"io"

	"github.com/satriahrh/incident-relay/server/domain/entities"
)

// ErrMissingUpload is returned when a request carries no audio file
var ErrMissingUpload = errors.New("audio file is required")

// UploadStaging stores uploaded files on disk until a handler consumes them
type UploadStaging interface {
	// Stage copies the upload body into the staging area
	Stage(ctx context.Context, body io.Reader, originalName, mimeType string) (*entities.AudioUpload, error)
	// Consume reads the staged file fully and removes it
	Consume(ctx context.Context, upload *entities.AudioUpload) ([]byte, error)
}

// PromptStore provides the instruction texts loaded at startup
type PromptStore interface {
	Prompts() entities.Prompts
}
