package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/incident-relay/server/domain/entities"
)

// DiskStaging keeps uploaded files in a working directory until they are consumed
type DiskStaging struct {
	dir    string
	logger *zap.Logger
}

// NewDiskStaging creates the staging directory if needed
func NewDiskStaging(dir string, logger *zap.Logger) (*DiskStaging, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStaging{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory
func (d *DiskStaging) Dir() string {
	return d.dir
}

// Stage implements repositories.UploadStaging
func (d *DiskStaging) Stage(ctx context.Context, body io.Reader, originalName, mimeType string) (*entities.AudioUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	path := filepath.Join(d.dir, id)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	size, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			d.logger.Warn("Failed to remove partial staging file",
				zap.String("path", path),
				zap.Error(removeErr))
		}
		return nil, fmt.Errorf("failed to write staging file: %w", err)
	}

	return &entities.AudioUpload{
		ID:           id,
		OriginalName: originalName,
		MIMEType:     mimeType,
		Path:         path,
		Size:         size,
		StagedAt:     time.Now(),
	}, nil
}

// Consume implements repositories.UploadStaging.
// The file is removed once read; a failed read leaves it in place and fails the request.
func (d *DiskStaging) Consume(ctx context.Context, upload *entities.AudioUpload) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(upload.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged upload: %w", err)
	}

	if err := os.Remove(upload.Path); err != nil {
		return nil, fmt.Errorf("failed to remove staged upload: %w", err)
	}

	d.logger.Debug("Staged upload consumed",
		zap.String("upload_id", upload.ID),
		zap.Int("bytes", len(data)),
		zap.Duration("staged_for", time.Since(upload.StagedAt)))

	return data, nil
}
