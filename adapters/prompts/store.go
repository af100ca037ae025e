package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/incident-relay/server/domain/entities"
)

const (
	LocationPromptFile = "location_prompt.txt"
	AllDataPromptFile  = "alldata_prompt.txt"
)

// FileStore holds the prompt texts read once from disk
type FileStore struct {
	prompts entities.Prompts
}

// LoadFileStore reads both prompt files from dir. Either file missing is an error;
// the caller is expected to abort startup.
func LoadFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	location, err := readPrompt(filepath.Join(dir, LocationPromptFile))
	if err != nil {
		return nil, err
	}

	allData, err := readPrompt(filepath.Join(dir, AllDataPromptFile))
	if err != nil {
		return nil, err
	}

	logger.Info("Prompt files loaded",
		zap.String("dir", dir),
		zap.Int("location_prompt_bytes", len(location)),
		zap.Int("alldata_prompt_bytes", len(allData)))

	return &FileStore{
		prompts: entities.Prompts{
			Location: location,
			AllData:  allData,
		},
	}, nil
}

// Prompts implements repositories.PromptStore
func (s *FileStore) Prompts() entities.Prompts {
	return s.prompts
}

func readPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load prompt file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
