package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"dirsync/core/bean"
)

// FileSource reads beans from a JSON file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// List implements connector.Source.
func (s *FileSource) List(_ context.Context) ([]*bean.Bean, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return DecodeBeans(data)
}

// DecodeBeans decodes and validates a JSON array of beans.
func DecodeBeans(data []byte) ([]*bean.Bean, error) {
	var beans []*bean.Bean
	if err := json.Unmarshal(data, &beans); err != nil {
		return nil, fmt.Errorf("failed to decode beans: %w", err)
	}
	for i, b := range beans {
		if b == nil {
			return nil, fmt.Errorf("entry %d is null", i)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return beans, nil
}
