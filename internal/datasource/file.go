package datasource

import (
	"context"
	"fmt"
	"os"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// FileService reads the raw graph from a JSON file in the same shape the
// data service returns. It cannot ingest.
type FileService struct {
	path string
}

// NewFileService creates a file-backed source.
func NewFileService(path string) *FileService {
	return &FileService{path: path}
}

// Path returns the backing file path.
func (s *FileService) Path() string { return s.path }

func (s *FileService) FetchGraph(ctx context.Context) (model.RawGraph, error) {
	if err := ctx.Err(); err != nil {
		return model.RawGraph{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.RawGraph{}, &IngestError{Op: "fetch graph", Source: s.path, Err: fmt.Errorf("reading file: %w", err)}
	}
	raw, err := model.ParseRawGraph(data)
	if err != nil {
		return model.RawGraph{}, &IngestError{Op: "fetch graph", Source: s.path, Err: err}
	}
	return raw, nil
}

func (s *FileService) TriggerIngest(context.Context, string, int) error {
	return &IngestError{Op: "trigger ingest", Source: s.path, Err: ErrIngestUnsupported}
}
