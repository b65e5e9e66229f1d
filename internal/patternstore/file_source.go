package patternstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads PatternRecord documents from a local JSON file: a
// bare JSON array of records, the same shape Mongo documents take
// (spec.md §6.1 — "readers MUST ignore unknown fields" applies here
// too, since encoding/json silently drops them). Used by the CLI's
// --patterns-file flag as a Mongo-free bootstrap path.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchAll implements Source.
func (f *FileSource) FetchAll(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreUnreachable, f.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreUnreachable, f.path, err)
	}
	return records, nil
}
