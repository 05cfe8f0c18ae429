package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidFormat is returned when a corpus file cannot be parsed.
var ErrInvalidFormat = errors.New("invalid corpus format")

// Source supplies the ordered entry sequence and a content-change signal
// used for index fingerprinting. The engine never mutates a source.
type Source interface {
	// Load reads the full entry sequence, in order.
	Load(ctx context.Context) ([]Entry, error)

	// ModTime reports when the underlying content last changed. A zero
	// time with nil error means the source cannot tell.
	ModTime() (time.Time, error)

	// Location identifies the source for logging and fingerprinting.
	Location() string
}

// corpusFile is the on-disk corpus document shape.
type corpusFile struct {
	KnowledgePoints []Entry `json:"knowledge_points"`
}

// FileSource loads a corpus from a JSON file of the form
// {"knowledge_points": [...]}.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed corpus source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the corpus file. An empty entry list is permitted;
// the index is then empty and every search returns no results.
func (s *FileSource) Load(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file %s: %w", s.path, err)
	}

	var doc corpusFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidFormat, s.path, err)
	}

	return doc.KnowledgePoints, nil
}

// ModTime returns the corpus file's modification time.
func (s *FileSource) ModTime() (time.Time, error) {
	st, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("stat corpus file %s: %w", s.path, err)
	}
	return st.ModTime(), nil
}

// Location returns the corpus file path.
func (s *FileSource) Location() string {
	return s.path
}

var _ Source = (*FileSource)(nil)
