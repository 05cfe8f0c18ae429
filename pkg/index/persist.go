package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/studyloop/satchel/pkg/vector"
)

const (
	vectorFile   = "index.bin"
	metadataFile = "metadata.json"
)

// Metadata is the JSON record persisted alongside the index bytes. It is
// everything needed to validate and decode them on the next startup.
type Metadata struct {
	Fingerprint    string `json:"fingerprint"`
	EmbeddingModel string `json:"embedding_model"`
	VectorCount    int    `json:"vector_count"`
	Dimension      int    `json:"dimension"`
}

func metadataExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, metadataFile))
	return err == nil
}

func readMetadata(dir string) (*Metadata, error) {
	path := filepath.Join(dir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index metadata %s: %w", path, err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("invalid index metadata %s: %w", path, err)
	}
	if meta.VectorCount < 0 || meta.Dimension < 0 {
		return nil, fmt.Errorf("invalid index metadata %s: negative shape", path)
	}
	return &meta, nil
}

func readVectors(dir string, meta *Metadata) (*vector.Index, error) {
	path := filepath.Join(dir, vectorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index vectors %s: %w", path, err)
	}
	return vector.DecodeIndex(data, meta.VectorCount, meta.Dimension)
}

// writeIndex persists the index bytes first and the metadata record last,
// so a torn write leaves a fingerprint mismatch rather than a valid-looking
// but stale pairing.
func writeIndex(dir string, st *State, modelName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, vectorFile), st.Index.Encode(), 0o644); err != nil {
		return fmt.Errorf("writing index vectors: %w", err)
	}

	meta := Metadata{
		Fingerprint:    st.Fingerprint,
		EmbeddingModel: modelName,
		VectorCount:    st.Index.Len(),
		Dimension:      st.Index.Dim(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	return nil
}
