// Package knowledge provides the curriculum knowledge corpus: the fixed,
// ordered collection of knowledge entries the retrieval engine searches.
// The corpus is loaded once from a Source and is read-only afterwards;
// the position of an entry in the corpus is the identity used to correlate
// index rows with entries.
package knowledge

import (
	"encoding/json"
	"strings"
)

// rerankConceptLimit caps how many key concepts are included in the
// comparison text handed to the reranking capability, to keep pair inputs
// inside cross-encoder length limits.
const rerankConceptLimit = 5

// Entry is a single curriculum knowledge point. Entries are immutable after
// load. ID uniqueness is the corpus producer's responsibility; the engine
// never relies on it and addresses entries by position.
type Entry struct {
	ID                 string   `json:"id"`
	Category           string   `json:"category"`
	Subcategory        string   `json:"subcategory"`
	Topic              string   `json:"topic"`
	Description        string   `json:"description"`
	KeyConcepts        []string `json:"key_concepts"`
	CommonApplications []string `json:"common_applications"`

	// Extra carries any auxiliary fields from the source record opaquely,
	// so round-tripping an entry does not lose producer-specific data.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownEntryKeys are the JSON keys mapped onto typed Entry fields; anything
// else lands in Extra.
var knownEntryKeys = map[string]bool{
	"id":                  true,
	"category":            true,
	"subcategory":         true,
	"topic":               true,
	"description":         true,
	"key_concepts":        true,
	"common_applications": true,
}

// UnmarshalJSON decodes the typed fields and tucks unrecognized keys into
// Extra.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if knownEntryKeys[key] {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*e = Entry(p)
	return nil
}

// MarshalJSON emits the typed fields merged with any opaque extras.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	data, err := json.Marshal(plain(e))
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range e.Extra {
		if !knownEntryKeys[key] {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// EmbeddingText returns the canonical text embedded for this entry: a
// stable join of topic, description, key concepts, and applications. The
// join must stay deterministic because index rows are only valid for the
// exact text they were built from.
func (e Entry) EmbeddingText() string {
	parts := []string{
		e.Topic,
		e.Description,
		strings.Join(e.KeyConcepts, " "),
		strings.Join(e.CommonApplications, " "),
	}
	return strings.Join(parts, " ")
}

// RerankText returns the comparison text scored by the reranking
// capability: a compact, labeled summary of the entry.
func (e Entry) RerankText() string {
	parts := []string{
		"Topic: " + e.Topic,
		"Description: " + e.Description,
	}

	if len(e.KeyConcepts) > 0 {
		concepts := e.KeyConcepts
		if len(concepts) > rerankConceptLimit {
			concepts = concepts[:rerankConceptLimit]
		}
		parts = append(parts, "Key Concepts: "+strings.Join(concepts, ", "))
	}

	if e.Category != "" {
		parts = append(parts, "Category: "+e.Category+" - "+e.Subcategory)
	}

	return strings.Join(parts, " | ")
}
