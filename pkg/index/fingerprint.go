package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/studyloop/satchel/pkg/knowledge"
)

// fingerprintPayload is the canonical content hashed into a fingerprint.
type fingerprintPayload struct {
	Count   int      `json:"count"`
	IDs     []string `json:"ids"`
	ModTime int64    `json:"mtime"`
	Model   string   `json:"model"`
}

// Fingerprint derives the reuse token for a corpus under an embedding
// model: sha256 over the entry count, the sorted entry ids, the source's
// content-change signal, and the model name. Equal fingerprints mean a
// persisted index may be reused without re-embedding.
//
// A content edit that preserves ids, count, and mtime defeats this check;
// that false negative is accepted in exchange for not hashing entry bodies
// at every startup.
func Fingerprint(corpus *knowledge.Corpus, modTime time.Time, modelName string) string {
	ids := corpus.IDs()
	sort.Strings(ids)

	payload := fingerprintPayload{
		Count:   corpus.Len(),
		IDs:     ids,
		ModTime: modTime.UnixNano(),
		Model:   modelName,
	}

	// Marshaling a struct with fixed field order cannot fail.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
