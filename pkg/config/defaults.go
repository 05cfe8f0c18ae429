package config

const (
	defaultCorpusPath = "knowledge.json"

	defaultAPIListen = ":8081"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultRerankerProvider  = "tei"
	defaultRerankerTarget    = "http://localhost:8082"
	defaultRerankerModel     = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	defaultRerankerMaxLength = 512

	defaultTopK             = 5
	defaultRerankCandidates = 20
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Corpus: CorpusConfig{
			Path: defaultCorpusPath,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Reranker: RerankerConfig{
			Provider:  defaultRerankerProvider,
			Target:    defaultRerankerTarget,
			Model:     defaultRerankerModel,
			MaxLength: defaultRerankerMaxLength,
		},
		Retrieval: RetrievalConfig{
			TopK:             defaultTopK,
			RerankCandidates: defaultRerankCandidates,
		},
	}
}
