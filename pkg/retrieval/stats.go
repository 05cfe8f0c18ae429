package retrieval

// Stats is a point-in-time snapshot of the retrieval stack's shape and
// capabilities, suitable for diagnostics surfaces.
type Stats struct {
	VectorCount         int    `json:"vector_count"`
	Dimension           int    `json:"dimension"`
	SimilarityAlgorithm string `json:"similarity_algorithm"`
	EmbeddingModel      string `json:"embedding_model"`
	RerankerEnabled     bool   `json:"reranker_enabled"`
	RerankerModel       string `json:"reranker_model,omitempty"`
	EnrichmentEnabled   bool   `json:"enrichment_enabled"`
	EnricherName        string `json:"enricher_name,omitempty"`
	IndexPersisted      bool   `json:"index_persisted"`
	Fingerprint         string `json:"fingerprint"`
}

// Stats reports the current pipeline configuration and index shape. An
// uninitialized index yields zero counts rather than an error.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		SimilarityAlgorithm: SimilarityAlgorithm,
		EmbeddingModel:      p.retriever.embedder.ModelName(),
	}

	if st, err := p.retriever.manager.Snapshot(); err == nil {
		s.VectorCount = st.Index.Len()
		s.Dimension = st.Index.Dim()
		s.Fingerprint = st.Fingerprint
		s.IndexPersisted = p.retriever.manager.Persisted()
	}

	if p.reranker != nil {
		s.RerankerEnabled = true
		s.RerankerModel = p.reranker.ModelName()
	}
	if p.retriever.enricher != nil {
		s.EnrichmentEnabled = true
		s.EnricherName = p.retriever.enricher.Name()
	}
	return s
}
