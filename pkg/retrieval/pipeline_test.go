package retrieval_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studyloop/satchel/pkg/index"
	"github.com/studyloop/satchel/pkg/knowledge"
	"github.com/studyloop/satchel/pkg/retrieval"
	testutils "github.com/studyloop/satchel/pkg/utils/test"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		entries   []knowledge.Entry
		embedder  *testutils.StubEmbedder
		reranker  *testutils.StubReranker
		retriever *retrieval.Retriever
		pipeline  *retrieval.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		entries = testutils.SampleEntries()
		reranker = testutils.NewStubReranker()

		var manager *index.Manager
		manager, embedder = newFixture(entries)
		retriever = retrieval.NewRetriever(manager, embedder, nil)
		pipeline = retrieval.NewPipeline(retriever, reranker, nil)
	})

	Describe("RetrieveWithReranking", func() {
		It("lets a strong rerank signal overturn the similarity order", func() {
			embedder.Embeddings["which verb form matches"] = []float32{0.9, 0.3, 0}
			reranker.Scores["Subject-Verb Agreement"] = 5.0
			reranker.Default = -5.0

			results, reranked, err := pipeline.RetrieveWithReranking(ctx, "which verb form matches", 3, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(reranked).To(BeTrue())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Entry.ID).To(Equal("WRIT_001"))
		})

		It("keeps fused scores within [0,1] sorted descending", func() {
			embedder.Embeddings["spread question"] = []float32{0.5, 0.4, 0.3}
			reranker.Scores["Quadratic"] = 2.0
			reranker.Default = -1.0

			results, reranked, err := pipeline.RetrieveWithReranking(ctx, "spread question", 3, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(reranked).To(BeTrue())
			Expect(results).To(HaveLen(3))
			for i, res := range results {
				Expect(res.Score).To(BeNumerically(">=", 0))
				Expect(res.Score).To(BeNumerically("<=", 1))
				if i > 0 {
					Expect(results[i-1].Score).To(BeNumerically(">=", res.Score))
				}
			}
		})

		It("bypasses the reranker for a singleton candidate", func() {
			embedder.Embeddings["only math"] = []float32{1, 0, 0}

			results, reranked, err := pipeline.RetrieveWithReranking(ctx, "only math", 1, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(reranked).To(BeTrue())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
			Expect(reranker.Calls).To(BeZero())
		})

		It("raises the candidate pool to the requested final size", func() {
			results, reranked, err := pipeline.RetrieveWithReranking(ctx, "anything", 1, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(reranked).To(BeTrue())
			Expect(results).To(HaveLen(3))
		})

		It("returns an empty result for a blank query", func() {
			results, _, err := pipeline.RetrieveWithReranking(ctx, "  ", 5, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
			Expect(reranker.Calls).To(BeZero())
		})

		It("fails the call when the reranker fails", func() {
			reranker.Err = errors.New("capability offline")

			_, _, err := pipeline.RetrieveWithReranking(ctx, "anything", 3, 2)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("reranking candidates"))
		})

		It("enriches the query once for the whole pipeline", func() {
			enricher := &testutils.StubEnricher{Suffix: " enriched"}

			var manager *index.Manager
			manager, embedder = newFixture(entries)
			retriever = retrieval.NewRetriever(manager, embedder, nil, retrieval.WithEnricher(enricher))
			pipeline = retrieval.NewPipeline(retriever, reranker, nil)

			_, _, err := pipeline.RetrieveWithReranking(ctx, "a question", 3, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(enricher.Calls).To(Equal(1))
		})

		Context("without a reranker", func() {
			BeforeEach(func() {
				pipeline = retrieval.NewPipeline(retriever, nil, nil)
			})

			It("falls back to plain similarity retrieval and reports it", func() {
				embedder.Embeddings["fallback question"] = []float32{0.9, 0.1, 0}

				results, reranked, err := pipeline.RetrieveWithReranking(ctx, "fallback question", 10, 2)
				Expect(err).ToNot(HaveOccurred())
				Expect(reranked).To(BeFalse())

				plain, err := retriever.Retrieve(ctx, "fallback question", 2)
				Expect(err).ToNot(HaveOccurred())
				Expect(results).To(Equal(plain))
			})
		})
	})

	Describe("Stats", func() {
		It("reports the index shape and configured capabilities", func() {
			stats := pipeline.Stats()
			Expect(stats.VectorCount).To(Equal(len(entries)))
			Expect(stats.Dimension).To(Equal(3))
			Expect(stats.SimilarityAlgorithm).To(Equal(retrieval.SimilarityAlgorithm))
			Expect(stats.EmbeddingModel).To(Equal("stub-embedder"))
			Expect(stats.RerankerEnabled).To(BeTrue())
			Expect(stats.RerankerModel).To(Equal("stub-reranker"))
			Expect(stats.EnrichmentEnabled).To(BeFalse())
			Expect(stats.IndexPersisted).To(BeFalse())
			Expect(stats.Fingerprint).ToNot(BeEmpty())
		})

		It("reports a disabled reranker and an enabled enricher", func() {
			enricher := &testutils.StubEnricher{}
			retriever = retrieval.NewRetriever(retriever.Manager(), embedder, nil, retrieval.WithEnricher(enricher))
			pipeline = retrieval.NewPipeline(retriever, nil, nil)

			stats := pipeline.Stats()
			Expect(stats.RerankerEnabled).To(BeFalse())
			Expect(stats.RerankerModel).To(BeEmpty())
			Expect(stats.EnrichmentEnabled).To(BeTrue())
			Expect(stats.EnricherName).To(Equal("stub-enricher"))
		})
	})
})
