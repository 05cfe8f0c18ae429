package retrieval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studyloop/satchel/pkg/index"
	"github.com/studyloop/satchel/pkg/knowledge"
	"github.com/studyloop/satchel/pkg/retrieval"
	testutils "github.com/studyloop/satchel/pkg/utils/test"
)

// newFixture builds an initialized manager over the sample corpus with
// hand-placed embedding directions: quadratic equations on the x axis,
// subject-verb agreement on y, pythagorean theorem on z. A query vector
// then selects entries by construction.
func newFixture(entries []knowledge.Entry) (*index.Manager, *testutils.StubEmbedder) {
	embedder := testutils.NewStubEmbedder()
	axes := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, entry := range entries {
		embedder.Embeddings[entry.EmbeddingText()] = axes[i%len(axes)]
	}

	manager, err := index.NewManager(&testutils.StubSource{Entries: entries}, embedder, index.Config{}, nil)
	Expect(err).ToNot(HaveOccurred())
	Expect(manager.Initialize(context.Background())).To(Succeed())

	return manager, embedder
}

var _ = Describe("Retriever", func() {
	var (
		ctx       context.Context
		entries   []knowledge.Entry
		embedder  *testutils.StubEmbedder
		retriever *retrieval.Retriever
	)

	BeforeEach(func() {
		ctx = context.Background()
		entries = testutils.SampleEntries()

		var manager *index.Manager
		manager, embedder = newFixture(entries)
		retriever = retrieval.NewRetriever(manager, embedder, nil)
	})

	Describe("Retrieve", func() {
		It("ranks the closest entry first with a strictly greater score", func() {
			embedder.Embeddings["how do I solve quadratic equations"] = []float32{0.9, 0.1, 0}

			results, err := retriever.Retrieve(ctx, "how do I solve quadratic equations", 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Entry.ID).To(Equal("MATH_001"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
			Expect(results[0].Score).To(BeNumerically(">", 0.9))
		})

		It("keeps every score within [0,1] and sorts descending", func() {
			embedder.Embeddings["mixed question"] = []float32{0.5, 0.3, 0.2}

			results, err := retriever.Retrieve(ctx, "mixed question", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i, res := range results {
				Expect(res.Score).To(BeNumerically(">=", 0))
				Expect(res.Score).To(BeNumerically("<=", 1))
				if i > 0 {
					Expect(results[i-1].Score).To(BeNumerically(">=", res.Score))
				}
			}
		})

		It("clips diametrically opposed entries to zero", func() {
			embedder.Embeddings["anti quadratic"] = []float32{-1, 0, 0}

			results, err := retriever.Retrieve(ctx, "anti quadratic", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(results[len(results)-1].Entry.ID).To(Equal("MATH_001"))
			Expect(results[len(results)-1].Score).To(BeZero())
		})

		It("returns an empty result for a blank query", func() {
			results, err := retriever.Retrieve(ctx, "   \t\n", 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("returns an empty result for a non-positive top k", func() {
			results, err := retriever.Retrieve(ctx, "anything", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("caps results at the corpus size", func() {
			results, err := retriever.Retrieve(ctx, "anything", 50)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(len(entries)))
		})

		It("is deterministic against an unchanged index", func() {
			first, err := retriever.Retrieve(ctx, "repeat me", 3)
			Expect(err).ToNot(HaveOccurred())

			second, err := retriever.Retrieve(ctx, "repeat me", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("propagates embedding failures", func() {
			embedder.FailOn = "broken query"

			_, err := retriever.Retrieve(ctx, "broken query", 3)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embedding query"))
		})

		It("fails before initialization", func() {
			manager, err := index.NewManager(&testutils.StubSource{Entries: entries}, embedder, index.Config{}, nil)
			Expect(err).ToNot(HaveOccurred())

			cold := retrieval.NewRetriever(manager, embedder, nil)
			_, err = cold.Retrieve(ctx, "anything", 3)
			Expect(err).To(MatchError(index.ErrNotInitialized))
		})
	})

	Describe("with an enricher", func() {
		var enricher *testutils.StubEnricher

		BeforeEach(func() {
			enricher = &testutils.StubEnricher{Suffix: " extra context"}

			var manager *index.Manager
			manager, embedder = newFixture(entries)
			retriever = retrieval.NewRetriever(manager, embedder, nil, retrieval.WithEnricher(enricher))
		})

		It("embeds the enriched query exactly once", func() {
			embedder.Embeddings["raw query extra context"] = []float32{0, 1, 0}

			results, err := retriever.Retrieve(ctx, "raw query", 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(enricher.Calls).To(Equal(1))
			Expect(results[0].Entry.ID).To(Equal("WRIT_001"))
		})

		It("does not enrich a blank query", func() {
			_, err := retriever.Retrieve(ctx, "", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(enricher.Calls).To(BeZero())
		})
	})

	Describe("RetrieveWithThreshold", func() {
		It("drops entries below the minimum similarity", func() {
			embedder.Embeddings["algebra only"] = []float32{0.95, 0.05, 0}

			results, err := retriever.RetrieveWithThreshold(ctx, "algebra only", 3, 0.5)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Entry.ID).To(Equal("MATH_001"))
		})

		It("never returns more than top k even when more qualify", func() {
			embedder.Embeddings["everything"] = []float32{0.6, 0.6, 0.6}

			results, err := retriever.RetrieveWithThreshold(ctx, "everything", 2, 0.1)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("returns an empty result when nothing qualifies", func() {
			embedder.Embeddings["far away"] = []float32{-1, -1, -1}

			results, err := retriever.RetrieveWithThreshold(ctx, "far away", 3, 0.9)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})
})
