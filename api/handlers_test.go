package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/engine"
	"github.com/studyloop/satchel/pkg/retrieval"
	testutils "github.com/studyloop/satchel/pkg/utils/test"
)

var _ = Describe("handlers", func() {
	var (
		tmpDir   string
		server   *Server
		source   *testutils.StubSource
		embedder *testutils.StubEmbedder
		reranker *testutils.StubReranker
	)

	newServer := func(rerankEnabled bool) *Server {
		cfg := config.NewDefaultConfig()
		cfg.Embedding.Dimensions = 3
		cfg.Reranker.Enabled = rerankEnabled
		cfg.Index.Dir = tmpDir

		eng, err := engine.New(context.Background(), cfg, tmpDir, nil,
			engine.WithSource(source),
			engine.WithEmbedder(embedder),
			engine.WithReranker(reranker),
		)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { eng.Close() })

		return NewServer(Config{ListenAddr: ":0"}, eng, nil)
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "api-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(tmpDir) })

		source = &testutils.StubSource{Entries: testutils.SampleEntries()}
		embedder = testutils.NewStubEmbedder()
		reranker = testutils.NewStubReranker()

		server = newServer(false)
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("GET /v1/search", func() {
		It("returns 400 when query is missing", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			var errResp ErrorResponse
			Expect(json.NewDecoder(resp.Body).Decode(&errResp)).To(Succeed())
			Expect(errResp.Error).To(ContainSubstring("query parameter is required"))
		})

		It("returns 400 for a non-positive top_k", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=math&top_k=0", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for a malformed rerank flag", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=math&rerank=maybe", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for an out-of-range min_score", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=math&min_score=1.5", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns similarity results", func() {
			embedder.Embeddings["quadratic equations"] = []float32{1, 0, 0}

			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=quadratic+equations&top_k=2", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Query).To(Equal("quadratic equations"))
			Expect(out.Count).To(Equal(2))
			Expect(out.Results).To(HaveLen(2))
			Expect(out.Reranked).To(BeFalse())
		})

		It("filters by min_score", func() {
			embedder.Embeddings["algebra"] = []float32{0.95, 0.05, 0}

			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=algebra&min_score=0.5", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].Entry.ID).To(Equal("MATH_001"))
		})

		It("runs the rerank pipeline when requested", func() {
			server = newServer(true)
			reranker.Scores["Subject-Verb Agreement"] = 5.0
			reranker.Default = -5.0

			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=verbs&rerank=true&top_k=1&candidates=3", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Reranked).To(BeTrue())
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].Entry.ID).To(Equal("WRIT_001"))
		})

		It("reports unreranked results when the reranker is disabled", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=math&rerank=true", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Reranked).To(BeFalse())
		})

		It("returns an empty result list for a blank query value", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search?query=+", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Count).To(BeZero())
			Expect(out.Results).To(BeEmpty())
		})
	})

	Describe("GET /v1/stats", func() {
		It("returns the engine statistics", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/stats", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var stats retrieval.Stats
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.VectorCount).To(Equal(3))
			Expect(stats.Dimension).To(Equal(3))
			Expect(stats.EmbeddingModel).To(Equal("stub-embedder"))
			Expect(stats.RerankerEnabled).To(BeFalse())
		})
	})

	Describe("POST /v1/reindex", func() {
		It("rebuilds the index from the source", func() {
			source.Entries = testutils.SampleEntries()[:2]

			req, _ := http.NewRequest(http.MethodPost, "/v1/reindex", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out ReindexResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.VectorCount).To(Equal(2))
			Expect(out.Fingerprint).NotTo(BeEmpty())
		})

		It("returns 500 when the corpus cannot be reloaded", func() {
			source.LoadErr = os.ErrPermission

			req, _ := http.NewRequest(http.MethodPost, "/v1/reindex", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})
})
