package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/index"
	testutils "github.com/studyloop/satchel/pkg/utils/test"
)

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		dir      string
		source   *testutils.StubSource
		embedder *testutils.StubEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		source = &testutils.StubSource{
			Entries: testutils.SampleEntries(),
			Mtime:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		embedder = testutils.NewStubEmbedder()
	})

	newManager := func() *index.Manager {
		m, err := index.NewManager(source, embedder, index.Config{Dir: dir}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	Describe("Initialize", func() {
		It("builds and persists an index on first startup", func() {
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Len()).To(Equal(3))
			Expect(st.Index.Dim()).To(Equal(3))
			Expect(st.Fingerprint).NotTo(BeEmpty())
			Expect(m.Persisted()).To(BeTrue())

			Expect(filepath.Join(dir, "index.bin")).To(BeAnExistingFile())
			Expect(filepath.Join(dir, "metadata.json")).To(BeAnExistingFile())
		})

		It("reuses a persisted index when nothing changed", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())
			firstBatches := embedder.BatchCalls

			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			Expect(embedder.BatchCalls).To(Equal(firstBatches), "reuse must not re-embed")

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Len()).To(Equal(3))
		})

		It("produces an equal fingerprint across rebuilds of an unchanged corpus", func() {
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			first, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Rebuild(ctx)).To(Succeed())
			second, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Fingerprint).To(Equal(first.Fingerprint))
			Expect(second.Index.Row(0)).To(Equal(first.Index.Row(0)))
		})

		It("rebuilds when the embedding model name changes", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())

			embedder = testutils.NewStubEmbedder()
			embedder.Model = "another-model"
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			Expect(embedder.BatchCalls).To(BeNumerically(">", 0), "model change must force a rebuild")
		})

		It("rebuilds when the corpus size changes", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())

			source.Entries = source.Entries[:2]
			embedder = testutils.NewStubEmbedder()
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			Expect(embedder.BatchCalls).To(BeNumerically(">", 0))

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Len()).To(Equal(2))
		})

		It("rebuilds when the content-change signal moves", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())

			source.Mtime = source.Mtime.Add(time.Minute)
			embedder = testutils.NewStubEmbedder()
			Expect(newManager().Initialize(ctx)).To(Succeed())
			Expect(embedder.BatchCalls).To(BeNumerically(">", 0))
		})

		It("rebuilds when the persisted index bytes are corrupt", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "index.bin"), []byte("garbage"), 0o644)).To(Succeed())

			embedder = testutils.NewStubEmbedder()
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			Expect(embedder.BatchCalls).To(BeNumerically(">", 0))
		})

		It("rebuilds when the configured dimension disagrees with the stored one", func() {
			Expect(newManager().Initialize(ctx)).To(Succeed())

			embedder = testutils.NewStubEmbedder()
			embedder.Dim = 4
			m, err := index.NewManager(source, embedder, index.Config{Dir: dir, Dimensions: 4}, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Initialize(ctx)).To(Succeed())

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Dim()).To(Equal(4))
		})

		It("permits an empty corpus", func() {
			source.Entries = nil
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Len()).To(BeZero())
		})

		It("fails when an entry cannot be embedded", func() {
			embedder.FailOn = source.Entries[1].EmbeddingText()
			m := newManager()
			Expect(m.Initialize(ctx)).To(HaveOccurred())

			_, err := m.Snapshot()
			Expect(err).To(MatchError(index.ErrNotInitialized))
		})

		It("fails when the corpus cannot be loaded", func() {
			source.LoadErr = errors.New("fetch failed")
			Expect(newManager().Initialize(ctx)).To(HaveOccurred())
		})

		It("treats persistence failure as non-fatal", func() {
			m, err := index.NewManager(source, embedder, index.Config{
				Dir: filepath.Join(dir, "metadata.json", "not-a-dir"),
			}, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			Expect(os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{}"), 0o644)).To(Succeed())
			Expect(m.Initialize(ctx)).To(Succeed())

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Index.Len()).To(Equal(3))
		})
	})

	Describe("Refresh", func() {
		It("adopts a changed corpus", func() {
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())

			source.Entries = testutils.SampleEntries()[:1]
			source.Mtime = source.Mtime.Add(time.Hour)
			Expect(m.Refresh(ctx)).To(Succeed())

			st, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Corpus.Len()).To(Equal(1))
			Expect(st.Index.Len()).To(Equal(1))
		})

		It("keeps the previous state when the refresh fails", func() {
			m := newManager()
			Expect(m.Initialize(ctx)).To(Succeed())
			before, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())

			source.LoadErr = errors.New("scraper mid-write")
			Expect(m.Refresh(ctx)).To(HaveOccurred())

			after, err := m.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(BeIdenticalTo(before))
		})
	})

	Describe("Rebuild", func() {
		It("requires initialization", func() {
			Expect(newManager().Rebuild(ctx)).To(MatchError(index.ErrNotInitialized))
		})
	})
})
