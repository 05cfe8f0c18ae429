package knowledge_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studyloop/satchel/pkg/knowledge"
)

var _ = Describe("Corpus", func() {
	var corpus *knowledge.Corpus

	BeforeEach(func() {
		corpus = knowledge.NewCorpus([]knowledge.Entry{
			{ID: "MATH_001", Category: "Math", Subcategory: "Algebra", Topic: "Quadratic Equations"},
			{ID: "MATH_002", Category: "Math", Subcategory: "Geometry", Topic: "Pythagorean Theorem"},
			{ID: "WRIT_001", Category: "Writing", Subcategory: "Grammar", Topic: "Subject-Verb Agreement"},
		})
	})

	It("exposes entries by position", func() {
		Expect(corpus.Len()).To(Equal(3))
		Expect(corpus.Entry(1).ID).To(Equal("MATH_002"))
	})

	It("looks up entries by id", func() {
		e, ok := corpus.ByID("WRIT_001")
		Expect(ok).To(BeTrue())
		Expect(e.Topic).To(Equal("Subject-Verb Agreement"))

		_, ok = corpus.ByID("missing")
		Expect(ok).To(BeFalse())
	})

	It("filters by category case-insensitively", func() {
		Expect(corpus.ByCategory("math")).To(HaveLen(2))
		Expect(corpus.BySubcategory("GRAMMAR")).To(HaveLen(1))
	})

	It("computes statistics", func() {
		stats := corpus.Statistics()
		Expect(stats.TotalEntries).To(Equal(3))
		Expect(stats.Categories).To(HaveKeyWithValue("Math", 2))
		Expect(stats.Subcategories).To(HaveKeyWithValue("Grammar", 1))
	})
})

var _ = Describe("FileSource", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("loads entries in document order", func() {
		path := write("kb.json", `{"knowledge_points": [
			{"id": "A_001", "topic": "Ratios"},
			{"id": "A_002", "topic": "Percentages"}
		]}`)

		src := knowledge.NewFileSource(path)
		entries, err := src.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].ID).To(Equal("A_001"))

		mtime, err := src.ModTime()
		Expect(err).NotTo(HaveOccurred())
		Expect(mtime.IsZero()).To(BeFalse())
	})

	It("permits an empty corpus", func() {
		path := write("empty.json", `{"knowledge_points": []}`)
		entries, err := knowledge.NewFileSource(path).Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("rejects malformed documents", func() {
		path := write("bad.json", `{"knowledge_points": "nope"`)
		_, err := knowledge.NewFileSource(path).Load(context.Background())
		Expect(err).To(MatchError(knowledge.ErrInvalidFormat))
	})

	It("errors when the file is missing", func() {
		_, err := knowledge.NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background())
		Expect(err).To(HaveOccurred())

		mtime, err := knowledge.NewFileSource(filepath.Join(dir, "missing.json")).ModTime()
		Expect(err).NotTo(HaveOccurred())
		Expect(mtime.IsZero()).To(BeTrue())
	})
})
