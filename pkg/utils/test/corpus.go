package testutils

import (
	"context"
	"time"

	"github.com/studyloop/satchel/pkg/knowledge"
)

// SampleEntries returns a small curriculum corpus spanning math and
// writing topics.
func SampleEntries() []knowledge.Entry {
	return []knowledge.Entry{
		{
			ID:          "MATH_001",
			Category:    "Math",
			Subcategory: "Algebra",
			Topic:       "Quadratic Equations",
			Description: "Solving second-degree polynomial equations",
			KeyConcepts: []string{"discriminant", "factoring", "quadratic formula"},
		},
		{
			ID:          "WRIT_001",
			Category:    "Writing",
			Subcategory: "Grammar",
			Topic:       "Subject-Verb Agreement",
			Description: "Matching subjects with verb forms",
			KeyConcepts: []string{"singular", "plural", "agreement"},
		},
		{
			ID:          "MATH_002",
			Category:    "Math",
			Subcategory: "Geometry",
			Topic:       "Pythagorean Theorem",
			Description: "Relating the sides of right triangles",
			KeyConcepts: []string{"hypotenuse", "right angle"},
		},
	}
}

// StubSource is an in-memory corpus source with a controllable
// content-change signal.
type StubSource struct {
	Entries []knowledge.Entry
	Mtime   time.Time

	// LoadErr, when set, is returned from Load.
	LoadErr error
}

func (s *StubSource) Load(_ context.Context) ([]knowledge.Entry, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.Entries, nil
}

func (s *StubSource) ModTime() (time.Time, error) {
	return s.Mtime, nil
}

func (s *StubSource) Location() string {
	return "stub-source"
}
