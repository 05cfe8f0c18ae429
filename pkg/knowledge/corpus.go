package knowledge

import "strings"

// Corpus is the fixed, ordered sequence of knowledge entries. It is created
// once at engine construction and never mutated; a replacement corpus is a
// new Corpus swapped in wholesale.
type Corpus struct {
	entries []Entry
}

// NewCorpus wraps entries in a Corpus. The slice is not copied; callers
// hand over ownership.
func NewCorpus(entries []Entry) *Corpus {
	return &Corpus{entries: entries}
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Entry returns the entry at position i. Position is the identity used to
// correlate index rows with entries.
func (c *Corpus) Entry(i int) Entry {
	return c.entries[i]
}

// Entries returns the backing slice. Callers must treat it as read-only.
func (c *Corpus) Entries() []Entry {
	return c.entries
}

// IDs returns the entry ids in corpus order.
func (c *Corpus) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// ByID returns the first entry with the given id, if any.
func (c *Corpus) ByID(id string) (Entry, bool) {
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// ByCategory returns all entries in the given category, case-insensitively.
func (c *Corpus) ByCategory(category string) []Entry {
	return c.filter(func(e Entry) bool {
		return strings.EqualFold(e.Category, category)
	})
}

// BySubcategory returns all entries in the given subcategory,
// case-insensitively.
func (c *Corpus) BySubcategory(subcategory string) []Entry {
	return c.filter(func(e Entry) bool {
		return strings.EqualFold(e.Subcategory, subcategory)
	})
}

func (c *Corpus) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Statistics summarizes the corpus composition.
type Statistics struct {
	TotalEntries  int            `json:"total_entries"`
	Categories    map[string]int `json:"categories"`
	Subcategories map[string]int `json:"subcategories"`
}

// Statistics counts entries per category and subcategory.
func (c *Corpus) Statistics() Statistics {
	stats := Statistics{
		TotalEntries:  len(c.entries),
		Categories:    make(map[string]int),
		Subcategories: make(map[string]int),
	}
	for _, e := range c.entries {
		category := e.Category
		if category == "" {
			category = "Unknown"
		}
		subcategory := e.Subcategory
		if subcategory == "" {
			subcategory = "Unknown"
		}
		stats.Categories[category]++
		stats.Subcategories[subcategory]++
	}
	return stats
}
