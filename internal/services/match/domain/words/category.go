package words

import (
	"fmt"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

// WordDef declares one accepted word with its static score and the
// misspellings that should correct to it.
type WordDef struct {
	Word        string   `json:"word"`
	Score       int      `json:"score"`
	Corrections []string `json:"corrections,omitempty"`
}

// Definition declares one category as loaded from a category pack.
type Definition struct {
	Name  string    `json:"name"`
	Words []WordDef `json:"words"`
}

type entry struct {
	score     int
	canonical string
}

// Category is an immutable, case-insensitive word -> (score, canonical) map.
// Built once from pack data and shared read-only across matches.
type Category struct {
	name    string
	entries map[string]entry
	// order preserves pack declaration order so fuzzy lookup keeps its
	// first-match semantics across process restarts.
	order []string
}

// NewCategory builds a category from a pack definition. Every correction
// entry points back at a canonical word with a positive score; violations
// reject the whole category.
func NewCategory(def Definition) (*Category, error) {
	if def.Name == "" {
		return nil, apperrors.New(apperrors.CodePackInvalid, "category name is required")
	}
	c := &Category{
		name:    def.Name,
		entries: make(map[string]entry, len(def.Words)),
	}
	for _, w := range def.Words {
		canonical := Normalize(w.Word)
		if canonical == "" {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("category %q contains an empty word", def.Name),
				map[string]string{"category": def.Name})
		}
		if w.Score <= 0 {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("word %q in category %q must score above zero", w.Word, def.Name),
				map[string]string{"category": def.Name, "word": w.Word})
		}
		if _, exists := c.entries[canonical]; exists {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("word %q appears twice in category %q", w.Word, def.Name),
				map[string]string{"category": def.Name, "word": w.Word})
		}
		c.entries[canonical] = entry{score: w.Score, canonical: canonical}
		c.order = append(c.order, canonical)

		for _, raw := range w.Corrections {
			miss := Normalize(raw)
			if miss == "" || miss == canonical {
				continue
			}
			if _, exists := c.entries[miss]; exists {
				return nil, apperrors.WithMetadata(apperrors.CodePackCorrectionDangling,
					fmt.Sprintf("correction %q in category %q collides with another entry", raw, def.Name),
					map[string]string{"category": def.Name, "word": raw})
			}
			c.entries[miss] = entry{score: w.Score, canonical: canonical}
			c.order = append(c.order, miss)
		}
	}
	return c, nil
}

// Name returns the category's pack name.
func (c *Category) Name() string { return c.name }

// Len returns the number of accepted spellings, corrections included.
func (c *Category) Len() int { return len(c.entries) }

// Answers returns the canonical words with their scores, in pack order.
// The bot opponent samples its plays from this list.
func (c *Category) Answers() []WordDef {
	answers := make([]WordDef, 0, len(c.order))
	for _, key := range c.order {
		e := c.entries[key]
		if e.canonical != key {
			continue
		}
		answers = append(answers, WordDef{Word: key, Score: e.score})
	}
	return answers
}

// LookupResult is the outcome of a category lookup.
type LookupResult struct {
	// Score is zero when the word is unrecognized.
	Score int
	// Canonical is the corrected spelling, empty when unrecognized.
	Canonical string
	// Found reports whether any entry matched, exactly or fuzzily.
	Found bool
}

// Lookup resolves a played word to its score and canonical spelling.
//
// Exact (case-insensitive, fold-insensitive) matches win in constant time.
// Otherwise every known spelling is scanned with the banded edit distance,
// bounded by distanceForLength of the shorter word, and the first match wins.
// First-match is deliberate: it mirrors a stable scan order, not a
// best-match search.
func (c *Category) Lookup(word string, distanceForLength func(length int) int) LookupResult {
	normalized := Normalize(word)
	if normalized == "" {
		return LookupResult{}
	}
	if e, ok := c.entries[normalized]; ok {
		return LookupResult{Score: e.score, Canonical: e.canonical, Found: true}
	}
	if distanceForLength == nil {
		return LookupResult{}
	}
	for _, candidate := range c.order {
		shorter := len([]rune(normalized))
		if cl := len([]rune(candidate)); cl < shorter {
			shorter = cl
		}
		maxDistance := distanceForLength(shorter)
		if maxDistance <= 0 {
			continue
		}
		if IsWithin(normalized, candidate, maxDistance) {
			e := c.entries[candidate]
			return LookupResult{Score: e.score, Canonical: e.canonical, Found: true}
		}
	}
	return LookupResult{}
}
