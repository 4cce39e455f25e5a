// Package storage defines the persistence contract for word usage counters.
package storage

import "context"

// UsageRecord is the play count for one word inside one category.
type UsageRecord struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Plays    int64  `json:"plays"`
}

// Store persists per-category word usage counts.
type Store interface {
	// AddPlays increments the play count for one word. Negative deltas
	// are allowed so corrections can be unwound.
	AddPlays(ctx context.Context, category, word string, delta int64) error
	// Usage returns the word's play count and the category total. A word
	// never seen yields zero plays without error.
	Usage(ctx context.Context, category, word string) (plays, total int64, err error)
	// TopWords lists the most played words in a category.
	TopWords(ctx context.Context, category string, limit int) ([]UsageRecord, error)
}
