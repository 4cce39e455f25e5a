package match

import (
	"fmt"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

// AnswerSnapshot is the flat form of one recorded attempt.
type AnswerSnapshot struct {
	Word      string `json:"word"`
	Score     int    `json:"score"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// RoundSnapshot is the flat form of one player's round.
type RoundSnapshot struct {
	Answers []AnswerSnapshot `json:"answers"`
	Score   int              `json:"score"`
}

// Snapshot is the flat, serializable form of the authoritative engine state.
// Categories are stored by name and resolved back on restore.
type Snapshot struct {
	NumRounds  int                `json:"num_rounds"`
	FirstTurn  int                `json:"first_turn"`
	Categories []string           `json:"categories"`
	Rounds     [2][]RoundSnapshot `json:"rounds"`
	TurnEndMs  [2]int64           `json:"turn_end_ms"`
	ExpiredFor int                `json:"expired_for"`
}

// CategoryResolver maps persisted category names back to live categories.
// Fallback supplies a substitute when a name no longer resolves, e.g. after
// a pack update renamed or removed the category.
type CategoryResolver interface {
	Resolve(name string) (*words.Category, bool)
	Fallback(name string) *words.Category
}

// Snapshot captures the engine state for durable storage.
func (s *ServerLogic) Snapshot() Snapshot {
	snap := Snapshot{
		NumRounds:  s.numRounds,
		FirstTurn:  s.firstTurn,
		Categories: s.CategoryNames(),
		ExpiredFor: s.expiredFor,
	}
	for player := 0; player < 2; player++ {
		rounds := make([]RoundSnapshot, len(s.rounds[player]))
		for i, round := range s.rounds[player] {
			answers := make([]AnswerSnapshot, len(round.Answers))
			for j, answer := range round.Answers {
				answers[j] = AnswerSnapshot(answer)
			}
			rounds[i] = RoundSnapshot{Answers: answers, Score: round.Score}
		}
		snap.Rounds[player] = rounds
		if !s.turnEnd[player].IsZero() {
			snap.TurnEndMs[player] = s.turnEnd[player].UnixMilli()
		}
	}
	return snap
}

// RestoreServerLogic rebuilds the authoritative engine from a snapshot.
//
// Category names that no longer resolve are substituted through the
// resolver's fallback. The substitution silently alters match content, so it
// is surfaced as a logged anomaly rather than treated as normal recovery.
func RestoreServerLogic(snap Snapshot, resolver CategoryResolver, scorer Scorer, now func() time.Time) (*ServerLogic, error) {
	if resolver == nil {
		return nil, fmt.Errorf("category resolver is required")
	}
	engine, err := NewServerLogic(snap.NumRounds, snap.FirstTurn, scorer, now)
	if err != nil {
		return nil, fmt.Errorf("restore engine: %w", err)
	}
	if len(snap.Categories) > snap.NumRounds {
		return nil, fmt.Errorf("snapshot has %d categories for %d rounds", len(snap.Categories), snap.NumRounds)
	}

	for i, name := range snap.Categories {
		if name == "" {
			continue
		}
		category, ok := resolver.Resolve(name)
		if !ok {
			category = resolver.Fallback(name)
			if category == nil {
				return nil, fmt.Errorf("category %q missing after restore and no fallback available", name)
			}
			engine.logf("anomaly: category %q missing after restore, substituting %q", name, category.Name())
		}
		engine.categories[i] = category
	}

	for player := 0; player < 2; player++ {
		if len(snap.Rounds[player]) > snap.NumRounds {
			return nil, fmt.Errorf("snapshot has %d rounds for player %d, max %d", len(snap.Rounds[player]), player, snap.NumRounds)
		}
		for _, round := range snap.Rounds[player] {
			answers := make([]Answer, len(round.Answers))
			for j, answer := range round.Answers {
				answers[j] = Answer(answer)
			}
			engine.rounds[player] = append(engine.rounds[player], Round{Answers: answers, Score: round.Score})
		}
		if snap.TurnEndMs[player] != 0 {
			engine.turnEnd[player] = time.UnixMilli(snap.TurnEndMs[player])
		}
	}
	engine.expiredFor = snap.ExpiredFor
	if engine.expiredFor < -1 || engine.expiredFor > 1 {
		return nil, fmt.Errorf("snapshot expired_for %d out of range", engine.expiredFor)
	}
	return engine, nil
}
