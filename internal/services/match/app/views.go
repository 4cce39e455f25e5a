package app

import (
	"context"

	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

// AnswerView is one played word as shown to a client.
type AnswerView struct {
	Word      string `json:"word"`
	Score     int    `json:"score"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// RoundView is one player's finished or running round.
type RoundView struct {
	Answers []AnswerView `json:"answers"`
	Score   int          `json:"score"`
}

// GameInfo is the full match view for one participant. The opponent's
// answers for a round stay hidden until the viewer has finished that round
// themselves.
type GameInfo struct {
	MatchID     string             `json:"match_id"`
	State       storage.MatchState `json:"state"`
	Players     [2]string          `json:"players"`
	You         int                `json:"you"`
	NumRounds   int                `json:"num_rounds"`
	RoundNumber int                `json:"round_number"`
	Categories  []string           `json:"categories"`
	Rounds      [2][]RoundView     `json:"rounds"`
	TurnEndMs   [2]int64           `json:"turn_end_ms"`
	RoundsWon   [2]int             `json:"rounds_won"`
	TotalScore  [2]int             `json:"total_score"`

	GroupChoices  []string `json:"group_choices,omitempty"`
	RefreshesLeft int      `json:"refreshes_left,omitempty"`

	TimeExtensionsLeft int `json:"time_extensions_left"`
	WordRevealsLeft    int `json:"word_reveals_left"`

	Outcome string `json:"outcome,omitempty"`
}

// SimplifiedGameInfo is the lightweight match summary used by list views.
type SimplifiedGameInfo struct {
	MatchID     string             `json:"match_id"`
	State       storage.MatchState `json:"state"`
	Opponent    string             `json:"opponent,omitempty"`
	RoundNumber int                `json:"round_number"`
	NumRounds   int                `json:"num_rounds"`
	TotalScore  [2]int             `json:"total_score"`
	YourTurn    bool               `json:"your_turn"`
	Outcome     string             `json:"outcome,omitempty"`
}

// GameInfo builds the full view for the calling player.
func (e *Entity) GameInfo(ctx context.Context, playerID string) (GameInfo, error) {
	var info GameInfo
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		info = e.buildGameInfo(idx)
		return nil
	})
	return info, err
}

// SimplifiedGameInfo builds the summary view for the calling player.
func (e *Entity) SimplifiedGameInfo(ctx context.Context, playerID string) (SimplifiedGameInfo, error) {
	var info SimplifiedGameInfo
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		info = SimplifiedGameInfo{
			MatchID:     e.id,
			State:       e.record.State,
			Opponent:    e.record.Players[1-idx],
			RoundNumber: e.logic.RoundNumber(),
			NumRounds:   e.logic.NumRounds(),
			TotalScore:  [2]int{e.logic.TotalScore(idx), e.logic.TotalScore(1 - idx)},
			YourTurn:    e.record.State == storage.StateInProgress && e.logic.TurnPlayer() == idx,
			Outcome:     e.outcomeFor(idx),
		}
		return nil
	})
	return info, err
}

// buildGameInfo runs on the entity goroutine.
func (e *Entity) buildGameInfo(idx int) GameInfo {
	rules := e.rules()
	info := GameInfo{
		MatchID:     e.id,
		State:       e.record.State,
		Players:     e.record.Players,
		You:         idx,
		NumRounds:   e.logic.NumRounds(),
		RoundNumber: e.logic.RoundNumber(),
		Categories:  e.logic.CategoryNames(),
		TurnEndMs:   [2]int64{turnEndMs(e.logic, 0), turnEndMs(e.logic, 1)},
		RoundsWon:   [2]int{e.logic.RoundsWon(0), e.logic.RoundsWon(1)},
		TotalScore:  [2]int{e.logic.TotalScore(0), e.logic.TotalScore(1)},

		TimeExtensionsLeft: rules.MaxTimeExtensions - e.record.TimeExtensions[idx],
		WordRevealsLeft:    rules.MaxWordReveals - e.record.WordsRevealed[idx],
		Outcome:            e.outcomeFor(idx),
	}

	if len(e.record.GroupChoices) > 0 && e.record.GroupChooser == idx {
		info.GroupChoices = e.record.GroupChoices
		info.RefreshesLeft = rules.MaxGroupRefreshes - e.record.GroupRefreshes
	}

	for player := 0; player < 2; player++ {
		rounds := e.logic.Rounds(player)
		views := make([]RoundView, 0, len(rounds))
		for r, round := range rounds {
			view := RoundView{Score: round.Score}
			if e.revealRound(idx, player, r) {
				view.Answers = make([]AnswerView, 0, len(round.Answers))
				for _, answer := range round.Answers {
					view.Answers = append(view.Answers, AnswerView{
						Word:      answer.Word,
						Score:     answer.Score,
						Duplicate: answer.Duplicate,
					})
				}
			} else {
				// The round is still being played against the viewer;
				// only the running score is visible.
				view.Score = 0
			}
			views = append(views, view)
		}
		info.Rounds[player] = views
	}
	return info
}

// revealRound decides whether the viewer may see a round's answers: always
// their own, and the opponent's only once the viewer finished that round.
func (e *Entity) revealRound(viewer, player, round int) bool {
	if viewer == player {
		return true
	}
	return e.logic.PlayerFinishedTurn(viewer, round)
}

func (e *Entity) outcomeFor(idx int) string {
	if e.record.State != storage.StateFinished && e.record.State != storage.StateExpired {
		return ""
	}
	verdict, winner := e.logic.Winner()
	switch {
	case verdict == match.VerdictDraw:
		return OutcomeDraw
	case verdict == match.VerdictWinner && winner == idx:
		return OutcomeWin
	case verdict == match.VerdictWinner:
		return OutcomeLoss
	default:
		return ""
	}
}

func turnEndMs(l *match.ServerLogic, player int) int64 {
	end := l.TurnEnd(player)
	if end.IsZero() {
		return 0
	}
	return end.UnixMilli()
}
