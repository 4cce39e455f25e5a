// Package errors provides structured error handling for wordclash services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Match lifecycle errors
	CodeMatchNotFound           Code = "MATCH_NOT_FOUND"
	CodeMatchNotJoinable        Code = "MATCH_NOT_JOINABLE"
	CodeMatchSelfPlay           Code = "MATCH_SELF_PLAY"
	CodeMatchFinished           Code = "MATCH_FINISHED"
	CodeMatchUnknownPlayer      Code = "MATCH_UNKNOWN_PLAYER"
	CodeMatchNotStarted         Code = "MATCH_NOT_STARTED"
	CodeMatchAlreadyTookTurn    Code = "MATCH_ALREADY_TOOK_TURN"
	CodeMatchNotPlayersTurn     Code = "MATCH_NOT_PLAYERS_TURN"
	CodeMatchTurnOver           Code = "MATCH_TURN_OVER"
	CodeMatchMustChooseCategory Code = "MATCH_MUST_CHOOSE_CATEGORY"
	CodeMatchWordEmpty          Code = "MATCH_WORD_EMPTY"

	// Category group selection errors
	CodeGroupNoChoicePending  Code = "GROUP_NO_CHOICE_PENDING"
	CodeGroupWrongChooser     Code = "GROUP_WRONG_CHOOSER"
	CodeGroupInvalidChoice    Code = "GROUP_INVALID_CHOICE"
	CodeGroupRefreshExhausted Code = "GROUP_REFRESH_EXHAUSTED"

	// Consumable errors
	CodeConsumableLimitReached Code = "CONSUMABLE_LIMIT_REACHED"
	CodeConsumableUnaffordable Code = "CONSUMABLE_UNAFFORDABLE"

	// Player errors
	CodePlayerNotFound         Code = "PLAYER_NOT_FOUND"
	CodePlayerEmptyName        Code = "PLAYER_EMPTY_NAME"
	CodePlayerInsufficientGold Code = "PLAYER_INSUFFICIENT_GOLD"

	// Category pack errors
	CodePackInvalid            Code = "PACK_INVALID"
	CodePackCategoryNotFound   Code = "PACK_CATEGORY_NOT_FOUND"
	CodePackCorrectionDangling Code = "PACK_CORRECTION_DANGLING"

	// Auth errors
	CodeAuthTokenInvalid Code = "AUTH_TOKEN_INVALID"
	CodeAuthTokenMissing Code = "AUTH_TOKEN_MISSING"

	// Transport errors
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Conflict - the request is well-formed but the match state disallows it
	case CodeMatchNotJoinable,
		CodeMatchSelfPlay,
		CodeMatchFinished,
		CodeMatchAlreadyTookTurn,
		CodeMatchNotPlayersTurn,
		CodeMatchTurnOver,
		CodeMatchMustChooseCategory,
		CodeGroupNoChoicePending,
		CodeGroupWrongChooser,
		CodeGroupRefreshExhausted,
		CodeConsumableLimitReached:
		return http.StatusConflict

	// BadRequest - validation failures, bad input
	case CodeGroupInvalidChoice,
		CodeMatchWordEmpty,
		CodePlayerEmptyName,
		CodePackInvalid,
		CodePackCorrectionDangling,
		CodeInvalidRequest:
		return http.StatusBadRequest

	// PaymentRequired - economy rejections
	case CodeConsumableUnaffordable,
		CodePlayerInsufficientGold:
		return http.StatusPaymentRequired

	// NotFound - missing entities
	case CodeMatchNotFound,
		CodeMatchUnknownPlayer,
		CodeMatchNotStarted,
		CodePlayerNotFound,
		CodePackCategoryNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Unauthorized - identity failures
	case CodeAuthTokenInvalid,
		CodeAuthTokenMissing:
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}
