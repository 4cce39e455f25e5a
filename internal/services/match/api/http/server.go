// Package httpapi exposes the match service over HTTP: guest auth, match
// operations routed to the actor runtime, and a websocket push channel.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/louisbranch/wordclash/internal/services/match/app"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
	"github.com/louisbranch/wordclash/internal/services/player"
	playerstorage "github.com/louisbranch/wordclash/internal/services/player/storage"
)

const defaultListLimit = 20

// Server routes HTTP requests to the match runtime and its collaborators.
type Server struct {
	router      *chi.Mux
	registry    *app.Registry
	matchmaking *app.Matchmaking
	players     *player.Service
	store       storage.Store
	tokens      *TokenIssuer
	hub         *Hub
}

// New wires the router. The hub must be the same one installed as the
// registry's notifier.
func New(registry *app.Registry, matchmaking *app.Matchmaking, players *player.Service, store storage.Store, tokens *TokenIssuer, hub *Hub) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		registry:    registry,
		matchmaking: matchmaking,
		players:     players,
		store:       store,
		tokens:      tokens,
		hub:         hub,
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.router.Post("/auth/guest", s.handleGuest)

	s.router.Group(func(r chi.Router) {
		r.Use(s.tokens.Require)

		r.Get("/me", s.handleMe)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/ws", s.handleWS)

		r.Get("/matches", s.handleListMatches)
		r.Post("/matches", s.handleStartMatch)
		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", s.handleGameInfo)
			r.Get("/summary", s.handleSummary)
			r.Post("/join", s.handleJoin)
			r.Post("/round", s.handleStartRound)
			r.Post("/round/end", s.handleEndRound)
			r.Post("/group", s.handleChooseGroup)
			r.Post("/group/refresh", s.handleRefreshGroups)
			r.Post("/words", s.handlePlayWord)
			r.Post("/time", s.handleIncreaseRoundTime)
			r.Post("/reveal", s.handleRevealWord)
		})
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) entity(r *http.Request) (*app.Entity, error) {
	return s.registry.Get(r.Context(), chi.URLParam(r, "matchID"))
}

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	Token  string                     `json:"token"`
	Player playerstorage.PlayerRecord `json:"player"`
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}
	record, err := s.players.CreateGuest(r.Context(), req.Name)
	if err != nil {
		renderError(w, err)
		return
	}
	token, err := s.tokens.Issue(record.ID, record.Name)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusCreated, guestResponse{Token: token, Player: record})
}

type meResponse struct {
	Player playerstorage.PlayerRecord `json:"player"`
	Rank   int                        `json:"rank"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	playerID := currentPlayer(r)
	record, err := s.players.Get(r.Context(), playerID)
	if err != nil {
		renderError(w, err)
		return
	}
	rank, err := s.players.Rank(r.Context(), playerID)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, meResponse{Player: record, Rank: rank})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)
	entries, err := s.players.Top(r.Context(), limit)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, currentPlayer(r))
}

type startMatchRequest struct {
	VsBot bool `json:"vs_bot"`
}

type startMatchResponse struct {
	MatchID string `json:"match_id"`
	Joined  bool   `json:"joined"`
}

func (s *Server) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	var req startMatchRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}
	playerID := currentPlayer(r)

	if req.VsBot {
		matchID, err := s.matchmaking.StartBotMatch(r.Context(), playerID)
		if err != nil {
			renderError(w, err)
			return
		}
		respond(w, http.StatusCreated, startMatchResponse{MatchID: matchID, Joined: true})
		return
	}

	result, err := s.matchmaking.Find(r.Context(), playerID)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusCreated, startMatchResponse{MatchID: result.MatchID, Joined: result.Joined})
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	playerID := currentPlayer(r)
	records, err := s.store.ListMatchesByPlayer(r.Context(), playerID, queryLimit(r, defaultListLimit))
	if err != nil {
		renderError(w, err)
		return
	}
	summaries := make([]app.SimplifiedGameInfo, 0, len(records))
	for _, record := range records {
		entity, err := s.registry.Get(r.Context(), record.ID)
		if err != nil {
			renderError(w, err)
			return
		}
		info, err := entity.SimplifiedGameInfo(r.Context(), playerID)
		if err != nil {
			renderError(w, err)
			return
		}
		summaries = append(summaries, info)
	}
	respond(w, http.StatusOK, map[string]any{"matches": summaries})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if err := entity.Join(r.Context(), currentPlayer(r)); err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"match_id": entity.ID()})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	result, err := entity.StartRound(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, startRoundResponse(result))
}

type chooseGroupRequest struct {
	Group string `json:"group"`
}

func (s *Server) handleChooseGroup(w http.ResponseWriter, r *http.Request) {
	var req chooseGroupRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	result, err := entity.ChooseGroup(r.Context(), currentPlayer(r), req.Group)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, startRoundResponse(result))
}

func (s *Server) handleRefreshGroups(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	choices, err := entity.RefreshGroups(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"group_choices": choices})
}

type playWordRequest struct {
	Word string `json:"word"`
}

type playWordResponse struct {
	Word       string `json:"word"`
	Score      int    `json:"score"`
	Duplicate  bool   `json:"duplicate"`
	Recognized bool   `json:"recognized"`
}

func (s *Server) handlePlayWord(w http.ResponseWriter, r *http.Request) {
	var req playWordRequest
	if err := decodeBody(r, &req); err != nil {
		renderError(w, err)
		return
	}
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	outcome, err := entity.PlayWord(r.Context(), currentPlayer(r), req.Word)
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, playWordResponse{
		Word:       outcome.Word,
		Score:      outcome.Score,
		Duplicate:  outcome.Duplicate,
		Recognized: outcome.Recognized,
	})
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if err := entity.EndRound(r.Context(), currentPlayer(r)); err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"match_id": entity.ID()})
}

func (s *Server) handleIncreaseRoundTime(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	deadline, err := entity.IncreaseRoundTime(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int64{"turn_end_ms": deadline.UnixMilli()})
}

func (s *Server) handleRevealWord(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	word, err := entity.RevealWord(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"word": word})
}

func (s *Server) handleGameInfo(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	info, err := entity.GameInfo(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, info)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	entity, err := s.entity(r)
	if err != nil {
		renderError(w, err)
		return
	}
	info, err := entity.SimplifiedGameInfo(r.Context(), currentPlayer(r))
	if err != nil {
		renderError(w, err)
		return
	}
	respond(w, http.StatusOK, info)
}

type roundResponse struct {
	Status        string   `json:"status"`
	Round         int      `json:"round"`
	Category      string   `json:"category,omitempty"`
	TurnEndMs     int64    `json:"turn_end_ms,omitempty"`
	GroupChoices  []string `json:"group_choices,omitempty"`
	RefreshesLeft int      `json:"refreshes_left,omitempty"`
}

func startRoundResponse(result app.StartRoundResult) roundResponse {
	out := roundResponse{
		Status:        result.Status.String(),
		Round:         result.Round,
		Category:      result.Category,
		GroupChoices:  result.GroupChoices,
		RefreshesLeft: result.RefreshesLeft,
	}
	if !result.TurnEnd.IsZero() {
		out.TurnEndMs = result.TurnEnd.UnixMilli()
	}
	return out
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 100 {
		return fallback
	}
	return limit
}

// Run serves the API until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s}
	errs := make(chan error, 1)
	go func() { errs <- server.ListenAndServe() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errs
	return nil
}
