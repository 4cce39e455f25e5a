package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/louisbranch/wordclash/internal/services/match/app"
	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxPending bounds the per-player queue of events waiting for a
	// reconnect. Oldest events drop first.
	maxPending = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one realtime notification pushed to a player.
type Event struct {
	Type       string           `json:"type"`
	MatchID    string           `json:"match_id"`
	OpponentID string           `json:"opponent_id,omitempty"`
	Round      int              `json:"round,omitempty"`
	Answers    []app.AnswerView `json:"answers,omitempty"`
	Outcome    string           `json:"outcome,omitempty"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans match events out to connected players. A player without a live
// connection gets the event queued and flushed on their next connect, so a
// missed notification is delayed rather than lost.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*hubClient
	pending map[string][][]byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*hubClient),
		pending: make(map[string][][]byte),
	}
}

// Serve upgrades the request and binds the connection to the player. A new
// connection replaces any previous one for the same player.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, playerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade for %s: %v", playerID, err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	if previous, ok := h.clients[playerID]; ok {
		close(previous.send)
	}
	h.clients[playerID] = client
	backlog := h.pending[playerID]
	delete(h.pending, playerID)
	h.mu.Unlock()

	for _, data := range backlog {
		client.send <- data
	}

	go h.writePump(playerID, client)
	go h.readPump(playerID, client)
}

func (h *Hub) writePump(playerID string, client *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(playerID, client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(playerID, client)
				return
			}
		}
	}
}

// readPump discards client messages; the socket is push-only. It exists to
// process pongs and notice the peer going away.
func (h *Hub) readPump(playerID string, client *hubClient) {
	defer client.conn.Close()
	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			h.drop(playerID, client)
			return
		}
	}
}

// drop detaches a dead connection, leaving any newer one in place.
func (h *Hub) drop(playerID string, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[playerID]; ok && current == client {
		delete(h.clients, playerID)
		close(current.send)
	}
}

// deliver pushes an event to the player's live connection, or queues it.
func (h *Hub) deliver(playerID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[playerID]; ok {
		select {
		case client.send <- data:
			return nil
		default:
			// Connection is backed up; fall through to the queue.
		}
	}
	queue := append(h.pending[playerID], data)
	if len(queue) > maxPending {
		queue = queue[len(queue)-maxPending:]
	}
	h.pending[playerID] = queue
	return nil
}

// Pending reports how many events wait for a player to reconnect.
func (h *Hub) Pending(playerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending[playerID])
}

// Close shuts every live connection down.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for playerID, client := range h.clients {
		close(client.send)
		delete(h.clients, playerID)
	}
}

// OpponentJoined implements app.Notifier.
func (h *Hub) OpponentJoined(_ context.Context, playerID, matchID, opponentID string) error {
	return h.deliver(playerID, Event{Type: "opponent_joined", MatchID: matchID, OpponentID: opponentID})
}

// OpponentTurnEnded implements app.Notifier.
func (h *Hub) OpponentTurnEnded(_ context.Context, playerID, matchID string, round int, answers []match.Answer) error {
	event := Event{Type: "opponent_turn_ended", MatchID: matchID, Round: round}
	for _, answer := range answers {
		event.Answers = append(event.Answers, app.AnswerView{
			Word:      answer.Word,
			Score:     answer.Score,
			Duplicate: answer.Duplicate,
		})
	}
	return h.deliver(playerID, event)
}

// GameEnded implements app.Notifier.
func (h *Hub) GameEnded(_ context.Context, playerID, matchID, outcome string) error {
	return h.deliver(playerID, Event{Type: "game_ended", MatchID: matchID, Outcome: outcome})
}

// GameExpired implements app.Notifier.
func (h *Hub) GameExpired(_ context.Context, playerID, matchID, outcome string) error {
	return h.deliver(playerID, Event{Type: "game_expired", MatchID: matchID, Outcome: outcome})
}
