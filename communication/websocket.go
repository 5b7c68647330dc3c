package communication

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSEvent is a single event pushed to websocket observers.
type WSEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventAgentRegistered = "AGENT_REGISTERED"
	EventForumCreated    = "FORUM_CREATED"
	EventNewMessage      = "NEW_MESSAGE"
	EventNewProposal     = "NEW_PROPOSAL"
	EventAgentVote       = "AGENT_VOTE"
	EventVotingResult    = "VOTING_RESULT"
	EventExecutionUpdate = "EXECUTION_UPDATE"
)

// Hub fans WSEvents out to connected websocket clients. One Hub is
// created per process and owned by whoever wires the node together.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan WSEvent, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				client.Close()
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				if err := client.WriteJSON(event); err != nil {
					h.logger.Debug("websocket write failed", zap.Error(err))
					client.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast queues an event for all connected clients. Never blocks the
// caller: if the hub is saturated the event is dropped.
func (h *Hub) Broadcast(eventType string, payload any) {
	select {
	case h.broadcast <- WSEvent{Type: eventType, Payload: payload}:
	default:
		h.logger.Debug("websocket broadcast dropped", zap.String("type", eventType))
	}
}

// Register hands a freshly upgraded connection to the hub. If the hub
// has already shut down the connection is closed instead of leaking the
// caller's goroutine on a channel nothing drains.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		if conn != nil {
			conn.Close()
		}
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close shuts down the hub and disconnects all clients.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
