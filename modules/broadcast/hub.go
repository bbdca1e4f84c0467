package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Wire event names, client to coordinator.
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventLeaveRoom   = "leave-room"
)

// Wire event names, coordinator to client.
const (
	EventRoomCreated     = "room-created"
	EventRoomError       = "room-error"
	EventMessageError    = "message-error"
	EventReceiveMessage  = "receive-message"
	EventUserTyping      = "user-typing"
	EventRoomUsersUpdate = "room-users-update"
)

// Frame is the wire envelope for every event in either direction.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame wraps a payload in a wire envelope.
func NewFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Payload: data}, nil
}

// Conn is the minimal connection surface the hub writes to. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents one connected WebSocket client.
type Client struct {
	ID   string
	Room string
	Conn Conn
}

// outbound is one delivery order processed by the hub loop. A non-empty
// ClientID makes it a unicast to that connection; otherwise it fans out to
// Room, skipping ExcludeID if set.
type outbound struct {
	Room      string
	ClientID  string
	ExcludeID string
	Frame     Frame
}

// Hub routes frames to connections. All deliveries flow through a single run
// loop, which makes the hub the ordering authority: frames for one room reach
// every live recipient in the order they were issued. Delivery is best-effort;
// a write failure is logged and the frame is dropped for that connection.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	rooms      map[string]map[string]bool // room code -> set of clientIDs
	unregister chan *Client
	send       chan outbound
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		unregister: make(chan *Client),
		send:       make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.send:
			h.handleSend(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub. Insertion is synchronous: a frame read
// from the socket immediately after the upgrade can already bind the
// connection to a room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if client.Room != "" {
		if h.rooms[client.Room] == nil {
			h.rooms[client.Room] = make(map[string]bool)
		}
		h.rooms[client.Room][client.ID] = true
	}
	log.Printf("[hub] Client %s registered", client.ID)
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a frame for every connection joined to the room,
// skipping excludeID if non-empty.
func (h *Hub) Broadcast(room, excludeID string, frame Frame) {
	h.send <- outbound{Room: room, ExcludeID: excludeID, Frame: frame}
}

// Unicast queues a frame for a single connection. Direct replies take this
// path so they interleave with broadcasts in a single write order per
// connection.
func (h *Hub) Unicast(clientID string, frame Frame) {
	h.send <- outbound{ClientID: clientID, Frame: frame}
}

// JoinRoom binds a client to a room, leaving any previous room first.
func (h *Hub) JoinRoom(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	if client.Room != "" && h.rooms[client.Room] != nil {
		delete(h.rooms[client.Room], clientID)
		if len(h.rooms[client.Room]) == 0 {
			delete(h.rooms, client.Room)
		}
	}

	client.Room = room
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][clientID] = true
}

// LeaveRoom unbinds a client from its current room.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.Room == "" {
		return
	}

	if h.rooms[client.Room] != nil {
		delete(h.rooms[client.Room], clientID)
		if len(h.rooms[client.Room]) == 0 {
			delete(h.rooms, client.Room)
		}
	}
	client.Room = ""
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of connections bound to a room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[room]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if client.Room != "" && h.rooms[client.Room] != nil {
		delete(h.rooms[client.Room], client.ID)
		if len(h.rooms[client.Room]) == 0 {
			delete(h.rooms, client.Room)
		}
	}
	log.Printf("[hub] Client %s unregistered", client.ID)
}

func (h *Hub) handleSend(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.Frame)
	if err != nil {
		log.Printf("[hub] Failed to marshal frame: %v", err)
		return
	}

	if msg.ClientID != "" {
		if client, ok := h.clients[msg.ClientID]; ok {
			h.sendToClient(client, data)
		}
		return
	}

	clientIDs, ok := h.rooms[msg.Room]
	if !ok {
		return
	}
	for clientID := range clientIDs {
		if clientID == msg.ExcludeID {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}
