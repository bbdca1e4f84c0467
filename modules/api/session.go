package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/ephemeral-chat/modules/broadcast"
	"github.com/example/ephemeral-chat/modules/rooms"
)

// Wire error messages for client-correctable conditions.
const (
	msgInvalidRoomCode = "Room code must be 4 to 8 letters or digits."
	msgRoomInvalid     = "Invalid room code. Please use a generated room code."
	msgNameRequired    = "Display name is required."
	msgNotInRoom       = "Join a room first."
	msgSendInvalidRoom = "Cannot send message to invalid room."
	msgEmptyMessage    = "Message text cannot be empty."
	msgMessageTooLong  = "Message is too long."
)

// sender delivers direct replies to the session's own connection.
type sender interface {
	Send(frame broadcast.Frame)
}

// roomHub is the subset of the broadcast hub the session drives: binding and
// unbinding its connection for room fan-out.
type roomHub interface {
	JoinRoom(clientID, room string)
	LeaveRoom(clientID string)
}

// Session is the per-connection state machine. It interprets inbound frames,
// drives the rooms coordinator, and sends direct replies. Two states are
// observable: unjoined (room == "") and joined. All room-visible effects of
// its actions reach clients through the event bus and hub, never from here.
type Session struct {
	clientID string
	port     rooms.Port
	hub      roomHub
	out      sender
	logger   types.Logger

	mu   sync.Mutex
	room string
	name string
}

// NewSession creates the session for one connection, initially unjoined.
func NewSession(clientID string, port rooms.Port, hub roomHub, out sender, logger types.Logger) *Session {
	return &Session{
		clientID: clientID,
		port:     port,
		hub:      hub,
		out:      out,
		logger:   logger,
	}
}

// HandleFrame interprets one inbound frame. Unknown events get an error reply
// rather than being silently dropped.
func (s *Session) HandleFrame(ctx context.Context, frame broadcast.Frame) {
	switch frame.Event {
	case broadcast.EventCreateRoom:
		s.handleCreateRoom(ctx, frame.Payload)
	case broadcast.EventJoinRoom:
		s.handleJoinRoom(ctx, frame.Payload)
	case broadcast.EventSendMessage:
		s.handleSendMessage(ctx, frame.Payload)
	case broadcast.EventTyping:
		s.handleTyping(ctx, frame.Payload)
	case broadcast.EventLeaveRoom:
		s.handleLeaveRoom(ctx)
	default:
		s.sendError(broadcast.EventRoomError, "Unknown event: "+frame.Event)
	}
}

// Close runs the disconnect cleanup path. Safe to call more than once and
// concurrently with an explicit leave; the membership is released exactly
// once.
func (s *Session) Close(ctx context.Context) {
	s.leaveCurrent(ctx)
}

// handleCreateRoom registers a code and acks it. Creation never joins the
// creator; create and join are independent operations.
func (s *Session) handleCreateRoom(ctx context.Context, payload json.RawMessage) {
	var p CreateRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(broadcast.EventRoomError, "Invalid create-room payload.")
		return
	}

	code := rooms.NormalizeRoomCode(p.Code)
	if err := rooms.ValidateRoomCode(code); err != nil {
		s.sendError(broadcast.EventRoomError, msgInvalidRoomCode)
		return
	}

	created, err := s.port.CreateRoom(ctx, code)
	if err != nil {
		s.logger.Error("create-room failed", "code", code, "error", err)
		s.sendError(broadcast.EventRoomError, "Failed to create room.")
		return
	}

	s.send(broadcast.EventRoomCreated, RoomCreatedPayload{Code: created})
}

// handleJoinRoom validates the code, abandons any current room, and joins.
// On failure the session stays unjoined and the caller is told why.
func (s *Session) handleJoinRoom(ctx context.Context, payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(broadcast.EventRoomError, "Invalid join-room payload.")
		return
	}

	code := rooms.NormalizeRoomCode(p.Room)
	if err := rooms.ValidateRoomCode(code); err != nil {
		s.sendError(broadcast.EventRoomError, msgInvalidRoomCode)
		return
	}

	// The registry stores the trimmed name; keep the same form here so later
	// membership checks agree.
	name := strings.TrimSpace(p.Name)

	// Re-sending join-room for the current room is a harmless re-add: the
	// registry join is idempotent and the notice and count simply broadcast
	// again. Only a join to a different room abandons the prior one first;
	// leaving unconditionally would let a sole member dissolve their own
	// room by rejoining it.
	current, _ := s.binding()
	sameRoom := current == code

	if !sameRoom {
		s.leaveCurrent(ctx)

		// Bind the connection to the room before the registry join so the
		// joiner receives the presence update its own join triggers. The
		// join notice excludes this connection by ID.
		s.hub.JoinRoom(s.clientID, code)
	}

	count, err := s.port.JoinRoom(ctx, code, name, s.clientID)
	if err != nil {
		// The target room is unjoinable (or dissolved out from under a
		// same-room rejoin); return to the unjoined state either way.
		s.mu.Lock()
		s.room, s.name = "", ""
		s.mu.Unlock()
		s.hub.LeaveRoom(s.clientID)
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound), errors.Is(err, rooms.ErrInvalidRoomCode):
			s.sendError(broadcast.EventRoomError, msgRoomInvalid)
		case errors.Is(err, rooms.ErrNameEmpty):
			s.sendError(broadcast.EventRoomError, msgNameRequired)
		default:
			s.logger.Error("join-room failed", "code", code, "error", err)
			s.sendError(broadcast.EventRoomError, "Failed to join room.")
		}
		return
	}

	s.mu.Lock()
	s.room = code
	s.name = name
	s.mu.Unlock()

	s.logger.Info("session joined room", "clientID", s.clientID, "code", code, "count", count)
}

// handleSendMessage posts a user message from the bound room state. The
// payload's room field is ignored; the session is the source of truth.
func (s *Session) handleSendMessage(ctx context.Context, payload json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(broadcast.EventMessageError, "Invalid send-message payload.")
		return
	}

	code, name := s.binding()
	if code == "" {
		s.sendError(broadcast.EventMessageError, msgNotInRoom)
		return
	}

	if _, err := s.port.SendMessage(ctx, code, name, p.Message); err != nil {
		switch {
		case errors.Is(err, rooms.ErrEmptyMessage):
			s.sendError(broadcast.EventMessageError, msgEmptyMessage)
		case errors.Is(err, rooms.ErrMessageTooLong):
			s.sendError(broadcast.EventMessageError, msgMessageTooLong)
		case errors.Is(err, rooms.ErrRoomNotFound), errors.Is(err, rooms.ErrNotInRoom):
			// The room dissolved between join and send.
			s.sendError(broadcast.EventMessageError, msgSendInvalidRoom)
		default:
			s.logger.Error("send-message failed", "code", code, "error", err)
			s.sendError(broadcast.EventMessageError, "Failed to send message.")
		}
	}
}

// handleTyping forwards a typing signal. Signals from an unjoined session or
// into a dissolved room are dropped without an error.
func (s *Session) handleTyping(ctx context.Context, payload json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}

	code, name := s.binding()
	if code == "" {
		return
	}

	if err := s.port.Typing(ctx, code, name, s.clientID, p.IsTyping); err != nil {
		s.logger.Warn("typing signal failed", "code", code, "error", err)
	}
}

// handleLeaveRoom performs an explicit leave, returning the session to the
// unjoined state. There is no wire acknowledgment for leaving.
func (s *Session) handleLeaveRoom(ctx context.Context) {
	s.leaveCurrent(ctx)
}

// leaveCurrent releases the bound membership at most once. The binding is
// cleared under the lock before any cleanup runs, so a concurrent disconnect
// and explicit leave cannot both reach the registry.
func (s *Session) leaveCurrent(ctx context.Context) {
	s.mu.Lock()
	code, name := s.room, s.name
	s.room, s.name = "", ""
	s.mu.Unlock()

	if code == "" {
		return
	}

	s.hub.LeaveRoom(s.clientID)
	if _, _, err := s.port.LeaveRoom(ctx, code, name, s.clientID); err != nil {
		s.logger.Warn("leave-room failed", "code", code, "error", err)
	}
}

func (s *Session) binding() (code, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.name
}

func (s *Session) send(event string, payload any) {
	frame, err := broadcast.NewFrame(event, payload)
	if err != nil {
		s.logger.Error("failed to build frame", "event", event, "error", err)
		return
	}
	s.out.Send(frame)
}

func (s *Session) sendError(event, message string) {
	s.send(event, ErrorPayload{Message: message})
}
