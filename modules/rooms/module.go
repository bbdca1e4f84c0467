package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/events"
)

// Module owns the room registry and exposes the coordinator operations as
// request-reply services. All room-visible effects of those operations are
// published on the event bus for the broadcast module to fan out.
type Module struct {
	registry *Registry
	tracker  *Tracker
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates the rooms module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		registry: NewRegistry(),
		tracker:  NewTracker(logger),
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	m.tracker.SetBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageBroadcastV1.ToBase(),
		events.PresenceUpdatedV1.ToBase(),
		events.UserTypingV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]func() error{
		ServiceCreateRoom: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.handleCreateRoom)
		},
		ServiceJoinRoom: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceJoinRoom, json.Unmarshal, json.Marshal, m.handleJoinRoom)
		},
		ServiceLeaveRoom: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceLeaveRoom, json.Unmarshal, json.Marshal, m.handleLeaveRoom)
		},
		ServiceSendMessage: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceSendMessage, json.Unmarshal, json.Marshal, m.handleSendMessage)
		},
		ServiceTyping: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceTyping, json.Unmarshal, json.Marshal, m.handleTyping)
		},
		ServiceRoomInfo: func() error {
			return helper.RegisterTypedRequestReplyService(
				container, ServiceRoomInfo, json.Unmarshal, json.Marshal, m.handleRoomInfo)
		},
	}

	for name, register := range services {
		if err := register(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}

	m.logger.Info("Registered room coordination services")
	return nil
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Rooms module started")
	return nil
}

// Stop shuts down the module. Rooms are memory-only and simply vanish.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Rooms module stopped")
	return nil
}

// Registry exposes the registry for in-process callers and tests.
func (m *Module) Registry() *Registry {
	return m.registry
}

// handleCreateRoom registers a room code. Creation does not join the creator;
// a room must exist before anyone occupies it.
func (m *Module) handleCreateRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	code := NormalizeRoomCode(req.Code)
	if err := ValidateRoomCode(code); err != nil {
		return CreateRoomResponse{ErrorCode: ErrorCode(err)}, nil
	}

	m.registry.Create(code)
	m.logger.Info("Room created", "code", code)
	return CreateRoomResponse{Code: code}, nil
}

// handleJoinRoom adds a member, announces the join to the rest of the room,
// and publishes the new count to the whole room including the joiner.
func (m *Module) handleJoinRoom(_ context.Context, req JoinRoomRequest, _ *mono.Msg) (JoinRoomResponse, error) {
	code := NormalizeRoomCode(req.Code)
	if err := ValidateRoomCode(code); err != nil {
		return JoinRoomResponse{ErrorCode: ErrorCode(err)}, nil
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return JoinRoomResponse{ErrorCode: CodeNameEmpty}, nil
	}

	count, err := m.registry.Join(code, name)
	if err != nil {
		return JoinRoomResponse{ErrorCode: ErrorCode(err)}, nil
	}

	m.publishMessage(events.MessageBroadcastEvent{
		Room:      code,
		Sender:    room.SystemSender,
		Text:      name + " joined the chat.",
		Timestamp: m.registry.Stamp(code),
		Kind:      room.KindSystem,
		ExcludeID: req.ClientID,
	})
	m.tracker.Publish(code, count, "")

	m.logger.Info("Member joined room", "code", code, "name", name, "count", count)
	return JoinRoomResponse{Count: count}, nil
}

// handleLeaveRoom removes a member. If the room survives, the remaining
// members get a left notice and the new count; if it dissolved there is
// nobody left to tell.
func (m *Module) handleLeaveRoom(_ context.Context, req LeaveRoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	code := NormalizeRoomCode(req.Code)
	name := strings.TrimSpace(req.DisplayName)

	count, dissolved, err := m.registry.Leave(code, name)
	if err != nil {
		// Room already gone; nothing to announce.
		return LeaveRoomResponse{}, nil
	}

	if dissolved {
		m.logger.Info("Room dissolved", "code", code)
		return LeaveRoomResponse{Dissolved: true}, nil
	}

	m.publishMessage(events.MessageBroadcastEvent{
		Room:      code,
		Sender:    room.SystemSender,
		Text:      name + " left the chat.",
		Timestamp: m.registry.Stamp(code),
		Kind:      room.KindSystem,
		ExcludeID: req.ClientID,
	})
	m.tracker.Publish(code, count, req.ClientID)

	m.logger.Info("Member left room", "code", code, "name", name, "count", count)
	return LeaveRoomResponse{Count: count}, nil
}

// handleSendMessage validates membership, trims the text, stamps it from the
// room's monotonic clock and broadcasts to the whole room including the
// sender.
func (m *Module) handleSendMessage(_ context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return SendMessageResponse{ErrorCode: CodeEmptyMessage}, nil
	}
	if len(text) > MaxMessageLength {
		return SendMessageResponse{ErrorCode: CodeMessageTooLong}, nil
	}

	code := NormalizeRoomCode(req.Code)
	ts, err := m.registry.StampMessage(code, req.DisplayName)
	if err != nil {
		return SendMessageResponse{ErrorCode: ErrorCode(err)}, nil
	}

	m.publishMessage(events.MessageBroadcastEvent{
		Room:      code,
		Sender:    req.DisplayName,
		Text:      text,
		Timestamp: ts,
		Kind:      room.KindUser,
	})

	m.logger.Debug("Message sent", "code", code, "sender", req.DisplayName)
	return SendMessageResponse{Timestamp: ts}, nil
}

// handleTyping forwards a typing signal to the rest of the room. Signals
// against a dissolved room or from a non-member are dropped silently.
func (m *Module) handleTyping(_ context.Context, req TypingRequest, _ *mono.Msg) (TypingResponse, error) {
	code := NormalizeRoomCode(req.Code)
	if !m.registry.IsMember(code, req.DisplayName) {
		return TypingResponse{}, nil
	}

	m.publishTyping(events.UserTypingEvent{
		Room:        code,
		DisplayName: req.DisplayName,
		IsTyping:    req.IsTyping,
		ExcludeID:   req.ClientID,
	})
	return TypingResponse{Delivered: true}, nil
}

// handleRoomInfo reports registration state and member count.
func (m *Module) handleRoomInfo(_ context.Context, req RoomInfoRequest, _ *mono.Msg) (RoomInfoResponse, error) {
	code := NormalizeRoomCode(req.Code)
	count, ok := m.registry.Count(code)
	return RoomInfoResponse{Exists: ok, Count: count}, nil
}

func (m *Module) publishMessage(ev events.MessageBroadcastEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.MessageBroadcastV1.Publish(m.eventBus, ev, nil); err != nil {
		m.logger.Warn("failed to publish message broadcast", "room", ev.Room, "error", err)
	}
}

func (m *Module) publishTyping(ev events.UserTypingEvent) {
	if m.eventBus == nil {
		return
	}
	if err := events.UserTypingV1.Publish(m.eventBus, ev, nil); err != nil {
		m.logger.Warn("failed to publish typing signal", "room", ev.Room, "error", err)
	}
}
