package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/ephemeral-chat/events"
)

// Module consumes room events from the event bus and fans them out to
// WebSocket clients through the hub.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start launches the hub loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the hub and closes all client connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageBroadcastV1, m.handleMessageBroadcast, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageBroadcast consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PresenceUpdatedV1, m.handlePresenceUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register PresenceUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserTypingV1, m.handleUserTyping, m,
	); err != nil {
		return fmt.Errorf("failed to register UserTyping consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageBroadcast, PresenceUpdated, UserTyping")
	return nil
}

// GetHub returns the hub for the API module to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}

// ReceiveMessagePayload is the receive-message wire payload. Timestamps go
// out as epoch milliseconds.
type ReceiveMessagePayload struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Kind      string `json:"kind"`
}

// UserTypingPayload is the user-typing wire payload.
type UserTypingPayload struct {
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}

// RoomUsersUpdatePayload is the room-users-update wire payload.
type RoomUsersUpdatePayload struct {
	Count int `json:"count"`
}

func (m *Module) handleMessageBroadcast(_ context.Context, event events.MessageBroadcastEvent, _ *mono.Msg) error {
	frame, err := NewFrame(EventReceiveMessage, ReceiveMessagePayload{
		Sender:    event.Sender,
		Text:      event.Text,
		Timestamp: event.Timestamp.UnixMilli(),
		Kind:      event.Kind,
	})
	if err != nil {
		log.Printf("[broadcast] Failed to build receive-message frame: %v", err)
		return nil
	}
	m.hub.Broadcast(event.Room, event.ExcludeID, frame)
	return nil
}

func (m *Module) handlePresenceUpdated(_ context.Context, event events.PresenceUpdatedEvent, _ *mono.Msg) error {
	frame, err := NewFrame(EventRoomUsersUpdate, RoomUsersUpdatePayload{Count: event.Count})
	if err != nil {
		log.Printf("[broadcast] Failed to build room-users-update frame: %v", err)
		return nil
	}
	m.hub.Broadcast(event.Room, event.ExcludeID, frame)
	return nil
}

func (m *Module) handleUserTyping(_ context.Context, event events.UserTypingEvent, _ *mono.Msg) error {
	frame, err := NewFrame(EventUserTyping, UserTypingPayload{
		DisplayName: event.DisplayName,
		IsTyping:    event.IsTyping,
	})
	if err != nil {
		log.Printf("[broadcast] Failed to build user-typing frame: %v", err)
		return nil
	}
	m.hub.Broadcast(event.Room, event.ExcludeID, frame)
	return nil
}
