package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/ephemeral-chat/modules/broadcast"
	"github.com/example/ephemeral-chat/modules/rooms"
)

// hubSender routes a session's direct replies through the hub loop so they
// share one write order with room broadcasts on the same connection.
type hubSender struct {
	hub      *broadcast.Hub
	clientID string
}

func (s hubSender) Send(frame broadcast.Frame) {
	s.hub.Unicast(s.clientID, frame)
}

// handleWebSocket owns one connection for its whole lifetime: registers it
// with the hub, runs the read loop through the session state machine, and
// guarantees the disconnect cleanup path runs when the loop exits.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()
	client := &broadcast.Client{ID: clientID, Conn: c}
	m.hub.Register(client)

	session := NewSession(clientID, m.roomsPort, m.hub, hubSender{hub: m.hub, clientID: clientID}, m.logger)
	defer func() {
		session.Close(context.Background())
		m.hub.Unregister(client)
		m.logger.Info("WebSocket client disconnected", "clientID", clientID)
	}()

	m.logger.Info("WebSocket client connected", "clientID", clientID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "clientID", clientID, "error", err)
			}
			break
		}

		var frame broadcast.Frame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			errFrame, ferr := broadcast.NewFrame(broadcast.EventRoomError, ErrorPayload{Message: "Invalid frame."})
			if ferr == nil {
				m.hub.Unicast(clientID, errFrame)
			}
			continue
		}

		session.HandleFrame(context.Background(), frame)
	}
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// generateRoomCode handles POST /api/v1/rooms/code. It hands out a fresh
// code without registering it; registration happens over the socket.
func (m *Module) generateRoomCode(c *fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(RoomCodeResponse{
		Code: rooms.GenerateRoomCode(),
	})
}

// peekRoom handles GET /api/v1/rooms/:code, letting a join page validate a
// code before opening a socket.
func (m *Module) peekRoom(c *fiber.Ctx) error {
	code := rooms.NormalizeRoomCode(c.Params("code"))
	if err := rooms.ValidateRoomCode(code); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_code",
			Message: "Room code must be 4 to 8 letters or digits",
		})
	}

	count, exists, err := m.roomsPort.RoomInfo(c.UserContext(), code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to look up room",
		})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	return c.JSON(RoomResponse{Code: code, Members: count})
}
