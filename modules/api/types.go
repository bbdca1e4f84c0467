package api

// CreateRoomPayload is the create-room inbound payload.
type CreateRoomPayload struct {
	Code string `json:"code"`
}

// JoinRoomPayload is the join-room inbound payload.
type JoinRoomPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// SendMessagePayload is the send-message inbound payload. The room field is
// accepted for wire compatibility but the session's bound room is
// authoritative.
type SendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// TypingPayload is the typing inbound payload.
type TypingPayload struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

// LeaveRoomPayload is the leave-room inbound payload.
type LeaveRoomPayload struct {
	Room string `json:"room"`
}

// RoomCreatedPayload acknowledges room creation to the requester.
type RoomCreatedPayload struct {
	Code string `json:"code"`
}

// ErrorPayload carries a client-correctable error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomCodeResponse is the REST response for a generated room code.
type RoomCodeResponse struct {
	Code string `json:"code"`
}

// RoomResponse is the REST response for a room peek.
type RoomResponse struct {
	Code    string `json:"code"`
	Members int    `json:"members"`
}

// ErrorResponse is the REST error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the REST health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
