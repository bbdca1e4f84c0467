package rooms

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Room code boundary format: 4-8 characters, case-insensitive, normalized to
// upper-case before any registry lookup.
const (
	MinRoomCodeLength = 4
	MaxRoomCodeLength = 8
)

// MaxMessageLength caps user message text at the boundary.
const MaxMessageLength = 4096

// Client-correctable error conditions. The coordinator reports these back to
// the offending connection and takes no destructive action; none of them is
// fatal to the process.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotInRoom       = errors.New("not a member of the room")
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrNameEmpty       = errors.New("display name cannot be empty")
)

// NormalizeRoomCode upper-cases a room code. Every lookup goes through this
// first so codes are case-insensitive at the boundary.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks the boundary format of a normalized room code.
func ValidateRoomCode(code string) error {
	if len(code) < MinRoomCodeLength || len(code) > MaxRoomCodeLength {
		return ErrInvalidRoomCode
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return ErrInvalidRoomCode
		}
	}
	return nil
}

// Request-reply service names registered in the service container.
const (
	ServiceCreateRoom  = "create-room"
	ServiceJoinRoom    = "join-room"
	ServiceLeaveRoom   = "leave-room"
	ServiceSendMessage = "send-message"
	ServiceTyping      = "typing"
	ServiceRoomInfo    = "room-info"
)

// Error codes carried in service responses so callers on the other side of
// the request-reply boundary can map them back to sentinel errors.
const (
	CodeRoomNotFound    = "room_not_found"
	CodeNotInRoom       = "not_in_room"
	CodeEmptyMessage    = "empty_message"
	CodeMessageTooLong  = "message_too_long"
	CodeInvalidRoomCode = "invalid_room_code"
	CodeNameEmpty       = "name_empty"
)

// ErrorCode maps a sentinel error to its wire code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, ErrNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, ErrEmptyMessage):
		return CodeEmptyMessage
	case errors.Is(err, ErrMessageTooLong):
		return CodeMessageTooLong
	case errors.Is(err, ErrInvalidRoomCode):
		return CodeInvalidRoomCode
	case errors.Is(err, ErrNameEmpty):
		return CodeNameEmpty
	default:
		return "internal"
	}
}

// CodeToError maps a service response error code back to its sentinel error.
func CodeToError(code string) error {
	switch code {
	case "":
		return nil
	case CodeRoomNotFound:
		return ErrRoomNotFound
	case CodeNotInRoom:
		return ErrNotInRoom
	case CodeEmptyMessage:
		return ErrEmptyMessage
	case CodeMessageTooLong:
		return ErrMessageTooLong
	case CodeInvalidRoomCode:
		return ErrInvalidRoomCode
	case CodeNameEmpty:
		return ErrNameEmpty
	default:
		return fmt.Errorf("rooms: service error %q", code)
	}
}

// CreateRoomRequest registers a room code.
type CreateRoomRequest struct {
	Code string `json:"code"`
}

// CreateRoomResponse acknowledges creation with the normalized code.
type CreateRoomResponse struct {
	Code      string `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
}

// JoinRoomRequest adds a display name to a room's member set. ClientID is the
// joiner's connection, excluded from the join notice broadcast.
type JoinRoomRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	ClientID    string `json:"client_id"`
}

// JoinRoomResponse carries the member count after the join.
type JoinRoomResponse struct {
	Count     int    `json:"count"`
	ErrorCode string `json:"error_code,omitempty"`
}

// LeaveRoomRequest removes a display name from a room's member set.
type LeaveRoomRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	ClientID    string `json:"client_id"`
}

// LeaveRoomResponse carries the member count after the leave and whether the
// room was dissolved.
type LeaveRoomResponse struct {
	Count     int  `json:"count"`
	Dissolved bool `json:"dissolved"`
}

// SendMessageRequest posts a user message to a room.
type SendMessageRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

// SendMessageResponse carries the coordinator-assigned timestamp.
type SendMessageResponse struct {
	Timestamp time.Time `json:"timestamp"`
	ErrorCode string    `json:"error_code,omitempty"`
}

// TypingRequest signals a typing state change.
type TypingRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	ClientID    string `json:"client_id"`
	IsTyping    bool   `json:"is_typing"`
}

// TypingResponse reports whether the signal was forwarded. Typing against a
// dissolved room is dropped, not an error.
type TypingResponse struct {
	Delivered bool `json:"delivered"`
}

// RoomInfoRequest queries a room's registration and member count.
type RoomInfoRequest struct {
	Code string `json:"code"`
}

// RoomInfoResponse reports registration state and current member count.
type RoomInfoResponse struct {
	Exists bool `json:"exists"`
	Count  int  `json:"count"`
}
