package rooms

import (
	"context"
	"strings"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger discards everything; handler tests care about responses and
// registry state, not log output.
type mockLogger struct{}

func (l *mockLogger) Debug(msg string, args ...any)         {}
func (l *mockLogger) Info(msg string, args ...any)          {}
func (l *mockLogger) Warn(msg string, args ...any)          {}
func (l *mockLogger) Error(msg string, args ...any)         {}
func (l *mockLogger) With(args ...any) types.Logger         { return l }
func (l *mockLogger) WithError(err error) types.Logger      { return l }
func (l *mockLogger) WithModule(module string) types.Logger { return l }

func newTestModule() *Module {
	return NewModule(&mockLogger{})
}

func TestHandleCreateRoom(t *testing.T) {
	m := newTestModule()

	resp, err := m.handleCreateRoom(context.Background(), CreateRoomRequest{Code: " ab12 "}, nil)
	if err != nil {
		t.Fatalf("handleCreateRoom() error: %v", err)
	}
	if resp.ErrorCode != "" {
		t.Fatalf("handleCreateRoom() error code = %q", resp.ErrorCode)
	}
	if resp.Code != "AB12" {
		t.Errorf("handleCreateRoom() code = %q, want AB12", resp.Code)
	}
	if !m.registry.Exists("AB12") {
		t.Error("room not registered after create")
	}
}

func TestHandleCreateRoom_InvalidCode(t *testing.T) {
	m := newTestModule()

	tests := []string{"", "AB", "TOOLONGCODE1", "AB!2"}
	for _, code := range tests {
		resp, err := m.handleCreateRoom(context.Background(), CreateRoomRequest{Code: code}, nil)
		if err != nil {
			t.Fatalf("handleCreateRoom(%q) error: %v", code, err)
		}
		if resp.ErrorCode != CodeInvalidRoomCode {
			t.Errorf("handleCreateRoom(%q) error code = %q, want %q", code, resp.ErrorCode, CodeInvalidRoomCode)
		}
	}
}

func TestHandleJoinRoom(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")

	resp, err := m.handleJoinRoom(context.Background(), JoinRoomRequest{
		Code:        "ab12",
		DisplayName: "  Alice  ",
		ClientID:    "c1",
	}, nil)
	if err != nil {
		t.Fatalf("handleJoinRoom() error: %v", err)
	}
	if resp.ErrorCode != "" {
		t.Fatalf("handleJoinRoom() error code = %q", resp.ErrorCode)
	}
	if resp.Count != 1 {
		t.Errorf("handleJoinRoom() count = %d, want 1", resp.Count)
	}
	// Display name is trimmed before entering the member set.
	if !m.registry.IsMember("AB12", "Alice") {
		t.Error("trimmed name not in member set")
	}
}

func TestHandleJoinRoom_Errors(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")

	tests := []struct {
		name     string
		req      JoinRoomRequest
		wantCode string
	}{
		{"unknown room", JoinRoomRequest{Code: "ZZZZ", DisplayName: "Alice"}, CodeRoomNotFound},
		{"invalid code", JoinRoomRequest{Code: "A", DisplayName: "Alice"}, CodeInvalidRoomCode},
		{"blank name", JoinRoomRequest{Code: "AB12", DisplayName: "   "}, CodeNameEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.handleJoinRoom(context.Background(), tt.req, nil)
			if err != nil {
				t.Fatalf("handleJoinRoom() error: %v", err)
			}
			if resp.ErrorCode != tt.wantCode {
				t.Errorf("handleJoinRoom() error code = %q, want %q", resp.ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestHandleLeaveRoom(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")
	_, _ = m.registry.Join("AB12", "Bob")

	resp, err := m.handleLeaveRoom(context.Background(), LeaveRoomRequest{
		Code:        "AB12",
		DisplayName: "Alice",
		ClientID:    "c1",
	}, nil)
	if err != nil {
		t.Fatalf("handleLeaveRoom() error: %v", err)
	}
	if resp.Count != 1 || resp.Dissolved {
		t.Errorf("handleLeaveRoom() = %+v, want count 1, not dissolved", resp)
	}

	resp, err = m.handleLeaveRoom(context.Background(), LeaveRoomRequest{
		Code:        "AB12",
		DisplayName: "Bob",
		ClientID:    "c2",
	}, nil)
	if err != nil {
		t.Fatalf("handleLeaveRoom() error: %v", err)
	}
	if !resp.Dissolved {
		t.Error("handleLeaveRoom() last member out did not dissolve room")
	}
	if m.registry.Exists("AB12") {
		t.Error("room still registered after dissolution")
	}
}

func TestHandleLeaveRoom_UnknownRoom(t *testing.T) {
	m := newTestModule()

	// Leaving a room that is already gone is not an error at this boundary.
	resp, err := m.handleLeaveRoom(context.Background(), LeaveRoomRequest{
		Code:        "ZZZZ",
		DisplayName: "Alice",
	}, nil)
	if err != nil {
		t.Fatalf("handleLeaveRoom() error: %v", err)
	}
	if resp.Count != 0 || resp.Dissolved {
		t.Errorf("handleLeaveRoom() = %+v, want zero response", resp)
	}
}

func TestHandleSendMessage(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")

	resp, err := m.handleSendMessage(context.Background(), SendMessageRequest{
		Code:        "AB12",
		DisplayName: "Alice",
		Text:        "  hello  ",
	}, nil)
	if err != nil {
		t.Fatalf("handleSendMessage() error: %v", err)
	}
	if resp.ErrorCode != "" {
		t.Fatalf("handleSendMessage() error code = %q", resp.ErrorCode)
	}
	if resp.Timestamp.IsZero() {
		t.Error("handleSendMessage() returned zero timestamp")
	}
}

func TestHandleSendMessage_Errors(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")

	tests := []struct {
		name     string
		req      SendMessageRequest
		wantCode string
	}{
		{"blank text", SendMessageRequest{Code: "AB12", DisplayName: "Alice", Text: "   "}, CodeEmptyMessage},
		{"too long", SendMessageRequest{Code: "AB12", DisplayName: "Alice", Text: strings.Repeat("x", MaxMessageLength+1)}, CodeMessageTooLong},
		{"not a member", SendMessageRequest{Code: "AB12", DisplayName: "Mallory", Text: "hi"}, CodeNotInRoom},
		{"unknown room", SendMessageRequest{Code: "ZZZZ", DisplayName: "Alice", Text: "hi"}, CodeRoomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.handleSendMessage(context.Background(), tt.req, nil)
			if err != nil {
				t.Fatalf("handleSendMessage() error: %v", err)
			}
			if resp.ErrorCode != tt.wantCode {
				t.Errorf("handleSendMessage() error code = %q, want %q", resp.ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestHandleSendMessage_MaxLengthAccepted(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")

	resp, err := m.handleSendMessage(context.Background(), SendMessageRequest{
		Code:        "AB12",
		DisplayName: "Alice",
		Text:        strings.Repeat("x", MaxMessageLength),
	}, nil)
	if err != nil {
		t.Fatalf("handleSendMessage() error: %v", err)
	}
	if resp.ErrorCode != "" {
		t.Errorf("handleSendMessage() at max length error code = %q", resp.ErrorCode)
	}
}

func TestHandleTyping(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")

	resp, err := m.handleTyping(context.Background(), TypingRequest{
		Code:        "AB12",
		DisplayName: "Alice",
		ClientID:    "c1",
		IsTyping:    true,
	}, nil)
	if err != nil {
		t.Fatalf("handleTyping() error: %v", err)
	}
	if !resp.Delivered {
		t.Error("handleTyping() delivered = false for member")
	}

	// Non-members and unknown rooms are dropped quietly.
	resp, err = m.handleTyping(context.Background(), TypingRequest{
		Code:        "AB12",
		DisplayName: "Mallory",
		IsTyping:    true,
	}, nil)
	if err != nil {
		t.Fatalf("handleTyping() error: %v", err)
	}
	if resp.Delivered {
		t.Error("handleTyping() delivered = true for non-member")
	}

	resp, err = m.handleTyping(context.Background(), TypingRequest{
		Code:        "ZZZZ",
		DisplayName: "Alice",
		IsTyping:    true,
	}, nil)
	if err != nil {
		t.Fatalf("handleTyping() error: %v", err)
	}
	if resp.Delivered {
		t.Error("handleTyping() delivered = true for unknown room")
	}
}

func TestHandleRoomInfo(t *testing.T) {
	m := newTestModule()
	m.registry.Create("AB12")
	_, _ = m.registry.Join("AB12", "Alice")
	_, _ = m.registry.Join("AB12", "Bob")

	resp, err := m.handleRoomInfo(context.Background(), RoomInfoRequest{Code: "ab12"}, nil)
	if err != nil {
		t.Fatalf("handleRoomInfo() error: %v", err)
	}
	if !resp.Exists || resp.Count != 2 {
		t.Errorf("handleRoomInfo() = %+v, want exists with count 2", resp)
	}

	resp, err = m.handleRoomInfo(context.Background(), RoomInfoRequest{Code: "ZZZZ"}, nil)
	if err != nil {
		t.Fatalf("handleRoomInfo() error: %v", err)
	}
	if resp.Exists || resp.Count != 0 {
		t.Errorf("handleRoomInfo() = %+v, want absent with count 0", resp)
	}
}
