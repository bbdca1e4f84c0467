package room

import "time"

// Message kinds. System messages are coordinator-synthesized join/leave
// notices and are never attributable to a real sender.
const (
	KindUser   = "user"
	KindSystem = "system"
)

// SystemSender is the reserved sender name used for system notices.
const SystemSender = "System"

// Room is a named, ephemeral broadcast domain.
type Room struct {
	Code    string `json:"code"`
	Members int    `json:"members"`
}

// Member is a display name bound to one connection's participation in one room.
type Member struct {
	DisplayName string `json:"display_name"`
	Room        string `json:"room"`
}

// Message is a single user or system message. Messages exist only for the
// duration of one broadcast; there is no history buffer.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
}

// TypingSignal is a transient typing state change. The coordinator never
// retains or times out typing state.
type TypingSignal struct {
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}
