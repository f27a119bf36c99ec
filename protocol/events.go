package protocol

import (
	"encoding/json"
	"time"
)

// EventType identifies the type of a WebSocket event.
type EventType string

// Client -> Server
const (
	TypeTyping      EventType = "typing"
	TypeStopTyping  EventType = "stop-typing"
	TypeSendDirect  EventType = "send-direct-message"
	TypeSendGroup   EventType = "send-group-message"
	TypeMarkRead    EventType = "mark-read"
	TypeReact       EventType = "react"
	TypeUnsend      EventType = "unsend"
	TypeJoinGroup   EventType = "join-group"
	TypeLeaveGroup  EventType = "leave-group"
	TypeGlobalInput EventType = "global-message"
)

// Server -> Client
const (
	TypeNewMessage      EventType = "new-message"
	TypeMessagesRead    EventType = "messages-read"
	TypeMessageReaction EventType = "message-reaction"
	TypeMessageUnsent   EventType = "message-unsent"
	TypeUserOnline      EventType = "user-online"
	TypeUserOffline     EventType = "user-offline"
	TypeGlobalCount     EventType = "global-online-count"
	TypeFriendRequest   EventType = "friend-request"
	TypeFriendAccepted  EventType = "friend-accepted"
	TypeError           EventType = "error"
)

// Envelope wraps every WebSocket frame with a type tag.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TypingEvent asks the server to relay a typing signal. The server keeps
// no typing state and never auto-stops; the client must send the matching
// stop-typing itself after its inactivity window.
type TypingEvent struct {
	To uint `json:"to"`
}

// SendDirectEvent carries a direct message to a friend.
type SendDirectEvent struct {
	To      uint   `json:"to"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"` // text | voice | image, 默认 text
}

// SendGroupEvent carries a message to a group the sender belongs to.
type SendGroupEvent struct {
	GroupID uint   `json:"group_id"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

// MarkReadEvent flips every unread message in one conversation.
type MarkReadEvent struct {
	ConversationWith uint `json:"conversation_with"`
}

// ReactEvent appends one reaction to a message.
type ReactEvent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// UnsendEvent retracts a message the sender previously sent.
type UnsendEvent struct {
	MessageID string `json:"message_id"`
}

// GroupRoomEvent joins or leaves a group's fan-out room. Room membership
// is ephemeral and never trusted as authorization by itself.
type GroupRoomEvent struct {
	GroupID uint `json:"group_id"`
}

// GlobalMessageEvent is broadcast to the global room, unpersisted.
type GlobalMessageEvent struct {
	Text string `json:"text"`
}

// NewMessagePayload is the canonical record fanned out after persistence.
type NewMessagePayload struct {
	MessageID string    `json:"message_id"`
	Sender    uint      `json:"sender"`
	Receiver  uint      `json:"receiver,omitempty"`
	GroupID   uint      `json:"group_id,omitempty"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesReadPayload struct {
	By uint `json:"by"`
}

type MessageReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	By        uint   `json:"by"`
}

// MessageUnsentPayload is a tombstone: receivers remove the message from
// view entirely, they do not mark it deleted.
type MessageUnsentPayload struct {
	MessageID string `json:"message_id"`
}

type UserOnlinePayload struct {
	UserID uint `json:"user_id"`
}

type UserOfflinePayload struct {
	UserID   uint      `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// GlobalCountPayload counts live connections, not identities, so a user
// on two devices counts twice.
type GlobalCountPayload struct {
	Count int `json:"count"`
}

type TypingPayload struct {
	From uint `json:"from"`
}

type GlobalBroadcastPayload struct {
	From     uint      `json:"from"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

type FriendRequestPayload struct {
	FromID   uint   `json:"from_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type FriendAcceptedPayload struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEnvelope marshals data under the given type tag.
func NewEnvelope(eventType EventType, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: eventType, Data: raw}, nil
}

// Encode marshals a complete frame ready for the wire.
func Encode(eventType EventType, data interface{}) ([]byte, error) {
	env, err := NewEnvelope(eventType, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
