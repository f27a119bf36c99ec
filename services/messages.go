package services

import (
	"fmt"
	"log"
	"time"

	"messenger/models"
	"messenger/protocol"
	"messenger/repository"

	"github.com/google/uuid"
)

// MessageRouter 校验、落库、再扇出。广播永远发生在成功落库之后，
// 不会出现库里不存在却被接收方看到的消息。
type MessageRouter struct {
	hub      *Hub
	users    repository.UserRepository
	messages repository.MessageRepository
	groups   repository.GroupRepository
}

func NewMessageRouter(hub *Hub, users repository.UserRepository, messages repository.MessageRepository, groups repository.GroupRepository) *MessageRouter {
	return &MessageRouter{hub: hub, users: users, messages: messages, groups: groups}
}

// SendDirect 发私聊。好友关系在发送时刻重新读库判定，不用缓存。
// 成功后把同一条记录扇出到接收方房间和发送方自己的房间（多端回显）。
func (r *MessageRouter) SendDirect(senderID uint, ev protocol.SendDirectEvent) (*models.Message, error) {
	if ev.Content == "" {
		return nil, ErrEmptyContent
	}
	kind := ev.Kind
	if kind == "" {
		kind = models.KindText
	}

	ok, err := r.users.AreFriends(senderID, ev.To)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if !ok {
		return nil, ErrNotFriends
	}

	message := &models.Message{
		MessageID:  uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: ev.To,
		Content:    ev.Content,
		Kind:       kind,
		IsRead:     false,
		Unsent:     false,
		CreatedAt:  time.Now(),
	}
	if err := r.messages.Create(message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	r.fanOut(message, []string{UserRoom(ev.To), UserRoom(senderID)})
	return message, nil
}

// SendGroup 发群聊。群成员资格同样以发送时刻的成员表为准，
// 房间订阅本身不代表权限。
func (r *MessageRouter) SendGroup(senderID uint, ev protocol.SendGroupEvent) (*models.Message, error) {
	if ev.Content == "" {
		return nil, ErrEmptyContent
	}
	kind := ev.Kind
	if kind == "" {
		kind = models.KindText
	}

	ok, err := r.groups.IsMember(ev.GroupID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}

	message := &models.Message{
		MessageID: uuid.New().String(),
		SenderID:  senderID,
		GroupID:   ev.GroupID,
		Content:   ev.Content,
		Kind:      kind,
		Unsent:    false,
		CreatedAt: time.Now(),
	}
	if err := r.messages.Create(message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	r.fanOut(message, []string{GroupRoom(ev.GroupID), UserRoom(senderID)})
	return message, nil
}

func (r *MessageRouter) fanOut(message *models.Message, rooms []string) {
	payload := protocol.NewMessagePayload{
		MessageID: message.MessageID,
		Sender:    message.SenderID,
		Receiver:  message.ReceiverID,
		GroupID:   message.GroupID,
		Content:   message.Content,
		Kind:      message.Kind,
		CreatedAt: message.CreatedAt,
	}
	data, err := protocol.Encode(protocol.TypeNewMessage, payload)
	if err != nil {
		log.Printf("Failed to encode new-message event: %v", err)
		return
	}
	r.hub.BroadcastRooms(rooms, data)
}
