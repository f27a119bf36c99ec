package services

import (
	"errors"
	"fmt"
	"time"

	"messenger/models"
	"messenger/protocol"
	"messenger/repository"

	"gorm.io/gorm"
)

// ReactionService 处理表情回应和撤回
type ReactionService struct {
	hub      *Hub
	messages repository.MessageRepository
}

func NewReactionService(hub *Hub, messages repository.MessageRepository) *ReactionService {
	return &ReactionService{hub: hub, messages: messages}
}

// React 追加一条回应并把增量广播给会话参与方。除了在线这个前提外
// 没有好友/群成员校验，允许重复回应 —— 与参照行为一致。
func (s *ReactionService) React(actorID uint, ev protocol.ReactEvent) error {
	message, err := s.lookup(ev.MessageID)
	if err != nil {
		return err
	}
	if message.Unsent {
		// 撤回的消息对所有人不可见，也就无从回应
		return ErrNotFound
	}

	reaction := &models.Reaction{
		MessageID: message.MessageID,
		UserID:    actorID,
		Emoji:     ev.Emoji,
		CreatedAt: time.Now(),
	}
	// 只插入不更新，两个并发回应都能落下，不会互相覆盖
	if err := s.messages.AddReaction(reaction); err != nil {
		return fmt.Errorf("failed to persist reaction: %w", err)
	}

	s.broadcastToParticipants(message, protocol.TypeMessageReaction, protocol.MessageReactionPayload{
		MessageID: message.MessageID,
		Emoji:     ev.Emoji,
		By:        actorID,
	})
	return nil
}

// Unsend 撤回。只有发送者本人可以撤回；unsent 一旦置真不可逆。
// 墓碑事件只带消息 id，接收端要把消息整个移除而不是标记删除。
// 对已撤回消息再次调用是空操作。
func (s *ReactionService) Unsend(actorID uint, messageID string) error {
	message, err := s.lookup(messageID)
	if err != nil {
		return err
	}
	if message.SenderID != actorID {
		return ErrNotSender
	}

	flipped, err := s.messages.MarkUnsent(messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message unsent: %w", err)
	}
	if flipped == 0 {
		// 已经撤回过了
		return nil
	}

	s.broadcastToParticipants(message, protocol.TypeMessageUnsent, protocol.MessageUnsentPayload{MessageID: messageID})
	return nil
}

func (s *ReactionService) lookup(messageID string) (*models.Message, error) {
	message, err := s.messages.GetByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return message, nil
}

func (s *ReactionService) broadcastToParticipants(message *models.Message, eventType protocol.EventType, payload interface{}) {
	var rooms []string
	if message.GroupID != 0 {
		rooms = []string{GroupRoom(message.GroupID), UserRoom(message.SenderID)}
	} else {
		rooms = []string{UserRoom(message.SenderID), UserRoom(message.ReceiverID)}
	}
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		return
	}
	s.hub.BroadcastRooms(rooms, data)
}
