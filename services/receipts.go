package services

import (
	"fmt"

	"messenger/protocol"
	"messenger/repository"
)

// ReadReceiptCoordinator 批量处理已读状态。
// 触发来源有两个：客户端显式的 mark-read 事件，以及会话记录拉取。
type ReadReceiptCoordinator struct {
	hub      *Hub
	messages repository.MessageRepository
}

func NewReadReceiptCoordinator(hub *Hub, messages repository.MessageRepository) *ReadReceiptCoordinator {
	return &ReadReceiptCoordinator{hub: hub, messages: messages}
}

// MarkRead 把 otherID 发给 readerID 的所有未读消息一次性置为已读，
// 然后向发送方房间发且只发一条 messages-read 事件 —— 不管这次
// 翻转了多少条。全部已读时重复调用也是安全的。
func (c *ReadReceiptCoordinator) MarkRead(readerID, otherID uint) (int64, error) {
	flipped, err := c.messages.MarkConversationRead(otherID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	c.hub.BroadcastEvent(UserRoom(otherID), protocol.TypeMessagesRead, protocol.MessagesReadPayload{By: readerID})
	return flipped, nil
}
