package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"messenger/protocol"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 10 * time.Second // 发送 Ping 的间隔
	pongTimeout  = 15 * time.Second // 超过 15 秒未收到 Pong 断开连接
	writeTimeout = 10 * time.Second
)

// Session 一条连接的事件处理循环。不同连接的循环互不阻塞，
// 单条连接内按到达顺序逐个处理：先落库后广播在这里天然成立。
type Session struct {
	client    *Client
	hub       *Hub
	presence  *PresenceTracker
	router    *MessageRouter
	receipts  *ReadReceiptCoordinator
	reactions *ReactionService

	closeOnce sync.Once
}

func NewSession(client *Client, hub *Hub, presence *PresenceTracker, router *MessageRouter, receipts *ReadReceiptCoordinator, reactions *ReactionService) *Session {
	return &Session{
		client:    client,
		hub:       hub,
		presence:  presence,
		router:    router,
		receipts:  receipts,
		reactions: reactions,
	}
}

// Start 注册连接并拉起读写循环
func (s *Session) Start() {
	first := s.hub.Register(s.client)
	s.hub.BroadcastEvent(GlobalRoom, protocol.TypeGlobalCount, protocol.GlobalCountPayload{Count: s.hub.GlobalCount()})
	if first {
		s.presence.Sync(s.client.UserID)
	}

	go s.writeLoop()
	go s.readLoop()
}

// teardown 断开清理，无论连接怎么断都只执行一次
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		last := s.hub.Unregister(s.client)
		s.client.Conn.Close()
		s.hub.BroadcastEvent(GlobalRoom, protocol.TypeGlobalCount, protocol.GlobalCountPayload{Count: s.hub.GlobalCount()})
		if last {
			s.presence.Sync(s.client.UserID)
		}
	})
}

func (s *Session) readLoop() {
	defer s.teardown()

	s.client.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.client.Conn.SetPongHandler(func(string) error {
		return s.client.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, raw, err := s.client.Conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(raw)
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.teardown()
	}()

	for {
		select {
		case <-s.client.Done():
			return
		case msg := <-s.client.Send:
			s.client.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.client.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch 一帧进来：边界校验、按类型分发。单条连接里的处理失败
// 只影响它自己，错误私发，循环继续。
func (s *Session) dispatch(raw []byte) {
	eventType, event, err := protocol.Decode(raw)
	if err != nil {
		s.client.SendError(err.Error())
		return
	}

	userID := s.client.UserID

	switch eventType {
	case protocol.TypeTyping:
		// 无状态转发，服务端不做去重也不做超时，stop 由客户端负责
		ev := event.(protocol.TypingEvent)
		s.hub.BroadcastEvent(UserRoom(ev.To), protocol.TypeTyping, protocol.TypingPayload{From: userID})

	case protocol.TypeStopTyping:
		ev := event.(protocol.TypingEvent)
		s.hub.BroadcastEvent(UserRoom(ev.To), protocol.TypeStopTyping, protocol.TypingPayload{From: userID})

	case protocol.TypeSendDirect:
		if _, err := s.router.SendDirect(userID, event.(protocol.SendDirectEvent)); err != nil {
			s.reportError(err)
		}

	case protocol.TypeSendGroup:
		if _, err := s.router.SendGroup(userID, event.(protocol.SendGroupEvent)); err != nil {
			s.reportError(err)
		}

	case protocol.TypeMarkRead:
		ev := event.(protocol.MarkReadEvent)
		if _, err := s.receipts.MarkRead(userID, ev.ConversationWith); err != nil {
			s.reportError(err)
		}

	case protocol.TypeReact:
		if err := s.reactions.React(userID, event.(protocol.ReactEvent)); err != nil {
			s.reportError(err)
		}

	case protocol.TypeUnsend:
		ev := event.(protocol.UnsendEvent)
		if err := s.reactions.Unsend(userID, ev.MessageID); err != nil {
			s.reportError(err)
		}

	case protocol.TypeJoinGroup:
		ev := event.(protocol.GroupRoomEvent)
		s.hub.JoinGroup(s.client, ev.GroupID)

	case protocol.TypeLeaveGroup:
		ev := event.(protocol.GroupRoomEvent)
		s.hub.LeaveGroup(s.client, ev.GroupID)

	case protocol.TypeGlobalInput:
		// 不落库、除了在线没有别的校验，发给全局房间里的每条连接，
		// 包括发送者自己
		ev := event.(protocol.GlobalMessageEvent)
		s.hub.BroadcastEvent(GlobalRoom, protocol.TypeGlobalInput, protocol.GlobalBroadcastPayload{
			From:     userID,
			Username: s.client.Username,
			Text:     ev.Text,
			SentAt:   time.Now(),
		})
	}
}

// reportError 业务错误原样私发，其余按持久化故障记日志并私发通用提示
func (s *Session) reportError(err error) {
	switch {
	case errors.Is(err, ErrNotFriends),
		errors.Is(err, ErrNotMember),
		errors.Is(err, ErrNotSender),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrNotFound):
		s.client.SendError(err.Error())
	default:
		log.Printf("Handler error for user %d: %v", s.client.UserID, err)
		s.client.SendError("something went wrong, please try again")
	}
}
