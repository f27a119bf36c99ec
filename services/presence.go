package services

import (
	"log"
	"sync"
	"time"

	"messenger/protocol"
	"messenger/repository"
)

// PresenceTracker 从连接注册表推导用户的在线状态。
// 上线：第一条连接注册时。下线：最后一条连接断开时 —— 只要还有
// 任何一个设备在线就绝不触发。状态变化只通知好友的个人房间。
type PresenceTracker struct {
	hub   *Hub
	users repository.UserRepository

	mu     sync.Mutex
	online map[uint]bool
}

func NewPresenceTracker(hub *Hub, users repository.UserRepository) *PresenceTracker {
	return &PresenceTracker{
		hub:    hub,
		users:  users,
		online: make(map[uint]bool),
	}
}

// Sync 在每次连接注册或断开后调用，把推导状态与注册表对齐。
// 按用户串行，两台设备同时断开也只会产生一次下线。
// 通知也在锁内发出：判定顺序就是通知顺序，快速地断开又重连
// 不会出现 offline 晚于后一次 online 到达。
func (p *PresenceTracker) Sync(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	connected := p.hub.UserConnCount(userID) > 0
	wasOnline := p.online[userID]
	if connected == wasOnline {
		return
	}

	if connected {
		p.online[userID] = true
		p.goOnline(userID)
	} else {
		delete(p.online, userID)
		p.goOffline(userID)
	}
}

// IsOnline 当前推导状态，内存为准
func (p *PresenceTracker) IsOnline(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *PresenceTracker) goOnline(userID uint) {
	// 持久化失败只记日志不重试，内存状态继续作为投递依据
	if err := p.users.SetPresence(userID, true, nil); err != nil {
		log.Printf("Failed to persist online presence for user %d: %v", userID, err)
	}
	p.notifyFriends(userID, protocol.TypeUserOnline, protocol.UserOnlinePayload{UserID: userID})
}

func (p *PresenceTracker) goOffline(userID uint) {
	lastSeen := time.Now()
	if err := p.users.SetPresence(userID, false, &lastSeen); err != nil {
		log.Printf("Failed to persist offline presence for user %d: %v", userID, err)
	}
	p.notifyFriends(userID, protocol.TypeUserOffline, protocol.UserOfflinePayload{UserID: userID, LastSeen: lastSeen})
}

func (p *PresenceTracker) notifyFriends(userID uint, eventType protocol.EventType, payload interface{}) {
	friendIDs, err := p.users.FriendIDs(userID)
	if err != nil {
		log.Printf("Failed to load friends of user %d: %v", userID, err)
		return
	}
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	for _, friendID := range friendIDs {
		p.hub.Broadcast(UserRoom(friendID), data)
	}
}
