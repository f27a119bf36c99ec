package services

import (
	"fmt"
	"log"
	"sync"

	"messenger/protocol"

	"github.com/gorilla/websocket"
)

// GlobalRoom 所有已认证连接自动加入
const GlobalRoom = "global"

func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func GroupRoom(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}

// Client 代表一条 WebSocket 连接，同一用户可以有多条（多端在线）
type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte
	UserID   uint
	Username string

	// Send 永远不关闭：广播方可能还握着快照。写循环退出看 done。
	done chan struct{}

	hub        *Hub
	registered bool
	rooms      map[string]bool
}

// Done 连接注销后关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub 连接注册表：用户 -> 在线连接，房间 -> 订阅连接。
// 全部是易失状态，重启后由客户端重连重建，不承载任何权限。
type Hub struct {
	mu      sync.RWMutex
	clients map[uint][]*Client
	rooms   map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint][]*Client),
		rooms:   make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient(conn *websocket.Conn, userID uint, username string) *Client {
	return &Client{
		Conn:     conn,
		Send:     make(chan []byte, 256),
		UserID:   userID,
		Username: username,
		done:     make(chan struct{}),
		hub:      h,
		rooms:    make(map[string]bool),
	}
}

// Register 把连接加入个人房间和全局房间。返回该用户是否由此上线
// （即这是它的第一条连接）。判定和登记在同一把锁内完成，不存在
// 计数为零而连接注册到一半的窗口。
func (h *Hub) Register(client *Client) (first bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.registered {
		return false
	}
	client.registered = true
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	h.joinLocked(client, UserRoom(client.UserID))
	h.joinLocked(client, GlobalRoom)
	log.Printf("Client registered: user=%d connections=%d", client.UserID, len(h.clients[client.UserID]))
	return len(h.clients[client.UserID]) == 1
}

// Unregister 把连接从所有房间移除。返回该用户是否由此下线
// （即这是它的最后一条连接）。重复调用是无害的。
func (h *Hub) Unregister(client *Client) (last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !client.registered {
		return false
	}
	client.registered = false

	conns := h.clients[client.UserID]
	for i, c := range conns {
		if c == client {
			h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}

	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	close(client.done)
	log.Printf("Client unregistered: user=%d", client.UserID)
	return len(h.clients[client.UserID]) == 0
}

// JoinGroup 订阅群房间。只是易失的订阅关系，发消息时的权限
// 仍然以持久化的群成员表为准。
func (h *Hub) JoinGroup(client *Client, groupID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client.registered {
		h.joinLocked(client, GroupRoom(groupID))
	}
}

func (h *Hub) LeaveGroup(client *Client, groupID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, GroupRoom(groupID))
}

func (h *Hub) joinLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// RoomCount 房间内在线连接数，读锁下随取随用，不阻塞
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// GlobalCount 统计的是连接数而不是用户数，多端在线会把数字抬高
func (h *Hub) GlobalCount() int {
	return h.RoomCount(GlobalRoom)
}

// UserConnCount 某个用户当前的在线连接数
func (h *Hub) UserConnCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast 把一帧推给房间里的每条连接。发送通道满则跳过该连接，
// 投递语义是至多一次。
func (h *Hub) Broadcast(room string, data []byte) {
	h.BroadcastRooms([]string{room}, data)
}

// BroadcastRooms 跨多个房间去重后逐连接推送，保证同一条消息
// 不会被同一条连接收到两次（发群消息时发送者自己也订阅了群房间）。
func (h *Hub) BroadcastRooms(rooms []string, data []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, 8)
	seen := make(map[*Client]bool)
	for _, room := range rooms {
		for client := range h.rooms[room] {
			if !seen[client] {
				seen[client] = true
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- data:
		default:
			log.Printf("Send buffer full, dropping frame for user %d", client.UserID)
		}
	}
}

// BroadcastEvent 编码并推送一个事件
func (h *Hub) BroadcastEvent(room string, eventType protocol.EventType, payload interface{}) {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	h.Broadcast(room, data)
}

// SendEvent 只发给这一条连接
func (c *Client) SendEvent(eventType protocol.EventType, payload interface{}) {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// SendError 私发一条错误事件，不广播
func (c *Client) SendError(message string) {
	c.SendEvent(protocol.TypeError, protocol.ErrorPayload{Message: message})
}
