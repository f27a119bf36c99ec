package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"messenger/protocol"

	"github.com/gorilla/websocket"
)

type sessionFixture struct {
	hub       *Hub
	users     *fakeUserRepo
	messages  *fakeMessageRepo
	groups    *fakeGroupRepo
	presence  *PresenceTracker
	router    *MessageRouter
	receipts  *ReadReceiptCoordinator
	reactions *ReactionService
	server    *httptest.Server
}

func newSessionFixture(t *testing.T, userID uint, username string) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		hub:      NewHub(),
		users:    newFakeUserRepo(),
		messages: newFakeMessageRepo(),
		groups:   newFakeGroupRepo(),
	}
	f.presence = NewPresenceTracker(f.hub, f.users)
	f.router = NewMessageRouter(f.hub, f.users, f.messages, f.groups)
	f.receipts = NewReadReceiptCoordinator(f.hub, f.messages)
	f.reactions = NewReactionService(f.hub, f.messages)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := f.hub.NewClient(conn, userID, username)
		NewSession(client, f.hub, f.presence, f.router, f.receipts, f.reactions).Start()
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *sessionFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("invalid frame %s: %v", raw, err)
	}
	return env
}

func writeFrame(t *testing.T, conn *websocket.Conn, eventType protocol.EventType, payload interface{}) {
	t.Helper()
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSocketConnectBroadcastsGlobalCount(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")

	conn := f.dial(t)
	env := readFrame(t, conn)
	if env.Type != protocol.TypeGlobalCount {
		t.Fatalf("first frame = %s, want %s", env.Type, protocol.TypeGlobalCount)
	}
	var payload protocol.GlobalCountPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != 1 {
		t.Errorf("count = %d, want 1", payload.Count)
	}
}

// 非好友私聊：不落库、不广播，发起方收到且只收到一条 error
func TestNonFriendSendYieldsSingleErrorEvent(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")
	f.users.addUser(2, "bob")

	bob := f.hub.NewClient(nil, 2, "bob")
	f.hub.Register(bob)

	conn := f.dial(t)
	readFrame(t, conn) // global-online-count

	writeFrame(t, conn, protocol.TypeSendDirect, protocol.SendDirectEvent{To: 2, Content: "hi"})

	env := readFrame(t, conn)
	if env.Type != protocol.TypeError {
		t.Fatalf("got %s, want %s", env.Type, protocol.TypeError)
	}
	if f.messages.count() != 0 {
		t.Error("rejected message must not be persisted")
	}
	drainType(bob, protocol.TypeGlobalCount)
	noEvent(t, bob)

	// 错误不终止会话：后续事件照常处理
	writeFrame(t, conn, protocol.TypeTyping, protocol.TypingEvent{To: 2})
	deadline := time.Now().Add(2 * time.Second)
	for {
		select {
		case raw := <-bob.Send:
			var got protocol.Envelope
			if json.Unmarshal(raw, &got) == nil && got.Type == protocol.TypeTyping {
				return
			}
		default:
			if time.Now().After(deadline) {
				t.Fatal("typing event never arrived after the error")
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestMalformedFrameIsSurfacedPrivately(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")

	conn := f.dial(t)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	env := readFrame(t, conn)
	if env.Type != protocol.TypeError {
		t.Fatalf("got %s, want %s", env.Type, protocol.TypeError)
	}
}

func TestUnknownEventTypeRejected(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")

	conn := f.dial(t)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"drop-tables","data":{}}`)); err != nil {
		t.Fatal(err)
	}
	env := readFrame(t, conn)
	if env.Type != protocol.TypeError {
		t.Fatalf("got %s, want %s", env.Type, protocol.TypeError)
	}
}

// 断开后清理恰好发生一次：注销、全局计数下调、触发下线
func TestDisconnectCleanup(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")

	conn := f.dial(t)
	readFrame(t, conn)
	if got := f.hub.GlobalCount(); got != 1 {
		t.Fatalf("global count = %d, want 1", got)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.GlobalCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was never cleaned up")
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		f.users.mu.Lock()
		calls := len(f.users.presenceCalls)
		offline := calls > 0 && !f.users.presenceCalls[calls-1].online
		f.users.mu.Unlock()
		if offline {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("offline presence was never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// 群消息全链路：加入房间、发送、成员收到
func TestGroupMessageOverSocket(t *testing.T) {
	f := newSessionFixture(t, 1, "amy")
	f.users.addUser(1, "amy")
	f.groups.addMember(7, 1)
	f.groups.addMember(7, 2)

	bob := f.hub.NewClient(nil, 2, "bob")
	f.hub.Register(bob)
	f.hub.JoinGroup(bob, 7)
	drainType(bob, protocol.TypeGlobalCount)

	conn := f.dial(t)
	readFrame(t, conn) // global-online-count

	writeFrame(t, conn, protocol.TypeJoinGroup, protocol.GroupRoomEvent{GroupID: 7})
	writeFrame(t, conn, protocol.TypeSendGroup, protocol.SendGroupEvent{GroupID: 7, Content: "hello all"})

	// 发送者自己也回显
	env := readFrame(t, conn)
	if env.Type != protocol.TypeNewMessage {
		t.Fatalf("sender echo frame = %s, want %s", env.Type, protocol.TypeNewMessage)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		select {
		case raw := <-bob.Send:
			var got protocol.Envelope
			if json.Unmarshal(raw, &got) == nil && got.Type == protocol.TypeNewMessage {
				return
			}
		default:
			if time.Now().After(deadline) {
				t.Fatal("group member never received the message")
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}
