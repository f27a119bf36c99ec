package services

import (
	"errors"
	"sync"
	"time"

	"messenger/models"

	"gorm.io/gorm"
)

// 内存版仓库，测试用

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	friends  map[[2]uint]bool
	requests map[[2]uint]bool

	failPresence  bool
	presenceCalls []presenceCall
}

type presenceCall struct {
	userID   uint
	online   bool
	lastSeen *time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[uint]*models.User),
		friends:  make(map[[2]uint]bool),
		requests: make(map[[2]uint]bool),
	}
}

func (f *fakeUserRepo) addUser(id uint, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &models.User{ID: id, Username: username}
}

func (f *fakeUserRepo) befriend(a, b uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends[[2]uint{a, b}] = true
	f.friends[[2]uint{b, a}] = true
}

func (f *fakeUserRepo) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Search(string, uint, int) ([]models.User, error) { return nil, nil }

func (f *fakeUserRepo) UpdateProfile(uint, string, string, *int) error { return nil }

func (f *fakeUserRepo) UpdateLastLogin(uint, time.Time) error { return nil }

func (f *fakeUserRepo) FriendIDs(id uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for pair := range f.friends {
		if pair[0] == id {
			ids = append(ids, pair[1])
		}
	}
	return ids, nil
}

func (f *fakeUserRepo) Friends(id uint) ([]models.User, error) {
	ids, _ := f.FriendIDs(id)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, fid := range ids {
		if u, ok := f.users[fid]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) AreFriends(a, b uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends[[2]uint{a, b}], nil
}

func (f *fakeUserRepo) AddFriendEdge(a, b uint) error {
	f.befriend(a, b)
	return nil
}

func (f *fakeUserRepo) RemoveFriendEdge(a, b uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.friends, [2]uint{a, b})
	delete(f.friends, [2]uint{b, a})
	return nil
}

func (f *fakeUserRepo) CreateFriendRequest(fromID, toID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[[2]uint{fromID, toID}] = true
	return nil
}

func (f *fakeUserRepo) HasFriendRequest(fromID, toID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[[2]uint{fromID, toID}], nil
}

func (f *fakeUserRepo) DeleteFriendRequest(fromID, toID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requests[[2]uint{fromID, toID}] {
		delete(f.requests, [2]uint{fromID, toID})
		return 1, nil
	}
	return 0, nil
}

func (f *fakeUserRepo) PendingRequests(uint) ([]models.FriendRequest, error) { return nil, nil }

func (f *fakeUserRepo) SetPresence(id uint, online bool, lastSeen *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presenceCalls = append(f.presenceCalls, presenceCall{id, online, lastSeen})
	if f.failPresence {
		return errors.New("store unavailable")
	}
	if u, ok := f.users[id]; ok {
		u.Online = online
		if lastSeen != nil {
			u.LastSeen = lastSeen
		}
	}
	return nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []*models.Message
	reactions []*models.Reaction

	failCreate bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(message *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("store unavailable")
	}
	copied := *message
	f.messages = append(f.messages, &copied)
	return nil
}

func (f *fakeMessageRepo) GetByID(messageID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.MessageID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) ConversationBetween(a, b uint) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.Unsent || m.GroupID != 0 {
			continue
		}
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) GroupHistory(groupID uint) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if !m.Unsent && m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) LastBetween(a, b uint) (*models.Message, error) {
	msgs, _ := f.ConversationBetween(a, b)
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[len(msgs)-1], nil
}

func (f *fakeMessageRepo) HasUnreadFrom(senderID, receiverID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead && !m.Unsent {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessageRepo) MarkConversationRead(senderID, receiverID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var flipped int64
	for _, m := range f.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			flipped++
		}
	}
	return flipped, nil
}

func (f *fakeMessageRepo) MarkUnsent(messageID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.MessageID == messageID && !m.Unsent {
			m.Unsent = true
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMessageRepo) AddReaction(reaction *models.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *reaction
	f.reactions = append(f.reactions, &copied)
	return nil
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeGroupRepo struct {
	mu      sync.Mutex
	members map[uint]map[uint]bool
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{members: make(map[uint]map[uint]bool)}
}

func (f *fakeGroupRepo) addMember(groupID, userID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[groupID] == nil {
		f.members[groupID] = make(map[uint]bool)
	}
	f.members[groupID][userID] = true
}

func (f *fakeGroupRepo) Create(group *models.Group, memberIDs []uint) error {
	f.addMember(group.ID, group.OwnerID)
	for _, id := range memberIDs {
		f.addMember(group.ID, id)
	}
	return nil
}

func (f *fakeGroupRepo) GetByID(id uint) (*models.Group, error) {
	return &models.Group{}, nil
}

func (f *fakeGroupRepo) GroupsOf(uint) ([]models.Group, error) { return nil, nil }

func (f *fakeGroupRepo) IsMember(groupID, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[groupID][userID], nil
}

func (f *fakeGroupRepo) MemberIDs(groupID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id := range f.members[groupID] {
		ids = append(ids, id)
	}
	return ids, nil
}
