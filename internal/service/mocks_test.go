package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
)

// pushRecord captures one push issued through the fake pusher.
type pushRecord struct {
	ConnID  string
	Kind    string
	Payload interface{}
}

// fakePusher records every push; connections listed in failConns report a
// delivery failure instead.
type fakePusher struct {
	mu        sync.Mutex
	pushes    []pushRecord
	failConns map[string]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{failConns: make(map[string]bool)}
}

func (p *fakePusher) record(connID, kind string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failConns[connID] {
		return fmt.Errorf("write to %s failed", connID)
	}
	p.pushes = append(p.pushes, pushRecord{ConnID: connID, Kind: kind, Payload: payload})
	return nil
}

func (p *fakePusher) recorded(kind string) []pushRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushRecord
	for _, r := range p.pushes {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (p *fakePusher) recordedFor(connID string, kind string) []pushRecord {
	var out []pushRecord
	for _, r := range p.recorded(kind) {
		if r.ConnID == connID {
			out = append(out, r)
		}
	}
	return out
}

func (p *fakePusher) PushMessageReceived(connID string, ev events.MessageReceived) error {
	return p.record(connID, events.KindMessageReceived, ev)
}

func (p *fakePusher) PushGroupMessageReceived(connID string, ev events.GroupMessageReceived) error {
	return p.record(connID, events.KindGroupMessageReceived, ev)
}

func (p *fakePusher) PushMessageRead(connID string, ev events.MessageRead) error {
	return p.record(connID, events.KindMessageRead, ev)
}

func (p *fakePusher) PushUserOnline(connID string, ev events.UserOnline) error {
	return p.record(connID, events.KindUserOnline, ev)
}

func (p *fakePusher) PushUserOffline(connID string, ev events.UserOffline) error {
	return p.record(connID, events.KindUserOffline, ev)
}

func (p *fakePusher) PushUserAddedToGroup(connID string, ev events.UserAddedToGroup) error {
	return p.record(connID, events.KindUserAddedToGroup, ev)
}

func (p *fakePusher) PushUserRemovedFromGroup(connID string, ev events.UserRemovedFromGroup) error {
	return p.record(connID, events.KindUserRemovedFromGroup, ev)
}

func (p *fakePusher) PushUserRoleChanged(connID string, ev events.UserRoleChanged) error {
	return p.record(connID, events.KindUserRoleChanged, ev)
}

func (p *fakePusher) PushGroupDeleted(connID string, ev events.GroupDeleted) error {
	return p.record(connID, events.KindGroupDeleted, ev)
}

func (p *fakePusher) PushReactionAdded(connID string, ev events.ReactionAdded) error {
	return p.record(connID, events.KindReactionAdded, ev)
}

func (p *fakePusher) PushReactionRemoved(connID string, ev events.ReactionRemoved) error {
	return p.record(connID, events.KindReactionRemoved, ev)
}

func (p *fakePusher) PushMentionReceived(connID string, ev events.MentionReceived) error {
	return p.record(connID, events.KindMentionReceived, ev)
}

func (p *fakePusher) PushMentionRead(connID string, ev events.MentionRead) error {
	return p.record(connID, events.KindMentionRead, ev)
}

func (p *fakePusher) PushUnreadMessages(connID string, ev events.UnreadMessages) error {
	return p.record(connID, events.KindUnreadMessages, ev)
}

func (p *fakePusher) PushUnreadGroupMessages(connID string, ev events.UnreadGroupMessages) error {
	return p.record(connID, events.KindUnreadGroupMessages, ev)
}

func userFixture(id uint, username string) *models.User {
	return &models.User{ID: id, Username: username}
}

// MockMessageRepository is an in-memory message store.
type MockMessageRepository struct {
	messages    map[uint]*models.Message
	nextID      uint
	failPersist bool
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{messages: make(map[uint]*models.Message), nextID: 1}
}

func (m *MockMessageRepository) persist(message *models.Message) error {
	if m.failPersist {
		return errors.New("database unavailable")
	}
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepository) PersistDirect(message *models.Message) error {
	return m.persist(message)
}

func (m *MockMessageRepository) PersistGroup(message *models.Message) error {
	return m.persist(message)
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) MarkConversationRead(userID, peerID uint) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.SenderID == peerID && msg.RecipientID != nil && *msg.RecipientID == userID && !msg.IsRead {
			msg.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) UnreadDirectSummaries(userID uint) ([]repository.UnreadSummary, error) {
	counts := make(map[uint]int64)
	for _, msg := range m.messages {
		if msg.RecipientID != nil && *msg.RecipientID == userID && !msg.IsRead {
			counts[msg.SenderID]++
		}
	}
	var rows []repository.UnreadSummary
	for peerID, count := range counts {
		rows = append(rows, repository.UnreadSummary{PeerID: peerID, Count: count})
	}
	return rows, nil
}

func (m *MockMessageRepository) UnreadGroupSummaries(userID uint) ([]repository.UnreadGroupSummary, error) {
	return nil, nil
}

// MockUserRepository is an in-memory user store with a friendship graph.
type MockUserRepository struct {
	users   map[uint]*models.User
	friends map[uint][]uint
}

func NewMockUserRepository(users ...*models.User) *MockUserRepository {
	repo := &MockUserRepository{
		users:   make(map[uint]*models.User),
		friends: make(map[uint][]uint),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) UpdateOnlineStatus(userID uint, isOnline bool) error {
	if user, ok := m.users[userID]; ok {
		user.IsOnline = isOnline
	}
	return nil
}

func (m *MockUserRepository) FriendsOf(userID uint) ([]uint, error) {
	return m.friends[userID], nil
}

// MockGroupRepository is an in-memory membership store.
type MockGroupRepository struct {
	groups    map[uint]*models.Group
	members   map[uint]map[uint]models.GroupRole // groupID -> userID -> role
	readState map[string]uint
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:    make(map[uint]*models.Group),
		members:   make(map[uint]map[uint]models.GroupRole),
		readState: make(map[string]uint),
	}
}

func (m *MockGroupRepository) AddGroup(groupID uint, memberIDs ...uint) {
	m.groups[groupID] = &models.Group{ID: groupID, Name: fmt.Sprintf("group-%d", groupID)}
	for _, userID := range memberIDs {
		_ = m.AddMember(groupID, userID, models.RoleMember)
	}
}

func (m *MockGroupRepository) FindByID(id uint) (*models.Group, error) {
	if group, ok := m.groups[id]; ok {
		return group, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockGroupRepository) MembersOf(groupID uint) ([]uint, error) {
	var ids []uint
	for userID := range m.members[groupID] {
		ids = append(ids, userID)
	}
	return ids, nil
}

func (m *MockGroupRepository) ChannelsOf(userID uint) ([]uint, error) {
	var ids []uint
	for groupID, members := range m.members {
		if _, ok := members[userID]; ok {
			ids = append(ids, groupID)
		}
	}
	return ids, nil
}

func (m *MockGroupRepository) IsMember(groupID, userID uint) (bool, error) {
	_, ok := m.members[groupID][userID]
	return ok, nil
}

func (m *MockGroupRepository) AddMember(groupID, userID uint, role models.GroupRole) error {
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[uint]models.GroupRole)
	}
	if _, ok := m.members[groupID][userID]; !ok {
		m.members[groupID][userID] = role
	}
	return nil
}

func (m *MockGroupRepository) RemoveMember(groupID, userID uint) error {
	delete(m.members[groupID], userID)
	return nil
}

func (m *MockGroupRepository) SetRole(groupID, userID uint, role models.GroupRole) error {
	if _, ok := m.members[groupID][userID]; !ok {
		return errors.New("record not found")
	}
	m.members[groupID][userID] = role
	return nil
}

func (m *MockGroupRepository) Delete(groupID uint) error {
	delete(m.groups, groupID)
	delete(m.members, groupID)
	return nil
}

func (m *MockGroupRepository) UpsertReadState(groupID, userID uint, lastReadMessageID uint) error {
	key := fmt.Sprintf("%d:%d", groupID, userID)
	if m.readState[key] < lastReadMessageID {
		m.readState[key] = lastReadMessageID
	}
	return nil
}

// MockMentionRepository is an in-memory mention store.
type MockMentionRepository struct {
	mentions map[uint]*models.Mention
	nextID   uint
}

func NewMockMentionRepository() *MockMentionRepository {
	return &MockMentionRepository{mentions: make(map[uint]*models.Mention), nextID: 1}
}

func (m *MockMentionRepository) Insert(mention *models.Mention) error {
	mention.ID = m.nextID
	m.nextID++
	m.mentions[mention.ID] = mention
	return nil
}

func (m *MockMentionRepository) FindByID(id uint) (*models.Mention, error) {
	if mention, ok := m.mentions[id]; ok {
		return mention, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockMentionRepository) SetRead(id uint) error {
	if mention, ok := m.mentions[id]; ok {
		mention.IsRead = true
		return nil
	}
	return errors.New("record not found")
}

// MockReactionRepository is an in-memory reaction store.
type MockReactionRepository struct {
	reactions map[string]*models.Reaction
}

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{reactions: make(map[string]*models.Reaction)}
}

func reactionKey(messageID, userID uint, reactionType string) string {
	return fmt.Sprintf("%d:%d:%s", messageID, userID, reactionType)
}

func (m *MockReactionRepository) Upsert(reaction *models.Reaction) (bool, error) {
	key := reactionKey(reaction.MessageID, reaction.UserID, reaction.Type)
	if _, ok := m.reactions[key]; ok {
		return false, nil
	}
	m.reactions[key] = reaction
	return true, nil
}

func (m *MockReactionRepository) Delete(messageID, userID uint, reactionType string) (bool, error) {
	key := reactionKey(messageID, userID, reactionType)
	if _, ok := m.reactions[key]; !ok {
		return false, nil
	}
	delete(m.reactions, key)
	return true, nil
}

func (m *MockReactionRepository) CountFor(messageID uint, reactionType string) (int64, error) {
	var count int64
	for _, r := range m.reactions {
		if r.MessageID == messageID && r.Type == reactionType {
			count++
		}
	}
	return count, nil
}
