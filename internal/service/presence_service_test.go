package service

import (
	"testing"

	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/testutil"
)

type presenceFixture struct {
	registry *presence.Registry
	channels *channel.Manager
	users    *MockUserRepository
	groups   *MockGroupRepository
	messages *MockMessageRepository
	pusher   *fakePusher
	svc      *PresenceService
}

func newPresenceFixture(t *testing.T) *presenceFixture {
	h := testutil.NewTestHelper(t)
	f := &presenceFixture{
		registry: presence.NewRegistry(),
		channels: channel.NewManager(),
		users: NewMockUserRepository(
			h.CreateTestUser(1, "alice"),
			h.CreateTestUser(2, "bob"),
			h.CreateTestUser(3, "carol"),
		),
		groups:   NewMockGroupRepository(),
		messages: NewMockMessageRepository(),
		pusher:   newFakePusher(),
	}
	// Caches are optional collaborators; nil means cache misses everywhere.
	f.svc = NewPresenceService(f.registry, f.channels, f.users, f.groups, f.messages, nil, nil, f.pusher)
	return f
}

func TestConnectBroadcastsOnlineToFriendsOnce(t *testing.T) {
	f := newPresenceFixture(t)
	f.users.friends[1] = []uint{2}
	f.users.friends[2] = []uint{1}
	f.registry.Connect(2, "b1")
	f.registry.Connect(2, "b2")

	f.svc.HandleConnect(1, "a1")

	for _, connID := range []string{"b1", "b2"} {
		if len(f.pusher.recordedFor(connID, events.KindUserOnline)) != 1 {
			t.Errorf("friend session %s should see exactly one online event", connID)
		}
	}
	if user, _ := f.users.FindByID(1); !user.IsOnline {
		t.Error("online status was not persisted")
	}

	// Second session of an already-online user stays silent.
	f.svc.HandleConnect(1, "a2")
	if got := len(f.pusher.recorded(events.KindUserOnline)); got != 2 {
		t.Errorf("got %d online events after second session, want still 2", got)
	}
}

func TestConnectJoinsGroupChannels(t *testing.T) {
	f := newPresenceFixture(t)
	f.groups.AddGroup(10, 1, 2)
	f.groups.AddGroup(11, 1)

	f.svc.HandleConnect(1, "a1")

	for _, groupID := range []uint{10, 11} {
		targets := f.channels.BroadcastTargets(groupID)
		if len(targets) != 1 || targets[0] != "a1" {
			t.Errorf("channel %d targets = %v, want [a1]", groupID, targets)
		}
	}
}

// A recipient that reconnects after messages arrived while offline gets a
// summary per conversation on the new session only.
func TestConnectReplaysUnreadSummaries(t *testing.T) {
	f := newPresenceFixture(t)
	h := testutil.NewTestHelper(t)
	f.messages.messages[1] = h.CreateTestDirectMessage(1, 1, 2, "first")
	f.messages.messages[2] = h.CreateTestDirectMessage(2, 1, 2, "second")
	f.messages.messages[3] = h.CreateTestDirectMessage(3, 3, 2, "hi from carol")

	f.svc.HandleConnect(2, "b1")

	rows := f.pusher.recordedFor("b1", events.KindUnreadMessages)
	if len(rows) != 2 {
		t.Fatalf("got %d unread summaries, want 2 conversations", len(rows))
	}
	counts := make(map[uint]int64)
	for _, r := range rows {
		ev := r.Payload.(events.UnreadMessages)
		counts[ev.PeerID] = ev.Count
	}
	if counts[1] != 2 {
		t.Errorf("unread from user 1 = %d, want 2", counts[1])
	}
	if counts[3] != 1 {
		t.Errorf("unread from user 3 = %d, want 1", counts[3])
	}
}

func TestDisconnectLastSessionBroadcastsOffline(t *testing.T) {
	f := newPresenceFixture(t)
	f.users.friends[1] = []uint{2}
	f.registry.Connect(2, "b1")
	f.groups.AddGroup(10, 1)

	f.svc.HandleConnect(1, "a1")
	f.svc.HandleConnect(1, "a2")

	f.svc.HandleDisconnect(1, "a1")
	if len(f.pusher.recorded(events.KindUserOffline)) != 0 {
		t.Error("offline must not broadcast while another session remains")
	}
	if targets := f.channels.BroadcastTargets(10); len(targets) != 1 || targets[0] != "a2" {
		t.Errorf("channel targets after partial disconnect = %v, want [a2]", targets)
	}

	f.svc.HandleDisconnect(1, "a2")
	if len(f.pusher.recordedFor("b1", events.KindUserOffline)) != 1 {
		t.Error("friend should see the offline transition once the last session drops")
	}
	if user, _ := f.users.FindByID(1); user.IsOnline {
		t.Error("offline status was not persisted")
	}
	if targets := f.channels.BroadcastTargets(10); len(targets) != 0 {
		t.Errorf("channel targets after full disconnect = %v, want empty", targets)
	}
}

// revokingGroupRepo lets a test run a membership revocation in the window
// between the connect's membership read and the channel joins.
type revokingGroupRepo struct {
	*MockGroupRepository
	reads       int
	onFirstRead func()
}

func (r *revokingGroupRepo) ChannelsOf(userID uint) ([]uint, error) {
	ids, err := r.MockGroupRepository.ChannelsOf(userID)
	r.reads++
	if r.reads == 1 && r.onFirstRead != nil {
		r.onFirstRead()
	}
	return ids, err
}

// A revocation whose delete and eviction both land between the membership
// read and the channel join must not leave the new session joined.
func TestConnectRacingRevocation(t *testing.T) {
	f := newPresenceFixture(t)
	f.groups.AddGroup(10, 1)

	repo := &revokingGroupRepo{MockGroupRepository: f.groups}
	repo.onFirstRead = func() {
		_ = f.groups.RemoveMember(10, 1)
		f.channels.EvictUser(10, 1)
	}
	svc := NewPresenceService(f.registry, f.channels, f.users, repo, f.messages, nil, nil, f.pusher)

	svc.HandleConnect(1, "a1")

	if got := f.channels.BroadcastTargets(10); len(got) != 0 {
		t.Errorf("revoked user still joined: targets = %v", got)
	}
}

func TestDisconnectUnknownSessionIsNoop(t *testing.T) {
	f := newPresenceFixture(t)
	f.users.friends[1] = []uint{2}
	f.registry.Connect(2, "b1")

	f.svc.HandleDisconnect(1, "ghost")

	if len(f.pusher.pushes) != 0 {
		t.Errorf("got %d pushes for an unknown session, want none", len(f.pusher.pushes))
	}
}
