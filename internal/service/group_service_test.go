package service

import (
	"testing"

	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/testutil"
)

type groupFixture struct {
	registry *presence.Registry
	channels *channel.Manager
	groups   *MockGroupRepository
	messages *MockMessageRepository
	pusher   *fakePusher
	svc      *GroupService
}

func newGroupFixture() *groupFixture {
	f := &groupFixture{
		registry: presence.NewRegistry(),
		channels: channel.NewManager(),
		groups:   NewMockGroupRepository(),
		messages: NewMockMessageRepository(),
		pusher:   newFakePusher(),
	}
	f.svc = NewGroupService(f.registry, f.channels, f.groups, f.messages, nil, f.pusher)
	return f
}

func TestAddMemberJoinsLiveSessions(t *testing.T) {
	f := newGroupFixture()
	f.groups.AddGroup(10, 1)
	f.registry.Connect(1, "a1")
	f.channels.Join(10, 1, "a1")
	f.registry.Connect(2, "b1")
	f.registry.Connect(2, "b2")

	if err := f.svc.AddMember(10, 2, 1); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if ok, _ := f.groups.IsMember(10, 2); !ok {
		t.Error("membership was not persisted")
	}
	targets := f.channels.BroadcastTargets(10)
	if len(targets) != 3 {
		t.Fatalf("channel targets = %v, want both new sessions joined alongside a1", targets)
	}
	// Everyone now joined sees the announcement, the new member included.
	for _, connID := range []string{"a1", "b1", "b2"} {
		if len(f.pusher.recordedFor(connID, events.KindUserAddedToGroup)) != 1 {
			t.Errorf("session %s should see the addition", connID)
		}
	}
}

func TestAddMemberUnknownGroup(t *testing.T) {
	f := newGroupFixture()
	if err := f.svc.AddMember(404, 2, 1); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

// Revoked members drop out of the broadcast scope immediately, and their own
// sessions still learn about the removal.
func TestRemoveMemberEvictsImmediately(t *testing.T) {
	f := newGroupFixture()
	f.groups.AddGroup(10, 1, 2)
	f.registry.Connect(1, "a1")
	f.registry.Connect(2, "b1")
	f.channels.Join(10, 1, "a1")
	f.channels.Join(10, 2, "b1")

	if err := f.svc.RemoveMember(10, 2, 1); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	targets := f.channels.BroadcastTargets(10)
	if len(targets) != 1 || targets[0] != "a1" {
		t.Errorf("channel targets = %v, want [a1]", targets)
	}
	if len(f.pusher.recordedFor("a1", events.KindUserRemovedFromGroup)) != 1 {
		t.Error("remaining member should see the removal")
	}
	if len(f.pusher.recordedFor("b1", events.KindUserRemovedFromGroup)) != 1 {
		t.Error("the evicted session should be told why it was dropped")
	}
}

func TestChangeRole(t *testing.T) {
	f := newGroupFixture()
	f.groups.AddGroup(10, 1, 2)
	f.registry.Connect(1, "a1")
	f.channels.Join(10, 1, "a1")

	if err := f.svc.ChangeRole(10, 2, models.RoleAdmin); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if got := f.groups.members[10][2]; got != models.RoleAdmin {
		t.Errorf("role = %v, want admin", got)
	}
	if len(f.pusher.recordedFor("a1", events.KindUserRoleChanged)) != 1 {
		t.Error("channel should see the role change")
	}

	if err := f.svc.ChangeRole(10, 9, models.RoleAdmin); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err for non-member = %v, want NotFound", err)
	}
}

func TestDeleteGroupTearsDownChannel(t *testing.T) {
	f := newGroupFixture()
	f.groups.AddGroup(10, 1, 2)
	f.registry.Connect(1, "a1")
	f.registry.Connect(2, "b1")
	f.channels.Join(10, 1, "a1")
	f.channels.Join(10, 2, "b1")

	if err := f.svc.DeleteGroup(10); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	if _, err := f.groups.FindByID(10); err == nil {
		t.Error("group record should be gone")
	}
	if targets := f.channels.BroadcastTargets(10); len(targets) != 0 {
		t.Errorf("channel targets after delete = %v, want empty", targets)
	}
	for _, connID := range []string{"a1", "b1"} {
		if len(f.pusher.recordedFor(connID, events.KindGroupDeleted)) != 1 {
			t.Errorf("session %s should see the deletion", connID)
		}
	}
}

func TestMarkConversationReadSendsReceipt(t *testing.T) {
	f := newGroupFixture()
	h := testutil.NewTestHelper(t)
	f.messages.messages[1] = h.CreateTestDirectMessage(1, 1, 2, "")
	f.messages.messages[2] = h.CreateTestDirectMessage(2, 1, 2, "")
	f.registry.Connect(1, "a1")

	if err := f.svc.MarkConversationRead(2, 1); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}

	receipts := f.pusher.recordedFor("a1", events.KindMessageRead)
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}
	ev := receipts[0].Payload.(events.MessageRead)
	if ev.ReaderID != 2 || ev.Count != 2 {
		t.Errorf("receipt = %+v, want reader 2 covering 2 messages", ev)
	}

	// Nothing left unread, no further receipt.
	if err := f.svc.MarkConversationRead(2, 1); err != nil {
		t.Fatalf("second MarkConversationRead: %v", err)
	}
	if len(f.pusher.recordedFor("a1", events.KindMessageRead)) != 1 {
		t.Error("an empty read mark must not produce a receipt")
	}
}

func TestMarkGroupReadBroadcastsReceipt(t *testing.T) {
	f := newGroupFixture()
	f.groups.AddGroup(10, 1, 2)
	f.registry.Connect(1, "a1")
	f.registry.Connect(2, "b1")
	f.channels.Join(10, 1, "a1")
	f.channels.Join(10, 2, "b1")

	if err := f.svc.MarkGroupRead(10, 2, 7); err != nil {
		t.Fatalf("MarkGroupRead: %v", err)
	}
	if f.groups.readState["10:2"] != 7 {
		t.Errorf("read state = %d, want 7", f.groups.readState["10:2"])
	}
	if got := len(f.pusher.recorded(events.KindMessageRead)); got != 2 {
		t.Errorf("got %d receipts, want broadcast to both joined sessions", got)
	}
}
