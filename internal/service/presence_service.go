package service

import (
	"log"

	"github.com/halcyonchat/halcyon-backend/internal/cache"
	"github.com/halcyonchat/halcyon-backend/internal/channel"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
)

// PresenceService runs the session lifecycle: registry transitions, channel
// sync, the presence broadcast to the social graph, and the unread
// summaries a reconnecting client needs.
type PresenceService struct {
	registry      *presence.Registry
	channels      *channel.Manager
	users         repository.UserRepositoryInterface
	groups        repository.GroupRepositoryInterface
	messages      repository.MessageRepositoryInterface
	presenceCache *cache.PresenceCache
	groupCache    *cache.GroupCache
	pusher        Pusher
}

func NewPresenceService(
	registry *presence.Registry,
	channels *channel.Manager,
	users repository.UserRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	messages repository.MessageRepositoryInterface,
	presenceCache *cache.PresenceCache,
	groupCache *cache.GroupCache,
	pusher Pusher,
) *PresenceService {
	return &PresenceService{
		registry:      registry,
		channels:      channels,
		users:         users,
		groups:        groups,
		messages:      messages,
		presenceCache: presenceCache,
		groupCache:    groupCache,
		pusher:        pusher,
	}
}

// HandleConnect registers the new session, joins it to every channel its
// user belongs to, broadcasts the online transition exactly once, and
// replays unread summaries to the fresh session.
func (s *PresenceService) HandleConnect(userID uint, connID string) {
	becameOnline := s.registry.Connect(userID, connID)

	channelIDs, ok := s.groupCache.GetChannels(userID)
	if !ok {
		ids, err := s.groups.ChannelsOf(userID)
		if err != nil {
			log.Printf("channel sync for user %d failed: %v", userID, err)
		} else {
			channelIDs = ids
		}
	}
	s.channels.SyncOnConnect(userID, connID, channelIDs)
	s.reconcileChannels(userID, connID, channelIDs)

	if becameOnline {
		if err := s.presenceCache.SetUserOnline(userID); err != nil {
			log.Printf("presence cache online for user %d failed: %v", userID, err)
		}
		if err := s.users.UpdateOnlineStatus(userID, true); err != nil {
			log.Printf("persist online status for user %d failed: %v", userID, err)
		}
		s.broadcastPresence(userID, true)
	}

	s.pushUnreadSummaries(userID, connID)
}

// HandleDisconnect is the only cancellation signal the engine recognizes.
// The connection leaves every channel before the registry transition so no
// later broadcast decision can include it.
func (s *PresenceService) HandleDisconnect(userID uint, connID string) {
	s.channels.EvictConn(connID)

	if !s.registry.Disconnect(userID, connID) {
		return
	}
	if err := s.presenceCache.SetUserOffline(userID); err != nil {
		log.Printf("presence cache offline for user %d failed: %v", userID, err)
	}
	if err := s.users.UpdateOnlineStatus(userID, false); err != nil {
		log.Printf("persist offline status for user %d failed: %v", userID, err)
	}
	s.broadcastPresence(userID, false)
}

// reconcileChannels re-reads membership after the joins above landed. A
// revocation can delete the membership row between the first read and
// SyncOnConnect, in which case its eviction runs before this session was
// joined; any delete after this second read is followed by an eviction
// that does see the join, so one of the two paths always removes it.
func (s *PresenceService) reconcileChannels(userID uint, connID string, joined []uint) {
	fresh, err := s.groups.ChannelsOf(userID)
	if err != nil {
		log.Printf("channel reconcile for user %d failed: %v", userID, err)
		return
	}
	current := make(map[uint]struct{}, len(fresh))
	for _, id := range fresh {
		current[id] = struct{}{}
	}
	for _, id := range joined {
		if _, ok := current[id]; !ok {
			s.channels.Leave(id, userID, connID)
		}
	}
	s.groupCache.SetChannels(userID, fresh)
}

func (s *PresenceService) broadcastPresence(userID uint, online bool) {
	friends, err := s.users.FriendsOf(userID)
	if err != nil {
		log.Printf("friends lookup for user %d failed: %v", userID, err)
		return
	}
	for _, friendID := range friends {
		for _, connID := range s.registry.ConnectionsOf(friendID) {
			var err error
			if online {
				err = s.pusher.PushUserOnline(connID, events.UserOnline{UserID: userID})
			} else {
				err = s.pusher.PushUserOffline(connID, events.UserOffline{UserID: userID})
			}
			if err != nil {
				log.Printf("presence push to %s failed: %v", connID, err)
			}
		}
	}
}

func (s *PresenceService) pushUnreadSummaries(userID uint, connID string) {
	direct, err := s.messages.UnreadDirectSummaries(userID)
	if err != nil {
		log.Printf("unread direct summary for user %d failed: %v", userID, err)
	}
	for _, row := range direct {
		ev := events.UnreadMessages{PeerID: row.PeerID, Count: row.Count}
		if err := s.pusher.PushUnreadMessages(connID, ev); err != nil {
			log.Printf("unread push to %s failed: %v", connID, err)
		}
	}

	groups, err := s.messages.UnreadGroupSummaries(userID)
	if err != nil {
		log.Printf("unread group summary for user %d failed: %v", userID, err)
	}
	for _, row := range groups {
		ev := events.UnreadGroupMessages{GroupID: row.GroupID, Count: row.Count}
		if err := s.pusher.PushUnreadGroupMessages(connID, ev); err != nil {
			log.Printf("unread group push to %s failed: %v", connID, err)
		}
	}
}

// IsOnline reports live presence from the registry.
func (s *PresenceService) IsOnline(userID uint) bool {
	return s.registry.IsOnline(userID)
}
