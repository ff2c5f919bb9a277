package service

import (
	"log"
	"regexp"

	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/cache"
	"github.com/halcyonchat/halcyon-backend/internal/events"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/presence"
	"github.com/halcyonchat/halcyon-backend/internal/repository"
)

// A mention token is a leading @ followed by one or more word characters.
// Malformed or overlapping tokens are ignored, never an error.
var mentionRe = regexp.MustCompile(`@(\w+)`)

// MentionScope is the delivery context a candidate is validated against.
type MentionScope struct {
	Kind        models.MessageScope
	SenderID    uint
	RecipientID uint // direct scope only
	GroupID     uint // group scope only
}

type MentionService struct {
	registry   *presence.Registry
	users      repository.UserRepositoryInterface
	groups     repository.GroupRepositoryInterface
	mentions   repository.MentionRepositoryInterface
	groupCache *cache.GroupCache
	pusher     Pusher
}

func NewMentionService(
	registry *presence.Registry,
	users repository.UserRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	mentions repository.MentionRepositoryInterface,
	groupCache *cache.GroupCache,
	pusher Pusher,
) *MentionService {
	return &MentionService{
		registry:   registry,
		users:      users,
		groups:     groups,
		mentions:   mentions,
		groupCache: groupCache,
		pusher:     pusher,
	}
}

// ExtractCandidates tokenizes message text into username-like mention
// candidates. Pure; duplicates collapse to the first occurrence.
func ExtractCandidates(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := []string{}
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ResolveAndValidate maps candidate tokens to user IDs valid for the scope.
// Direct: only the sole recipient can be mentioned. Group: only current
// members other than the sender. Unresolvable tokens are skipped.
func (s *MentionService) ResolveAndValidate(candidates []string, scope MentionScope) ([]uint, error) {
	var memberSet map[uint]struct{}
	if scope.Kind == models.ScopeGroup {
		members, err := s.membersOf(scope.GroupID)
		if err != nil {
			return nil, err
		}
		memberSet = make(map[uint]struct{}, len(members))
		for _, id := range members {
			memberSet[id] = struct{}{}
		}
	}

	seen := make(map[uint]struct{})
	var valid []uint
	for _, name := range candidates {
		user, err := s.users.FindByUsername(name)
		if err != nil {
			continue // unknown token, not an error
		}
		if _, ok := seen[user.ID]; ok {
			continue
		}
		switch scope.Kind {
		case models.ScopeDirect:
			if user.ID != scope.RecipientID {
				continue
			}
		case models.ScopeGroup:
			if user.ID == scope.SenderID {
				continue
			}
			if _, ok := memberSet[user.ID]; !ok {
				continue
			}
		}
		seen[user.ID] = struct{}{}
		valid = append(valid, user.ID)
	}
	return valid, nil
}

func (s *MentionService) membersOf(groupID uint) ([]uint, error) {
	if members, ok := s.groupCache.GetMembers(groupID); ok {
		return members, nil
	}
	members, err := s.groups.MembersOf(groupID)
	if err != nil {
		return nil, err
	}
	s.groupCache.SetMembers(groupID, members)
	return members, nil
}

// CreateAndNotify stores one mention record per target and pushes a
// mention notification to every target currently online. The notification
// is issued even when the message push already reached the same client;
// the two are distinct events and are never deduplicated.
func (s *MentionService) CreateAndNotify(messageID, byUserID uint, targets []uint, scope MentionScope) error {
	var groupID *uint
	if scope.Kind == models.ScopeGroup {
		g := scope.GroupID
		groupID = &g
	}

	for _, userID := range targets {
		mention := &models.Mention{
			MessageID: messageID,
			UserID:    userID,
			ByUserID:  byUserID,
			Scope:     scope.Kind,
			GroupID:   groupID,
		}
		if err := s.mentions.Insert(mention); err != nil {
			log.Printf("insert mention for user %d on message %d failed: %v", userID, messageID, err)
			continue
		}
		ev := events.MentionReceived{
			MentionID: mention.ID,
			MessageID: messageID,
			ByUserID:  byUserID,
			GroupID:   groupID,
		}
		for _, connID := range s.registry.ConnectionsOf(userID) {
			if err := s.pusher.PushMentionReceived(connID, ev); err != nil {
				log.Printf("mention push to %s failed: %v", connID, err)
			}
		}
	}
	return nil
}

// ProcessMessage runs the full extract -> validate -> create/notify chain
// for one just-persisted message.
func (s *MentionService) ProcessMessage(message *models.Message, scope MentionScope) error {
	candidates := ExtractCandidates(message.Content)
	if len(candidates) == 0 {
		return nil
	}
	targets, err := s.ResolveAndValidate(candidates, scope)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	return s.CreateAndNotify(message.ID, message.SenderID, targets, scope)
}

// MarkMentionRead flips the only mutable flag on a mention record and
// notifies the mentioning user if online.
func (s *MentionService) MarkMentionRead(mentionID, readerID uint) error {
	mention, err := s.mentions.FindByID(mentionID)
	if err != nil || mention.UserID != readerID {
		return apperr.NotFound("mention not found")
	}
	if err := s.mentions.SetRead(mentionID); err != nil {
		return apperr.PersistenceFailed("mark mention read", err)
	}
	ev := events.MentionRead{MentionID: mentionID, ReaderID: readerID}
	for _, connID := range s.registry.ConnectionsOf(mention.ByUserID) {
		if err := s.pusher.PushMentionRead(connID, ev); err != nil {
			log.Printf("mention-read push to %s failed: %v", connID, err)
		}
	}
	return nil
}
