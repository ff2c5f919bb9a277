package cache

import (
	"fmt"
	"strconv"
	"time"
)

const OnlineUsersTTL = 90 * time.Second // match pong timeout

// PresenceCache mirrors the in-process presence registry into Redis so
// request/response handlers outside the socket path can read online status.
// Best effort: the registry stays the source of truth.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func (pc *PresenceCache) SetUserOnline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("online:users", userID); err != nil {
		return err
	}
	userKey := fmt.Sprintf("online:%d", userID)
	return pc.redis.Set(userKey, []byte("1"), OnlineUsersTTL)
}

func (pc *PresenceCache) SetUserOffline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("online:users", userID); err != nil {
		return err
	}
	return pc.redis.Delete(fmt.Sprintf("online:%d", userID))
}

func (pc *PresenceCache) IsUserOnline(userID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.Exists(fmt.Sprintf("online:%d", userID))
}

func (pc *PresenceCache) GetOnlineUsers() ([]uint, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers("online:users")
	if err != nil {
		return nil, err
	}
	userIDs := make([]uint, 0, len(members))
	for _, member := range members {
		if id, err := strconv.ParseUint(member, 10, 32); err == nil {
			userIDs = append(userIDs, uint(id))
		}
	}
	return userIDs, nil
}
