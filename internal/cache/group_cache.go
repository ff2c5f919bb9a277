package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	GroupMembersTTL = 2 * time.Minute
	UserChannelsTTL = 2 * time.Minute
)

// GroupCache caches membership lookups that run on every connect and every
// group-scoped mention validation.
type GroupCache struct {
	redis *RedisCache
}

func NewGroupCache(redis *RedisCache) *GroupCache {
	return &GroupCache{redis: redis}
}

func membersKey(groupID uint) string {
	return fmt.Sprintf("group:%d:members", groupID)
}

func channelsKey(userID uint) string {
	return fmt.Sprintf("user:%d:channels", userID)
}

func (gc *GroupCache) GetMembers(groupID uint) ([]uint, bool) {
	if gc == nil || gc.redis == nil {
		return nil, false
	}
	data, err := gc.redis.Get(membersKey(groupID))
	if err != nil || data == nil {
		return nil, false
	}
	var members []uint
	if err := msgpack.Unmarshal(data, &members); err != nil {
		return nil, false
	}
	return members, true
}

func (gc *GroupCache) SetMembers(groupID uint, members []uint) {
	if gc == nil || gc.redis == nil {
		return
	}
	data, err := msgpack.Marshal(members)
	if err != nil {
		return
	}
	_ = gc.redis.Set(membersKey(groupID), data, GroupMembersTTL)
}

func (gc *GroupCache) GetChannels(userID uint) ([]uint, bool) {
	if gc == nil || gc.redis == nil {
		return nil, false
	}
	data, err := gc.redis.Get(channelsKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	var channels []uint
	if err := msgpack.Unmarshal(data, &channels); err != nil {
		return nil, false
	}
	return channels, true
}

func (gc *GroupCache) SetChannels(userID uint, channels []uint) {
	if gc == nil || gc.redis == nil {
		return
	}
	data, err := msgpack.Marshal(channels)
	if err != nil {
		return
	}
	_ = gc.redis.Set(channelsKey(userID), data, UserChannelsTTL)
}

// InvalidateGroup drops cached membership after any membership mutation.
func (gc *GroupCache) InvalidateGroup(groupID uint) {
	if gc == nil || gc.redis == nil {
		return
	}
	_ = gc.redis.Delete(membersKey(groupID))
}

func (gc *GroupCache) InvalidateUser(userID uint) {
	if gc == nil || gc.redis == nil {
		return
	}
	_ = gc.redis.Delete(channelsKey(userID))
}
