package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultUserCacheSize = 4096

// cachedService is a read-through cache for user-info lookups, layered on
// any backend. Writes that touch the users table invalidate the entry.
type cachedService struct {
	Service
	byNo *lru.Cache[int64, UserInfo]
	byID *lru.Cache[string, int64]
}

// NewCachedService wraps a backend with a user-info LRU. size <= 0 picks
// the default.
func NewCachedService(inner Service, size int) (Service, error) {
	if size <= 0 {
		size = defaultUserCacheSize
	}
	byNo, err := lru.New[int64, UserInfo](size)
	if err != nil {
		return nil, err
	}
	byID, err := lru.New[string, int64](size)
	if err != nil {
		return nil, err
	}
	return &cachedService{Service: inner, byNo: byNo, byID: byID}, nil
}

func (c *cachedService) GetUserInfoByNo(ctx context.Context, no int64) (UserInfo, error) {
	if info, ok := c.byNo.Get(no); ok {
		return info, nil
	}
	info, err := c.Service.GetUserInfoByNo(ctx, no)
	if err != nil {
		return UserInfo{}, err
	}
	c.put(info)
	return info, nil
}

func (c *cachedService) GetUserInfoByID(ctx context.Context, id string) (UserInfo, error) {
	if no, ok := c.byID.Get(id); ok {
		if info, ok := c.byNo.Get(no); ok {
			return info, nil
		}
	}
	info, err := c.Service.GetUserInfoByID(ctx, id)
	if err != nil {
		return UserInfo{}, err
	}
	c.put(info)
	return info, nil
}

func (c *cachedService) RegisterUser(ctx context.Context, id, name, email, password string) (UserInfo, error) {
	info, err := c.Service.RegisterUser(ctx, id, name, email, password)
	if err != nil {
		return UserInfo{}, err
	}
	c.put(info)
	return info, nil
}

func (c *cachedService) ChangeRating(ctx context.Context, userNo int64, gameId string, diff, rating int) error {
	// The rating column lives on the users row; drop the stale entry.
	c.byNo.Remove(userNo)
	return c.Service.ChangeRating(ctx, userNo, gameId, diff, rating)
}

func (c *cachedService) put(info UserInfo) {
	c.byNo.Add(info.No, info)
	c.byID.Add(info.Id, info.No)
}
