package cache

import (
	"context"
	"time"
)

const (
	UserKeyPrefix  = "user:"
	PostKeyPrefix  = "post:"
	RecentPostsKey = "posts:recent"
)

const (
	UserTTL   = 1 * time.Minute
	PostTTL   = 10 * time.Minute
	RecentTTL = 1 * time.Minute
)

func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

func PostKey(postID string) string {
	return PostKeyPrefix + postID
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID), RecentPostsKey)
}

func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, RecentPostsKey)
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}
