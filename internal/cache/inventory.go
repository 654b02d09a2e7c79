package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	PostKeyPrefix       = "post:%d"
	PageKeyPrefix       = "page:%s"
	CommunityKeyPrefix  = "community:%s"
	PublicFeedKeyPrefix = "feed:public:%s:%d"
)

const (
	UserTTL       = 5 * time.Minute
	PostTTL       = 30 * time.Minute
	PageTTL       = 10 * time.Minute
	CommunityTTL  = 10 * time.Minute
	PublicFeedTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func PageKey(slug string) string {
	return fmt.Sprintf(PageKeyPrefix, slug)
}

func CommunityKey(slug string) string {
	return fmt.Sprintf(CommunityKeyPrefix, slug)
}

// PublicFeedKey caches only the anonymous first page, the single feed shape
// shared by every logged-out visitor. Viewer-specific pages are never cached.
func PublicFeedKey(sort string, limit int) string {
	return fmt.Sprintf(PublicFeedKeyPrefix, sort, limit)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidatePublicFeed drops every cached anonymous first page. Called on
// post create/delete; like/comment churn is left to the short TTL.
func InvalidatePublicFeed(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "feed:public:*", 64).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
