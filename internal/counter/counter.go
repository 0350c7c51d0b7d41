// Package counter keeps approximate, sharded counts keyed by string.
//
// Counts are best-effort: they are updated after the primary write
// succeeds and are not transactional with the record store.
package counter

import "context"

// Counter is the counting service used for per-user post counts and
// per-post comment counts.
type Counter interface {
	Inc(ctx context.Context, key string) error
	Dec(ctx context.Context, key string) error
	Count(ctx context.Context, key string) (int64, error)
}

// PostCountKey counts the posts of a user.
func PostCountKey(userID string) string {
	return "posts:" + userID
}

// CommentCountKey counts the comments of a post.
func CommentCountKey(postID string) string {
	return "comments:" + postID
}
