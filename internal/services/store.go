package services

import (
	"context"
	"log/slog"
	"threadly/internal/db"
	"threadly/internal/models"
	"time"
)

// UserReader 按 ID 查询用户
type UserReader interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// CommunityReader 按 ID 查询社区
type CommunityReader interface {
	CommunityByID(ctx context.Context, id string) (*models.Community, error)
}

// ImageResolver 将图片存储 ID 解析为 URL，图片不存在时 ok 为 false
type ImageResolver interface {
	URL(ctx context.Context, id string) (url string, ok bool, err error)
}

// Store 服务层使用的数据存储，由 *db.Store 实现
type Store interface {
	UserReader
	CommunityReader

	UserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	CommunityByName(ctx context.Context, name string, foldCase bool) (*models.Community, error)
	CreateCommunity(ctx context.Context, community *models.Community) error
	ListCommunities(ctx context.Context) ([]models.Community, error)
	SearchCommunities(ctx context.Context, query string, limit int) ([]models.Community, error)

	CreatePost(ctx context.Context, post *models.Post) error
	PostByID(ctx context.Context, id string) (*models.Post, error)
	PostsByCommunity(ctx context.Context, communityID string, order db.PostOrder) ([]models.Post, error)
	PostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	SearchPosts(ctx context.Context, query, communityID string, limit int) ([]models.Post, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	ToggleVote(ctx context.Context, postID, userID string, dir models.VoteDirection) error
	VoteTally(ctx context.Context, postID, userID string) (models.VoteTally, error)
}

// ScoreStore 排名服务所需的存储
type ScoreStore interface {
	PostByID(ctx context.Context, id string) (*models.Post, error)
	PostActivity(ctx context.Context, postID string) (db.PostActivity, error)
	UpdatePostScore(ctx context.Context, id string, score int) error
	RecentPostIDs(ctx context.Context, since time.Time, top int) ([]string, error)
}

var _ Store = (*db.Store)(nil)
var _ ScoreStore = (*db.Store)(nil)

// ScoreScheduler 将帖子加入分数重算队列
type ScoreScheduler interface {
	ScheduleUpdate(postID string)
}

type noopScheduler struct{}

func (noopScheduler) ScheduleUpdate(string) {}

// searchLimit 搜索结果上限
const searchLimit = 10

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
