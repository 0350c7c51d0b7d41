package services

import (
	"context"
	"log/slog"
	"strings"
	"threadly/internal/apperrors"
	"threadly/internal/counter"
	"threadly/internal/db"
	"threadly/internal/models"
	"threadly/internal/observability"
)

// PostServiceDeps 帖子服务依赖
type PostServiceDeps struct {
	Store    Store
	Enricher *Enricher
	Counter  counter.Counter
	Ranking  ScoreScheduler
	FoldCase bool
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// PostService 帖子查询与增删
type PostService struct {
	store    Store
	enricher *Enricher
	counts   *bestEffortCounter
	ranking  ScoreScheduler
	foldCase bool
}

func NewPostService(deps PostServiceDeps) *PostService {
	ranking := deps.Ranking
	if ranking == nil {
		ranking = noopScheduler{}
	}
	return &PostService{
		store:    deps.Store,
		enricher: deps.Enricher,
		counts:   newBestEffortCounter(deps.Counter, deps.Metrics, deps.Logger),
		ranking:  ranking,
		foldCase: deps.FoldCase,
	}
}

// CreatePostInput 发帖参数
type CreatePostInput struct {
	Subject     string
	Body        string
	CommunityID string
	Image       *string // 图片存储 ID
}

// Create 发帖，成功后作者发帖数 +1（尽力而为）
func (s *PostService) Create(ctx context.Context, caller *models.User, in CreatePostInput) (string, error) {
	if caller == nil {
		return "", unauthenticated()
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return "", apperrors.New(apperrors.CodeInvalidArgument, "Subject is required")
	}

	if _, err := s.store.CommunityByID(ctx, in.CommunityID); err != nil {
		if db.IsNotFound(err) {
			return "", apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgCommunityNotFound, err)
		}
		return "", err
	}

	post := &models.Post{
		Subject:     subject,
		Body:        in.Body,
		CommunityID: in.CommunityID,
		AuthorID:    caller.ID,
		Image:       trimmedOrNil(in.Image),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return "", err
	}

	s.counts.inc(ctx, counter.PostCountKey(caller.ID))
	s.ranking.ScheduleUpdate(post.ID)
	return post.ID, nil
}

func (s *PostService) Get(ctx context.Context, id string) (models.Lookup[models.EnrichedPost], error) {
	post, err := s.store.PostByID(ctx, id)
	if db.IsNotFound(err) {
		return models.NotFound[models.EnrichedPost](), nil
	}
	if err != nil {
		return models.Lookup[models.EnrichedPost]{}, err
	}
	enriched, err := s.enricher.EnrichOne(ctx, *post)
	if err != nil {
		return models.Lookup[models.EnrichedPost]{}, err
	}
	return models.Found(enriched), nil
}

// ListByCommunityName 社区不存在时返回 not_found，由调用方决定如何呈现
func (s *PostService) ListByCommunityName(ctx context.Context, name string, order db.PostOrder) (models.Lookup[[]models.EnrichedPost], error) {
	community, err := s.store.CommunityByName(ctx, name, s.foldCase)
	if db.IsNotFound(err) {
		return models.NotFound[[]models.EnrichedPost](), nil
	}
	if err != nil {
		return models.Lookup[[]models.EnrichedPost]{}, err
	}

	posts, err := s.store.PostsByCommunity(ctx, community.ID, order)
	if err != nil {
		return models.Lookup[[]models.EnrichedPost]{}, err
	}
	enriched, err := s.enricher.EnrichMany(ctx, posts)
	if err != nil {
		return models.Lookup[[]models.EnrichedPost]{}, err
	}
	return models.Found(enriched), nil
}

// ListByAuthorUsername 用户不存在时返回空列表
func (s *PostService) ListByAuthorUsername(ctx context.Context, username string) ([]models.EnrichedPost, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if db.IsNotFound(err) {
		return []models.EnrichedPost{}, nil
	}
	if err != nil {
		return nil, err
	}

	posts, err := s.store.PostsByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichMany(ctx, posts)
}

// Delete 仅作者可删除；先减计数再删帖
func (s *PostService) Delete(ctx context.Context, caller *models.User, id string) error {
	if caller == nil {
		return unauthenticated()
	}
	post, err := s.store.PostByID(ctx, id)
	if db.IsNotFound(err) {
		return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgPostNotFound, err)
	}
	if err != nil {
		return err
	}
	if post.AuthorID != caller.ID {
		return apperrors.New(apperrors.CodeUnauthorized, apperrors.MsgUnauthorizedDelete)
	}

	s.counts.dec(ctx, counter.PostCountKey(post.AuthorID))
	if err := s.store.DeletePost(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgPostNotFound, err)
		}
		return err
	}
	return nil
}

// Search 在指定社区内按标题搜索
func (s *PostService) Search(ctx context.Context, query, communityName string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	community, err := s.store.CommunityByName(ctx, communityName, s.foldCase)
	if db.IsNotFound(err) {
		return []models.SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	posts, err := s.store.SearchPosts(ctx, query, community.ID, searchLimit)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(posts))
	for _, p := range posts {
		results = append(results, models.SearchResult{
			ID:    p.ID,
			Type:  models.SearchTypePost,
			Title: p.Subject,
			Name:  community.Name,
		})
	}
	return results, nil
}
