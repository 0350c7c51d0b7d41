package services

import (
	"context"
	"regexp"
	"strings"
	"threadly/internal/apperrors"
	"threadly/internal/db"
	"threadly/internal/models"
)

var communityNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// CommunityService 社区相关的查询与创建
type CommunityService struct {
	store    Store
	enricher *Enricher
	foldCase bool
}

// NewCommunityService foldCase 为 true 时，仅大小写不同的名称视为重复，查询忽略大小写
func NewCommunityService(store Store, enricher *Enricher, foldCase bool) *CommunityService {
	return &CommunityService{store: store, enricher: enricher, foldCase: foldCase}
}

// Create 创建社区，名称重复时返回 DuplicateName 且不写入
func (s *CommunityService) Create(ctx context.Context, caller *models.User, name string, description *string) (*models.Community, error) {
	if caller == nil {
		return nil, unauthenticated()
	}
	if !communityNamePattern.MatchString(name) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"Community name must be 3-21 characters of letters, digits or underscores")
	}

	_, err := s.store.CommunityByName(ctx, name, s.foldCase)
	if err == nil {
		return nil, apperrors.New(apperrors.CodeDuplicateName, apperrors.MsgCommunityExists)
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	key := models.CommunityNameKey(name, s.foldCase)
	community := &models.Community{
		Name:        name,
		NameKey:     &key,
		Description: trimmedOrNil(description),
		AuthorID:    caller.ID,
	}
	if err := s.store.CreateCommunity(ctx, community); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.CodeDuplicateName, apperrors.MsgCommunityExists, err)
		}
		return nil, err
	}
	return community, nil
}

// Get 按名称获取社区及其帖子
func (s *CommunityService) Get(ctx context.Context, name string) (models.Lookup[models.CommunityWithPosts], error) {
	community, err := s.store.CommunityByName(ctx, name, s.foldCase)
	if db.IsNotFound(err) {
		return models.NotFound[models.CommunityWithPosts](), nil
	}
	if err != nil {
		return models.Lookup[models.CommunityWithPosts]{}, err
	}

	posts, err := s.store.PostsByCommunity(ctx, community.ID, db.OrderCreated)
	if err != nil {
		return models.Lookup[models.CommunityWithPosts]{}, err
	}
	enriched, err := s.enricher.EnrichMany(ctx, posts)
	if err != nil {
		return models.Lookup[models.CommunityWithPosts]{}, err
	}
	return models.Found(models.CommunityWithPosts{Community: *community, Posts: enriched}), nil
}

// Search 按名称搜索社区，空查询直接返回空结果
func (s *CommunityService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	communities, err := s.store.SearchCommunities(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(communities))
	for _, c := range communities {
		results = append(results, models.SearchResult{
			ID:          c.ID,
			Type:        models.SearchTypeCommunity,
			Title:       c.Name,
			Name:        c.Name,
			Description: c.Description,
		})
	}
	return results, nil
}

func (s *CommunityService) List(ctx context.Context) ([]models.Community, error) {
	communities, err := s.store.ListCommunities(ctx)
	if err != nil {
		return nil, err
	}
	if communities == nil {
		communities = []models.Community{}
	}
	return communities, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func unauthenticated() error {
	return apperrors.New(apperrors.CodeUnauthenticated, apperrors.MsgUnauthenticated)
}
