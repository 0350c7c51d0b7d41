package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"threadly/internal/counter"
	"threadly/internal/db"
	"threadly/internal/identity"
	"threadly/internal/models"
	"threadly/internal/observability"
)

const maxUsernameAttempts = 20

// UserService 外部身份与本地用户的映射
type UserService struct {
	store  Store
	counts *bestEffortCounter
	logger *slog.Logger
}

func NewUserService(store Store, c counter.Counter, metrics *observability.Metrics, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		counts: newBestEffortCounter(c, metrics, logger),
		logger: loggerOr(logger),
	}
}

// EnsureUser 返回身份对应的用户，首次登录时创建；用户名被占用时追加数字后缀
func (s *UserService) EnsureUser(ctx context.Context, id identity.Identity) (*models.User, error) {
	if id.ExternalID == "" {
		return nil, unauthenticated()
	}
	user, err := s.store.UserByExternalID(ctx, id.ExternalID)
	if err == nil {
		return user, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	base := strings.TrimSpace(id.Username)
	if base == "" {
		base = "user"
	}
	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		username := base
		if attempt > 1 {
			username = fmt.Sprintf("%s%d", base, attempt)
		}
		_, err := s.store.UserByUsername(ctx, username)
		if err == nil {
			continue
		}
		if !db.IsNotFound(err) {
			return nil, err
		}

		user = &models.User{Username: username, ExternalID: id.ExternalID}
		err = s.store.CreateUser(ctx, user)
		if err == nil {
			s.logger.InfoContext(ctx, "user created", slog.String("user_id", user.ID), slog.String("username", username))
			return user, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
		// 同一身份的并发首次请求可能已创建用户
		if existing, err := s.store.UserByExternalID(ctx, id.ExternalID); err == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("no free username for %q after %d attempts", base, maxUsernameAttempts)
}

// ByID 用户不存在时返回 nil
func (s *UserService) ByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if db.IsNotFound(err) {
		return nil, nil
	}
	return user, err
}

// Profile 用户资料，发帖数来自计数服务
func (s *UserService) Profile(ctx context.Context, username string) (models.Lookup[models.Profile], error) {
	user, err := s.store.UserByUsername(ctx, username)
	if db.IsNotFound(err) {
		return models.NotFound[models.Profile](), nil
	}
	if err != nil {
		return models.Lookup[models.Profile]{}, err
	}
	return models.Found(s.profileOf(ctx, user)), nil
}

// Me 当前登录用户资料
func (s *UserService) Me(ctx context.Context, caller *models.User) (models.Profile, error) {
	if caller == nil {
		return models.Profile{}, unauthenticated()
	}
	return s.profileOf(ctx, caller), nil
}

func (s *UserService) profileOf(ctx context.Context, user *models.User) models.Profile {
	return models.Profile{
		Username:  user.Username,
		JoinedAt:  user.CreatedAt,
		PostCount: s.counts.count(ctx, counter.PostCountKey(user.ID)),
	}
}
