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
	"threadly/internal/utils"

	"golang.org/x/sync/errgroup"
)

// CommentService 评论
type CommentService struct {
	store   Store
	counts  *bestEffortCounter
	ranking ScoreScheduler
}

func NewCommentService(store Store, c counter.Counter, ranking ScoreScheduler, metrics *observability.Metrics, logger *slog.Logger) *CommentService {
	if ranking == nil {
		ranking = noopScheduler{}
	}
	return &CommentService{
		store:   store,
		counts:  newBestEffortCounter(c, metrics, logger),
		ranking: ranking,
	}
}

// Create 发表评论，帖子评论数 +1
func (s *CommentService) Create(ctx context.Context, caller *models.User, postID, content string) (*models.Comment, error) {
	if caller == nil {
		return nil, unauthenticated()
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "Comment can't be empty")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: caller.ID, Content: content}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.counts.inc(ctx, counter.CommentCountKey(postID))
	s.ranking.ScheduleUpdate(postID)
	return comment, nil
}

// List 按时间顺序返回帖子评论，作者已删除时 author 为空
func (s *CommentService) List(ctx context.Context, postID string) ([]models.EnrichedComment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.CommentsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	// 每个作者只查询一次
	authors := make(map[string]*models.AuthorRef)
	for _, c := range comments {
		authors[c.AuthorID] = nil
	}
	ids := make([]string, 0, len(authors))
	for id := range authors {
		ids = append(ids, id)
	}
	refs := make([]*models.AuthorRef, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			u, err := s.store.UserByID(gctx, id)
			if db.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			refs[i] = &models.AuthorRef{Username: u.Username}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		authors[id] = refs[i]
	}

	out := make([]models.EnrichedComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, models.EnrichedComment{
			Comment:     c,
			ContentHTML: utils.RenderMarkdown(c.Content),
			Author:      authors[c.AuthorID],
		})
	}
	return out, nil
}

// Count 帖子评论数（近似值）
func (s *CommentService) Count(ctx context.Context, postID string) int64 {
	return s.counts.count(ctx, counter.CommentCountKey(postID))
}

// Delete 仅评论作者可删除
func (s *CommentService) Delete(ctx context.Context, caller *models.User, commentID string) error {
	if caller == nil {
		return unauthenticated()
	}
	comment, err := s.store.CommentByID(ctx, commentID)
	if db.IsNotFound(err) {
		return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgCommentNotFound, err)
	}
	if err != nil {
		return err
	}
	if comment.AuthorID != caller.ID {
		return apperrors.New(apperrors.CodeUnauthorized, apperrors.MsgUnauthorizedComment)
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		if db.IsNotFound(err) {
			return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgCommentNotFound, err)
		}
		return err
	}
	s.counts.dec(ctx, counter.CommentCountKey(comment.PostID))
	s.ranking.ScheduleUpdate(comment.PostID)
	return nil
}

func (s *CommentService) requirePost(ctx context.Context, postID string) error {
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		if db.IsNotFound(err) {
			return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgPostNotFound, err)
		}
		return err
	}
	return nil
}
