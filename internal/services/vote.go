package services

import (
	"context"
	"threadly/internal/apperrors"
	"threadly/internal/db"
	"threadly/internal/models"
)

// VoteService 点赞/点踩，重复投同向票即取消
type VoteService struct {
	store   Store
	ranking ScoreScheduler
}

func NewVoteService(store Store, ranking ScoreScheduler) *VoteService {
	if ranking == nil {
		ranking = noopScheduler{}
	}
	return &VoteService{store: store, ranking: ranking}
}

func (s *VoteService) Upvote(ctx context.Context, caller *models.User, postID string) (models.VoteTally, error) {
	return s.vote(ctx, caller, postID, models.VoteUp)
}

func (s *VoteService) Downvote(ctx context.Context, caller *models.User, postID string) (models.VoteTally, error) {
	return s.vote(ctx, caller, postID, models.VoteDown)
}

func (s *VoteService) vote(ctx context.Context, caller *models.User, postID string, dir models.VoteDirection) (models.VoteTally, error) {
	if caller == nil {
		return models.VoteTally{}, unauthenticated()
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return models.VoteTally{}, err
	}
	if err := s.store.ToggleVote(ctx, postID, caller.ID, dir); err != nil {
		return models.VoteTally{}, err
	}
	s.ranking.ScheduleUpdate(postID)
	return s.store.VoteTally(ctx, postID, caller.ID)
}

// Counts 票数；caller 为空时不返回 myVote
func (s *VoteService) Counts(ctx context.Context, caller *models.User, postID string) (models.VoteTally, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return models.VoteTally{}, err
	}
	userID := ""
	if caller != nil {
		userID = caller.ID
	}
	return s.store.VoteTally(ctx, postID, userID)
}

func (s *VoteService) requirePost(ctx context.Context, postID string) error {
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		if db.IsNotFound(err) {
			return apperrors.Wrap(apperrors.CodeNotFound, apperrors.MsgPostNotFound, err)
		}
		return err
	}
	return nil
}
