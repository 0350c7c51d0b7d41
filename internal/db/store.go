package db

import (
	"context"
	"errors"
	"fmt"
	"threadly/internal/models"
	"time"

	"gorm.io/gorm"
)

// Store is the GORM-backed record store: users, communities, posts,
// comments and votes.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ---- users ----

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) UserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ---- communities ----

func (s *Store) CommunityByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&community).Error; err != nil {
		return nil, notFound(err)
	}
	return &community, nil
}

// CommunityByName matches the name exactly, or ignoring case when foldCase
// is set.
func (s *Store) CommunityByName(ctx context.Context, name string, foldCase bool) (*models.Community, error) {
	q := s.db.WithContext(ctx)
	if foldCase {
		q = q.Where("LOWER(name) = LOWER(?)", name)
	} else {
		q = q.Where("name = ?", name)
	}
	var community models.Community
	if err := q.First(&community).Error; err != nil {
		return nil, notFound(err)
	}
	return &community, nil
}

func (s *Store) CreateCommunity(ctx context.Context, community *models.Community) error {
	if err := s.db.WithContext(ctx).Create(community).Error; err != nil {
		return fmt.Errorf("create community: %w", err)
	}
	return nil
}

func (s *Store) ListCommunities(ctx context.Context) ([]models.Community, error) {
	var communities []models.Community
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&communities).Error; err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return communities, nil
}

// ---- posts ----

type PostOrder int

const (
	OrderCreated PostOrder = iota // oldest first, the index order
	OrderHot                      // highest score first
)

func (o PostOrder) clause() string {
	if o == OrderHot {
		return "score DESC, created_at DESC, id ASC"
	}
	return "created_at ASC, id ASC"
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *Store) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *Store) PostsByCommunity(ctx context.Context, communityID string, order PostOrder) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order(order.clause()).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by community: %w", err)
	}
	return posts, nil
}

func (s *Store) PostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order(OrderCreated.clause()).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

// DeletePost removes the post together with its comments and votes.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Upvote{}).Error; err != nil {
			return fmt.Errorf("delete upvotes: %w", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Downvote{}).Error; err != nil {
			return fmt.Errorf("delete downvotes: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) UpdatePostScore(ctx context.Context, id string, score int) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).UpdateColumn("score", score).Error
}

// PostActivity holds the inputs of the ranking formula.
type PostActivity struct {
	Upvotes   int64
	Downvotes int64
	Comments  int64
}

func (s *Store) PostActivity(ctx context.Context, postID string) (PostActivity, error) {
	var a PostActivity
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Upvote{}).Where("post_id = ?", postID).Count(&a.Upvotes).Error; err != nil {
		return a, err
	}
	if err := db.Model(&models.Downvote{}).Where("post_id = ?", postID).Count(&a.Downvotes).Error; err != nil {
		return a, err
	}
	if err := db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&a.Comments).Error; err != nil {
		return a, err
	}
	return a, nil
}

// RecentPostIDs returns posts created after since plus the top-scored ones,
// used by the nightly score refresh.
func (s *Store) RecentPostIDs(ctx context.Context, since time.Time, top int) ([]string, error) {
	var recent, best []string
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Post{}).Where("created_at >= ?", since).Pluck("id", &recent).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Order("score DESC").Limit(top).Pluck("id", &best).Error; err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(recent)+len(best))
	ids := make([]string, 0, len(recent)+len(best))
	for _, id := range append(recent, best...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---- comments ----

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *Store) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

func (s *Store) CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- votes ----

// ToggleVote flips the user's vote in the given direction: voting the same
// way twice removes the vote, voting the other way replaces it.
func (s *Store) ToggleVote(ctx context.Context, postID, userID string, dir models.VoteDirection) error {
	var same, opposite interface{}
	var row interface{}
	switch dir {
	case models.VoteUp:
		same, opposite = &models.Upvote{}, &models.Downvote{}
		row = &models.Upvote{PostID: postID, UserID: userID}
	case models.VoteDown:
		same, opposite = &models.Downvote{}, &models.Upvote{}
		row = &models.Downvote{PostID: postID, UserID: userID}
	default:
		return fmt.Errorf("invalid vote direction %q", dir)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(same)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(opposite).Error; err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil && !IsUniqueViolation(err) {
			return err
		}
		return nil
	})
}

func (s *Store) VoteTally(ctx context.Context, postID, userID string) (models.VoteTally, error) {
	tally := models.VoteTally{PostID: postID}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Upvote{}).Where("post_id = ?", postID).Count(&tally.Upvotes).Error; err != nil {
		return tally, err
	}
	if err := db.Model(&models.Downvote{}).Where("post_id = ?", postID).Count(&tally.Downvotes).Error; err != nil {
		return tally, err
	}
	if userID == "" {
		return tally, nil
	}

	var n int64
	if err := db.Model(&models.Upvote{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error; err != nil {
		return tally, err
	}
	if n > 0 {
		tally.MyVote = models.VoteUp
		return tally, nil
	}
	if err := db.Model(&models.Downvote{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error; err != nil {
		return tally, err
	}
	if n > 0 {
		tally.MyVote = models.VoteDown
	}
	return tally, nil
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
