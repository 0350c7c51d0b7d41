package services

import (
	"context"
	"sync"
	"testing"
	"threadly/internal/counter"
	"threadly/internal/db"
	"threadly/internal/models"
	"threadly/internal/testutil"

	"github.com/stretchr/testify/require"
)

// spyStore counts the search-index and name lookups that pass through it.
type spyStore struct {
	Store
	mu       sync.Mutex
	searches int
	byName   int

	// staleByName makes CommunityByName miss, as a concurrent create would.
	staleByName bool
}

func (s *spyStore) SearchCommunities(ctx context.Context, query string, limit int) ([]models.Community, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	return s.Store.SearchCommunities(ctx, query, limit)
}

func (s *spyStore) SearchPosts(ctx context.Context, query, communityID string, limit int) ([]models.Post, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	return s.Store.SearchPosts(ctx, query, communityID, limit)
}

func (s *spyStore) CommunityByName(ctx context.Context, name string, foldCase bool) (*models.Community, error) {
	s.mu.Lock()
	s.byName++
	stale := s.staleByName
	s.mu.Unlock()
	if stale {
		return nil, db.ErrNotFound
	}
	return s.Store.CommunityByName(ctx, name, foldCase)
}

type fixture struct {
	db          *db.Store
	store       *spyStore
	counter     *counter.BadgerCounter
	communities *CommunityService
	posts       *PostService
	comments    *CommentService
	votes       *VoteService
	users       *UserService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureFold(t, false)
}

func newFixtureFold(t *testing.T, foldCase bool) *fixture {
	t.Helper()
	base := testutil.NewStore(t)
	c, err := counter.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	store := &spyStore{Store: base}
	enricher := NewEnricher(EnricherDeps{Users: store, Communities: store})
	return &fixture{
		db:          base,
		store:       store,
		counter:     c,
		communities: NewCommunityService(store, enricher, foldCase),
		posts: NewPostService(PostServiceDeps{
			Store:    store,
			Enricher: enricher,
			Counter:  c,
			FoldCase: foldCase,
		}),
		comments: NewCommentService(store, c, nil, nil, nil),
		votes:    NewVoteService(store, nil),
		users:    NewUserService(store, c, nil, nil),
	}
}

func (f *fixture) count(t *testing.T, key string) int64 {
	t.Helper()
	n, err := f.counter.Count(context.Background(), key)
	require.NoError(t, err)
	return n
}
