package db_test

import (
	"context"
	"testing"
	"threadly/internal/db"
	"threadly/internal/models"
	"threadly/internal/testutil"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UserLookups(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")

	byID, err := store.UserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byExt, err := store.UserByExternalID(ctx, "ext|alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byExt.ID)

	_, err = store.UserByUsername(ctx, "bob")
	assert.True(t, db.IsNotFound(err))
}

func TestStore_CommunityNameUnique(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	testutil.MustCommunity(t, store, "golang", alice)

	err := store.CreateCommunity(ctx, &models.Community{Name: "golang", AuthorID: alice.ID})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestStore_CommunityNameKeyUnique(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")

	upper := models.CommunityNameKey("Foo", true)
	require.NoError(t, store.CreateCommunity(ctx, &models.Community{Name: "Foo", NameKey: &upper, AuthorID: alice.ID}))

	lower := models.CommunityNameKey("foo", true)
	err := store.CreateCommunity(ctx, &models.Community{Name: "foo", NameKey: &lower, AuthorID: alice.ID})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	// without folding the keys differ
	exact := models.CommunityNameKey("FOO", false)
	assert.NoError(t, store.CreateCommunity(ctx, &models.Community{Name: "FOO", NameKey: &exact, AuthorID: alice.ID}))
}

func TestStore_CommunityByName(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	golang := testutil.MustCommunity(t, store, "GoLang", alice)

	_, err := store.CommunityByName(ctx, "golang", false)
	assert.True(t, db.IsNotFound(err), "exact match is case-sensitive")

	got, err := store.CommunityByName(ctx, "golang", true)
	require.NoError(t, err)
	assert.Equal(t, golang.ID, got.ID)
}

func TestStore_PostsByCommunityOrder(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	other := testutil.MustCommunity(t, store, "other", alice)

	first := testutil.MustPost(t, store, "first", com, alice)
	time.Sleep(2 * time.Millisecond)
	second := testutil.MustPost(t, store, "second", com, alice)
	testutil.MustPost(t, store, "elsewhere", other, alice)

	require.NoError(t, store.UpdatePostScore(ctx, first.ID, 1))
	require.NoError(t, store.UpdatePostScore(ctx, second.ID, 9))

	posts, err := store.PostsByCommunity(ctx, com.ID, db.OrderCreated)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)

	hot, err := store.PostsByCommunity(ctx, com.ID, db.OrderHot)
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, second.ID, hot[0].ID)
}

func TestStore_DeletePostCascades(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	post := testutil.MustPost(t, store, "hello", com, alice)

	require.NoError(t, store.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: alice.ID, Content: "hi"}))
	require.NoError(t, store.ToggleVote(ctx, post.ID, alice.ID, models.VoteUp))

	require.NoError(t, store.DeletePost(ctx, post.ID))

	_, err := store.PostByID(ctx, post.ID)
	assert.True(t, db.IsNotFound(err))
	comments, err := store.CommentsByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	activity, err := store.PostActivity(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, activity.Upvotes)

	assert.True(t, db.IsNotFound(store.DeletePost(ctx, post.ID)))
}

func TestStore_ToggleVote(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	bob := testutil.MustUser(t, store, "bob")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	post := testutil.MustPost(t, store, "hello", com, alice)

	require.NoError(t, store.ToggleVote(ctx, post.ID, bob.ID, models.VoteUp))
	tally, err := store.VoteTally(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally.Upvotes)
	assert.Equal(t, models.VoteUp, tally.MyVote)

	// switching direction replaces the vote
	require.NoError(t, store.ToggleVote(ctx, post.ID, bob.ID, models.VoteDown))
	tally, err = store.VoteTally(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tally.Upvotes)
	assert.Equal(t, int64(1), tally.Downvotes)
	assert.Equal(t, models.VoteDown, tally.MyVote)

	// same direction again removes it
	require.NoError(t, store.ToggleVote(ctx, post.ID, bob.ID, models.VoteDown))
	tally, err = store.VoteTally(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tally.Downvotes)
	assert.Equal(t, models.VoteNone, tally.MyVote)

	assert.Error(t, store.ToggleVote(ctx, post.ID, bob.ID, models.VoteNone))
}

func TestStore_SearchCommunitiesRanking(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	for _, name := range []string{"learn_golang", "golang_jobs", "golang", "rust", "go"} {
		testutil.MustCommunity(t, store, name, alice)
	}

	got, err := store.SearchCommunities(ctx, "golang", 10)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"golang", "golang_jobs", "learn_golang"}, names)

	got, err = store.SearchCommunities(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SearchCommunitiesLimitAndEscaping(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	for i := 0; i < 12; i++ {
		testutil.MustCommunity(t, store, "topic_"+string(rune('a'+i)), alice)
	}
	testutil.MustCommunity(t, store, "topicz", alice)

	got, err := store.SearchCommunities(ctx, "topic", 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)

	// "_" is literal, so "topicz" does not match "topic_"
	got, err = store.SearchCommunities(ctx, "topic_", 20)
	require.NoError(t, err)
	assert.Len(t, got, 12)
}

func TestStore_SearchPostsScopedToCommunity(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	other := testutil.MustCommunity(t, store, "other", alice)

	hello := testutil.MustPost(t, store, "Hello", com, alice)
	world := testutil.MustPost(t, store, "hello world again", com, alice)
	testutil.MustPost(t, store, "hello from elsewhere", other, alice)
	testutil.MustPost(t, store, "unrelated", com, alice)

	got, err := store.SearchPosts(ctx, "hello", com.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, hello.ID, got[0].ID)
	assert.Equal(t, world.ID, got[1].ID)

	got, err = store.SearchPosts(ctx, "again hello", com.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, world.ID, got[0].ID)
}
