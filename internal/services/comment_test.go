package services

import (
	"context"
	"testing"
	"threadly/internal/apperrors"
	"threadly/internal/counter"
	"threadly/internal/models"
	"threadly/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	bob := testutil.MustUser(t, f.db, "bob")
	com := testutil.MustCommunity(t, f.db, "testcom", alice)
	post := testutil.MustPost(t, f.db, "Hello", com, alice)

	first, err := f.comments.Create(ctx, bob, post.ID, "  nice *post*  ")
	require.NoError(t, err)
	_, err = f.comments.Create(ctx, alice, post.ID, "thanks")
	require.NoError(t, err)

	list, err := f.comments.List(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "nice *post*", list[0].Content)
	assert.Contains(t, list[0].ContentHTML, "<em>post</em>")
	assert.Equal(t, &models.AuthorRef{Username: "bob"}, list[0].Author)
	assert.Equal(t, &models.AuthorRef{Username: "alice"}, list[1].Author)
	assert.Equal(t, int64(2), f.comments.Count(ctx, post.ID))

	err = f.comments.Delete(ctx, alice, first.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, f.comments.Delete(ctx, bob, first.ID))
	assert.Equal(t, int64(1), f.comments.Count(ctx, post.ID))
	assert.ErrorIs(t, f.comments.Delete(ctx, bob, first.ID), apperrors.ErrNotFound)
	assert.Equal(t, int64(1), f.count(t, counter.CommentCountKey(post.ID)))
}

func TestCommentService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	com := testutil.MustCommunity(t, f.db, "testcom", alice)
	post := testutil.MustPost(t, f.db, "Hello", com, alice)

	_, err := f.comments.Create(ctx, nil, post.ID, "hi")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = f.comments.Create(ctx, alice, post.ID, "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = f.comments.Create(ctx, alice, "missing", "hi")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.comments.List(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVoteService_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	bob := testutil.MustUser(t, f.db, "bob")
	com := testutil.MustCommunity(t, f.db, "testcom", alice)
	post := testutil.MustPost(t, f.db, "Hello", com, alice)

	tally, err := f.votes.Upvote(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{PostID: post.ID, Upvotes: 1, MyVote: models.VoteUp}, tally)

	tally, err = f.votes.Downvote(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{PostID: post.ID, Downvotes: 1, MyVote: models.VoteDown}, tally)

	_, err = f.votes.Upvote(ctx, alice, post.ID)
	require.NoError(t, err)

	tally, err = f.votes.Counts(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteTally{PostID: post.ID, Upvotes: 1, Downvotes: 1}, tally)

	tally, err = f.votes.Downvote(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteNone, tally.MyVote)
	assert.Zero(t, tally.Downvotes)

	_, err = f.votes.Upvote(ctx, nil, post.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = f.votes.Upvote(ctx, bob, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
