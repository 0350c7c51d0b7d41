package services

import (
	"context"
	"testing"
	"threadly/internal/apperrors"
	"threadly/internal/models"
	"threadly/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityService_CreateRejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	bob := testutil.MustUser(t, f.db, "bob")

	first, err := f.communities.Create(ctx, alice, "testcom", strPtr("  first  "))
	require.NoError(t, err)
	assert.Equal(t, "first", *first.Description)

	_, err = f.communities.Create(ctx, bob, "testcom", strPtr("second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)
	assert.Equal(t, apperrors.MsgCommunityExists, apperrors.As(err).Message)

	all, err := f.communities.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, alice.ID, all[0].AuthorID)
	assert.Equal(t, "first", *all[0].Description)
}

func TestCommunityService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	alice := testutil.MustUser(t, f.db, "alice")

	tests := []struct {
		name    string
		caller  *models.User
		input   string
		wantErr error
	}{
		{"anonymous", nil, "testcom", apperrors.ErrUnauthenticated},
		{"too short", alice, "ab", apperrors.ErrInvalidArgument},
		{"too long", alice, "abcdefghijklmnopqrstuv", apperrors.ErrInvalidArgument},
		{"spaces", alice, "test com", apperrors.ErrInvalidArgument},
		{"punctuation", alice, "test-com", apperrors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.communities.Create(context.Background(), tt.caller, tt.input, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommunityService_NameCase(t *testing.T) {
	ctx := context.Background()

	t.Run("case sensitive by default", func(t *testing.T) {
		f := newFixture(t)
		alice := testutil.MustUser(t, f.db, "alice")
		_, err := f.communities.Create(ctx, alice, "GoLang", nil)
		require.NoError(t, err)
		_, err = f.communities.Create(ctx, alice, "golang", nil)
		assert.NoError(t, err)
	})

	t.Run("fold case", func(t *testing.T) {
		f := newFixtureFold(t, true)
		alice := testutil.MustUser(t, f.db, "alice")
		_, err := f.communities.Create(ctx, alice, "GoLang", nil)
		require.NoError(t, err)
		_, err = f.communities.Create(ctx, alice, "golang", nil)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

		got, err := f.communities.Get(ctx, "GOLANG")
		require.NoError(t, err)
		assert.True(t, got.IsFound())
	})

	t.Run("fold case concurrent create", func(t *testing.T) {
		f := newFixtureFold(t, true)
		alice := testutil.MustUser(t, f.db, "alice")
		_, err := f.communities.Create(ctx, alice, "Foo", nil)
		require.NoError(t, err)

		// the existence check misses; the unique key still rejects the insert
		f.store.staleByName = true
		_, err = f.communities.Create(ctx, alice, "foo", nil)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateName)
	})
}

func TestCommunityService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	com := testutil.MustCommunity(t, f.db, "testcom", alice)

	got, err := f.communities.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, models.LookupNotFound, got.Status)
	assert.Nil(t, got.Value)

	got, err = f.communities.Get(ctx, "testcom")
	require.NoError(t, err)
	require.True(t, got.IsFound())
	assert.Equal(t, com.ID, got.Value.ID)
	assert.NotNil(t, got.Value.Posts)
	assert.Empty(t, got.Value.Posts)

	testutil.MustPost(t, f.db, "Hello", com, alice)
	got, err = f.communities.Get(ctx, "testcom")
	require.NoError(t, err)
	require.Len(t, got.Value.Posts, 1)
	assert.Equal(t, "alice", got.Value.Posts[0].Author.Username)
	assert.Equal(t, "testcom", got.Value.Posts[0].Community.Name)
}

func TestCommunityService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	testutil.MustCommunity(t, f.db, "golang", alice)
	testutil.MustCommunity(t, f.db, "gophers", alice)

	got, err := f.communities.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = f.communities.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, f.store.searches, "empty query must not reach the index")

	got, err = f.communities.Search(ctx, "go")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, models.SearchTypeCommunity, r.Type)
		assert.Equal(t, r.Name, r.Title)
	}
	assert.Equal(t, 1, f.store.searches)
}
