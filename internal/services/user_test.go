package services

import (
	"context"
	"testing"
	"threadly/internal/apperrors"
	"threadly/internal/identity"
	"threadly/internal/models"
	"threadly/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.EnsureUser(ctx, identity.Identity{ExternalID: "ext-1", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)

	again, err := f.users.EnsureUser(ctx, identity.Identity{ExternalID: "ext-1", Username: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "alice", again.Username, "users are immutable after creation")

	other, err := f.users.EnsureUser(ctx, identity.Identity{ExternalID: "ext-2", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", other.Username)

	third, err := f.users.EnsureUser(ctx, identity.Identity{ExternalID: "ext-3", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice3", third.Username)

	anon, err := f.users.EnsureUser(ctx, identity.Identity{ExternalID: "ext-4"})
	require.NoError(t, err)
	assert.Equal(t, "user", anon.Username)

	_, err = f.users.EnsureUser(ctx, identity.Identity{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, f.db, "alice")
	com := testutil.MustCommunity(t, f.db, "testcom", alice)

	for _, subject := range []string{"one", "two"} {
		_, err := f.posts.Create(ctx, alice, CreatePostInput{Subject: subject, CommunityID: com.ID})
		require.NoError(t, err)
	}

	got, err := f.users.Profile(ctx, "alice")
	require.NoError(t, err)
	require.True(t, got.IsFound())
	assert.Equal(t, "alice", got.Value.Username)
	assert.Equal(t, int64(2), got.Value.PostCount)

	got, err = f.users.Profile(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, models.LookupNotFound, got.Status)

	me, err := f.users.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), me.PostCount)
}
