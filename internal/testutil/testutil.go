// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"threadly/internal/db"
	"threadly/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewStore returns a migrated store over a private in-memory SQLite
// database that lives for the duration of the test.
func NewStore(t *testing.T) *db.Store {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	gdb, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db.NewStore(gdb)
}

// MustUser inserts a user with the given username.
func MustUser(t *testing.T, store *db.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, ExternalID: "ext|" + username}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

// MustCommunity inserts a community owned by author.
func MustCommunity(t *testing.T, store *db.Store, name string, author *models.User) *models.Community {
	t.Helper()
	community := &models.Community{Name: name, AuthorID: author.ID}
	require.NoError(t, store.CreateCommunity(context.Background(), community))
	return community
}

// MustPost inserts a post.
func MustPost(t *testing.T, store *db.Store, subject string, community *models.Community, author *models.User) *models.Post {
	t.Helper()
	post := &models.Post{Subject: subject, Body: "body of " + subject, CommunityID: community.ID, AuthorID: author.ID}
	require.NoError(t, store.CreatePost(context.Background(), post))
	return post
}
