package services

import (
	"context"
	"strconv"
	"testing"
	"threadly/internal/models"
	"threadly/internal/observability"
	"threadly/internal/testutil"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingService_UpdatePostScore(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	post := testutil.MustPost(t, store, "Hello", com, alice)

	for i := 0; i < 5; i++ {
		voter := testutil.MustUser(t, store, "voter"+strconv.Itoa(i))
		require.NoError(t, store.ToggleVote(ctx, post.ID, voter.ID, models.VoteUp))
	}

	r := NewRankingService(store, nil, nil)
	require.NoError(t, r.UpdatePostScore(ctx, post.ID))

	got, err := store.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Positive(t, got.Score)
}

func TestRankingService_WorkerFlushesQueue(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, store, "alice")
	bob := testutil.MustUser(t, store, "bob")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	post := testutil.MustPost(t, store, "Hello", com, alice)
	require.NoError(t, store.ToggleVote(ctx, post.ID, bob.ID, models.VoteUp))

	metrics := observability.NopMetrics()
	r := NewRankingService(store, metrics, nil)
	r.Start(ctx)
	defer r.Stop()

	r.ScheduleUpdate(post.ID)
	r.ScheduleUpdate(post.ID)

	require.Eventually(t, func() bool {
		return promtestutil.ToFloat64(metrics.RankingUpdates) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	got, err := store.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Positive(t, got.Score)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RankingUpdates), "duplicate schedule is coalesced")
}

func TestRankingService_DropsWhenQueueFull(t *testing.T) {
	metrics := observability.NopMetrics()
	r := NewRankingService(nil, metrics, nil)

	for i := 0; i < rankingQueueSize; i++ {
		r.ScheduleUpdate("p" + strconv.Itoa(i))
	}
	r.ScheduleUpdate("overflow")

	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.RankingDropped))
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.False(t, r.pending["overflow"])
	assert.Len(t, r.pending, rankingQueueSize)
}

func TestRankingService_RefreshHot(t *testing.T) {
	store := testutil.NewStore(t)
	alice := testutil.MustUser(t, store, "alice")
	com := testutil.MustCommunity(t, store, "testcom", alice)
	testutil.MustPost(t, store, "one", com, alice)
	testutil.MustPost(t, store, "two", com, alice)

	r := NewRankingService(store, nil, nil)
	n, err := r.RefreshHot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
