package services

import (
	"context"
	"log/slog"
	"sync"
	"threadly/internal/db"
	"threadly/internal/observability"
	"threadly/internal/utils"
	"time"
)

const (
	rankingQueueSize = 1000
	rankingBatchSize = 50
	rankingFlush     = 500 * time.Millisecond
	hotWindow        = 7 * 24 * time.Hour
	hotTop           = 30
)

// RankingService 提供异步计算和更新帖子 Score 的服务
type RankingService struct {
	store   ScoreStore
	queue   chan string // 待更新的帖子 ID 队列
	pending map[string]bool
	mu      sync.Mutex

	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRankingService(store ScoreStore, metrics *observability.Metrics, logger *slog.Logger) *RankingService {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &RankingService{
		store:   store,
		queue:   make(chan string, rankingQueueSize),
		pending: make(map[string]bool),
		metrics: metrics,
		logger:  loggerOr(logger),
		now:     time.Now,
	}
}

// Start 启动后台 worker 和每日定时刷新，ctx 取消或 Stop 后退出
func (s *RankingService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.scheduledRefresh(ctx)
	}()
}

// Stop 停止后台任务并等待退出
func (s *RankingService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// ScheduleUpdate 将帖子加入更新队列（异步）
// 使用去重机制避免短时间内重复计算同一帖子
func (s *RankingService) ScheduleUpdate(postID string) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		s.metrics.RankingDropped.Inc()
		s.logger.Warn("ranking queue full, skipping post", slog.String("post_id", postID))
	}
}

// worker 批量处理：满 50 条或每 500ms 处理一批
func (s *RankingService) worker(ctx context.Context) {
	batch := make([]string, 0, rankingBatchSize)
	ticker := time.NewTicker(rankingFlush)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= rankingBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, postIDs []string) {
	for _, postID := range postIDs {
		if err := s.UpdatePostScore(ctx, postID); err != nil && !db.IsNotFound(err) {
			s.logger.Warn("update post score failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		}

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// UpdatePostScore 同步计算并更新单个帖子的 Score
func (s *RankingService) UpdatePostScore(ctx context.Context, postID string) error {
	post, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return err
	}
	activity, err := s.store.PostActivity(ctx, postID)
	if err != nil {
		return err
	}

	score := utils.DefaultConfig.Score(s.now().Sub(post.CreatedAt), activity.Upvotes, activity.Downvotes, activity.Comments)
	if err := s.store.UpdatePostScore(ctx, postID, int(score)); err != nil {
		return err
	}
	s.metrics.RankingUpdates.Inc()
	return nil
}

// RefreshHot 更新最近 7 天和分数最高的 30 篇帖子的分数
func (s *RankingService) RefreshHot(ctx context.Context) (int, error) {
	ids, err := s.store.RecentPostIDs(ctx, s.now().Add(-hotWindow), hotTop)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		if err := s.UpdatePostScore(ctx, id); err != nil {
			if ctx.Err() != nil {
				return count, ctx.Err()
			}
			continue
		}
		count++
	}
	return count, nil
}

// scheduledRefresh 每天凌晨 3 点执行一次 RefreshHot
func (s *RankingService) scheduledRefresh(ctx context.Context) {
	for {
		now := s.now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		n, err := s.RefreshHot(ctx)
		if err != nil {
			s.logger.Warn("scheduled score refresh failed", slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("scheduled score refresh done", slog.Int("posts", n))
	}
}
