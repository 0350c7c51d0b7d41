package services

import (
	"context"
	"log/slog"
	"threadly/internal/db"
	"threadly/internal/models"
	"threadly/internal/observability"
	"threadly/internal/utils"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// enrichConcurrency bounds the posts enriched in parallel by EnrichMany.
const enrichConcurrency = 32

// imageLookupTimeout bounds a shared image URL lookup.
const imageLookupTimeout = 5 * time.Second

// EnricherDeps are the lookups an Enricher joins against.
type EnricherDeps struct {
	Users       UserReader
	Communities CommunityReader

	// Images may be nil, in which case ImageURL is never set.
	Images ImageResolver

	// ImageCache memoizes resolved image URLs. Optional.
	ImageCache *utils.TTLCache[string, string]

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Enricher joins posts with their author, community and image URL.
type Enricher struct {
	users       UserReader
	communities CommunityReader
	images      ImageResolver
	imageCache  *utils.TTLCache[string, string]
	imageGroup  singleflight.Group
	metrics     *observability.Metrics
	logger      *slog.Logger
}

func NewEnricher(deps EnricherDeps) *Enricher {
	m := deps.Metrics
	if m == nil {
		m = observability.NopMetrics()
	}
	return &Enricher{
		users:       deps.Users,
		communities: deps.Communities,
		images:      deps.Images,
		imageCache:  deps.ImageCache,
		metrics:     m,
		logger:      loggerOr(deps.Logger),
	}
}

// EnrichOne resolves the references of a single post. Missing records
// leave the matching field nil; only context cancellation is an error.
func (e *Enricher) EnrichOne(ctx context.Context, post models.Post) (models.EnrichedPost, error) {
	ctx, span := observability.Tracer().Start(ctx, "Enricher.EnrichOne")
	defer span.End()
	start := time.Now()
	defer func() { e.metrics.EnrichDuration.WithLabelValues("one").Observe(time.Since(start).Seconds()) }()

	out, err := e.enrich(ctx, post)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// EnrichMany enriches posts concurrently. The result has the same length
// and order as posts.
func (e *Enricher) EnrichMany(ctx context.Context, posts []models.Post) ([]models.EnrichedPost, error) {
	ctx, span := observability.Tracer().Start(ctx, "Enricher.EnrichMany")
	defer span.End()
	span.SetAttributes(attribute.Int("posts.count", len(posts)))
	start := time.Now()
	defer func() { e.metrics.EnrichDuration.WithLabelValues("many").Observe(time.Since(start).Seconds()) }()

	out := make([]models.EnrichedPost, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range posts {
		g.Go(func() error {
			ep, err := e.enrich(gctx, posts[i])
			if err != nil {
				return err
			}
			out[i] = ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func (e *Enricher) enrich(ctx context.Context, post models.Post) (models.EnrichedPost, error) {
	var (
		author    *models.AuthorRef
		community *models.CommunityRef
		imageURL  *string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := e.users.UserByID(gctx, post.AuthorID)
		if err != nil {
			return e.degrade(gctx, "author", post.ID, err)
		}
		author = &models.AuthorRef{Username: u.Username}
		return nil
	})
	g.Go(func() error {
		c, err := e.communities.CommunityByID(gctx, post.CommunityID)
		if err != nil {
			return e.degrade(gctx, "community", post.ID, err)
		}
		community = &models.CommunityRef{ID: c.ID, Name: c.Name}
		return nil
	})
	if post.Image != nil && *post.Image != "" && e.images != nil {
		g.Go(func() error {
			url, ok, err := e.imageURL(gctx, *post.Image)
			if err != nil {
				return e.degrade(gctx, "image", post.ID, err)
			}
			if ok {
				imageURL = &url
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.EnrichedPost{}, err
	}

	return models.EnrichedPost{
		ID:        post.ID,
		Subject:   post.Subject,
		Body:      post.Body,
		BodyHTML:  utils.RenderMarkdown(post.Body),
		AuthorID:  post.AuthorID,
		Image:     post.Image,
		Score:     post.Score,
		CreatedAt: post.CreatedAt,
		Author:    author,
		Community: community,
		ImageURL:  imageURL,
	}, nil
}

func (e *Enricher) imageURL(ctx context.Context, id string) (string, bool, error) {
	if e.imageCache != nil {
		if url, ok := e.imageCache.Get(id); ok {
			return url, true, nil
		}
	}

	type result struct {
		url string
		ok  bool
	}
	// The shared lookup outlives any one caller; each caller waits on its own ctx.
	ch := e.imageGroup.DoChan(id, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), imageLookupTimeout)
		defer cancel()
		url, ok, err := e.images.URL(lookupCtx, id)
		if err != nil {
			return nil, err
		}
		if ok && e.imageCache != nil {
			e.imageCache.Set(id, url)
		}
		return result{url: url, ok: ok}, nil
	})
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		r := res.Val.(result)
		return r.url, r.ok, nil
	}
}

// degrade turns a lookup error into an absent field. A missing record is
// expected; anything else is logged. Cancellation still fails the call.
func (e *Enricher) degrade(ctx context.Context, field, postID string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if db.IsNotFound(err) {
		return nil
	}
	e.metrics.EnrichDegraded.WithLabelValues(field).Inc()
	e.logger.WarnContext(ctx, "post enrichment lookup failed",
		slog.String("field", field),
		slog.String("post_id", postID),
		slog.String("error", err.Error()),
	)
	return nil
}
