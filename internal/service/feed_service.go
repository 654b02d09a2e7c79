// Package service contains the business logic layer.
package service

import (
	"context"
	"errors"
	"time"

	"commune/internal/cache"
	"commune/internal/feed"
	"commune/internal/middleware"
	"commune/internal/models"
	"commune/internal/observability"
	"commune/internal/repository"

	"golang.org/x/sync/errgroup"
)

// FeedPage is one assembled slice of the feed.
type FeedPage struct {
	Posts []*models.Post `json:"posts"`
	// NextCursor resumes the crawl. Omitted when the corpus is exhausted.
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// FeedRequest is a validated feed page request. ViewerID zero means
// anonymous.
type FeedRequest struct {
	ViewerID uint
	Sort     feed.SortMode
	Limit    int
	Cursor   *feed.Cursor
	// WantLikeStatus and WantBookmarkStatus gate the per-viewer liked and
	// bookmarked batch lookups. Handlers default both to true; a client that
	// does not render those indicators can opt out of the extra reads.
	WantLikeStatus     bool
	WantBookmarkStatus bool
}

// FeedService assembles feed pages: two-phase partitioned composition for
// authenticated viewers, a single public pool for anonymous ones, plus
// single-scope listings for profile, page and community views.
type FeedService interface {
	GetFeed(ctx context.Context, req FeedRequest) (*FeedPage, error)
	// Scoped serves one explicit pool (a profile, a page, a community)
	// with the same ordering, cursor and enrichment rules as the home feed.
	Scoped(ctx context.Context, viewerID uint, scope feed.Scope, sort feed.SortMode, limit int, cursor *feed.Cursor) (*FeedPage, error)
}

type feedService struct {
	repo         repository.FeedRepository
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewFeedService creates the feed service. defaultLimit and maxLimit come
// from configuration; zero values fall back to 10 and 100.
func NewFeedService(repo repository.FeedRepository, defaultLimit, maxLimit int) FeedService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &feedService{
		repo:         repo,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          time.Now,
	}
}

// clampLimit normalizes a client-supplied page size.
func (s *feedService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func (s *feedService) GetFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	limit := s.clampLimit(req.Limit)
	now := s.now().UTC()

	if req.ViewerID == 0 {
		return s.publicFeed(ctx, req.Sort, limit, req.Cursor, now)
	}

	vc, err := s.repo.ViewerContext(ctx, req.ViewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	page, err := s.assemble(ctx, vc, req.Sort, limit, req.Cursor, now)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, vc, page.Posts, req.WantLikeStatus, req.WantBookmarkStatus)
	return page, nil
}

// publicFeed serves logged-out visitors from the single public pool. The
// first page is the same for everyone, so it is the one feed shape worth
// caching.
func (s *feedService) publicFeed(ctx context.Context, sort feed.SortMode, limit int, cursor *feed.Cursor, now time.Time) (*FeedPage, error) {
	fetch := func() (*FeedPage, error) {
		posts, err := s.repo.Page(ctx, feed.PageQuery{
			Scope:  feed.Scope{},
			Sort:   sort,
			Limit:  limit + 1,
			Cursor: cursor,
			Now:    now,
		})
		if err != nil {
			return nil, s.wrapPageErr(err)
		}
		return s.finish(sort, limit, posts, feed.PartitionBackfill, now), nil
	}

	if cursor != nil {
		return fetch()
	}

	var page FeedPage
	err := cache.Aside(ctx, cache.PublicFeedKey(string(sort), limit), &page, cache.PublicFeedTTL, func() error {
		fetched, err := fetch()
		if err != nil {
			return err
		}
		page = *fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// assemble runs the two-phase composition: drain the followed pool first,
// then fill the remainder from the backfill pool. The cursor's partition
// tells it which phase to resume in, so a page boundary inside the followed
// pool never re-ranks backfill content and vice versa.
func (s *feedService) assemble(ctx context.Context, vc *feed.ViewerContext, sort feed.SortMode, limit int, cursor *feed.Cursor, now time.Time) (*FeedPage, error) {
	followedScope := vc.FollowedScope()

	inBackfill := cursor != nil && cursor.Partition == feed.PartitionBackfill
	if followedScope.Empty() {
		// Viewer follows nothing; the whole corpus is backfill.
		inBackfill = true
	}

	var emitted []*models.Post

	if !inBackfill {
		posts, err := s.repo.Page(ctx, feed.PageQuery{
			Scope:  followedScope,
			Sort:   sort,
			Limit:  limit + 1,
			Cursor: cursor,
			Now:    now,
		})
		if err != nil {
			return nil, s.wrapPageErr(err)
		}

		if len(posts) > limit {
			// The followed pool alone fills this page and has more behind it.
			return s.finish(sort, limit, posts, feed.PartitionFollowed, now), nil
		}
		emitted = posts
	}

	// Backfill phase. A followed-partition cursor never constrains this
	// pool; the crawl enters it from the top.
	var backfillCursor *feed.Cursor
	if inBackfill {
		backfillCursor = cursor
	}

	fill := limit - len(emitted)
	scope := vc.BackfillScope()
	posts, err := s.repo.Page(ctx, feed.PageQuery{
		Scope:      scope,
		Sort:       sort,
		Limit:      fill + 1,
		Cursor:     backfillCursor,
		ExcludeIDs: postIDs(emitted),
		Now:        now,
	})
	if err != nil {
		return nil, s.wrapPageErr(err)
	}

	hasMore := len(posts) > fill
	if hasMore {
		posts = posts[:fill]
	}

	emitted = append(emitted, posts...)

	page := &FeedPage{Posts: emitted, HasMore: hasMore}
	boundary := feed.PartitionBackfill
	if hasMore {
		last := emitted[len(emitted)-1]
		if len(posts) == 0 {
			// The page was filled entirely by the followed phase and the
			// backfill probe found more; resume from the followed boundary.
			boundary = feed.PartitionFollowed
		}
		page.NextCursor = feed.EncodeCursor(s.boundaryCursor(sort, last, boundary, now))
	}
	s.countPage(sort, page)
	return page, nil
}

// finish truncates an overfetched single-pool result into a page and builds
// its resumption cursor.
func (s *feedService) finish(sort feed.SortMode, limit int, posts []*models.Post, partition feed.Partition, now time.Time) *FeedPage {
	page := &FeedPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		page.HasMore = true
		last := page.Posts[len(page.Posts)-1]
		page.NextCursor = feed.EncodeCursor(s.boundaryCursor(sort, last, partition, now))
	}
	s.countPage(sort, page)
	return page
}

// boundaryCursor captures the keyset boundary of the last emitted item. For
// popularity ordering the score is recomputed in Go against the same clock
// reading the SQL used, so the bound on the next page lines up exactly.
func (s *feedService) boundaryCursor(sort feed.SortMode, last *models.Post, partition feed.Partition, now time.Time) feed.Cursor {
	c := feed.Cursor{
		CreatedAt: last.CreatedAt,
		ID:        last.ID,
		Partition: partition,
	}
	if sort == feed.SortPopular {
		score := feed.Score(last.LikeCount, last.CommentCount, last.CreatedAt, now)
		c.Score = &score
	}
	return c
}

func (s *feedService) countPage(sort feed.SortMode, page *FeedPage) {
	partition := "end"
	if page.HasMore {
		if c, err := feed.DecodeCursor(page.NextCursor); err == nil {
			partition = string(c.Partition)
		}
	}
	observability.FeedPagesServed.WithLabelValues(string(sort), partition).Inc()
}

func (s *feedService) wrapPageErr(err error) error {
	if errors.Is(err, feed.ErrInvalidCursor) {
		observability.FeedInvalidCursors.Inc()
		return models.NewInvalidCursorError()
	}
	return models.NewInternalError(err)
}

// enrich decorates a page with the viewer's relationship to each post. The
// lookups run concurrently and degrade independently: a failed batch logs,
// bumps a counter and leaves its field false rather than failing the page.
func (s *feedService) enrich(ctx context.Context, vc *feed.ViewerContext, posts []*models.Post, wantLiked, wantBookmarked bool) {
	if len(posts) == 0 {
		return
	}

	ids := postIDs(posts)
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	var liked, bookmarked, pending map[uint]bool

	g, gctx := errgroup.WithContext(ctx)
	if wantLiked {
		g.Go(func() error {
			res, err := s.repo.LikedPostIDs(gctx, vc.ViewerID, ids)
			if err != nil {
				s.enrichmentFailed(ctx, "liked", err)
				return nil
			}
			liked = toSet(res)
			return nil
		})
	}
	if wantBookmarked {
		g.Go(func() error {
			res, err := s.repo.BookmarkedPostIDs(gctx, vc.ViewerID, ids)
			if err != nil {
				s.enrichmentFailed(ctx, "bookmarked", err)
				return nil
			}
			bookmarked = toSet(res)
			return nil
		})
	}
	g.Go(func() error {
		res, err := s.repo.PendingRequestTargetIDs(gctx, vc.ViewerID, authorIDs)
		if err != nil {
			s.enrichmentFailed(ctx, "follow_request", err)
			return nil
		}
		pending = toSet(res)
		return nil
	})
	_ = g.Wait()

	followed := toSet(vc.FollowedAuthorIDs)
	for _, p := range posts {
		p.Liked = liked[p.ID]
		p.Bookmarked = bookmarked[p.ID]
		p.AuthorFollowed = followed[p.UserID]
		p.FollowReqPending = pending[p.UserID]
	}
}

func (s *feedService) enrichmentFailed(ctx context.Context, lookup string, err error) {
	observability.FeedEnrichmentFailures.WithLabelValues(lookup).Inc()
	middleware.Logger.WarnContext(ctx, "feed enrichment lookup failed",
		"lookup", lookup, "error", err)
}

func (s *feedService) Scoped(ctx context.Context, viewerID uint, scope feed.Scope, sort feed.SortMode, limit int, cursor *feed.Cursor) (*FeedPage, error) {
	limit = s.clampLimit(limit)
	now := s.now().UTC()

	posts, err := s.repo.Page(ctx, feed.PageQuery{
		Scope:  scope,
		Sort:   sort,
		Limit:  limit + 1,
		Cursor: cursor,
		Now:    now,
	})
	if err != nil {
		return nil, s.wrapPageErr(err)
	}

	page := s.finish(sort, limit, posts, feed.PartitionBackfill, now)

	if viewerID != 0 {
		vc, err := s.repo.ViewerContext(ctx, viewerID)
		if err != nil {
			s.enrichmentFailed(ctx, "viewer_context", err)
			return page, nil
		}
		s.enrich(ctx, vc, page.Posts, true, true)
	}
	return page, nil
}

func postIDs(posts []*models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
