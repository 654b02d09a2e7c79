package repository

import (
	"context"
	"strings"
	"time"

	"commune/internal/feed"
	"commune/internal/models"
	"commune/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// FeedRepository answers the feed engine's page queries and the viewer's
// relationship lookups. Every method is a single round trip; the assembly
// logic lives in the service layer.
type FeedRepository interface {
	// Page returns at most q.Limit posts from the pool described by q.Scope,
	// ordered by q.Sort and bounded below by q.Cursor. Callers fetch one
	// extra row to detect whether another page exists.
	Page(ctx context.Context, q feed.PageQuery) ([]*models.Post, error)

	// ViewerContext loads the viewer's followed authors, pages and
	// communities. Fetched fresh per request so a new follow shows up on the
	// very next page.
	ViewerContext(ctx context.Context, viewerID uint) (*feed.ViewerContext, error)

	// LikedPostIDs returns the subset of postIDs the viewer has liked.
	LikedPostIDs(ctx context.Context, viewerID uint, postIDs []uint) ([]uint, error)

	// BookmarkedPostIDs returns the subset of postIDs the viewer has bookmarked.
	BookmarkedPostIDs(ctx context.Context, viewerID uint, postIDs []uint) ([]uint, error)

	// PendingRequestTargetIDs returns the subset of authorIDs the viewer has
	// an undecided follow request against.
	PendingRequestTargetIDs(ctx context.Context, viewerID uint, authorIDs []uint) ([]uint, error)
}

type feedRepository struct {
	db *gorm.DB
}

// NewFeedRepository creates a feed repository over the given connection.
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

// scoreExpr returns the dialect-specific SQL for the popularity score
//
//	like_count*2 + comment_count*1.5 - age_in_days
//
// and the bind argument carrying the request's fixed clock reading. The same
// expression with the same argument is reused for SELECT, the cursor bound
// and ORDER BY, so one page ranks against one instant and matches the Go
// scorer in the feed package.
func (r *feedRepository) scoreExpr(now time.Time) (string, interface{}) {
	if r.db.Dialector.Name() == "sqlite" {
		// Age via julian day arithmetic; the argument is precomputed in Go to
		// avoid round-tripping a timestamp through SQLite's text parser.
		return "((posts.like_count * 2.0 + posts.comment_count * 1.5) - (? - julianday(posts.created_at)))",
			julianDay(now)
	}
	return "((posts.like_count * 2.0 + posts.comment_count * 1.5) - (EXTRACT(EPOCH FROM (?::timestamptz - posts.created_at)) / 86400.0))",
		now.UTC()
}

// julianDay converts t to the astronomical julian day number SQLite's
// julianday() produces.
func julianDay(t time.Time) float64 {
	const unixEpochJulianDay = 2440587.5
	return float64(t.UnixMilli())/86400000.0 + unixEpochJulianDay
}

func (r *feedRepository) Page(ctx context.Context, q feed.PageQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	if q.Limit <= 0 {
		return []*models.Post{}, nil
	}

	partition := "include"
	if q.Scope.Exclude {
		partition = "exclude"
	}
	ctx, span := observability.Tracer.Start(ctx, "feed.page",
		trace.WithAttributes(
			attribute.String("feed.sort", string(q.Sort)),
			attribute.String("feed.scope", partition),
			attribute.Int("feed.limit", q.Limit),
			attribute.Bool("feed.cursor_bound", q.Cursor != nil),
		),
	)
	defer span.End()

	db := applyScope(r.db.WithContext(ctx).Model(&models.Post{}), q.Scope)

	if len(q.ExcludeIDs) > 0 {
		db = db.Where("posts.id NOT IN ?", q.ExcludeIDs)
	}

	switch q.Sort {
	case feed.SortPopular:
		expr, nowArg := r.scoreExpr(q.Now)
		db = db.Select("posts.*, "+expr+" AS rank_score", nowArg)
		if q.Cursor != nil {
			if q.Cursor.Score == nil {
				return nil, feed.ErrInvalidCursor
			}
			db = db.Where(
				"("+expr+" < ? OR ("+expr+" = ? AND posts.id < ?))",
				nowArg, *q.Cursor.Score, nowArg, *q.Cursor.Score, q.Cursor.ID,
			)
		}
		db = db.Order("rank_score DESC, posts.id DESC")
	default:
		if q.Cursor != nil {
			db = db.Where(
				"(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))",
				q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID,
			)
		}
		db = db.Order("posts.created_at DESC, posts.id DESC")
	}

	var posts []*models.Post
	err := db.Limit(q.Limit).
		Preload("User").
		Preload("Page").
		Preload("Community").
		Find(&posts).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.rows", len(posts)))
	return posts, nil
}

// applyScope translates a feed.Scope into WHERE predicates. An exclude scope
// is the De Morgan complement of the include form; page and community ids are
// nullable so their negations must keep NULL rows.
func applyScope(db *gorm.DB, s feed.Scope) *gorm.DB {
	if s.Empty() {
		return db
	}

	if s.Exclude {
		if len(s.AuthorIDs) > 0 {
			db = db.Where("posts.user_id NOT IN ?", s.AuthorIDs)
		}
		if len(s.PageIDs) > 0 {
			db = db.Where("(posts.page_id IS NULL OR posts.page_id NOT IN ?)", s.PageIDs)
		}
		if len(s.CommunityIDs) > 0 {
			db = db.Where("(posts.community_id IS NULL OR posts.community_id NOT IN ?)", s.CommunityIDs)
		}
		return db
	}

	var conds []string
	var args []interface{}
	if len(s.AuthorIDs) > 0 {
		conds = append(conds, "posts.user_id IN ?")
		args = append(args, s.AuthorIDs)
	}
	if len(s.PageIDs) > 0 {
		conds = append(conds, "posts.page_id IN ?")
		args = append(args, s.PageIDs)
	}
	if len(s.CommunityIDs) > 0 {
		conds = append(conds, "posts.community_id IN ?")
		args = append(args, s.CommunityIDs)
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}

func (r *feedRepository) ViewerContext(ctx context.Context, viewerID uint) (*feed.ViewerContext, error) {
	defer observability.TrackQuery("select", "follows")()

	vc := &feed.ViewerContext{ViewerID: viewerID}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("followed_id", &vc.FollowedAuthorIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PageFollow{}).
		Where("follower_id = ?", viewerID).
		Pluck("page_id", &vc.FollowedPageIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.CommunityMember{}).
		Where("user_id = ?", viewerID).
		Pluck("community_id", &vc.FollowedCommunityIDs).Error; err != nil {
		return nil, err
	}
	return vc, nil
}

func (r *feedRepository) LikedPostIDs(ctx context.Context, viewerID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("select", "likes")()

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *feedRepository) BookmarkedPostIDs(ctx context.Context, viewerID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("select", "bookmarks")()

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *feedRepository) PendingRequestTargetIDs(ctx context.Context, viewerID uint, authorIDs []uint) ([]uint, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("select", "follow_requests")()

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("requester_id = ? AND target_id IN ? AND status = ?",
			viewerID, authorIDs, models.FollowRequestPending).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
