package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"commune/internal/config"
	"commune/internal/feed"
	"commune/internal/middleware"
	"commune/internal/models"
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServiceStub is a stub for service.FeedService.
type feedServiceStub struct {
	getFeedFn func(context.Context, service.FeedRequest) (*service.FeedPage, error)
	scopedFn  func(context.Context, uint, feed.Scope, feed.SortMode, int, *feed.Cursor) (*service.FeedPage, error)
}

func (s *feedServiceStub) GetFeed(ctx context.Context, req service.FeedRequest) (*service.FeedPage, error) {
	return s.getFeedFn(ctx, req)
}

func (s *feedServiceStub) Scoped(ctx context.Context, viewerID uint, scope feed.Scope, sort feed.SortMode, limit int, cursor *feed.Cursor) (*service.FeedPage, error) {
	return s.scopedFn(ctx, viewerID, scope, sort, limit, cursor)
}

const testJWTSecret = "test-secret"

func newFeedTestApp(t *testing.T, stub *feedServiceStub) *fiber.App {
	t.Helper()

	cfg := &config.Config{JWTSecret: testJWTSecret, FeedDefaultLimit: 10, FeedMaxLimit: 100}
	middleware.InitMiddleware(cfg)

	s := &Server{config: cfg, feedService: stub}
	app := fiber.New()
	app.Get("/api/feed", middleware.OptionalAuth, s.GetFeed)
	return app
}

func bearerToken(t *testing.T, userID uint) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGetFeedHandler_Anonymous(t *testing.T) {
	var got service.FeedRequest
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, req service.FeedRequest) (*service.FeedPage, error) {
			got = req
			return &service.FeedPage{Posts: []*models.Post{{ID: 1}}, HasMore: false}, nil
		},
	}
	app := newFeedTestApp(t, stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed?sort=newest&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, uint(0), got.ViewerID)
	assert.Equal(t, feed.SortNewest, got.Sort)
	assert.Equal(t, 5, got.Limit)
	assert.Nil(t, got.Cursor)
	assert.True(t, got.WantLikeStatus, "status lookups default on")
	assert.True(t, got.WantBookmarkStatus)

	body, _ := io.ReadAll(resp.Body)
	var page service.FeedPage
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Posts, 1)
	assert.False(t, page.HasMore)
}

func TestGetFeedHandler_AuthenticatedViewer(t *testing.T) {
	var got service.FeedRequest
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, req service.FeedRequest) (*service.FeedPage, error) {
			got = req
			return &service.FeedPage{}, nil
		},
	}
	app := newFeedTestApp(t, stub)

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", bearerToken(t, 42))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, uint(42), got.ViewerID)
	assert.Equal(t, feed.SortPopular, got.Sort, "sort defaults to popular")
}

func TestGetFeedHandler_InvalidTokenRejected(t *testing.T) {
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, _ service.FeedRequest) (*service.FeedPage, error) {
			t.Fatal("service must not be called with an invalid token")
			return nil, nil
		},
	}
	app := newFeedTestApp(t, stub)

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	resp, err := app.Test(req)
	require.NoError(t, err)
	// Present-but-invalid credentials are rejected, not downgraded to
	// anonymous.
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetFeedHandler_StatusLookupOptOut(t *testing.T) {
	var got service.FeedRequest
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, req service.FeedRequest) (*service.FeedPage, error) {
			got = req
			return &service.FeedPage{}, nil
		},
	}
	app := newFeedTestApp(t, stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed?like_status=false&bookmark_status=false", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, got.WantLikeStatus)
	assert.False(t, got.WantBookmarkStatus)
}

func TestGetFeedHandler_CursorPassedThrough(t *testing.T) {
	var got service.FeedRequest
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, req service.FeedRequest) (*service.FeedPage, error) {
			got = req
			return &service.FeedPage{}, nil
		},
	}
	app := newFeedTestApp(t, stub)

	token := feed.EncodeCursor(feed.Cursor{
		CreatedAt: time.Now().UTC(),
		ID:        7,
		Partition: feed.PartitionBackfill,
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed?cursor="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, got.Cursor)
	assert.Equal(t, uint(7), got.Cursor.ID)
	assert.Equal(t, feed.PartitionBackfill, got.Cursor.Partition)
}

func TestGetFeedHandler_MalformedCursorIs400(t *testing.T) {
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, _ service.FeedRequest) (*service.FeedPage, error) {
			t.Fatal("service must not be called with a malformed cursor")
			return nil, nil
		},
	}
	app := newFeedTestApp(t, stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed?cursor=%21%21%21", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INVALID_CURSOR", errResp.Code)
}

func TestGetFeedHandler_UnknownSortIs400(t *testing.T) {
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, _ service.FeedRequest) (*service.FeedPage, error) {
			t.Fatal("service must not be called with an unknown sort")
			return nil, nil
		},
	}
	app := newFeedTestApp(t, stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed?sort=trending", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetFeedHandler_ServiceErrorMapping(t *testing.T) {
	stub := &feedServiceStub{
		getFeedFn: func(_ context.Context, _ service.FeedRequest) (*service.FeedPage, error) {
			return nil, models.NewInvalidCursorError()
		},
	}
	app := newFeedTestApp(t, stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
