package repository

import (
	"context"
	"testing"
	"time"

	"commune/internal/feed"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens a GORM connection over a sqlmock driver with regexp query
// matching, so tests can assert the shape of the generated SQL.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func postRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "content", "user_id", "like_count", "comment_count", "created_at",
	}).
		AddRow(2, "second", 1, 3, 1, now.Add(-time.Minute)).
		AddRow(1, "first", 1, 5, 0, now.Add(-2*time.Minute))
}

func emptyUserRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email"})
}

func TestFeedPage_PopularOrdersByScoreExpression(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`SELECT posts\.\*, \(\(posts\.like_count \* 2\.0 \+ posts\.comment_count \* 1\.5\) - \(EXTRACT\(EPOCH FROM \(.+::timestamptz - posts\.created_at\)\) / 86400\.0\)\) AS rank_score FROM "posts" WHERE .*ORDER BY rank_score DESC, posts\.id DESC`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	posts, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:  feed.SortPopular,
		Limit: 11,
		Now:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, uint(2), posts[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_PopularCursorBoundsByScoreAndID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`FROM "posts" WHERE .*< .+ OR \(.+ = .+ AND posts\.id < .+\).*ORDER BY rank_score DESC, posts\.id DESC`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	score := 12.5
	_, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:  feed.SortPopular,
		Limit: 11,
		Cursor: &feed.Cursor{
			CreatedAt: time.Now().UTC(),
			ID:        42,
			Score:     &score,
			Partition: feed.PartitionFollowed,
		},
		Now: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_PopularCursorWithoutScoreRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:  feed.SortPopular,
		Limit: 11,
		Cursor: &feed.Cursor{
			CreatedAt: time.Now().UTC(),
			ID:        42,
			Partition: feed.PartitionFollowed,
		},
		Now: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, feed.ErrInvalidCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_NewestKeysetBound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`FROM "posts" WHERE \(posts\.created_at < .+ OR \(posts\.created_at = .+ AND posts\.id < .+\)\).*ORDER BY posts\.created_at DESC, posts\.id DESC`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:  feed.SortNewest,
		Limit: 11,
		Cursor: &feed.Cursor{
			CreatedAt: time.Now().UTC(),
			ID:        42,
			Partition: feed.PartitionBackfill,
		},
		Now: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_IncludeScopeMatchesAnySource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`FROM "posts" WHERE \(posts\.user_id IN .+ OR posts\.page_id IN .+ OR posts\.community_id IN .+\)`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Scope: feed.Scope{
			AuthorIDs:    []uint{1, 2},
			PageIDs:      []uint{3},
			CommunityIDs: []uint{4},
		},
		Sort:  feed.SortNewest,
		Limit: 11,
		Now:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_ExcludeScopeKeepsNullSources(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	// The backfill complement must not drop rows whose page or community id
	// is NULL.
	mock.ExpectQuery(`FROM "posts" WHERE posts\.user_id NOT IN .+ AND \(posts\.page_id IS NULL OR posts\.page_id NOT IN .+\) AND \(posts\.community_id IS NULL OR posts\.community_id NOT IN .+\)`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Scope: feed.Scope{
			AuthorIDs:    []uint{1, 2},
			PageIDs:      []uint{3},
			CommunityIDs: []uint{4},
			Exclude:      true,
		},
		Sort:  feed.SortNewest,
		Limit: 11,
		Now:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_ExcludeIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`FROM "posts" WHERE posts\.id NOT IN .+ORDER BY posts\.created_at DESC`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:       feed.SortNewest,
		Limit:      3,
		ExcludeIDs: []uint{7, 8, 9},
		Now:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_ExcludesSoftDeleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	// Tombstoned rows must never surface regardless of scope or cursor; the
	// tombstone filter has to be present in the generated WHERE clause.
	mock.ExpectQuery(`FROM "posts" WHERE "posts"\."deleted_at" IS NULL ORDER BY posts\.created_at DESC, posts\.id DESC`).
		WillReturnRows(postRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(emptyUserRows())

	_, err := repo.Page(context.Background(), feed.PageQuery{
		Sort:  feed.SortNewest,
		Limit: 11,
		Now:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPage_ZeroLimitShortCircuits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	posts, err := repo.Page(context.Background(), feed.PageQuery{
		Sort: feed.SortNewest,
		Now:  time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewerContextLoadsAllThreeSets(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`SELECT "followed_id" FROM "follows" WHERE follower_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"followed_id"}).AddRow(2).AddRow(3))
	mock.ExpectQuery(`SELECT "page_id" FROM "page_follows" WHERE follower_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"page_id"}).AddRow(7))
	mock.ExpectQuery(`SELECT "community_id" FROM "community_members" WHERE user_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"community_id"}))

	vc, err := repo.ViewerContext(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), vc.ViewerID)
	assert.Equal(t, []uint{2, 3}, vc.FollowedAuthorIDs)
	assert.Equal(t, []uint{7}, vc.FollowedPageIDs)
	assert.Empty(t, vc.FollowedCommunityIDs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchLookupsShortCircuitOnEmptyInput(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	liked, err := repo.LikedPostIDs(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Nil(t, liked)

	bookmarked, err := repo.BookmarkedPostIDs(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Nil(t, bookmarked)

	pending, err := repo.PendingRequestTargetIDs(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Nil(t, pending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikedPostIDsFiltersByViewerAndBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`SELECT "post_id" FROM "likes" WHERE user_id = .+ AND post_id IN .+`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(5).AddRow(9))

	ids, err := repo.LikedPostIDs(context.Background(), 1, []uint{5, 6, 9})
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
