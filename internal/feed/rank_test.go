package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// 10 likes, 4 comments, 2 days old: 10*2 + 4*1.5 - 2 = 24.
	created := now.Add(-48 * time.Hour)
	assert.InDelta(t, 24.0, Score(10, 4, created, now), 1e-9)

	// A brand-new post with no engagement scores zero.
	assert.InDelta(t, 0.0, Score(0, 0, now, now), 1e-9)

	// Age decay is linear: an old dead post goes negative.
	old := now.Add(-10 * 24 * time.Hour)
	assert.InDelta(t, -10.0, Score(0, 0, old, now), 1e-9)
}

func TestScoreDecayOvertakesEngagement(t *testing.T) {
	now := time.Now().UTC()

	// One like (+2) is worth two days of decay exactly.
	fresh := Score(1, 0, now.Add(-24*time.Hour), now)
	stale := Score(1, 0, now.Add(-72*time.Hour), now)
	assert.Greater(t, fresh, 0.0)
	assert.Less(t, stale, 0.0)
}

func TestParseSortMode(t *testing.T) {
	mode, ok := ParseSortMode("newest")
	assert.True(t, ok)
	assert.Equal(t, SortNewest, mode)

	mode, ok = ParseSortMode("popular")
	assert.True(t, ok)
	assert.Equal(t, SortPopular, mode)

	// Empty defaults to popular.
	mode, ok = ParseSortMode("")
	assert.True(t, ok)
	assert.Equal(t, SortPopular, mode)

	_, ok = ParseSortMode("trending")
	assert.False(t, ok)
}

func TestLessPopularTieBreaksByID(t *testing.T) {
	now := time.Now().UTC()

	// Equal scores: the higher id ranks first, so the lower id is "less".
	assert.True(t, SortPopular.Less(5.0, 5.0, now, now, 1, 2))
	assert.False(t, SortPopular.Less(5.0, 5.0, now, now, 2, 1))

	// Distinct scores ignore ids entirely.
	assert.True(t, SortPopular.Less(1.0, 5.0, now, now, 9, 1))
}

func TestLessNewestTieBreaksByID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, SortNewest.Less(0, 0, ts, ts, 1, 2))
	assert.False(t, SortNewest.Less(0, 0, ts, ts, 2, 1))
	assert.True(t, SortNewest.Less(0, 0, ts.Add(-time.Hour), ts, 9, 1))
}
