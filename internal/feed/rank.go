package feed

import "time"

// Engagement weights and decay for the popularity score. The score is
// recomputed at read time so it tracks current counters without a background
// re-ranking job; it is never persisted.
const (
	WeightLike    = 2.0
	WeightComment = 1.5
	hoursPerDay   = 24.0
)

// Score computes the time-decayed popularity of a post at the given instant:
//
//	likeCount*2 + commentCount*1.5 - ageInDays
//
// Callers must fix `now` once per page request and reuse it for every item,
// so one page is ranked against a single clock reading.
func Score(likeCount, commentCount int, createdAt, now time.Time) float64 {
	engagement := float64(likeCount)*WeightLike + float64(commentCount)*WeightComment
	ageDays := now.Sub(createdAt).Hours() / hoursPerDay
	return engagement - ageDays
}

// SortMode selects the total order for a feed page.
type SortMode string

const (
	// SortNewest orders by created_at DESC, id DESC.
	SortNewest SortMode = "newest"
	// SortPopular orders by Score DESC, id DESC.
	SortPopular SortMode = "popular"
)

// ParseSortMode validates a client-supplied sort string. The empty string
// defaults to popular, matching the public feed's default.
func ParseSortMode(s string) (SortMode, bool) {
	switch SortMode(s) {
	case SortNewest:
		return SortNewest, true
	case SortPopular, SortMode(""):
		return SortPopular, true
	default:
		return "", false
	}
}

// Less reports whether a page item with sort key (scoreA, createdA, idA)
// ranks strictly after one with (scoreB, createdB, idB) in this mode's
// total order, i.e. would appear later in the feed. The id tie-break makes
// the order total: equal keys never compare equal across distinct posts.
func (m SortMode) Less(scoreA, scoreB float64, createdA, createdB time.Time, idA, idB uint) bool {
	if m == SortPopular {
		if scoreA != scoreB {
			return scoreA < scoreB
		}
		return idA < idB
	}
	if !createdA.Equal(createdB) {
		return createdA.Before(createdB)
	}
	return idA < idB
}
