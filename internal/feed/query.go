package feed

import "time"

// Scope restricts a page query to one content pool. The zero value matches
// the entire corpus. With Exclude false the scope matches posts authored by
// any listed user, page or community; with Exclude true it matches the
// complement, which is how the backfill pool is expressed.
type Scope struct {
	AuthorIDs    []uint
	PageIDs      []uint
	CommunityIDs []uint
	Exclude      bool
}

// Empty reports whether the scope lists no ids at all.
func (s Scope) Empty() bool {
	return len(s.AuthorIDs) == 0 && len(s.PageIDs) == 0 && len(s.CommunityIDs) == 0
}

// PageQuery is one cursor-bounded, ordered slice request against a single
// partition. Now is fixed by the caller so the SQL score expression and the
// Go scorer agree for the whole page.
type PageQuery struct {
	Scope      Scope
	Sort       SortMode
	Limit      int
	Cursor     *Cursor
	ExcludeIDs []uint
	Now        time.Time
}

// ViewerContext is the viewer's relationship state, fetched fresh at the
// start of each feed request and never cached across requests.
type ViewerContext struct {
	ViewerID             uint
	FollowedAuthorIDs    []uint
	FollowedPageIDs      []uint
	FollowedCommunityIDs []uint
}

// FollowedScope builds the followed-pool scope from the viewer's sets.
func (v *ViewerContext) FollowedScope() Scope {
	return Scope{
		AuthorIDs:    v.FollowedAuthorIDs,
		PageIDs:      v.FollowedPageIDs,
		CommunityIDs: v.FollowedCommunityIDs,
	}
}

// BackfillScope builds the complement of the followed pool.
func (v *ViewerContext) BackfillScope() Scope {
	s := v.FollowedScope()
	s.Exclude = true
	return s
}
