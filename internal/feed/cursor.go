// Package feed implements the feed composition engine: the opaque pagination
// cursor, the popularity ranking function, and the query/viewer types shared
// between the feed repository and the feed service.
package feed

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidCursor marks a pagination token this engine did not issue:
// malformed base64, malformed JSON, an unknown version or partition, or a
// missing tie-break id. Callers decide the recovery policy; the codec only
// reports the condition.
var ErrInvalidCursor = errors.New("invalid feed cursor")

// cursorVersion is the wire version of the encoded token. Bump it when the
// payload shape changes; decode rejects versions it does not know, so stale
// clients get ErrInvalidCursor instead of silently misordered pages.
// Version 1 carried the timestamp in milliseconds, which lost precision
// against microsecond-resolution created_at columns and let the keyset bound
// skip same-millisecond items; version 2 carries microseconds.
const cursorVersion = 2

// Partition identifies which content pool produced the boundary item of a
// page, so the next request resumes in the correct pool.
type Partition string

const (
	// PartitionFollowed is the pool of posts from followed authors, pages
	// and communities.
	PartitionFollowed Partition = "followed"
	// PartitionBackfill is everything else (or the whole corpus for
	// anonymous viewers).
	PartitionBackfill Partition = "backfill"
)

// Cursor carries the keyset boundary of the last item emitted: its creation
// time, its id as the tie-break, the partition that produced it, and the
// popularity score when the page was sorted by score.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
	Score     *float64
	Partition Partition
}

// cursorPayload is the serialized form. Field names are deliberately short;
// the token travels in a query parameter on every page request.
type cursorPayload struct {
	V    int      `json:"v"`
	TS   int64    `json:"ts"` // unix micros, matching the store's timestamp resolution
	ID   uint     `json:"id"`
	S    *float64 `json:"s,omitempty"`
	Part string   `json:"p"`
}

// EncodeCursor serializes c into a URL-safe opaque token.
func EncodeCursor(c Cursor) string {
	payload := cursorPayload{
		V:    cursorVersion,
		TS:   c.CreatedAt.UnixMicro(),
		ID:   c.ID,
		S:    c.Score,
		Part: string(c.Partition),
	}
	b, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token previously produced by EncodeCursor. Any
// deviation from the expected shape yields ErrInvalidCursor; no input can
// make it panic.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if payload.V != cursorVersion {
		return Cursor{}, ErrInvalidCursor
	}
	if payload.ID == 0 {
		return Cursor{}, ErrInvalidCursor
	}

	part := Partition(payload.Part)
	if part != PartitionFollowed && part != PartitionBackfill {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{
		CreatedAt: time.UnixMicro(payload.TS).UTC(),
		ID:        payload.ID,
		Score:     payload.S,
		Partition: part,
	}, nil
}
