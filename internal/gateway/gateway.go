// Package gateway describes the remote data store the client reconciles
// against: named record collections plus a blob store.
package gateway

import (
	"context"
	"time"
)

// Collection names a remote record table.
type Collection string

const (
	DiaryEntries Collection = "diary_entries"
	Memories     Collection = "memories"
	SharedNotes  Collection = "shared_notes"
	Messages     Collection = "messages"
	MoodNotes    Collection = "mood_notes"
)

// Collections lists every collection the server knows.
var Collections = []Collection{DiaryEntries, Memories, SharedNotes, Messages, MoodNotes}

// Bucket names a blob namespace.
type Bucket string

const (
	MemoriesBucket   Bucket = "memories"
	VoiceNotesBucket Bucket = "voice-notes"
)

// Record is a stored row: server-assigned identity plus payload fields.
type Record struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Filter is an equality match on a payload field.
type Filter struct {
	Field string
	Value string
}

// Eq builds an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Query scopes a collection listing. The zero value lists everything
// newest first.
type Query struct {
	Filters []Filter
	// OrderBy defaults to created_at.
	OrderBy   string
	Ascending bool
	// Limit <= 0 means no limit.
	Limit int
}

// Gateway is the remote persistence capability. Calls are independent;
// there are no transactions spanning more than one call.
type Gateway interface {
	Query(ctx context.Context, c Collection, q Query) ([]Record, error)
	// Insert stores fields and returns the canonical record with its id
	// and creation timestamp.
	Insert(ctx context.Context, c Collection, fields map[string]any) (Record, error)
	// DeleteByID succeeds when no record has the id.
	DeleteByID(ctx context.Context, c Collection, id string) error
	// UploadBlob stores data and returns its public reference.
	UploadBlob(ctx context.Context, b Bucket, filename string, data []byte) (string, error)
}
