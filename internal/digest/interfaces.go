package digest

import (
	"context"
	"io"
	"time"
)

// Hasher computes hex digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// RecordStore persists digest records.
type RecordStore interface {
	SaveRecord(ctx context.Context, record Record) error
	GetRecord(ctx context.Context, id string) (Record, error)
	Close()
}

// BlobStore writes payloads and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes digest events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
