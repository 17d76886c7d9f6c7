package digest

import (
	"errors"
	"time"
)

// Sentinel errors returned by the Service and its stores.
var (
	ErrNotFound        = errors.New("digest record not found")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrInvalidDigest   = errors.New("invalid hex digest")
)

// EventComputed is the event type published after a record is saved.
const EventComputed = "digest.computed"

// DefaultSource labels payloads submitted without a source.
const DefaultSource = "unlabeled"

const maxSourceLen = 128

// Record describes one computed digest.
type Record struct {
	ID        string    `json:"id"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	Source    string    `json:"source"`
	BlobURI   string    `json:"blob_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Request is a payload to digest plus a free-form label for its origin.
type Request struct {
	Source string
	Data   []byte
}

// Event is the payload published for each computed record.
type Event struct {
	Type   string `json:"type"`
	Record Record `json:"record"`
}

// Verification is the outcome of comparing a payload against an expected digest.
type Verification struct {
	Match    bool   `json:"match"`
	Digest   string `json:"digest"`
	Expected string `json:"expected"`
}

// EventType reports the event type for transport attributes.
func (e Event) EventType() string {
	return e.Type
}
