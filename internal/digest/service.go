package digest

import (
	"bytes"
	"context"
	"crypto/subtle"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/hash/sha256"
	"github.com/JakeFAU/sha256-digest/internal/metrics"
)

// Config tunes the Service pipeline.
type Config struct {
	// MaxPayloadBytes rejects larger payloads; zero disables the limit.
	MaxPayloadBytes int64
	// BlobPrefix is prepended to archived payload paths.
	BlobPrefix  string
	ContentType string
	// Topic receives EventComputed messages when a Publisher is set.
	Topic string
}

// Service computes, stores and announces digests.
type Service struct {
	store     RecordStore
	blobs     BlobStore
	publisher Publisher
	hasher    Hasher
	clock     Clock
	idGen     IDGenerator
	cfg       Config
	logger    *zap.Logger
}

// NewService wires a Service. blobs and publisher may be nil to disable
// archiving and event publication.
func NewService(
	store RecordStore,
	blobs BlobStore,
	publisher Publisher,
	hasher Hasher,
	clock Clock,
	idGen IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/octet-stream"
	}
	return &Service{
		store:     store,
		blobs:     blobs,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		idGen:     idGen,
		cfg:       cfg,
		logger:    logger,
	}
}

// Compute digests req.Data and persists the resulting record.
func (s *Service) Compute(ctx context.Context, req Request) (Record, error) {
	size := int64(len(req.Data))
	if s.cfg.MaxPayloadBytes > 0 && size > s.cfg.MaxPayloadBytes {
		return Record{}, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, size, s.cfg.MaxPayloadBytes)
	}
	source := normalizeSource(req.Source)

	start := time.Now()
	sum, err := s.hasher.Hash(req.Data)
	if err != nil {
		return Record{}, fmt.Errorf("hash payload: %w", err)
	}
	metrics.ObserveDigest(len(req.Data), time.Since(start))

	id, err := s.idGen.NewID()
	if err != nil {
		return Record{}, fmt.Errorf("generate record id: %w", err)
	}
	record := Record{
		ID:        id,
		Digest:    sum,
		Size:      size,
		Source:    source,
		CreatedAt: s.clock.Now(),
	}

	if s.blobs != nil {
		uri, err := s.blobs.PutObject(ctx, BlobPath(s.cfg.BlobPrefix, sum), s.cfg.ContentType, bytes.NewReader(req.Data))
		if err != nil {
			return Record{}, fmt.Errorf("archive payload: %w", err)
		}
		record.BlobURI = uri
	}

	if err := s.store.SaveRecord(ctx, record); err != nil {
		return Record{}, fmt.Errorf("save record: %w", err)
	}

	logger := s.logger.With(zap.String("record_id", record.ID), zap.String("digest", record.Digest))
	logger.Debug("digest computed", zap.Int64("size", size), zap.String("source", source))

	if s.publisher != nil && s.cfg.Topic != "" {
		msgID, err := s.publisher.Publish(ctx, s.cfg.Topic, Event{Type: EventComputed, Record: record})
		if err != nil {
			metrics.ObservePublishFailure()
			logger.Warn("publish digest event failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
		} else {
			logger.Debug("digest event published", zap.String("message_id", msgID))
		}
	}
	return record, nil
}

// Get returns a stored record or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, ErrNotFound
	}
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

// Verify digests data and compares it with the expected hex digest.
func (s *Service) Verify(data []byte, expected string) (Verification, error) {
	want, err := sha256.ParseDigest(strings.TrimSpace(expected))
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	sum, err := s.hasher.Hash(data)
	if err != nil {
		return Verification{}, fmt.Errorf("hash payload: %w", err)
	}
	got, err := sha256.ParseDigest(sum)
	if err != nil {
		return Verification{}, fmt.Errorf("hasher returned malformed digest: %w", err)
	}
	return Verification{
		Match:    subtle.ConstantTimeCompare(got[:], want[:]) == 1,
		Digest:   got.String(),
		Expected: want.String(),
	}, nil
}

// Close releases the record store.
func (s *Service) Close() {
	s.store.Close()
}

// BlobPath returns the content-addressed location for a digest: a two
// character fan-out directory followed by the full hex digest.
func BlobPath(prefix, sum string) string {
	if len(sum) < 2 {
		return path.Join(prefix, sum)
	}
	return path.Join(prefix, sum[:2], sum)
}

func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return DefaultSource
	}
	if len(source) > maxSourceLen {
		source = source[:maxSourceLen]
	}
	return source
}
