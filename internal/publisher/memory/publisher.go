// Package memory keeps digest events in process. It backs tests and single
// node deployments that run without a Pub/Sub topic.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/digest"
)

// DefaultRetention is the number of events kept when New is given <= 0.
const DefaultRetention = 1000

// Message is one accepted publish.
type Message struct {
	ID    string
	Topic string
	Event digest.Event
}

// Publisher retains the most recent digest events up to a fixed bound.
type Publisher struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	retention int
	seq       uint64
	messages  []Message
}

// New returns a Publisher that keeps at most retention events.
func New(retention int, logger *zap.Logger) *Publisher {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{retention: retention, logger: logger}
}

// Publish records a digest.Event and returns a sequential message ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	var event digest.Event
	switch v := payload.(type) {
	case digest.Event:
		event = v
	case *digest.Event:
		if v == nil {
			return "", fmt.Errorf("nil event")
		}
		event = *v
	default:
		return "", fmt.Errorf("unsupported payload type %T", payload)
	}

	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("memory-%d", p.seq)
	if len(p.messages) == p.retention {
		copy(p.messages, p.messages[1:])
		p.messages = p.messages[:len(p.messages)-1]
	}
	p.messages = append(p.messages, Message{ID: id, Topic: topic, Event: event})
	p.mu.Unlock()

	p.logger.Debug("digest event retained",
		zap.String("message_id", id),
		zap.String("topic", topic),
		zap.String("type", event.Type),
		zap.String("record_id", event.Record.ID),
	)
	return id, nil
}

// Messages returns a copy of the retained messages, oldest first.
func (p *Publisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Events returns the retained events, oldest first.
func (p *Publisher) Events() []digest.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]digest.Event, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Event)
	}
	return out
}

// Close is a no-op that lets the publisher share shutdown wiring with Pub/Sub.
func (p *Publisher) Close() error {
	return nil
}
