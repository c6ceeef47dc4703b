package testutil

import (
	"context"
	"sync"

	"github.com/trixlive/backend/pkg/pubsub"
)

type PublishedPack struct {
	Topic string
	Pack  *pubsub.Pack
}

// MockPublisher records every pack unless PublishFunc overrides it.
type MockPublisher struct {
	PublishFunc func(context.Context, string, *pubsub.Pack) error

	mu        sync.Mutex
	published []PublishedPack
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, pack)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedPack{Topic: topic, Pack: pack})
	return nil
}

func (m *MockPublisher) Published() []PublishedPack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedPack{}, m.published...)
}
