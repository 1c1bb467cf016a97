package relay

import (
	"context"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
)

// Publisher delivers session events to an external message bus so
// out-of-process consumers (dashboards, analytics) can follow games
// without holding a WebSocket to the server.
type Publisher interface {
	Publish(ctx context.Context, env *events.Envelope) error
	Close()
}

// NoopPublisher discards events. Used when no relay is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(ctx context.Context, env *events.Envelope) error {
	return nil
}

// Close implements Publisher.
func (NoopPublisher) Close() {}
