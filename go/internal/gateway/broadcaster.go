package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
	"github.com/mcdev12/scotchauction/go/internal/relay"
)

const relayPublishTimeout = 2 * time.Second

// Broadcaster fans session events out to WebSocket connections and, when
// configured, to the external event relay. Private events never reach the
// relay.
type Broadcaster struct {
	cm        *ConnectionManager
	publisher relay.Publisher
}

// NewBroadcaster creates a Broadcaster over the connection manager and an
// optional relay publisher.
func NewBroadcaster(cm *ConnectionManager, publisher relay.Publisher) *Broadcaster {
	if publisher == nil {
		publisher = relay.NoopPublisher{}
	}
	return &Broadcaster{
		cm:        cm,
		publisher: publisher,
	}
}

// Broadcast implements game.EventSink.
func (b *Broadcaster) Broadcast(env *events.Envelope) {
	b.cm.Broadcast(env)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
		defer cancel()
		if err := b.publisher.Publish(ctx, env); err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(env.Type)).
				Str("session_id", env.SessionID).
				Msg("failed to relay event")
		}
	}()
}

// SendPrivate implements game.EventSink.
func (b *Broadcaster) SendPrivate(sessionID uuid.UUID, name string, env *events.Envelope) {
	b.cm.SendTo(sessionID, name, env)
}
