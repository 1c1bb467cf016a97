package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/game/events"
)

const (
	natsMaxReconnects = 10
	natsReconnectWait = 2 * time.Second

	// subjectPrefix scopes all relayed events, e.g.
	// auction.events.<session_id>.turn_resolved
	subjectPrefix = "auction.events"
)

// NATSPublisher publishes session events to NATS subjects.
type NATSPublisher struct {
	nc *nats.Conn
}

// Connect establishes a NATS connection with reconnect handling.
func Connect(natsURL string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, env *events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s.%s", subjectPrefix, env.SessionID, strings.ToLower(string(env.Type)))
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
