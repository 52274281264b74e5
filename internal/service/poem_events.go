package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/observability"
)

// Poem event types.
const (
	PoemEventEvaluated = "poem.evaluated"
	PoemEventDeleted   = "poem.deleted"
)

// PoemEvent is broadcast after a poem is persisted or removed.
type PoemEvent struct {
	Type      string            `json:"type"`
	Source    string            `json:"source"`
	Poem      dto.PoemResponse  `json:"poem"`
	Evaluated bool              `json:"evaluated"`
	SentAt    time.Time         `json:"sent_at"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// PoemEventPublisher fans poem events out to the configured brokers.
type PoemEventPublisher interface {
	Publish(ctx context.Context, event PoemEvent) error
}

type poemEventPublisher struct {
	redis       *redis.Client
	channelBase string
	nats        *nats.Conn
	subjectBase string
	nodeID      string
	logger      zerolog.Logger
}

// NewPoemEventPublisher builds a publisher. Either transport may be nil.
// Each event type gets its own channel, e.g. gema:poems:deleted on redis and
// gema.poems.deleted on nats.
func NewPoemEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) PoemEventPublisher {
	return &poemEventPublisher{
		redis:       redisClient,
		channelBase: channelBase,
		nats:        natsConn,
		subjectBase: strings.ReplaceAll(channelBase, ":", "."),
		nodeID:      uuid.NewString(),
		logger:      logger.With().Str("component", "poem_events").Logger(),
	}
}

// eventSuffix maps "poem.deleted" to "deleted".
func eventSuffix(eventType string) string {
	return strings.TrimPrefix(eventType, "poem.")
}

func (p *poemEventPublisher) Publish(ctx context.Context, event PoemEvent) error {
	event.Source = p.nodeID
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.channelBase == "" {
		return nil
	}
	suffix := eventSuffix(event.Type)

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.channelBase+":"+suffix, payload).Err(); err != nil {
			observability.PoemEvents().WithLabelValues("redis", "error").Inc()
			return err
		}
		observability.PoemEvents().WithLabelValues("redis", "ok").Inc()
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.subjectBase+"."+suffix, payload); err != nil {
			observability.PoemEvents().WithLabelValues("nats", "error").Inc()
			return err
		}
		observability.PoemEvents().WithLabelValues("nats", "ok").Inc()
	}

	p.logger.Debug().Str("type", event.Type).Uint("poem_id", event.Poem.ID).Msg("poem event published")
	return nil
}
