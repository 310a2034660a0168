// Package events publishes transcript session changes to Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// DefaultChannelPrefix is prepended to every event type to form a channel.
const DefaultChannelPrefix = "events.audiencia"

// Event types
const (
	TypeTranscriptLoaded = "transcript.loaded"
	TypeRecordEdited     = "record.edited"
	TypeRecordAnnotated  = "record.annotated"
	TypeSpeakerRenamed   = "speaker.renamed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType, sessionID string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Source:    "audiencia",
		Version:   "1.0",
	}
}

// TranscriptLoadedEvent is published after a session ingests a transcript.
type TranscriptLoadedEvent struct {
	BaseEvent

	Format   string  `json:"format"`
	Records  int     `json:"records"`
	Skipped  int     `json:"skipped"`
	Speakers int     `json:"speakers"`
	Duration float64 `json:"duration_seconds"`
}

// RecordEditedEvent is published for every text or speaker change.
type RecordEditedEvent struct {
	BaseEvent

	ChangeID string `json:"change_id"`
	RecordID int    `json:"record_id"`
	Kind     string `json:"kind"`
	User     string `json:"user"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

// RecordAnnotatedEvent is published when a record's note, mark or review
// flag changes.
type RecordAnnotatedEvent struct {
	BaseEvent

	RecordID int    `json:"record_id"`
	User     string `json:"user,omitempty"`
	Note     string `json:"note"`
	Marked   bool   `json:"marked"`
	Reviewed bool   `json:"reviewed"`
}

// SpeakerRenamedEvent is published after a rename cascades over the records.
type SpeakerRenamedEvent struct {
	BaseEvent

	OldName        string `json:"old_name"`
	NewName        string `json:"new_name"`
	Role           string `json:"role"`
	RecordsUpdated int    `json:"records_updated"`
}

// redisPublisher is the part of *redis.Client the publisher uses.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Publisher publishes session events to Redis. A nil *Publisher discards
// events.
type Publisher struct {
	client redisPublisher
	prefix string
	logger logging.Logger
}

// Config holds Redis connection configuration.
type Config struct {
	Address       string
	Password      string
	DB            int
	ChannelPrefix string
}

// NewPublisher creates a new event publisher.
func NewPublisher(client redisPublisher, prefix string, logger logging.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		client: client,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(ctx context.Context, cfg Config, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewPublisher(client, cfg.ChannelPrefix, logger), nil
}

// Channel returns the channel an event type is published on.
func (p *Publisher) Channel(eventType string) string {
	prefix := DefaultChannelPrefix
	if p != nil {
		prefix = p.prefix
	}
	return prefix + "." + eventType
}

// TranscriptLoadedParams contains parameters for a transcript.loaded event.
type TranscriptLoadedParams struct {
	SessionID string
	Format    string
	Records   int
	Skipped   int
	Speakers  int
	Duration  float64
}

// PublishTranscriptLoaded publishes a transcript.loaded event.
func (p *Publisher) PublishTranscriptLoaded(ctx context.Context, params TranscriptLoadedParams) error {
	if p == nil {
		return nil
	}
	event := TranscriptLoadedEvent{
		BaseEvent: NewBaseEvent(TypeTranscriptLoaded, params.SessionID),
		Format:    params.Format,
		Records:   params.Records,
		Skipped:   params.Skipped,
		Speakers:  params.Speakers,
		Duration:  params.Duration,
	}
	return p.publish(ctx, TypeTranscriptLoaded, event)
}

// PublishRecordEdited publishes a record.edited event for change.
func (p *Publisher) PublishRecordEdited(ctx context.Context, sessionID string, change transcript.Change) error {
	if p == nil {
		return nil
	}
	event := RecordEditedEvent{
		BaseEvent: NewBaseEvent(TypeRecordEdited, sessionID),
		ChangeID:  change.ID,
		RecordID:  change.RecordID,
		Kind:      string(change.Kind),
		User:      change.User,
		Previous:  change.Previous,
		Next:      change.Next,
	}
	if change.ID != "" {
		event.CorrelationID = &change.ID
	}
	return p.publish(ctx, TypeRecordEdited, event)
}

// PublishRecordAnnotated publishes a record.annotated event with the
// record's current annotation state.
func (p *Publisher) PublishRecordAnnotated(ctx context.Context, sessionID string, record transcript.Record, user string) error {
	if p == nil {
		return nil
	}
	event := RecordAnnotatedEvent{
		BaseEvent: NewBaseEvent(TypeRecordAnnotated, sessionID),
		RecordID:  record.ID,
		User:      user,
		Note:      record.Note,
		Marked:    record.Marked,
		Reviewed:  record.Reviewed,
	}
	return p.publish(ctx, TypeRecordAnnotated, event)
}

// SpeakerRenamedParams contains parameters for a speaker.renamed event.
type SpeakerRenamedParams struct {
	SessionID      string
	OldName        string
	NewName        string
	Role           string
	RecordsUpdated int
}

// PublishSpeakerRenamed publishes a speaker.renamed event.
func (p *Publisher) PublishSpeakerRenamed(ctx context.Context, params SpeakerRenamedParams) error {
	if p == nil {
		return nil
	}
	event := SpeakerRenamedEvent{
		BaseEvent:      NewBaseEvent(TypeSpeakerRenamed, params.SessionID),
		OldName:        params.OldName,
		NewName:        params.NewName,
		Role:           params.Role,
		RecordsUpdated: params.RecordsUpdated,
	}
	return p.publish(ctx, TypeSpeakerRenamed, event)
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, eventType string, event interface{}) error {
	channel := p.Channel(eventType)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}
