// Package events publishes change notifications for stored impact cases.
//
// Publishing is optional: ingestion uses NopPublisher unless KAFKA_BROKERS is configured.
// A publish failure never fails the write that triggered it.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

const (
	// DefaultTopic receives one message per upserted impact case.
	DefaultTopic = "imeto.impacts"

	defaultWriteTimeout = 10 * time.Second

	// EventImpactUpserted is the type of every message on DefaultTopic.
	EventImpactUpserted = "impact.upserted"
)

var (
	// ErrNoBrokers is returned when KafkaConfig has no broker addresses.
	ErrNoBrokers = errors.New("no kafka brokers configured")

	// ErrEmptyTopic is returned when KafkaConfig has no topic.
	ErrEmptyTopic = errors.New("kafka topic cannot be empty")
)

type (
	// ImpactUpserted announces that an impact case was written.
	ImpactUpserted struct {
		EventID         uuid.UUID `json:"event_id"`
		Type            string    `json:"type"`
		RunID           uuid.UUID `json:"run_id"`
		CaseID          string    `json:"case_id"`
		InstitutionUUID *string   `json:"institution_uuid,omitempty"`
		Inserted        bool      `json:"inserted"`
		OccurredAt      time.Time `json:"occurred_at"`
	}

	// Publisher delivers impact events.
	Publisher interface {
		PublishImpact(ctx context.Context, event ImpactUpserted) error
		Close() error
	}

	// NopPublisher discards every event.
	NopPublisher struct{}

	// KafkaConfig holds Kafka producer settings.
	KafkaConfig struct {
		Brokers      []string
		Topic        string
		WriteTimeout time.Duration
	}

	// KafkaPublisher writes events to a Kafka topic keyed by case id.
	KafkaPublisher struct {
		writer *kafka.Writer
		logger *slog.Logger
	}
)

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*KafkaPublisher)(nil)
)

// NewImpactUpserted builds an event with a fresh id stamped now.
func NewImpactUpserted(runID uuid.UUID, caseID string, institutionUUID *string, inserted bool) ImpactUpserted {
	return ImpactUpserted{
		EventID:         uuid.New(),
		Type:            EventImpactUpserted,
		RunID:           runID,
		CaseID:          caseID,
		InstitutionUUID: institutionUUID,
		Inserted:        inserted,
		OccurredAt:      time.Now().UTC(),
	}
}

// PublishImpact implements Publisher.
func (NopPublisher) PublishImpact(context.Context, ImpactUpserted) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// LoadKafkaConfig reads KAFKA_BROKERS (comma separated), KAFKA_TOPIC and KAFKA_WRITE_TIMEOUT.
func LoadKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:      config.ParseCommaSeparatedList(config.GetEnvStr("KAFKA_BROKERS", "")),
		Topic:        config.GetEnvStr("KAFKA_TOPIC", DefaultTopic),
		WriteTimeout: config.GetEnvDuration("KAFKA_WRITE_TIMEOUT", defaultWriteTimeout),
	}
}

// Enabled reports whether any broker is configured.
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Validate checks if the Kafka configuration is usable.
func (c *KafkaConfig) Validate() error {
	if !c.Enabled() {
		return ErrNoBrokers
	}

	if strings.TrimSpace(c.Topic) == "" {
		return ErrEmptyTopic
	}

	return nil
}

// NewKafkaPublisher creates a publisher for cfg. The writer connects lazily on first publish.
func NewKafkaPublisher(cfg *KafkaConfig) (*KafkaPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           timeout,
			BatchTimeout:           10 * time.Millisecond,
		},
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
	}, nil
}

// NewPublisherFromEnv returns a KafkaPublisher when KAFKA_BROKERS is set, otherwise NopPublisher.
func NewPublisherFromEnv() (Publisher, error) {
	cfg := LoadKafkaConfig()
	if !cfg.Enabled() {
		return NopPublisher{}, nil
	}

	return NewKafkaPublisher(cfg)
}

// PublishImpact implements Publisher.
func (p *KafkaPublisher) PublishImpact(ctx context.Context, event ImpactUpserted) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.CaseID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "run_id", Value: []byte(event.RunID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish impact event",
			slog.String("case_id", event.CaseID),
			slog.String("topic", p.writer.Topic),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("failed to publish event for %s: %w", event.CaseID, err)
	}

	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
