package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKafkaConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("KAFKA_BROKERS", "")

	cfg := LoadKafkaConfig()
	assert.False(t, cfg.Enabled())
	assert.Equal(t, DefaultTopic, cfg.Topic)
	assert.ErrorIs(t, cfg.Validate(), ErrNoBrokers)

	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("KAFKA_TOPIC", "custom.topic")
	t.Setenv("KAFKA_WRITE_TIMEOUT", "3s")

	cfg = LoadKafkaConfig()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, "custom.topic", cfg.Topic)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	require.NoError(t, cfg.Validate())

	cfg.Topic = " "
	assert.ErrorIs(t, cfg.Validate(), ErrEmptyTopic)
}

func TestNewPublisherFromEnv_DefaultsToNop(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("KAFKA_BROKERS", "")

	p, err := NewPublisherFromEnv()
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishImpact(context.Background(), ImpactUpserted{}))
	assert.NoError(t, p.Close())
}

func TestNewPublisherFromEnv_Kafka(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	p, err := NewPublisherFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestImpactUpserted_JSON(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	runID := uuid.New()
	inst := "inst-1"

	event := NewImpactUpserted(runID, "case-1", &inst, true)
	assert.NotEqual(t, uuid.Nil, event.EventID)
	assert.Equal(t, EventImpactUpserted, event.Type)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "case-1", decoded["case_id"])
	assert.Equal(t, runID.String(), decoded["run_id"])
	assert.Equal(t, "inst-1", decoded["institution_uuid"])
	assert.Equal(t, true, decoded["inserted"])

	withoutInst, err := json.Marshal(NewImpactUpserted(runID, "case-2", nil, false))
	require.NoError(t, err)
	assert.NotContains(t, string(withoutInst), "institution_uuid")
}
