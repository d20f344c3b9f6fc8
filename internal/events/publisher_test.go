package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "tributo/pkg/domain"
)

// fakeProducer resolves promises synchronously with a configurable error.
type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func TestPublishStatusChange(t *testing.T) {
	producer := &fakeProducer{}
	p := NewPublisher(producer, "tributo.document.status", slog.New(slog.DiscardHandler))

	orgID := id.NewOrgID()
	p.PublishStatusChange(context.Background(), orgID, "clave-123", id.StatusAccepted, `{"ind-estado":"aceptado"}`)

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "tributo.document.status", record.Topic)
	assert.Equal(t, "clave-123", string(record.Key), "events are keyed by clave for per-document ordering")

	var event StatusEvent
	require.NoError(t, json.Unmarshal(record.Value, &event))
	assert.Equal(t, orgID.String(), event.OrgID)
	assert.Equal(t, id.StatusAccepted, event.Status)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestPublishStatusChange_CircuitOpensAfterFailures(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	p := NewPublisher(producer, "topic", slog.New(slog.DiscardHandler))

	for i := 0; i < 5; i++ {
		p.PublishStatusChange(context.Background(), id.NewOrgID(), "clave", id.StatusRejected, "")
	}
	require.True(t, p.breaker.IsOpen(), "five consecutive failures must open the circuit")

	// Open circuit drops events without touching the producer.
	before := len(producer.records)
	p.PublishStatusChange(context.Background(), id.NewOrgID(), "clave", id.StatusRejected, "")
	assert.Equal(t, before, len(producer.records))
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("closes again after cooldown", func(t *testing.T) {
		cb := NewCircuitBreaker(2, 10*time.Millisecond)

		cb.RecordFailure()
		cb.RecordFailure()
		require.True(t, cb.IsOpen())
		require.False(t, cb.Allow())

		time.Sleep(20 * time.Millisecond)
		assert.True(t, cb.Allow(), "cooldown expiry must half-open the circuit")
	})

	t.Run("success resets the failure streak", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)

		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()
		assert.False(t, cb.IsOpen())
	})
}
