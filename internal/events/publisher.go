// Package events streams document status changes to Kafka as a durable
// side-channel next to the single-attempt webhook dispatcher. Publishing is
// fire-and-forget behind a circuit breaker: a broker outage drops events, it
// never stalls or fails the emission path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	id "tributo/pkg/domain"
)

// StatusEvent is one lifecycle transition on the stream. Keyed by clave so
// per-document ordering survives partitioning.
type StatusEvent struct {
	ID               string            `json:"id"`
	OrgID            string            `json:"org_id"`
	Clave            string            `json:"clave"`
	Status           id.DocumentStatus `json:"status"`
	HaciendaResponse string            `json:"hacienda_response,omitempty"`
	OccurredAt       time.Time         `json:"occurred_at"`
}

// Producer is the slice of *kgo.Client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

type Publisher struct {
	producer Producer
	topic    string
	breaker  *CircuitBreaker
	logger   *slog.Logger
}

func NewPublisher(producer Producer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  NewCircuitBreaker(5, time.Minute),
		logger:   logger,
	}
}

// PublishStatusChange enqueues one status event. Never returns an error:
// marshal failures and broker errors are logged, counted against the
// breaker, and dropped.
func (p *Publisher) PublishStatusChange(ctx context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, rawResponse string) {
	if !p.breaker.Allow() {
		p.logger.Warn("status event dropped, stream circuit open", "clave", clave)
		return
	}

	event := StatusEvent{
		ID:               uuid.NewString(),
		OrgID:            orgID.String(),
		Clave:            clave,
		Status:           status,
		HaciendaResponse: rawResponse,
		OccurredAt:       time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("status event marshal failed", "clave", clave, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(clave),
		Value: value,
	}

	p.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.breaker.RecordFailure()
			p.logger.Warn("status event produce failed", "clave", clave, "error", err)
			return
		}
		p.breaker.RecordSuccess()
	})
}
