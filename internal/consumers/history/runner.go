package history

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/logger"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
)

type eventProcessor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Runner pulls domain events off the shared subscription, decodes the
// envelope, and hands each event to the history consumer. Malformed
// messages are acked so they do not block the subscription; processing
// failures are nacked for redelivery.
type Runner struct {
	subscription *pubsub.Subscriber
	processor    eventProcessor
	logg         *logger.Logger
}

// NewRunner wires the runner to the provided subscription.
func NewRunner(subscription *pubsub.Subscriber, processor eventProcessor, logg *logger.Logger) (*Runner, error) {
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if processor == nil {
		return nil, errors.New("event processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Runner{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (r *Runner) Run(ctx context.Context) error {
	return r.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := r.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (r *Runner) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
		"event_id":   msg.Attributes["event_id"],
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		r.logg.Warn(logCtx, "message carries unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		r.logg.Error(logCtx, "failed to decode event envelope", err)
		return processResult{ack: true}
	}

	if err := r.processor.Process(logCtx, eventType, envelope); err != nil {
		r.logg.Error(logCtx, "failed to process domain event", err)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}
